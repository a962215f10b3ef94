package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ascbridge/internal/config"
	"ascbridge/internal/ipc"
)

func newParamsCommand(ctx *commandContext) *cobra.Command {
	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "Show or change the connection parameters",
	}
	paramsCmd.AddCommand(newParamsShowCommand(ctx))
	paramsCmd.AddCommand(newParamsSetCommand(ctx))
	return paramsCmd
}

func newParamsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the connection parameters in effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Params()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Params)
				}
				fmt.Fprintln(cmd.OutOrStdout(), paramsTable(resp.Params))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print parameters as JSON")
	return cmd
}

func newParamsSetCommand(ctx *commandContext) *cobra.Command {
	var params config.ConnectionParams
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the connection parameters; a running connection is restarted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				current, err := client.Params()
				if err != nil {
					return err
				}
				merged := mergeParams(current.Params, params, cmd)
				resp, err := client.SetParams(merged)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Parameters updated; connection %s\n", resp.State)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&params.Type, "type", "", "Link type: serial, ethernet, or test")
	flags.StringVar(&params.Serial.Port, "serial-port", "", "Serial device")
	flags.IntVar(&params.Serial.BaudRate, "baud", 0, "Serial baud rate")
	flags.StringVar(&params.Ethernet.Host, "host", "", "Ethernet host")
	flags.IntVar(&params.Ethernet.Port, "port", 0, "Ethernet port")
	return cmd
}

// mergeParams overlays only the flags the user set onto current.
func mergeParams(current, flags config.ConnectionParams, cmd *cobra.Command) config.ConnectionParams {
	changed := cmd.Flags().Changed
	if changed("type") {
		current.Type = flags.Type
	}
	if changed("serial-port") {
		current.Serial.Port = flags.Serial.Port
	}
	if changed("baud") {
		current.Serial.BaudRate = flags.Serial.BaudRate
	}
	if changed("host") {
		current.Ethernet.Host = flags.Ethernet.Host
	}
	if changed("port") {
		current.Ethernet.Port = flags.Ethernet.Port
	}
	return current
}

func paramsTable(p config.ConnectionParams) string {
	rows := [][]string{
		{"type", p.Type},
		{"serial.port", p.Serial.Port},
		{"serial.baud_rate", strconv.Itoa(p.Serial.BaudRate)},
		{"ethernet.host", p.Ethernet.Host},
		{"ethernet.port", strconv.Itoa(p.Ethernet.Port)},
	}
	return renderTable([]string{"Parameter", "Value"}, rows, nil)
}
