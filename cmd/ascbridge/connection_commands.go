package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ascbridge/internal/ipc"
)

func newConnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Launch the peer and open the pipe connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Connect()
				if err != nil {
					return err
				}
				printSession(cmd, resp.State, resp.SessionID)
				return nil
			})
		},
	}
}

func newDisconnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Close the pipe connection and stop the peer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Disconnect()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Connection %s\n", resp.State)
				return nil
			})
		},
	}
}

// Restart while disconnected is a no-op on the daemon side; the printed state
// shows which case applied.
func newRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Close and reopen a running connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Restart()
				if err != nil {
					return err
				}
				printSession(cmd, resp.State, resp.SessionID)
				return nil
			})
		},
	}
}

func printSession(cmd *cobra.Command, state, sessionID string) {
	if sessionID == "" {
		sessionID = "none"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connection %s (session %s)\n", state, sessionID)
}
