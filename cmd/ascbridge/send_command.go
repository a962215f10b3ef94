package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ascbridge/internal/ipc"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var argPairs []string
	var argsJSON string
	var wait time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "send TYPE NAME METHOD",
		Short: "Queue a request for the peer and optionally wait for its answer",
		Example: `  ascbridge send Scope n1 setup --arg Values='["s1","s2"]' --arg PreTrigger=0.5 --arg PostTrigger=0.5 --wait 2s
  ascbridge send Scope n1 request --wait 2s`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments, err := parseArguments(argsJSON, argPairs)
			if err != nil {
				return err
			}
			req := ipc.SendRequest{
				Type:       args[0],
				Name:       args[1],
				Method:     args[2],
				Arguments:  arguments,
				WaitMillis: wait.Milliseconds(),
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Send(req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued: %s\n", resp.Key)
				switch {
				case resp.Answered:
					fmt.Fprintf(out, "Answer: %s\n", resp.Value)
				case wait > 0:
					fmt.Fprintf(out, "No answer within %s\n", wait)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&argPairs, "arg", nil, "Request argument as key=value; the value is parsed as JSON when possible")
	cmd.Flags().StringVar(&argsJSON, "args-json", "", "Request arguments as a JSON object")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait this long for the matching answer")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// parseArguments merges --args-json with --arg pairs; pairs win on conflict.
func parseArguments(argsJSON string, pairs []string) (map[string]any, error) {
	arguments := map[string]any{}
	if trimmed := strings.TrimSpace(argsJSON); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &arguments); err != nil {
			return nil, fmt.Errorf("--args-json: %w", err)
		}
	}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--arg %q: expected key=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		arguments[key] = value
	}
	if len(arguments) == 0 {
		return nil, nil
	}
	return arguments, nil
}
