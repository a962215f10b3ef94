package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ascbridge/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, connection, and queue status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			client, err := ipc.Dial(ctx.socketPath())
			if err != nil {
				if asJSON {
					return writeJSON(cmd, ipc.StatusResponse{State: "unreachable"})
				}
				for _, line := range renderSectionHeader("ascbridge", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusError, "not running", colorize))
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			writeStatus(stdout, status, colorize)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func writeStatus(out io.Writer, status *ipc.StatusResponse, colorize bool) {
	for _, line := range renderSectionHeader("ascbridge", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range statusLines(status, colorize) {
		fmt.Fprintln(out, line)
	}

	if len(status.Scopes) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Scopes", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := make([][]string, 0, len(status.Scopes))
	for _, sc := range status.Scopes {
		rows = append(rows, []string{
			sc.Name,
			yesNo(sc.Armed),
			strconv.Itoa(sc.Captures),
			strconv.Itoa(sc.Resets),
			strings.Join(sc.Signals, ", "),
			strconv.Itoa(sc.Samples),
			sc.LastCapture,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Scope", "Armed", "Captures", "Resets", "Signals", "Samples", "Last capture"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
	))
}

func statusLines(status *ipc.StatusResponse, colorize bool) []string {
	daemonKind, daemonMsg := statusOK, fmt.Sprintf("running (pid %d)", status.PID)
	if !status.Running {
		daemonKind, daemonMsg = statusWarn, fmt.Sprintf("lock not held (pid %d)", status.PID)
	}

	connKind := statusWarn
	connMsg := status.State
	if status.State == "connected" {
		connKind = statusOK
		connMsg = fmt.Sprintf("connected since %s (session %s)", status.ConnectedAt, status.SessionID)
	}

	queueMsg := fmt.Sprintf("%d queued, %d unfinished", status.Queued, status.Unfinished)
	if status.QueueLocked {
		queueMsg += ", locked"
	}
	if status.Waiting > 0 {
		queueMsg += fmt.Sprintf(", %d awaiting answers", status.Waiting)
	}

	linkMsg := status.Params.Type
	switch status.Params.Type {
	case "serial":
		linkMsg = fmt.Sprintf("serial %s @ %d", status.Params.Serial.Port, status.Params.Serial.BaudRate)
	case "ethernet":
		linkMsg = fmt.Sprintf("ethernet %s:%d", status.Params.Ethernet.Host, status.Params.Ethernet.Port)
	}

	journalKind, journalMsg := statusInfo, status.JournalPath
	if journalMsg == "" {
		journalKind, journalMsg = statusWarn, "disabled"
	}

	return []string{
		renderStatusLine("Daemon", daemonKind, daemonMsg, colorize),
		renderStatusLine("Connection", connKind, connMsg, colorize),
		renderStatusLine("Queue", statusInfo, queueMsg, colorize),
		renderStatusLine("Answers", statusInfo, strconv.FormatInt(status.Answers, 10), colorize),
		renderStatusLine("Peer", statusInfo, status.PeerMode, colorize),
		renderStatusLine("Link", statusInfo, linkMsg, colorize),
		renderStatusLine("Journal", journalKind, journalMsg, colorize),
	}
}
