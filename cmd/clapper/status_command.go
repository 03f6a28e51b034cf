package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"clapper/internal/api"
	"clapper/internal/daemonctl"
	"clapper/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, readiness, and submission status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.configValue())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			renderStatus(cmd.OutOrStdout(), status, colorEnabled(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderStatus(out io.Writer, status *api.DaemonStatus, colorize bool) {
	fmt.Fprintln(out, sectionHeader("Daemon", colorize))
	if status.Running {
		detail := "Running"
		if status.PID > 0 {
			detail = fmt.Sprintf("Running (pid %d)", status.PID)
		}
		fmt.Fprintln(out, statusLine("Clapper", levelOK, detail, colorize))
	} else {
		fmt.Fprintln(out, statusLine("Clapper", levelWarn, "Not running (run `clapper daemon start`)", colorize))
	}
	if status.RelayReady {
		fmt.Fprintln(out, statusLine("Contact relay", levelOK, "SMTP configured", colorize))
	} else {
		fmt.Fprintln(out, statusLine("Contact relay", levelFail, "SMTP not configured", colorize))
	}
	if status.StartedAt != "" {
		fmt.Fprintln(out, statusLine("Started", levelInfo, status.StartedAt, colorize))
	}
	fmt.Fprintln(out, statusLine("Database", levelInfo, status.DatabasePath, colorize))
	fmt.Fprintln(out)

	fmt.Fprintln(out, sectionHeader("Readiness", colorize))
	if len(status.Checks) == 0 {
		fmt.Fprintln(out, statusLine("Checks", levelInfo, "none reported", colorize))
	}
	for _, check := range status.Checks {
		fmt.Fprintln(out, statusLine(check.Name, checkLevel(check.Passed), check.Detail, colorize))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, sectionHeader("Submissions", colorize))
	rows := buildSubmissionStatusRows(status.SubmissionStats)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No submissions recorded")
		return
	}
	fmt.Fprint(out, renderTable([]column{col("Status"), numCol("Count")}, rows))
	fmt.Fprintln(out)
}

// buildSubmissionStatusRows lists non-zero counts in lifecycle order, with
// unknown statuses appended alphabetically.
func buildSubmissionStatusRows(stats map[string]int) [][]string {
	order := make(map[string]int)
	for i, status := range queue.AllStatuses() {
		order[string(status)] = i
	}
	keys := make([]string, 0, len(stats))
	for key, count := range stats {
		if count > 0 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, iok := order[keys[i]]
		oj, jok := order[keys[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, strconv.Itoa(stats[key])})
	}
	return rows
}
