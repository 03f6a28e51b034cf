package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clapper/internal/api"
	"clapper/internal/contact"
	"clapper/internal/queue"
)

func newContactCommand(ctx *commandContext) *cobra.Command {
	contactCmd := &cobra.Command{
		Use:   "contact",
		Short: "Send and inspect contact form submissions",
	}
	contactCmd.AddCommand(
		newContactSendCommand(ctx),
		newContactListCommand(ctx),
		newContactShowCommand(ctx),
		newContactPurgeCommand(ctx),
	)
	return contactCmd
}

func newContactSendCommand(ctx *commandContext) *cobra.Command {
	var form contact.Form
	var endpoint string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit the contact form through the relay",
		Long:  "Submit the contact form through the relay. Use --message - to read the message from stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if form.Message == "-" {
				raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), cfg.Contact.MaxRequestBytes))
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				form.Message = string(raw)
			}
			target := strings.TrimSpace(endpoint)
			if target == "" {
				target = cfg.ContactEndpoint()
			}
			client := contact.NewClient(target, contact.WithTimeout(cfg.ClientTimeout()))
			if err := form.Submit(cmd.Context(), client); err != nil {
				return errors.New(form.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), form.Notice)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Reply-to email address")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Phone number (optional)")
	cmd.Flags().StringVar(&form.Subject, "subject", "", "Subject (optional)")
	cmd.Flags().StringVar(&form.Message, "message", "", "Message body, or - for stdin")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Relay URL (defaults to site.base_url + /api/contact)")
	return cmd
}

func newContactListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored submissions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters := make([]queue.Status, 0, len(statuses))
			for _, raw := range statuses {
				status, err := queue.ParseStatus(raw)
				if err != nil {
					return err
				}
				filters = append(filters, status)
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := api.NewSubmissionService(store).List(cmd.Context(), limit, filters...)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, items)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No submissions found")
				return nil
			}
			fmt.Fprint(out, renderTable(
				[]column{numCol("ID"), col("Status"), wideCol("Name", 24), col("Email"), wideCol("Subject", 32), col("Created")},
				submissionRows(items),
			))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (pending, sending, sent, failed)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func submissionRows(items []api.Submission) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Status,
			item.Name,
			item.Email,
			item.Subject,
			item.CreatedAt,
		})
	}
	return rows
}

func newContactShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one submission in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid submission id %q", args[0])
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			item, err := api.NewSubmissionService(store).Describe(cmd.Context(), id)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("submission %d not found", id)
			}
			if asJSON {
				return writeJSON(cmd, item)
			}
			printSubmission(cmd.OutOrStdout(), item)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printSubmission(out io.Writer, item *api.Submission) {
	fields := []struct {
		label string
		value string
	}{
		{"ID", strconv.FormatInt(item.ID, 10)},
		{"Request", item.RequestID},
		{"Status", item.Status},
		{"Attempts", strconv.Itoa(item.Attempts)},
		{"Name", item.Name},
		{"Email", item.Email},
		{"Phone", item.Phone},
		{"Subject", item.Subject},
		{"Remote", item.RemoteAddr},
		{"Created", item.CreatedAt},
		{"Updated", item.UpdatedAt},
		{"Sent", item.SentAt},
		{"Last error", item.LastError},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		fmt.Fprintf(out, "%-11s %s\n", field.label+":", field.value)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, item.Message)
}

func newContactPurgeCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete delivered submissions older than a cutoff",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan < 0 {
				return errors.New("--older-than must not be negative")
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.PurgeSent(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d delivered submission(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Only remove submissions sent before now minus this duration")
	return cmd
}

