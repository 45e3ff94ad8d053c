package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageaudit/internal/config"
	"github.com/nao1215/pageaudit/internal/report"
	"github.com/nao1215/pageaudit/internal/store"
)

// errRecordRequired is returned when report is called without a record id.
var errRecordRequired = errors.New("record id is required (use --list to see stored records)")

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [record-id]",
		Short: "Print the report of a stored record",
		Long: `Report derives the composite report of a record from the database: a score
and progress per category plus every issue found so far.

Examples:
  # List stored records
  pageaudit report --list

  # Print a record's report as Markdown
  pageaudit report --markdown 6f1c2a4e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReportCmd,
	}

	addOutputFlags(cmd)
	cmd.Flags().BoolP("list", "L", false, "List stored records")

	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return err
	}
	if err := readOutputFlags(cmd, cfg); err != nil {
		return err
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	if !list && len(args) == 0 {
		return errRecordRequired
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}

	st, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	ctx := commandContext(cmd)
	if list {
		return listRecords(ctx, cmd.OutOrStdout(), st)
	}
	return printReport(ctx, cmd.OutOrStdout(), cfg, st, args[0])
}

func printReport(ctx context.Context, stdout io.Writer, cfg *config.Config, st *store.Store, recordID string) error {
	composite, err := storedReport(ctx, cfg, st, recordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("record %s: %w", recordID, err)
		}
		return err
	}

	output, closeOutput, err := openOutput(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // report errors surface through Write

	writer, err := report.New(reportFormat(cfg), output)
	if err != nil {
		return err
	}
	_, err = writer.Write(composite)
	return err
}

func listRecords(ctx context.Context, stdout io.Writer, st *store.Store) error {
	records, err := st.ListRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(stdout, "No records found.")
		return nil
	}

	fmt.Fprintf(stdout, "%-36s  %-20s  %6s  %s\n", "RECORD", "UPDATED", "CHECKS", "URL")
	for _, r := range records {
		fmt.Fprintf(stdout, "%-36s  %-20s  %6d  %s\n",
			r.ID,
			r.UpdatedAt.Format("2006-01-02 15:04:05"),
			r.Completed,
			r.URL,
		)
	}
	return nil
}
