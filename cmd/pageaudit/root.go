package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageaudit/internal/config"
)

// NewRootCmd creates the root command for pageaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pageaudit",
		Short: "Audit web pages for accessibility and content quality",
		Long: `pageaudit captures a web page and runs a fixed set of independent checks
against it: links, headings, tables, forms, language, text spacing, images
and more. Results are stored in a local SQLite database and summarized as a
score and progress per category.

Runs can be started from the command line, from a Redis queue (worker) or
from an HTTP push endpoint (serve).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .pageaudit in current or home directory)")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(), "Directory of the SQLite database")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
