// Command regwatch is the batch CLI: seed sample extracts, ingest raw
// files, run detection, rebuild summaries and enrich companies.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbDisabled bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "regwatch",
		Short: "Company registry snapshot monitoring",
		Long: "regwatch ingests registry extracts, normalizes them into daily " +
			"snapshots and detects incorporations, deregistrations and field changes between them.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVar(&dbDisabled, "no-db", false, "skip the database, work on file artifacts only")

	rootCmd.AddCommand(
		ingestCmd(),
		detectCmd(),
		summarizeCmd(),
		enrichCmd(),
		seedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
