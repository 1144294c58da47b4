package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	version string
	commit  string
	date    string
)

var rootCmd = &cobra.Command{
	Use:   "logsheet [date_token] [target_token]",
	Short: "logsheet: consolidate daily CSV exports into annotated workbooks",
	Long: `logsheet copies each host's daily CSV export into its own sheet of an xlsx
workbook, highlights rows whose processing time reaches the configured
threshold or whose alert detail carries the anomaly flag, and orders sheets
so flagged ones come first and empty ones last.

date_token is YYYYMMDD or START~END (default: yesterday).
target_token is a comma separated list of folder prefixes (default: targets
from config).`,
	Args:          cobra.MaximumNArgs(2),
	RunE:          runReport,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with injected build info.
func Execute(v, c, d string) error {
	version = v
	commit = c
	date = d
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	addRunFlags(rootCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
