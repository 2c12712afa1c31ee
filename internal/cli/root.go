package cli

import (
	"github.com/spf13/cobra"
)

var Version string

// TrackerScript is the embedded browser tracker, passed from main.
var TrackerScript []byte

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Lead tracking without bloat",
	Long: `Tally - a lightweight lead-tracking analytics server.

Tally ingests visit, lead and click events from small browser trackers,
keeps per-site running counters in memory, persists them to a JSON file
with a backup sibling, and serves them back to a dashboard.`,
	Version: Version,
	// Default to serve when invoked without a subcommand
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runServe("", "")
		}
		return cmd.Help()
	},
}

// Execute is called by main
func Execute(version string, trackerScript []byte) error {
	Version = version
	TrackerScript = trackerScript
	RootCmd.Version = version

	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(healthcheckCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(resetCmd)
}
