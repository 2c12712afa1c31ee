package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/logging"
	"github.com/tallyhq/tally/internal/store"
)

var (
	resetYes     bool
	resetDataDir string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the persisted per-site counters",
	Long: `Clears the persisted stats file, keeping a backup of the previous
version next to it. Requires --yes; a running server keeps its in-memory
state, so prefer the admin API while the server is up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to clear stats without --yes")
		}

		cfg, err := config.LoadWithOverrides("", resetDataDir)
		if err != nil {
			return err
		}

		persister := store.NewFileStore(afero.NewOsFs(), cfg.StatsFile(), logging.L())
		if err := persister.Save(map[string]*store.SiteStats{}); err != nil {
			return fmt.Errorf("clear stats file: %w", err)
		}

		fmt.Printf("Cleared %s (previous version kept at %s)\n",
			cfg.StatsFile(), persister.BackupPath())
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm clearing all counters")
	resetCmd.Flags().StringVar(&resetDataDir, "data-dir", "", "data directory (overrides config)")
}
