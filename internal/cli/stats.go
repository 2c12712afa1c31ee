package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the persisted per-site counters",
	Long:  "Reads the stats file directly and prints the per-site counters without contacting a running server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithOverrides("", statsDataDir)
		if err != nil {
			return err
		}

		persister := store.NewFileStore(afero.NewOsFs(), cfg.StatsFile(), zap.NewNop())
		sites, err := persister.Load()
		if err != nil {
			return fmt.Errorf("read stats file: %w", err)
		}

		if len(sites) == 0 {
			fmt.Println("No sites tracked yet.")
			return nil
		}

		ids := make([]string, 0, len(sites))
		for id := range sites {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SITE\tNAME\tVISITORS\tPAGE VIEWS\tLEADS\tTEST LEADS\tCONVERSIONS\tCONV RATE")
		for _, id := range ids {
			s := sites[id]
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s%%\n",
				s.SiteID, s.SiteName, s.Visitors, s.PageViews,
				s.Leads, s.TestLeads, s.Conversions, s.ConversionRate)
		}
		return w.Flush()
	},
}

var statsDataDir string

func init() {
	statsCmd.Flags().StringVar(&statsDataDir, "data-dir", "", "data directory (overrides config)")
}
