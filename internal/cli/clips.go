package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forPelevin/viralcut/internal/ports/adapters/sqlitestore"
)

func newClipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "clips",
		Short:        "List published clips, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runClips,
	}
	cmd.Flags().Int("limit", 20, "Maximum rows (0 = all)")
	return cmd
}

func runClips(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := sqlitestore.Open(cfg.Store.Database, cfg.Store.LibraryDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSCORE\tSPAN\tTITLE\tURL")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%d\t%.1fs-%.1fs\t%s\t%s\n",
			c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Score, c.Start.Seconds(), c.End.Seconds(), c.Title, c.URL)
	}
	return w.Flush()
}
