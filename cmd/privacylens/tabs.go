package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/database"
	"github.com/nao1215/privacylens/internal/model"
)

// NewTabsCmd creates the tabs command.
func NewTabsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "List the tab reports kept by the SQLite store",
		Long: `Tabs lists the reports the native messaging host keeps in its SQLite store
(privacylens host --store sqlite), one line per browser tab.

Examples:
  privacylens tabs
  privacylens tabs --db-dir /tmp/privacylens`,
		Args: cobra.NoArgs,
		RunE: runTabsCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite store (default: XDG data directory)")

	return cmd
}

// runTabsCmd executes the tabs command.
func runTabsCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DatabaseDir(), opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tabs, err := db.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tabs) == 0 {
		fmt.Fprintln(out, "No tab reports stored.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAB\tSCORE\tGRADE\tANALYZED\tURL")
	for _, tab := range tabs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			tab.TabID,
			tab.Score,
			model.GradeFor(tab.Score),
			tab.AnalyzedAt.Local().Format("2006-01-02 15:04:05"),
			tab.URL,
		)
	}
	return tw.Flush()
}
