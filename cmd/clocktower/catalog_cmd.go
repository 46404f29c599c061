package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"clocktower/internal/catalog"

	"github.com/spf13/cobra"
)

var catalogTeam string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the role catalog grouped by team",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		registry, err := catalog.NewRegistry(cfg.Catalog.Path, false)
		if err != nil {
			return fmt.Errorf("load role catalog: %w", err)
		}
		return printCatalog(cmd.OutOrStdout(), registry.Snapshot(), catalogTeam)
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogTeam, "team", "t", "", "only list one team")
}

func printCatalog(w io.Writer, snap catalog.Snapshot, only string) error {
	teams := catalog.Teams()
	if only != "" {
		team, ok := catalog.ParseTeam(only)
		if !ok {
			return fmt.Errorf("unknown team %q", only)
		}
		teams = []catalog.Team{team}
	}
	fmt.Fprintf(w, "catalog %s (v%d, %d roles)\n", snap.Source, snap.Catalog.Version(), snap.Catalog.Len())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, team := range teams {
		roles := snap.Catalog.ByTeam(team)
		if len(roles) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s (%d)\n", team.Title(), len(roles))
		for _, r := range roles {
			fmt.Fprintf(tw, "  %s\t%s\n", r.ID, r.Name)
		}
	}
	return tw.Flush()
}
