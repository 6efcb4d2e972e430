package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) newScenariosCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenario catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := c.loadCatalog()
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			if asJSON {
				return printJSON(c.out, cat.List())
			}

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTRAIT\tDIFFICULTY\tDURATION\tDECISIONS")
			for _, s := range cat.List() {
				fmt.Fprintf(tw, "%d\t%s %s\t%s\t%s\t%ds\t%d\n",
					s.ID, s.Icon, s.Name, s.Trait, s.Difficulty, s.Duration, len(s.Decisions))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
