package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errResetNotConfirmed is returned by reset without --yes.
var errResetNotConfirmed = errors.New("reset requires --yes")

func (c *cli) newProfileCommand() *cobra.Command {
	var (
		asJSON  bool
		history int
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the driver profile and recent results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer stopService(ctx, svc)

			if asJSON {
				return printJSON(c.out, svc.Analytics(ctx))
			}

			printProfile(c.out, svc.Profile(ctx), len(svc.Scenarios()))
			entries := svc.History(ctx)
			if history < 0 {
				history = 0
			}
			if len(entries) > history {
				entries = entries[:history]
			}
			if len(entries) > 0 {
				fmt.Fprintf(c.out, "\n%s\n", bold("Recent results:"))
			}
			for _, e := range entries {
				fmt.Fprintf(c.out, "  %s  %-28s %3d %-2s %5dms\n",
					gray(e.Timestamp.Local().Format("2006-01-02 15:04")),
					e.ScenarioName, e.Score, gradeColor(e.Grade), e.ReactionTime)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print analytics as JSON")
	cmd.Flags().IntVar(&history, "history", 5, "number of recent results to show")
	return cmd
}

func (c *cli) newResetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the driver profile and clear the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errResetNotConfirmed
			}
			ctx := cmd.Context()
			svc, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer stopService(ctx, svc)

			if err := svc.Reset(ctx); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			fmt.Fprintf(c.out, "profile of %s reset\n", svc.Profile(ctx).Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
