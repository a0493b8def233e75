package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/videoquest/videoquest/internal/coach"
	"github.com/videoquest/videoquest/internal/ledger"
)

func newCoachCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "coach",
		Short: "Get a motivational message for the current score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				snap, err := a.engine.Snapshot()
				if err != nil {
					return err
				}
				stats := ledger.Summarize(snap, a.cfg.Basis(), a.cfg.Levels)

				c := coach.NewFromConfig(a.cfg.Coach, a.log)
				msg := c.Encourage(cmd.Context(), coach.Stats{
					Score:    stats.Score,
					Currency: a.cfg.Currency.Code,
					Rank:     stats.Rank,
					LastJob:  stats.LastJob,
				})
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
}
