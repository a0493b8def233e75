package commands

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/videoquest/videoquest/internal/activity"
	"github.com/videoquest/videoquest/internal/ledger"
	"github.com/videoquest/videoquest/internal/report"
)

func newWithdrawCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw",
		Short: "Cash out the full available (paid) balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				res, err := a.engine.PerformWithdrawal()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.Withdrawal == nil {
					fmt.Fprintln(out, "Nothing to withdraw: available balance is zero.")
					return nil
				}
				w := res.Withdrawal
				money := report.Money(a.cfg.Currency.Symbol, w.Amount)
				fmt.Fprintf(out, "Withdrew %s (%s).\n", money, w.PeriodLabel)
				return a.record(activity.ActionWithdraw, fmt.Sprintf("%s, %s", money, w.PeriodLabel), w.ID)
			})
		},
	}
}

func newGoalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "goal [amount]",
		Short: "Show or set the monthly goal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				out := cmd.OutOrStdout()
				symbol := a.cfg.Currency.Symbol

				if len(args) == 1 {
					target, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return fmt.Errorf("parsing goal %q: %w", args[0], err)
					}
					goal, changed, err := a.engine.SetGoal(target)
					if err != nil {
						return err
					}
					if !changed {
						fmt.Fprintf(out, "Goal unchanged at %s.\n", report.Money(symbol, decimal.NewFromInt(goal)))
						return nil
					}
					fmt.Fprintf(out, "Goal set to %s.\n", report.Money(symbol, decimal.NewFromInt(goal)))
					if err := a.record(activity.ActionGoal, strconv.FormatInt(goal, 10), ""); err != nil {
						return err
					}
				}

				snap, err := a.engine.Snapshot()
				if err != nil {
					return err
				}
				basis := a.cfg.Basis()
				amount := ledger.ProgressAmount(basis, snap.Jobs)
				pct := ledger.GoalProgress(amount, snap.Goal)
				fmt.Fprintf(out, "%s of %s (%s) %s%% %s\n",
					report.Money(symbol, amount), report.Money(symbol, decimal.NewFromInt(snap.Goal)),
					basis, pct.StringFixed(0), report.ProgressBar(pct, 20))
				if ledger.GoalReached(amount, snap.Goal) {
					fmt.Fprintln(out, "GOAL REACHED!")
				}
				return nil
			})
		},
	}
}
