package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/videoquest/videoquest/internal/activity"
	"github.com/videoquest/videoquest/internal/export"
	"github.com/videoquest/videoquest/internal/id"
	"github.com/videoquest/videoquest/internal/ledger"
	"github.com/videoquest/videoquest/internal/report"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balances, rank and goal progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				snap, err := a.engine.Snapshot()
				if err != nil {
					return err
				}
				stats := ledger.Summarize(snap, a.cfg.Basis(), a.cfg.Levels)
				out := cmd.OutOrStdout()
				if err := report.Status(out, a.cfg.Currency.Symbol, stats); err != nil {
					return err
				}
				if stats.LastJob != nil {
					j := stats.LastJob
					fmt.Fprintf(out, "Last job:   %s for %s, %s\n", j.Title, j.ClientName, report.Money(a.cfg.Currency.Symbol, j.Amount))
				}
				return nil
			})
		},
	}
}

func newClientsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List clients with lifetime and pending totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				jobs, err := a.engine.Jobs()
				if err != nil {
					return err
				}
				return report.Clients(cmd.OutOrStdout(), a.cfg.Currency.Symbol, ledger.PerClientSummary(jobs))
			})
		},
	}
}

func newStatementCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "statement <client>",
		Short: "Print a client's account statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				jobs, err := a.engine.Jobs()
				if err != nil {
					return err
				}
				summary, ok := ledger.PerClientSummary(jobs).Get(args[0])
				if !ok {
					summary = ledger.ClientSummary{Name: args[0]}
				}
				return report.Statement(cmd.OutOrStdout(), a.cfg.Currency.Symbol, summary, timeNow())
			})
		},
	}
}

func newHistoryCommand() *cobra.Command {
	var withdrawals bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List jobs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				snap, err := a.engine.Snapshot()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if withdrawals {
					if len(snap.Withdrawals) == 0 {
						fmt.Fprintln(out, "No withdrawals yet.")
						return nil
					}
					return report.Withdrawals(out, a.cfg.Currency.Symbol, snap.Withdrawals)
				}
				if len(snap.Jobs) == 0 {
					fmt.Fprintln(out, "No jobs yet.")
					return nil
				}
				return report.Jobs(out, a.cfg.Currency.Symbol, snap.Jobs)
			})
		},
	}

	cmd.Flags().BoolVar(&withdrawals, "withdrawals", false, "list withdrawals instead of jobs")
	return cmd
}

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [directory]",
		Short: "Write jobs.csv and withdrawals.csv",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				target := filepath.Join(a.dir, "exports")
				if len(args) == 1 {
					target = args[0]
				}
				snap, err := a.engine.Snapshot()
				if err != nil {
					return err
				}
				paths, err := export.Dir(target, snap.Jobs, snap.Withdrawals)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
				}
				return nil
			})
		},
	}
}

func newActivityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show the log of ledger changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dataDir(cmd)
			if err != nil {
				return err
			}
			entries, err := activity.Read(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				ref := id.Short(e.RefID)
				if e.CommitHash != "" {
					ref += " @" + e.CommitHash
				}
				fmt.Fprintf(out, "%s  %-10s %s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action, e.Details, ref)
			}
			return nil
		},
	}
}
