package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/videoquest/videoquest/internal/activity"
	"github.com/videoquest/videoquest/internal/id"
	"github.com/videoquest/videoquest/internal/ledger"
	"github.com/videoquest/videoquest/internal/model"
	"github.com/videoquest/videoquest/internal/report"
)

func newAddCommand() *cobra.Command {
	var client, kind, title, amount, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new pending job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				params, err := a.addParams(client, kind, title, amount, date)
				if err != nil {
					return err
				}

				jobs, added, err := a.engine.AddJob(params)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !added {
					fmt.Fprintln(out, "Nothing added: client name is empty.")
					return nil
				}

				job := jobs[0]
				money := report.Money(a.cfg.Currency.Symbol, job.Amount)
				fmt.Fprintf(out, "Added %s: %s for %s, %s (pending)\n", id.Short(job.ID), job.Title, job.ClientName, money)
				return a.record(activity.ActionAddJob, fmt.Sprintf("%s: %s, %s", job.ClientName, job.Title, money), job.ID)
			})
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "client name (required)")
	_ = cmd.MarkFlagRequired("client")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindShort), "job kind: short, long or custom")
	cmd.Flags().StringVar(&title, "title", "", `job title (default "<Kind> Project")`)
	cmd.Flags().StringVar(&amount, "amount", "", "amount (default: the client's price for the kind)")
	cmd.Flags().StringVar(&date, "date", "", "job date YYYY-MM-DD (default today)")

	return cmd
}

// addParams turns add flags into engine params, filling prices and titles.
func (a *app) addParams(client, kindFlag, title, amountFlag, dateFlag string) (ledger.AddJobParams, error) {
	kind := model.JobKind(strings.ToLower(strings.TrimSpace(kindFlag)))
	if !kind.Valid() {
		return ledger.AddJobParams{}, fmt.Errorf("unknown job kind %q: must be short, long or custom", kindFlag)
	}

	var amount decimal.Decimal
	if amountFlag != "" {
		var err error
		amount, err = decimal.NewFromString(amountFlag)
		if err != nil {
			return ledger.AddJobParams{}, fmt.Errorf("parsing amount %q: %w", amountFlag, err)
		}
		if amount.IsNegative() {
			return ledger.AddJobParams{}, fmt.Errorf("amount %s must not be negative", amountFlag)
		}
	} else {
		price, ok := a.cfg.PriceFor(client, kind)
		if !ok {
			return ledger.AddJobParams{}, fmt.Errorf("--amount is required for %s jobs", kind)
		}
		amount = price
	}

	if strings.TrimSpace(title) == "" {
		title = kind.Label() + " Project"
	}

	params := ledger.AddJobParams{
		ClientName: client,
		Title:      title,
		Kind:       kind,
		Amount:     amount,
	}
	if dateFlag != "" {
		d, err := model.ParseDate(dateFlag)
		if err != nil {
			return ledger.AddJobParams{}, err
		}
		params.Date = d
	}
	return params, nil
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				jobs, err := a.engine.Jobs()
				if err != nil {
					return err
				}
				jobID, err := resolveJobID(jobs, args[0])
				if err != nil {
					return err
				}

				_, removed, err := a.engine.DeleteJob(jobID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !removed {
					fmt.Fprintf(out, "No job with id %s.\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Deleted job %s.\n", id.Short(jobID))
				return a.record(activity.ActionDelete, id.Short(jobID), jobID)
			})
		},
	}
}

// resolveJobID expands a short id prefix to a full job id. Unknown prefixes
// are returned unchanged so the delete stays a no-op.
func resolveJobID(jobs []model.Job, prefix string) (string, error) {
	if strings.TrimSpace(prefix) == "" {
		return "", fmt.Errorf("job id must not be empty")
	}
	var matches []string
	for _, j := range jobs {
		if j.ID == prefix {
			return j.ID, nil
		}
		if strings.HasPrefix(j.ID, prefix) {
			matches = append(matches, j.ID)
		}
	}
	switch len(matches) {
	case 0:
		return prefix, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("job id prefix %q is ambiguous: matches %d jobs", prefix, len(matches))
	}
}

func newPayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <client>",
		Short: "Mark every pending job of a client as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				client := args[0]
				_, changed, err := a.engine.MarkClientJobsAsPaid(client)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if changed == 0 {
					fmt.Fprintf(out, "No pending jobs for %s.\n", client)
					return nil
				}
				noun := english.PluralWord(changed, "job", "")
				fmt.Fprintf(out, "Marked %d %s paid for %s.\n", changed, noun, client)
				return a.record(activity.ActionPay, fmt.Sprintf("%s: %d %s", client, changed, noun), "")
			})
		},
	}
}
