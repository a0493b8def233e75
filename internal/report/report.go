// Package report renders ledger data as plain text.
package report

import (
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/videoquest/videoquest/internal/id"
	"github.com/videoquest/videoquest/internal/ledger"
	"github.com/videoquest/videoquest/internal/model"
)

// Money formats an amount with thousands separators and at most two
// decimals, e.g. "$1,300" or "$250.5". Negative amounts read "-$50".
func Money(symbol string, d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		n = big.NewInt(0)
	}
	out := sign + symbol + humanize.BigComma(n)
	if frac = strings.TrimRight(frac, "0"); frac != "" {
		out += "." + frac
	}
	return out
}

// Statement writes the account statement for one client: pending jobs,
// newest first, and the total owed.
func Statement(w io.Writer, symbol string, summary ledger.ClientSummary, today time.Time) error {
	pending := make([]model.Job, 0, len(summary.Jobs))
	for _, j := range summary.Jobs {
		if j.Status == model.StatusPending {
			pending = append(pending, j)
		}
	}
	sort.SliceStable(pending, func(a, b int) bool {
		return pending[a].CreatedAt.After(pending[b].CreatedAt)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "ACCOUNT STATEMENT - %s\n", strings.ToUpper(summary.Name))
	fmt.Fprintf(&b, "Date: %s\n\n", today.Format(model.DateFormat))

	if len(pending) == 0 {
		b.WriteString("All settled. Nothing pending.\n")
	} else {
		b.WriteString("PENDING PAYMENT:\n")
		for _, j := range pending {
			fmt.Fprintf(&b, "- %s (%s) - %s\n", j.Title, j.Kind.Label(), Money(symbol, j.Amount))
		}
		fmt.Fprintf(&b, "\nTOTAL DUE: %s\n", Money(symbol, summary.PendingAmount))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Status writes the dashboard overview.
func Status(w io.Writer, symbol string, s ledger.Stats) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Rank:       %s (level %d)\n", s.Rank.Label, s.Rank.Level)
	fmt.Fprintf(&b, "Score:      %s\n", Money(symbol, s.Score))
	fmt.Fprintf(&b, "Paid:       %s\n", Money(symbol, s.Paid))
	fmt.Fprintf(&b, "Pending:    %s\n", Money(symbol, s.Pending))
	fmt.Fprintf(&b, "Withdrawn:  %s\n", Money(symbol, s.Withdrawn))
	fmt.Fprintf(&b, "Lifetime:   %s\n", Money(symbol, s.Lifetime))
	fmt.Fprintf(&b, "Goal:       %s (%s) %s%% %s\n",
		Money(symbol, decimal.NewFromInt(s.Goal)), s.Basis, s.Progress.StringFixed(0), ProgressBar(s.Progress, 20))
	if s.GoalReached {
		b.WriteString("GOAL REACHED!\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ProgressBar draws pct (0-100) as a fixed-width bar.
func ProgressBar(pct decimal.Decimal, width int) string {
	filled := int(pct.Mul(decimal.NewFromInt(int64(width))).Div(decimal.NewFromInt(100)).IntPart())
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// Clients writes one line per client summary.
func Clients(w io.Writer, symbol string, sums ledger.ClientSummaries) error {
	if len(sums) == 0 {
		_, err := io.WriteString(w, "No clients yet.\n")
		return err
	}
	var b strings.Builder
	for _, c := range sums {
		fmt.Fprintf(&b, "%-20s %3d jobs  lifetime %-12s pending %s\n",
			c.Name, c.Count, Money(symbol, c.LifetimeTotal), Money(symbol, c.PendingAmount))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Jobs writes a history line per job.
func Jobs(w io.Writer, symbol string, jobs []model.Job) error {
	var b strings.Builder
	for _, j := range jobs {
		state := string(j.Status)
		if j.Withdrawn {
			state = "withdrawn"
		}
		fmt.Fprintf(&b, "%s  %s  %-9s %-16s %-24s %s\n",
			id.Short(j.ID), j.Date, state, j.ClientName, j.Title, Money(symbol, j.Amount))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Withdrawals writes a history line per withdrawal.
func Withdrawals(w io.Writer, symbol string, ws []model.Withdrawal) error {
	var b strings.Builder
	for _, wd := range ws {
		fmt.Fprintf(&b, "%s  %s  %-16s %s\n", id.Short(wd.ID), wd.Date, wd.PeriodLabel, Money(symbol, wd.Amount))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
