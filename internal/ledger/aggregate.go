package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/videoquest/videoquest/internal/model"
)

var hundred = decimal.NewFromInt(100)

// PaidBalance sums jobs that are paid and not yet withdrawn: the liquid money.
func PaidBalance(jobs []model.Job) decimal.Decimal {
	total := decimal.Zero
	for _, j := range jobs {
		if j.Sweepable() {
			total = total.Add(j.Amount)
		}
	}
	return total
}

// PendingBalance sums jobs still owed by clients.
func PendingBalance(jobs []model.Job) decimal.Decimal {
	total := decimal.Zero
	for _, j := range jobs {
		if j.Status == model.StatusPending {
			total = total.Add(j.Amount)
		}
	}
	return total
}

// TotalScore is the combined pending and paid amount. Paid jobs count whether
// or not they were withdrawn, so a withdrawal leaves the score unchanged.
func TotalScore(jobs []model.Job) decimal.Decimal {
	total := decimal.Zero
	for _, j := range jobs {
		if j.Status == model.StatusPaid || j.Status == model.StatusPending {
			total = total.Add(j.Amount)
		}
	}
	return total
}

// LifetimeEarnings sums every job regardless of status.
func LifetimeEarnings(jobs []model.Job) decimal.Decimal {
	total := decimal.Zero
	for _, j := range jobs {
		total = total.Add(j.Amount)
	}
	return total
}

// WithdrawnTotal sums all withdrawal records.
func WithdrawnTotal(withdrawals []model.Withdrawal) decimal.Decimal {
	total := decimal.Zero
	for _, w := range withdrawals {
		total = total.Add(w.Amount)
	}
	return total
}

// ProgressBasis selects which amount goal progress is measured against.
type ProgressBasis string

const (
	// BasisPending measures progress by money still owed.
	BasisPending ProgressBasis = "pending"
	// BasisScore measures progress by pending + paid.
	BasisScore ProgressBasis = "score"
)

// ParseProgressBasis validates a configured basis. Empty means pending.
func ParseProgressBasis(s string) (ProgressBasis, error) {
	switch ProgressBasis(s) {
	case "", BasisPending:
		return BasisPending, nil
	case BasisScore:
		return BasisScore, nil
	default:
		return "", fmt.Errorf("unknown progress basis %q (want %q or %q)", s, BasisPending, BasisScore)
	}
}

// ProgressAmount returns the amount basis measures for jobs.
func ProgressAmount(basis ProgressBasis, jobs []model.Job) decimal.Decimal {
	if basis == BasisScore {
		return TotalScore(jobs)
	}
	return PendingBalance(jobs)
}

// GoalProgress returns amount as a percentage of target, clamped to [0, 100].
// A non-positive target yields 0.
func GoalProgress(amount decimal.Decimal, target int64) decimal.Decimal {
	if target <= 0 {
		return decimal.Zero
	}
	pct := amount.Div(decimal.NewFromInt(target)).Mul(hundred)
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// GoalReached reports whether amount has met a positive target.
func GoalReached(amount decimal.Decimal, target int64) bool {
	return target > 0 && amount.GreaterThanOrEqual(decimal.NewFromInt(target))
}

// ClientSummary aggregates the jobs of one client.
type ClientSummary struct {
	Name          string
	LifetimeTotal decimal.Decimal
	PendingAmount decimal.Decimal
	Count         int
	// Jobs keeps the order of the input slice.
	Jobs []model.Job
}

// ClientSummaries is ordered by the first appearance of each client.
type ClientSummaries []ClientSummary

// Get returns the summary for an exact client name.
func (cs ClientSummaries) Get(name string) (ClientSummary, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return ClientSummary{}, false
}

// PerClientSummary groups jobs by exact client name.
func PerClientSummary(jobs []model.Job) ClientSummaries {
	index := make(map[string]int)
	var out ClientSummaries
	for _, j := range jobs {
		i, seen := index[j.ClientName]
		if !seen {
			i = len(out)
			index[j.ClientName] = i
			out = append(out, ClientSummary{
				Name:          j.ClientName,
				LifetimeTotal: decimal.Zero,
				PendingAmount: decimal.Zero,
			})
		}
		c := &out[i]
		c.LifetimeTotal = c.LifetimeTotal.Add(j.Amount)
		if j.Status == model.StatusPending {
			c.PendingAmount = c.PendingAmount.Add(j.Amount)
		}
		c.Count++
		c.Jobs = append(c.Jobs, j)
	}
	return out
}
