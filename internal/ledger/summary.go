package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/videoquest/videoquest/internal/model"
)

// Stats bundles every derived figure for one snapshot. It is recomputed from
// scratch on each call.
type Stats struct {
	Paid      decimal.Decimal
	Pending   decimal.Decimal
	Score     decimal.Decimal
	Lifetime  decimal.Decimal
	Withdrawn decimal.Decimal

	Goal        int64
	Basis       ProgressBasis
	Progress    decimal.Decimal
	GoalReached bool

	Rank    model.Level
	LastJob *model.Job
}

// Summarize derives Stats from snap.
func Summarize(snap Snapshot, basis ProgressBasis, levels []model.Level) Stats {
	score := TotalScore(snap.Jobs)
	measured := ProgressAmount(basis, snap.Jobs)

	s := Stats{
		Paid:        PaidBalance(snap.Jobs),
		Pending:     PendingBalance(snap.Jobs),
		Score:       score,
		Lifetime:    LifetimeEarnings(snap.Jobs),
		Withdrawn:   WithdrawnTotal(snap.Withdrawals),
		Goal:        snap.Goal,
		Basis:       basis,
		Progress:    GoalProgress(measured, snap.Goal),
		GoalReached: GoalReached(measured, snap.Goal),
		Rank:        RankForScore(score, levels),
	}
	if len(snap.Jobs) > 0 {
		last := snap.Jobs[0]
		s.LastJob = &last
	}
	return s
}
