package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/videoquest/videoquest/internal/model"
)

// DefaultLevels returns the built-in rank table.
func DefaultLevels() []model.Level {
	lvl := func(n int, label string, lo, hi int64) model.Level {
		return model.Level{Level: n, Label: label, Min: decimal.NewFromInt(lo), Max: decimal.NewFromInt(hi)}
	}
	return []model.Level{
		lvl(1, "Premiere Rookie", 0, 1000),
		lvl(2, "Quick Cutter", 1000, 2500),
		lvl(3, "Keyframe Master", 2500, 5000),
		lvl(4, "Renderer", 5000, 10000),
		lvl(5, "VFX Wizard", 10000, 20000),
		lvl(6, "Chaos Director", 20000, 50000),
		lvl(7, "Legendary Editor", 50000, 100000),
		lvl(8, "After Effects God", 100000, 9999999),
	}
}

// RankForScore returns the level whose [Min, Max) holds score. Scores past
// the last level clamp to it; an empty table yields the zero Level.
func RankForScore(score decimal.Decimal, levels []model.Level) model.Level {
	if len(levels) == 0 {
		return model.Level{}
	}
	for _, l := range levels {
		if l.Contains(score) {
			return l
		}
	}
	return levels[len(levels)-1]
}

// ValidateLevels checks that levels start at 0 and are contiguous.
func ValidateLevels(levels []model.Level) error {
	if len(levels) == 0 {
		return errors.New("level table is empty")
	}
	if !levels[0].Min.IsZero() {
		return fmt.Errorf("level %d starts at %s, want 0", levels[0].Level, levels[0].Min)
	}
	for i, l := range levels {
		if !l.Max.GreaterThan(l.Min) {
			return fmt.Errorf("level %d: max %s must exceed min %s", l.Level, l.Max, l.Min)
		}
		if i > 0 && !l.Min.Equal(levels[i-1].Max) {
			return fmt.Errorf("level %d starts at %s, previous level ends at %s", l.Level, l.Min, levels[i-1].Max)
		}
	}
	return nil
}
