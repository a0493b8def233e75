package model

import "github.com/shopspring/decimal"

// Level is one row of the rank table. A score belongs to the level when
// Min <= score < Max.
type Level struct {
	Level int             `yaml:"level"`
	Label string          `yaml:"label"`
	Min   decimal.Decimal `yaml:"min"`
	Max   decimal.Decimal `yaml:"max"`
}

// Contains reports whether score falls in [Min, Max).
func (l Level) Contains(score decimal.Decimal) bool {
	return score.GreaterThanOrEqual(l.Min) && score.LessThan(l.Max)
}
