package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal is an immutable record of a cash-out. It keeps no reference to
// the jobs it swept.
type Withdrawal struct {
	ID          string
	Amount      decimal.Decimal
	Date        Date
	PeriodLabel string
	CreatedAt   time.Time
}

// PeriodLabel returns the display label for the month containing t,
// e.g. "October 2026".
func PeriodLabel(t time.Time) string {
	return t.Format("January 2006")
}

type withdrawalJSON struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	PeriodLabel string          `json:"periodLabel"`
	CreatedAt   time.Time       `json:"createdAt"`

	LegacyMonth     string `json:"month,omitempty"`
	LegacyTimestamp int64  `json:"timestamp,omitempty"`
}

// MarshalJSON writes the canonical record layout.
func (w Withdrawal) MarshalJSON() ([]byte, error) {
	return json.Marshal(withdrawalJSON{
		ID:          w.ID,
		Amount:      w.Amount,
		Date:        w.Date,
		PeriodLabel: w.PeriodLabel,
		CreatedAt:   w.CreatedAt,
	})
}

// UnmarshalJSON reads a record, accepting the older month/timestamp fields.
func (w *Withdrawal) UnmarshalJSON(data []byte) error {
	var raw withdrawalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	label := raw.PeriodLabel
	if label == "" {
		label = raw.LegacyMonth
	}
	created := raw.CreatedAt
	if created.IsZero() && raw.LegacyTimestamp > 0 {
		created = time.UnixMilli(raw.LegacyTimestamp).UTC()
	}

	*w = Withdrawal{
		ID:          raw.ID,
		Amount:      raw.Amount,
		Date:        raw.Date,
		PeriodLabel: label,
		CreatedAt:   created,
	}
	return nil
}
