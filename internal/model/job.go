package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// JobStatus represents the payment state of a job.
type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusPaid    JobStatus = "paid"
)

// ParseJobStatus normalizes a stored status. Anything unrecognized,
// including the empty string, is pending.
func ParseJobStatus(s string) JobStatus {
	if JobStatus(strings.ToLower(strings.TrimSpace(s))) == StatusPaid {
		return StatusPaid
	}
	return StatusPending
}

// JobKind classifies billable work.
type JobKind string

const (
	KindShort  JobKind = "short"
	KindLong   JobKind = "long"
	KindCustom JobKind = "custom"
)

// Kinds lists every job kind in display order.
var Kinds = []JobKind{KindShort, KindLong, KindCustom}

// legacyKinds maps the display labels older data files stored as the kind.
var legacyKinds = map[string]JobKind{
	"short estandar": KindShort,
	"video largo":    KindLong,
	"personalizado":  KindCustom,
}

// ParseJobKind normalizes a stored or user-supplied kind. Unknown values
// become custom.
func ParseJobKind(s string) JobKind {
	k := strings.ToLower(strings.TrimSpace(s))
	switch JobKind(k) {
	case KindShort, KindLong, KindCustom:
		return JobKind(k)
	}
	if kind, ok := legacyKinds[k]; ok {
		return kind
	}
	return KindCustom
}

// Valid reports whether k is one of the known kinds.
func (k JobKind) Valid() bool {
	return k == KindShort || k == KindLong || k == KindCustom
}

// Label is the human-readable name used for default titles.
func (k JobKind) Label() string {
	switch k {
	case KindShort:
		return "Short"
	case KindLong:
		return "Long"
	default:
		return "Custom"
	}
}

// Job is a unit of billable work for a client.
// Only Status and Withdrawn change after creation.
type Job struct {
	ID         string
	ClientName string
	Title      string
	Kind       JobKind
	Amount     decimal.Decimal
	Date       Date
	CreatedAt  time.Time
	Status     JobStatus
	Withdrawn  bool
}

// Sweepable reports whether the job counts toward the next withdrawal.
func (j Job) Sweepable() bool {
	return j.Status == StatusPaid && !j.Withdrawn
}

type jobJSON struct {
	ID         string          `json:"id"`
	ClientName string          `json:"clientName"`
	Title      string          `json:"title"`
	Kind       string          `json:"jobKind"`
	Amount     decimal.Decimal `json:"amount"`
	Date       Date            `json:"date"`
	CreatedAt  time.Time       `json:"createdAt"`
	Status     string          `json:"status"`
	Withdrawn  bool            `json:"withdrawn"`

	// Field names written by older versions.
	LegacyKind      string `json:"type,omitempty"`
	LegacyTimestamp int64  `json:"timestamp,omitempty"`
}

// MarshalJSON writes the canonical record layout.
func (j Job) MarshalJSON() ([]byte, error) {
	return json.Marshal(jobJSON{
		ID:         j.ID,
		ClientName: j.ClientName,
		Title:      j.Title,
		Kind:       string(j.Kind),
		Amount:     j.Amount,
		Date:       j.Date,
		CreatedAt:  j.CreatedAt,
		Status:     string(j.Status),
		Withdrawn:  j.Withdrawn,
	})
}

// UnmarshalJSON reads a record and normalizes fields that are missing or
// were written by older versions. Records are never rejected for missing
// fields.
func (j *Job) UnmarshalJSON(data []byte) error {
	var raw jobJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	kind := raw.Kind
	if kind == "" {
		kind = raw.LegacyKind
	}
	created := raw.CreatedAt
	if created.IsZero() && raw.LegacyTimestamp > 0 {
		created = time.UnixMilli(raw.LegacyTimestamp).UTC()
	}
	status := ParseJobStatus(raw.Status)
	if raw.Withdrawn {
		// Withdrawn money was collected first.
		status = StatusPaid
	}

	*j = Job{
		ID:         raw.ID,
		ClientName: raw.ClientName,
		Title:      raw.Title,
		Kind:       ParseJobKind(kind),
		Amount:     raw.Amount,
		Date:       raw.Date,
		CreatedAt:  created,
		Status:     status,
		Withdrawn:  raw.Withdrawn,
	}
	return nil
}
