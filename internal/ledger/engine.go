// Package ledger owns every mutation of the job and withdrawal tables and
// the aggregates derived from them.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/videoquest/videoquest/internal/id"
	"github.com/videoquest/videoquest/internal/model"
	"github.com/videoquest/videoquest/internal/store"
)

// Keys of the three persisted tables.
const (
	KeyJobs        = "jobs"
	KeyWithdrawals = "withdrawals"
	KeyGoal        = "goal"
)

// DefaultGoal is the goal target used when none has been saved.
const DefaultGoal int64 = 5000

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	NewID       id.Generator
	Now         func() time.Time
	Logger      *slog.Logger
	DefaultGoal int64
}

// Engine applies ledger operations. Each operation reads the tables it
// needs, transforms them in memory and writes them back before returning.
type Engine struct {
	store       store.Store
	newID       id.Generator
	now         func() time.Time
	log         *slog.Logger
	defaultGoal int64

	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// NewEngine creates an Engine over st.
func NewEngine(st store.Store, opts Options) *Engine {
	e := &Engine{
		store:       st,
		newID:       opts.NewID,
		now:         opts.Now,
		log:         opts.Logger,
		defaultGoal: opts.DefaultGoal,
	}
	if e.newID == nil {
		e.newID = id.New
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.defaultGoal <= 0 {
		e.defaultGoal = DefaultGoal
	}
	return e
}

// Snapshot is the full ledger state at one point in time.
type Snapshot struct {
	Jobs        []model.Job
	Withdrawals []model.Withdrawal
	Goal        int64
}

// Snapshot reads all three tables.
func (e *Engine) Snapshot() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobs, err := e.loadJobs()
	if err != nil {
		return Snapshot{}, err
	}
	withdrawals, err := e.loadWithdrawals()
	if err != nil {
		return Snapshot{}, err
	}
	goal, err := e.loadGoal()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Jobs: jobs, Withdrawals: withdrawals, Goal: goal}, nil
}

// Jobs returns all jobs, most recent first.
func (e *Engine) Jobs() ([]model.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadJobs()
}

// Withdrawals returns all withdrawals, most recent first.
func (e *Engine) Withdrawals() ([]model.Withdrawal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadWithdrawals()
}

// Goal returns the saved goal target, or the default when none is saved.
func (e *Engine) Goal() (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadGoal()
}

// AddJobParams holds the caller-resolved fields of a new job.
type AddJobParams struct {
	ClientName string
	Title      string
	Kind       model.JobKind
	Amount     decimal.Decimal
	Date       model.Date
}

// AddJob prepends a pending job and returns the updated list. A blank client
// name leaves the ledger untouched and reports added=false.
func (e *Engine) AddJob(params AddJobParams) (jobs []model.Job, added bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobs, err = e.loadJobs()
	if err != nil {
		return nil, false, err
	}

	if strings.TrimSpace(params.ClientName) == "" {
		e.log.Debug("ignoring job without client name", "title", params.Title)
		return jobs, false, nil
	}

	now := e.now()
	date := params.Date
	if date.IsZero() {
		date = model.NewDate(now)
	}

	job := model.Job{
		ID:         e.newID(),
		ClientName: params.ClientName,
		Title:      params.Title,
		Kind:       model.ParseJobKind(string(params.Kind)),
		Amount:     params.Amount,
		Date:       date,
		CreatedAt:  now,
		Status:     model.StatusPending,
	}

	updated := make([]model.Job, 0, len(jobs)+1)
	updated = append(updated, job)
	updated = append(updated, jobs...)

	if err := e.saveTable(KeyJobs, updated); err != nil {
		return jobs, false, err
	}

	e.log.Info("job added", "id", job.ID, "client", job.ClientName, "kind", job.Kind, "amount", job.Amount.String())
	return updated, true, nil
}

// DeleteJob removes the job with the given ID whatever its status. A missing
// ID is not an error; removed reports whether anything changed.
func (e *Engine) DeleteJob(jobID string) (jobs []model.Job, removed bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobs, err = e.loadJobs()
	if err != nil {
		return nil, false, err
	}

	updated := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.ID == jobID {
			removed = true
			continue
		}
		updated = append(updated, j)
	}
	if !removed {
		return jobs, false, nil
	}

	if err := e.saveTable(KeyJobs, updated); err != nil {
		return jobs, false, err
	}

	e.log.Info("job deleted", "id", jobID)
	return updated, true, nil
}

// MarkClientJobsAsPaid moves every pending job of clientName to paid in one
// write. The name must match exactly. Jobs already paid are left alone, so
// repeated calls change nothing; changed counts the jobs transitioned.
func (e *Engine) MarkClientJobsAsPaid(clientName string) (jobs []model.Job, changed int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobs, err = e.loadJobs()
	if err != nil {
		return nil, 0, err
	}

	updated := make([]model.Job, len(jobs))
	copy(updated, jobs)
	for i := range updated {
		if updated[i].ClientName == clientName && updated[i].Status == model.StatusPending {
			updated[i].Status = model.StatusPaid
			changed++
		}
	}
	if changed == 0 {
		return jobs, 0, nil
	}

	if err := e.saveTable(KeyJobs, updated); err != nil {
		return jobs, 0, err
	}

	e.log.Info("client jobs marked paid", "client", clientName, "count", changed)
	return updated, changed, nil
}

// SetGoal replaces the goal target. Non-positive targets are ignored so the
// goal always stays positive; the returned goal is the one in effect.
func (e *Engine) SetGoal(target int64) (goal int64, changed bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if target <= 0 {
		current, err := e.loadGoal()
		if err != nil {
			return 0, false, err
		}
		e.log.Debug("ignoring non-positive goal", "target", target)
		return current, false, nil
	}

	if err := e.store.Save(KeyGoal, []byte(strconv.FormatInt(target, 10))); err != nil {
		return 0, false, fmt.Errorf("saving goal: %w", err)
	}

	e.log.Info("goal set", "target", target)
	return target, true, nil
}

// WithdrawResult is the outcome of PerformWithdrawal.
type WithdrawResult struct {
	Jobs        []model.Job
	Withdrawals []model.Withdrawal
	// Withdrawal is the record created, or nil when there was nothing to sweep.
	Withdrawal *model.Withdrawal
}

// PerformWithdrawal sweeps every paid, not yet withdrawn job into a new
// withdrawal record. When the sweepable balance is not positive nothing is
// written.
func (e *Engine) PerformWithdrawal() (WithdrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobs, err := e.loadJobs()
	if err != nil {
		return WithdrawResult{}, err
	}
	withdrawals, err := e.loadWithdrawals()
	if err != nil {
		return WithdrawResult{}, err
	}

	total := PaidBalance(jobs)
	if !total.IsPositive() {
		return WithdrawResult{Jobs: jobs, Withdrawals: withdrawals}, nil
	}

	updatedJobs := make([]model.Job, len(jobs))
	copy(updatedJobs, jobs)
	for i := range updatedJobs {
		if updatedJobs[i].Sweepable() {
			updatedJobs[i].Withdrawn = true
		}
	}

	now := e.now()
	w := model.Withdrawal{
		ID:          e.newID(),
		Amount:      total,
		Date:        model.NewDate(now),
		PeriodLabel: model.PeriodLabel(now),
		CreatedAt:   now,
	}
	updatedWithdrawals := make([]model.Withdrawal, 0, len(withdrawals)+1)
	updatedWithdrawals = append(updatedWithdrawals, w)
	updatedWithdrawals = append(updatedWithdrawals, withdrawals...)

	jobsData, err := json.Marshal(updatedJobs)
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("encoding jobs: %w", err)
	}
	withdrawalsData, err := json.Marshal(updatedWithdrawals)
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("encoding withdrawals: %w", err)
	}

	prevWithdrawals, hadWithdrawals, err := e.store.Load(KeyWithdrawals)
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("loading %s: %w", KeyWithdrawals, err)
	}

	// Record before jobs; stores without batches write in this order.
	err = store.SaveAll(e.store, []store.Record{
		{Key: KeyWithdrawals, Data: withdrawalsData},
		{Key: KeyJobs, Data: jobsData},
	})
	if err != nil {
		if _, batched := e.store.(store.BatchSaver); !batched {
			e.restoreWithdrawals(prevWithdrawals, hadWithdrawals)
		}
		return WithdrawResult{}, fmt.Errorf("saving withdrawal: %w", err)
	}

	e.log.Info("withdrawal recorded", "id", w.ID, "amount", w.Amount.String(), "period", w.PeriodLabel)
	return WithdrawResult{Jobs: updatedJobs, Withdrawals: updatedWithdrawals, Withdrawal: &w}, nil
}

// restoreWithdrawals puts back the withdrawals table after a partial
// sequential write, so unswept jobs never sit beside their record.
func (e *Engine) restoreWithdrawals(data []byte, existed bool) {
	if !existed {
		data = []byte("[]")
	}
	if err := e.store.Save(KeyWithdrawals, data); err != nil {
		e.log.Error("restoring withdrawals after failed withdrawal", "error", err)
	}
}

func (e *Engine) loadJobs() ([]model.Job, error) {
	return loadTable[model.Job](e, KeyJobs)
}

func (e *Engine) loadWithdrawals() ([]model.Withdrawal, error) {
	return loadTable[model.Withdrawal](e, KeyWithdrawals)
}

// loadTable decodes a table. Malformed data is logged and read as empty.
func loadTable[T any](e *Engine, key string) ([]T, error) {
	data, ok, err := e.store.Load(key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		e.log.Warn("discarding malformed table", "table", key, "error", err)
		return []T{}, nil
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func (e *Engine) saveTable(key string, rows any) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := e.store.Save(key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (e *Engine) loadGoal() (int64, error) {
	data, ok, err := e.store.Load(KeyGoal)
	if err != nil {
		return 0, fmt.Errorf("loading goal: %w", err)
	}
	if !ok {
		return e.defaultGoal, nil
	}

	goal, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(string(data)), `"`), 10, 64)
	if err != nil || goal <= 0 {
		e.log.Warn("discarding invalid goal", "value", string(data), "error", err)
		return e.defaultGoal, nil
	}
	return goal, nil
}
