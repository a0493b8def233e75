package ledger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videoquest/videoquest/internal/id"
	"github.com/videoquest/videoquest/internal/model"
	"github.com/videoquest/videoquest/internal/store"
)

var testNow = time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	e := NewEngine(st, Options{
		NewID: id.Sequence("id"),
		Now:   func() time.Time { return testNow },
	})
	return e, st
}

func addJob(t *testing.T, e *Engine, client, amount string, kind model.JobKind) model.Job {
	t.Helper()
	jobs, added, err := e.AddJob(AddJobParams{
		ClientName: client,
		Title:      "Edit",
		Kind:       kind,
		Amount:     dec(amount),
		Date:       model.NewDate(testNow),
	})
	require.NoError(t, err)
	require.True(t, added)
	return jobs[0]
}

func TestAddJob(t *testing.T) {
	e, _ := newTestEngine(t)

	first := addJob(t, e, "A", "400", model.KindShort)
	assert.Equal(t, "id-1", first.ID)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.False(t, first.Withdrawn)
	assert.Equal(t, testNow, first.CreatedAt)

	second := addJob(t, e, "B", "1300", model.KindLong)

	jobs, err := e.Jobs()
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID, "newest job comes first")
	assert.Equal(t, first.ID, jobs[1].ID)
}

func TestAddJob_EmptyClientIsNoOp(t *testing.T) {
	e, st := newTestEngine(t)
	addJob(t, e, "A", "400", model.KindShort)

	for _, name := range []string{"", "   "} {
		jobs, added, err := e.AddJob(AddJobParams{ClientName: name, Amount: dec("100")})
		require.NoError(t, err)
		assert.False(t, added)
		assert.Len(t, jobs, 1)
	}

	data, _, err := st.Load(KeyJobs)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"clientName":""`)
}

func TestAddJob_DefaultsDateAndKind(t *testing.T) {
	e, _ := newTestEngine(t)

	jobs, _, err := e.AddJob(AddJobParams{ClientName: "A", Kind: "documentary", Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", jobs[0].Date.String())
	assert.Equal(t, model.KindCustom, jobs[0].Kind)
}

func TestDeleteJob_Unconditional(t *testing.T) {
	e, _ := newTestEngine(t)
	pending := addJob(t, e, "A", "100", model.KindShort)
	paid := addJob(t, e, "B", "200", model.KindShort)
	withdrawn := addJob(t, e, "C", "300", model.KindShort)

	_, _, err := e.MarkClientJobsAsPaid("C")
	require.NoError(t, err)
	_, err = e.PerformWithdrawal()
	require.NoError(t, err)
	_, _, err = e.MarkClientJobsAsPaid("B")
	require.NoError(t, err)

	for _, j := range []model.Job{withdrawn, paid, pending} {
		jobs, removed, err := e.DeleteJob(j.ID)
		require.NoError(t, err)
		assert.True(t, removed, "job %s", j.ID)
		for _, left := range jobs {
			assert.NotEqual(t, j.ID, left.ID)
		}
	}

	jobs, err := e.Jobs()
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestDeleteJob_MissingIsNoOp(t *testing.T) {
	e, _ := newTestEngine(t)
	addJob(t, e, "A", "100", model.KindShort)

	jobs, removed, err := e.DeleteJob("nope")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, jobs, 1)
}

func TestMarkClientJobsAsPaid_Idempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	addJob(t, e, "A", "400", model.KindShort)
	addJob(t, e, "A", "1300", model.KindLong)
	addJob(t, e, "B", "50", model.KindCustom)

	jobs, changed, err := e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	for _, j := range jobs {
		if j.ClientName == "A" {
			assert.Equal(t, model.StatusPaid, j.Status)
		} else {
			assert.Equal(t, model.StatusPending, j.Status)
		}
	}

	again, changed, err := e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, jobs, again)
}

func TestMarkClientJobsAsPaid_ExactMatch(t *testing.T) {
	e, _ := newTestEngine(t)
	addJob(t, e, "Acme", "100", model.KindShort)

	for _, name := range []string{"acme", "Acme ", "ACME"} {
		_, changed, err := e.MarkClientJobsAsPaid(name)
		require.NoError(t, err)
		assert.Zero(t, changed, "name %q must not match", name)
	}
}

func TestSetGoal(t *testing.T) {
	e, st := newTestEngine(t)

	goal, err := e.Goal()
	require.NoError(t, err)
	assert.Equal(t, DefaultGoal, goal)

	goal, changed, err := e.SetGoal(8000)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(8000), goal)

	data, _, err := st.Load(KeyGoal)
	require.NoError(t, err)
	assert.Equal(t, "8000", string(data))
}

func TestSetGoal_RejectsNonPositive(t *testing.T) {
	e, _ := newTestEngine(t)

	goal, changed, err := e.SetGoal(0)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(5000), goal)

	_, _, err = e.SetGoal(7000)
	require.NoError(t, err)
	goal, changed, err = e.SetGoal(-3)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(7000), goal)
}

func TestGoal_InvalidStoredValueFallsBack(t *testing.T) {
	e, st := newTestEngine(t)

	require.NoError(t, st.Save(KeyGoal, []byte("lots")))
	goal, err := e.Goal()
	require.NoError(t, err)
	assert.Equal(t, DefaultGoal, goal)

	require.NoError(t, st.Save(KeyGoal, []byte(`"12000"`)))
	goal, err = e.Goal()
	require.NoError(t, err)
	assert.Equal(t, int64(12000), goal)
}

func TestNewEngine_CustomDefaultGoal(t *testing.T) {
	e := NewEngine(store.NewMemoryStore(), Options{DefaultGoal: 20000})
	goal, err := e.Goal()
	require.NoError(t, err)
	assert.Equal(t, int64(20000), goal)
}

func TestPerformWithdrawal_Scenario(t *testing.T) {
	e, _ := newTestEngine(t)
	addJob(t, e, "A", "400", model.KindShort)

	jobs, err := e.Jobs()
	require.NoError(t, err)
	assert.True(t, PendingBalance(jobs).Equal(dec("400")))
	assert.True(t, PaidBalance(jobs).IsZero())

	jobs, _, err = e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, jobs[0].Status)
	assert.True(t, PendingBalance(jobs).IsZero())
	assert.True(t, PaidBalance(jobs).Equal(dec("400")))

	res, err := e.PerformWithdrawal()
	require.NoError(t, err)
	require.NotNil(t, res.Withdrawal)
	require.Len(t, res.Withdrawals, 1)
	assert.True(t, res.Withdrawals[0].Amount.Equal(dec("400")))
	assert.Equal(t, "October 2026", res.Withdrawal.PeriodLabel)
	assert.Equal(t, "2026-10-18", res.Withdrawal.Date.String())
	assert.True(t, res.Jobs[0].Withdrawn)
	assert.Equal(t, model.StatusPaid, res.Jobs[0].Status)
	assert.True(t, PaidBalance(res.Jobs).IsZero())
	assert.True(t, TotalScore(res.Jobs).Equal(dec("400")))
}

func TestPerformWithdrawal_ConservationAndScore(t *testing.T) {
	e, _ := newTestEngine(t)
	addJob(t, e, "A", "400", model.KindShort)
	addJob(t, e, "A", "1300", model.KindLong)
	addJob(t, e, "B", "250.50", model.KindCustom)
	addJob(t, e, "C", "99.99", model.KindCustom)
	_, _, err := e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	_, _, err = e.MarkClientJobsAsPaid("B")
	require.NoError(t, err)

	before, err := e.Jobs()
	require.NoError(t, err)
	paidBefore := PaidBalance(before)
	scoreBefore := TotalScore(before)

	res, err := e.PerformWithdrawal()
	require.NoError(t, err)
	require.NotNil(t, res.Withdrawal)

	assert.True(t, res.Withdrawal.Amount.Equal(paidBefore), "withdrawal equals pre-call paid balance")
	assert.True(t, res.Withdrawal.Amount.Equal(dec("1950.50")))
	assert.True(t, PaidBalance(res.Jobs).IsZero())
	assert.True(t, TotalScore(res.Jobs).Equal(scoreBefore), "score unchanged by withdrawal")

	for _, j := range res.Jobs {
		if j.Withdrawn {
			assert.Equal(t, model.StatusPaid, j.Status)
		}
	}
}

func TestPerformWithdrawal_NoOp(t *testing.T) {
	e, st := newTestEngine(t)
	addJob(t, e, "A", "400", model.KindShort)

	before, err := e.Snapshot()
	require.NoError(t, err)

	res, err := e.PerformWithdrawal()
	require.NoError(t, err)
	assert.Nil(t, res.Withdrawal)
	assert.Equal(t, before.Jobs, res.Jobs)
	assert.Equal(t, before.Withdrawals, res.Withdrawals)

	_, ok, err := st.Load(KeyWithdrawals)
	require.NoError(t, err)
	assert.False(t, ok, "nothing should be written")
}

func TestPerformWithdrawal_OnlySweepsUnwithdrawn(t *testing.T) {
	e, _ := newTestEngine(t)
	addJob(t, e, "A", "400", model.KindShort)
	_, _, err := e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	_, err = e.PerformWithdrawal()
	require.NoError(t, err)

	addJob(t, e, "A", "1300", model.KindLong)
	_, _, err = e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)

	res, err := e.PerformWithdrawal()
	require.NoError(t, err)
	require.NotNil(t, res.Withdrawal)
	assert.True(t, res.Withdrawal.Amount.Equal(dec("1300")))
	require.Len(t, res.Withdrawals, 2)
	assert.Equal(t, res.Withdrawal.ID, res.Withdrawals[0].ID, "newest withdrawal first")
}

func TestPerformWithdrawal_NotRetroactive(t *testing.T) {
	e, _ := newTestEngine(t)
	j := addJob(t, e, "A", "400", model.KindShort)
	_, _, err := e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	_, err = e.PerformWithdrawal()
	require.NoError(t, err)

	_, _, err = e.DeleteJob(j.ID)
	require.NoError(t, err)

	withdrawals, err := e.Withdrawals()
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	assert.True(t, withdrawals[0].Amount.Equal(dec("400")))
}

func TestStatusMonotonic(t *testing.T) {
	e, _ := newTestEngine(t)
	addJob(t, e, "A", "400", model.KindShort)
	_, _, err := e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	_, err = e.PerformWithdrawal()
	require.NoError(t, err)

	// No operation sequence brings the job back to pending or unwithdrawn.
	addJob(t, e, "A", "100", model.KindShort)
	_, _, err = e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	_, _, err = e.SetGoal(100)
	require.NoError(t, err)

	jobs, err := e.Jobs()
	require.NoError(t, err)
	old := jobs[1]
	assert.Equal(t, model.StatusPaid, old.Status)
	assert.True(t, old.Withdrawn)
}

func TestLoad_MalformedTablesReadAsEmpty(t *testing.T) {
	var logs bytes.Buffer
	st := store.NewMemoryStore()
	e := NewEngine(st, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	require.NoError(t, st.Save(KeyJobs, []byte(`{not json`)))
	require.NoError(t, st.Save(KeyWithdrawals, []byte(`42`)))

	snap, err := e.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.Jobs)
	assert.Empty(t, snap.Withdrawals)
	assert.Contains(t, logs.String(), "discarding malformed table")
	assert.Contains(t, logs.String(), "table=jobs")
}

func TestLoad_NormalizesLegacyRecords(t *testing.T) {
	e, st := newTestEngine(t)
	require.NoError(t, st.Save(KeyJobs, []byte(`[{"id":"old","clientName":"A","title":"T","type":"Short Estandar","amount":400,"date":"2026-01-02","timestamp":1767312000000}]`)))

	jobs, err := e.Jobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.StatusPending, jobs[0].Status)
	assert.False(t, jobs[0].Withdrawn)
	assert.Equal(t, model.KindShort, jobs[0].Kind)

	// Normalized records are written back in canonical form on the next mutation.
	_, _, err = e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)
	data, _, err := st.Load(KeyJobs)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"jobKind":"short"`)
	assert.Contains(t, string(data), `"status":"paid"`)
}

type brokenStore struct {
	*store.MemoryStore
}

var errDisk = errors.New("disk full")

func (brokenStore) Save(string, []byte) error { return errDisk }

func (brokenStore) SaveBatch([]store.Record) error { return errDisk }

func TestPersistenceErrorsAreReturned(t *testing.T) {
	mem := store.NewMemoryStore()
	seed := NewEngine(mem, Options{})
	_, _, err := seed.AddJob(AddJobParams{ClientName: "A", Amount: dec("5")})
	require.NoError(t, err)
	_, _, err = seed.MarkClientJobsAsPaid("A")
	require.NoError(t, err)

	e := NewEngine(brokenStore{mem}, Options{})

	_, added, err := e.AddJob(AddJobParams{ClientName: "B", Amount: dec("1")})
	require.ErrorIs(t, err, errDisk)
	assert.False(t, added)

	_, _, err = e.SetGoal(10)
	require.ErrorIs(t, err, errDisk)

	_, err = e.PerformWithdrawal()
	require.ErrorIs(t, err, errDisk)

	jobs, err := e.Jobs()
	require.NoError(t, err)
	assert.Len(t, jobs, 1, "failed writes leave the stored state unchanged")
	assert.False(t, jobs[0].Withdrawn)
}

// jobsFaultStore writes sequentially and fails saves of the jobs table while
// fail is set.
type jobsFaultStore struct {
	mem  *store.MemoryStore
	fail bool
}

func (s *jobsFaultStore) Load(key string) ([]byte, bool, error) { return s.mem.Load(key) }

func (s *jobsFaultStore) Save(key string, data []byte) error {
	if s.fail && key == KeyJobs {
		return errDisk
	}
	return s.mem.Save(key, data)
}

func TestPerformWithdrawal_PartialWriteRestoresRecord(t *testing.T) {
	mem := store.NewMemoryStore()
	fs := &jobsFaultStore{mem: mem}
	e := NewEngine(fs, Options{NewID: id.Sequence("id"), Now: func() time.Time { return testNow }})

	// First attempt against an empty withdrawals table.
	addJob(t, e, "A", "400", model.KindShort)
	_, _, err := e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)

	fs.fail = true
	_, err = e.PerformWithdrawal()
	require.ErrorIs(t, err, errDisk)

	ws, err := e.Withdrawals()
	require.NoError(t, err)
	assert.Empty(t, ws, "record rolled back when jobs could not be written")

	fs.fail = false
	res, err := e.PerformWithdrawal()
	require.NoError(t, err)
	require.NotNil(t, res.Withdrawal)
	assert.True(t, WithdrawnTotal(res.Withdrawals).Equal(dec("400")))

	// Second attempt with an existing record.
	addJob(t, e, "B", "250", model.KindCustom)
	_, _, err = e.MarkClientJobsAsPaid("B")
	require.NoError(t, err)

	fs.fail = true
	_, err = e.PerformWithdrawal()
	require.ErrorIs(t, err, errDisk)

	ws, err = e.Withdrawals()
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.True(t, ws[0].Amount.Equal(dec("400")))

	fs.fail = false
	res, err = e.PerformWithdrawal()
	require.NoError(t, err)
	require.Len(t, res.Withdrawals, 2)
	assert.True(t, WithdrawnTotal(res.Withdrawals).Equal(dec("650")), "each job swept exactly once")
	assert.True(t, PaidBalance(res.Jobs).IsZero())
}

func TestPerformWithdrawal_NegativeBalanceIsNoOp(t *testing.T) {
	e, st := newTestEngine(t)
	addJob(t, e, "A", "-50", model.KindCustom)
	_, _, err := e.MarkClientJobsAsPaid("A")
	require.NoError(t, err)

	res, err := e.PerformWithdrawal()
	require.NoError(t, err)
	assert.Nil(t, res.Withdrawal)
	assert.False(t, res.Jobs[0].Withdrawn)

	_, ok, err := st.Load(KeyWithdrawals)
	require.NoError(t, err)
	assert.False(t, ok, "nothing should be written")
}
