// Package export writes the ledger tables as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/videoquest/videoquest/internal/model"
)

// JobsHeader is the CSV header for jobs.csv.
const JobsHeader = "id,date,client,title,kind,amount,status,withdrawn,created_at"

// WithdrawalsHeader is the CSV header for withdrawals.csv.
const WithdrawalsHeader = "id,date,period,amount,created_at"

const (
	jobFields    = 9
	colJobID     = 0
	colJobDate   = 1
	colClient    = 2
	colTitle     = 3
	colKind      = 4
	colJobAmount = 5
	colStatus    = 6
	colWithdrawn = 7
	colJobCreate = 8

	wdFields    = 5
	colWdID     = 0
	colWdDate   = 1
	colPeriod   = 2
	colWdAmount = 3
	colWdCreate = 4
)

// File names used by Dir.
const (
	JobsFile        = "jobs.csv"
	WithdrawalsFile = "withdrawals.csv"
)

// MarshalJob converts a Job to a CSV row.
func MarshalJob(j model.Job) []string {
	row := make([]string, jobFields)
	row[colJobID] = j.ID
	row[colJobDate] = j.Date.String()
	row[colClient] = j.ClientName
	row[colTitle] = j.Title
	row[colKind] = string(j.Kind)
	row[colJobAmount] = j.Amount.StringFixed(2)
	row[colStatus] = string(j.Status)
	if j.Withdrawn {
		row[colWithdrawn] = "true"
	} else {
		row[colWithdrawn] = "false"
	}
	if !j.CreatedAt.IsZero() {
		row[colJobCreate] = j.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// UnmarshalJob converts a CSV row to a Job.
func UnmarshalJob(record []string) (model.Job, error) {
	if len(record) != jobFields {
		return model.Job{}, fmt.Errorf("expected %d fields, got %d", jobFields, len(record))
	}

	date, err := parseDate(record[colJobDate])
	if err != nil {
		return model.Job{}, err
	}
	amount, err := decimal.NewFromString(record[colJobAmount])
	if err != nil {
		return model.Job{}, fmt.Errorf("parsing amount %q: %w", record[colJobAmount], err)
	}
	created, err := parseTimestamp(record[colJobCreate])
	if err != nil {
		return model.Job{}, err
	}

	return model.Job{
		ID:         record[colJobID],
		Date:       date,
		ClientName: record[colClient],
		Title:      record[colTitle],
		Kind:       model.ParseJobKind(record[colKind]),
		Amount:     amount,
		Status:     model.ParseJobStatus(record[colStatus]),
		Withdrawn:  record[colWithdrawn] == "true",
		CreatedAt:  created,
	}, nil
}

// MarshalWithdrawal converts a Withdrawal to a CSV row.
func MarshalWithdrawal(w model.Withdrawal) []string {
	row := make([]string, wdFields)
	row[colWdID] = w.ID
	row[colWdDate] = w.Date.String()
	row[colPeriod] = w.PeriodLabel
	row[colWdAmount] = w.Amount.StringFixed(2)
	if !w.CreatedAt.IsZero() {
		row[colWdCreate] = w.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// UnmarshalWithdrawal converts a CSV row to a Withdrawal.
func UnmarshalWithdrawal(record []string) (model.Withdrawal, error) {
	if len(record) != wdFields {
		return model.Withdrawal{}, fmt.Errorf("expected %d fields, got %d", wdFields, len(record))
	}

	date, err := parseDate(record[colWdDate])
	if err != nil {
		return model.Withdrawal{}, err
	}
	amount, err := decimal.NewFromString(record[colWdAmount])
	if err != nil {
		return model.Withdrawal{}, fmt.Errorf("parsing amount %q: %w", record[colWdAmount], err)
	}
	created, err := parseTimestamp(record[colWdCreate])
	if err != nil {
		return model.Withdrawal{}, err
	}

	return model.Withdrawal{
		ID:          record[colWdID],
		Date:        date,
		PeriodLabel: record[colPeriod],
		Amount:      amount,
		CreatedAt:   created,
	}, nil
}

// parseDate reads an empty column as the zero date, as JSON decoding does.
func parseDate(s string) (model.Date, error) {
	if s == "" {
		return model.Date{}, nil
	}
	return model.ParseDate(s)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at %q: %w", s, err)
	}
	return ts, nil
}

// WriteJobs writes jobs to w, including the header.
func WriteJobs(w io.Writer, jobs []model.Job) error {
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		rows[i] = MarshalJob(j)
	}
	return writeRows(w, JobsHeader, rows)
}

// WriteWithdrawals writes withdrawals to w, including the header.
func WriteWithdrawals(w io.Writer, ws []model.Withdrawal) error {
	rows := make([][]string, len(ws))
	for i, wd := range ws {
		rows[i] = MarshalWithdrawal(wd)
	}
	return writeRows(w, WithdrawalsHeader, rows)
}

func writeRows(w io.Writer, header string, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadJobs reads all jobs from a jobs.csv reader.
func ReadJobs(r io.Reader) ([]model.Job, error) {
	records, err := readRecords(r, jobFields)
	if err != nil {
		return nil, err
	}
	var jobs []model.Job
	for i, rec := range records {
		j, err := UnmarshalJob(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// ReadWithdrawals reads all withdrawals from a withdrawals.csv reader.
func ReadWithdrawals(r io.Reader) ([]model.Withdrawal, error) {
	records, err := readRecords(r, wdFields)
	if err != nil {
		return nil, err
	}
	var ws []model.Withdrawal
	for i, rec := range records {
		w, err := UnmarshalWithdrawal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		ws = append(ws, w)
	}
	return ws, nil
}

// readRecords returns the data rows, skipping the header.
func readRecords(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

// Dir writes jobs.csv and withdrawals.csv into dir, creating it if needed.
// It returns the paths written.
func Dir(dir string, jobs []model.Job, ws []model.Withdrawal) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	jobsPath := filepath.Join(dir, JobsFile)
	if err := writeFile(jobsPath, func(w io.Writer) error { return WriteJobs(w, jobs) }); err != nil {
		return nil, err
	}
	wdPath := filepath.Join(dir, WithdrawalsFile)
	if err := writeFile(wdPath, func(w io.Writer) error { return WriteWithdrawals(w, ws) }); err != nil {
		return nil, err
	}
	return []string{jobsPath, wdPath}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
