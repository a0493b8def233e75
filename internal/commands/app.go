package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/videoquest/videoquest/internal/activity"
	"github.com/videoquest/videoquest/internal/config"
	"github.com/videoquest/videoquest/internal/gitops"
	"github.com/videoquest/videoquest/internal/ledger"
	"github.com/videoquest/videoquest/internal/store"
)

// timeNow is the clock used for new records.
var timeNow = time.Now

// app holds everything a command needs to work on one data directory.
type app struct {
	dir     string
	cfg     *config.Config
	log     *slog.Logger
	engine  *ledger.Engine
	closers []func() error
}

func dataDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// openApp loads the config of the --dir data directory and opens its store.
func openApp(cmd *cobra.Command) (*app, error) {
	dir, err := dataDir(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no %s in %s: run \"videoquest init\" first", config.FileName, dir)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{dir: dir, cfg: cfg}
	a.log = a.setupLogger(cmd)

	st, closeStore, err := store.Open(cfg.Storage.Backend, dir, cfg.Storage.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.closers = append(a.closers, closeStore)

	a.engine = ledger.NewEngine(st, ledger.Options{
		Now:         timeNow,
		Logger:      a.log,
		DefaultGoal: cfg.Goal.Default,
	})
	return a, nil
}

func (a *app) setupLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := config.ParseLevel(a.cfg.Log.Level)
	logFile := a.cfg.Log.File
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(a.dir, logFile)
	}
	if logFile != "" {
		_ = os.MkdirAll(filepath.Dir(logFile), 0o755)
	}
	logger, closeLog := config.SetupLogger(cmd.ErrOrStderr(), logFile, level)
	a.closers = append(a.closers, closeLog)
	return logger
}

// Close releases the store and log file, in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// record commits the data directory when auto-commit is on and appends the
// mutation to the activity log.
func (a *app) record(action, details, refID string) error {
	entry := activity.Entry{
		Timestamp: timeNow(),
		Action:    action,
		Details:   details,
		RefID:     refID,
	}

	if a.cfg.Git.AutoCommit && gitops.IsRepo(a.dir) {
		author := gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail}
		hash, err := gitops.CommitAll(a.dir, action+": "+details, author)
		switch {
		case errors.Is(err, gitops.ErrNothingToCommit):
		case err != nil:
			a.log.Warn("auto-commit failed", "action", action, "error", err)
		default:
			entry.CommitHash = hash
			a.log.Info("committed ledger change", "action", action, "commit", hash)
		}
	}

	if err := activity.Append(a.dir, entry); err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(a *app) error) (err error) {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
