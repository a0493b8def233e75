package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/videoquest/videoquest/internal/activity"
	"github.com/videoquest/videoquest/internal/config"
	"github.com/videoquest/videoquest/internal/gitops"
	"github.com/videoquest/videoquest/internal/store"
)

const gitignore = "logs/\nexports/\n"

func newInitCommand() *cobra.Command {
	var backend string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dataDir(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				if dir, err = filepath.Abs(args[0]); err != nil {
					return fmt.Errorf("resolving path: %w", err)
				}
			}

			hash, err := runInit(dir, store.Backend(backend), !noGit)
			if err != nil {
				return err
			}
			if hash != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized VideoQuest ledger at %s (%s)\n", dir, hash)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized VideoQuest ledger at %s\n", dir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", string(store.BackendFile), "storage backend: file, sqlite or memory")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not version the directory with git")

	return cmd
}

// runInit creates the config, the empty store and optionally a git
// repository with an initial commit. It returns the commit hash, if any.
func runInit(dir string, backend store.Backend, useGit bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return "", fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default()
	cfg.Storage.Backend = backend
	switch backend {
	case store.BackendSQLite:
		cfg.Storage.Path = "videoquest.db"
	case store.BackendMemory:
		cfg.Storage.Path = ""
	}
	cfg.Git.AutoCommit = useGit
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}

	_, closeStore, err := store.Open(cfg.Storage.Backend, dir, cfg.Storage.Path)
	if err != nil {
		return "", fmt.Errorf("creating store: %w", err)
	}
	if err := closeStore(); err != nil {
		return "", fmt.Errorf("closing store: %w", err)
	}

	var hash string
	if useGit {
		if err := gitops.Init(dir); err != nil {
			return "", err
		}
		author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
		hash, err = gitops.CommitAll(dir, "init: Initialize VideoQuest ledger", author)
		if err != nil && !errors.Is(err, gitops.ErrNothingToCommit) {
			return "", fmt.Errorf("initial commit: %w", err)
		}
	}

	entry := activity.Entry{
		Timestamp:  timeNow(),
		Action:     activity.ActionInit,
		Details:    string(backend),
		CommitHash: hash,
	}
	if err := activity.Append(dir, entry); err != nil {
		return "", err
	}
	return hash, nil
}
