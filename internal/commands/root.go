package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/videoquest/videoquest/internal/buildinfo"
)

// DirEnv overrides the default data directory.
const DirEnv = "VIDEOQUEST_DIR"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "videoquest",
		Short:   "Gamified earnings ledger for freelance video editors",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	defaultDir := os.Getenv(DirEnv)
	if defaultDir == "" {
		defaultDir = "."
	}
	rootCmd.PersistentFlags().String("dir", defaultDir, "ledger data directory (env "+DirEnv+")")

	rootCmd.AddCommand(
		newInitCommand(),
		newAddCommand(),
		newDeleteCommand(),
		newPayCommand(),
		newWithdrawCommand(),
		newGoalCommand(),
		newStatusCommand(),
		newClientsCommand(),
		newStatementCommand(),
		newHistoryCommand(),
		newExportCommand(),
		newActivityCommand(),
		newCoachCommand(),
	)

	return rootCmd
}
