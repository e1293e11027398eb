package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calverley/schoolcore/internal/legacy"
)

// CleanupResult holds the cleanup outcome for output.
type CleanupResult struct {
	Requested int `json:"requested"`
	Removed   int `json:"removed"`
}

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	var allFlagged bool

	cmd := &cobra.Command{
		Use:   "cleanup [key...]",
		Short: "Delete legacy flat-storage keys",
		Long: `Delete the given keys from the flat key-value namespace. Each deletion
is attempted independently - one failure never aborts the batch.

With --all-flagged, the keys are taken from a fresh analysis instead of
the argument list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(rootOpts, args, allFlagged, cmd)
		},
	}

	cmd.Flags().BoolVar(&allFlagged, "all-flagged", false, "remove every key the analyzer flags")
	return cmd
}

func runCleanup(opts *RootOptions, keys []string, allFlagged bool, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if !allFlagged && len(keys) == 0 {
		formatter.Error(ErrCodeInput, "no keys given: pass key arguments or --all-flagged", nil)
		return WrapExitError(ExitCommandError, "cleanup", fmt.Errorf("no keys given"))
	}

	env, err := openEnv(opts)
	if err != nil {
		formatter.Error(ErrCodeStorage, err.Error(), nil)
		return err
	}
	defer env.Close()

	if allFlagged {
		analyzed, err := env.engine.Analyze()
		if err != nil {
			formatter.Error(ErrCodeStorage, "analysis failed", err.Error())
			return WrapExitError(ExitCommandError, "cleanup", err)
		}
		keys = legacy.RemoveCandidates(analyzed)
	}

	removed := env.engine.Cleanup(keys)
	formatter.VerboseLog("removed %d of %d key(s)", removed, len(keys))

	result := CleanupResult{Requested: len(keys), Removed: removed}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("removed %d of %d key(s)", result.Removed, result.Requested))
}
