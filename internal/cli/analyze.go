package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calverley/schoolcore/internal/legacy"
)

// AnalyzeResult holds the analysis report for output.
type AnalyzeResult struct {
	Keys        []legacy.Key `json:"keys"`
	RemoveCount int          `json:"removeCount"`
	RemoveBytes int          `json:"removeBytes"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify legacy flat-storage keys",
		Long: `Analyze the flat key-value namespace and classify every key as
retain or remove. Removal candidates come first, largest first. Nothing
is deleted - run cleanup to act on the report.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(rootOpts, cmd)
		},
	}
	return cmd
}

func runAnalyze(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	env, err := openEnv(opts)
	if err != nil {
		formatter.Error(ErrCodeStorage, err.Error(), nil)
		return err
	}
	defer env.Close()

	keys, err := env.engine.Analyze()
	if err != nil {
		formatter.Error(ErrCodeStorage, "analysis failed", err.Error())
		return WrapExitError(ExitCommandError, "analyze", err)
	}

	result := AnalyzeResult{Keys: keys}
	for _, k := range keys {
		if k.ShouldRemove {
			result.RemoveCount++
			result.RemoveBytes += k.SizeBytes
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(FormatAnalyzeReport(result))
}

// FormatAnalyzeReport renders the analysis as the human-readable report.
// The layout is stable - the golden test depends on it.
func FormatAnalyzeReport(result AnalyzeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d key(s) flagged for removal (%d bytes reclaimable)\n", result.RemoveCount, result.RemoveBytes)
	for _, k := range result.Keys {
		marker := "keep  "
		if k.ShouldRemove {
			marker = "remove"
		}
		fmt.Fprintf(&b, "%s  %-24s %6d B  %s (%s)\n", marker, k.Key, k.SizeBytes, k.Reason, k.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
