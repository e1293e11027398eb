package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calverley/schoolcore/internal/config"
	"github.com/calverley/schoolcore/internal/holiday"
)

// NewHolidaysCommand creates the holidays command.
func NewHolidaysCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays <year> [to-year]",
		Short: "Fetch the holiday calendar feed",
		Long: `Fetch holiday events for a year, or for a closed range of years when
a second year is given. With a range, a year that fails to fetch is
skipped and the rest are returned.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHolidays(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runHolidays(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	from, err := strconv.Atoi(args[0])
	if err != nil {
		formatter.Error(ErrCodeInput, fmt.Sprintf("invalid year %q", args[0]), nil)
		return WrapExitError(ExitCommandError, "holidays", err)
	}
	to := from
	if len(args) == 2 {
		to, err = strconv.Atoi(args[1])
		if err != nil || to < from {
			formatter.Error(ErrCodeInput, fmt.Sprintf("invalid year range %q..%q", args[0], args[1]), nil)
			return WrapExitError(ExitCommandError, "holidays", fmt.Errorf("invalid range"))
		}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load config", err)
	}

	log, err := newLogger(opts)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return err
	}

	client := holiday.NewClient(cfg.Holiday.BaseURL, holiday.WithLogger(log))

	var events []holiday.Event
	if to == from {
		events, err = client.Year(cmd.Context(), from)
		if err != nil {
			formatter.Error(ErrCodeFeed, "holiday feed failed", err.Error())
			return WrapExitError(ExitFailure, "holidays", err)
		}
	} else {
		events = client.Range(cmd.Context(), from, to)
	}

	if opts.Format == "json" {
		return formatter.Success(events)
	}

	var b strings.Builder
	for _, e := range events {
		fmt.Fprintf(&b, "%s  %s", e.Date, e.Name)
		if e.Note != "" {
			fmt.Fprintf(&b, " (%s)", e.Note)
		}
		b.WriteString("\n")
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}
