package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calverley/schoolcore/internal/record"
	"github.com/calverley/schoolcore/internal/session"
	"github.com/calverley/schoolcore/internal/table"
)

// usersCacheKey is the cache key for the full user listing. Mutations
// to the users table invalidate it by pattern.
const usersCacheKey = "users:list"

// NewUsersCommand creates the users command group.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user records",
	}
	cmd.AddCommand(newUsersListCommand(rootOpts))
	cmd.AddCommand(newUsersAddCommand(rootOpts))
	return cmd
}

func newUsersListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List user records",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(rootOpts, cmd)
		},
	}
}

func newUsersAddCommand(rootOpts *RootOptions) *cobra.Command {
	var displayName, role string

	cmd := &cobra.Command{
		Use:           "add <email>",
		Short:         "Add a user record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersAdd(rootOpts, args[0], displayName, role, cmd)
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "display name (defaults to the email's local part)")
	cmd.Flags().StringVar(&role, "role", string(session.RoleMember), "role (admin|member)")
	return cmd
}

func runUsersList(opts *RootOptions, cmd *cobra.Command) error {
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

	// Opening the session store seeds the default admin on a fresh
	// database, so the listing is never empty.
	if _, err := session.New(env.tables, env.kv, session.WithLogger(env.log)); err != nil {
		formatter.Error(ErrCodeStorage, "open session store", err.Error())
		return WrapExitError(ExitCommandError, "users list", err)
	}

	records := env.cache.Fetch(usersCacheKey, table.Users, nil)
	users := []session.User{}
	for _, rec := range records {
		user, err := session.UserFromRecord(rec)
		if err != nil {
			env.log.Warn("skipping undecodable user record",
				zap.String("id", rec.ID()),
				zap.Error(err))
			continue
		}
		users = append(users, user)
	}
	if opts.Format == "json" {
		return formatter.Success(users)
	}

	var b strings.Builder
	for _, u := range users {
		fmt.Fprintf(&b, "%s  %-28s %-8s %s\n", u.ID, u.Email, u.Role, u.DisplayName)
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}

func runUsersAdd(opts *RootOptions, email, displayName, role string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if role != string(session.RoleAdmin) && role != string(session.RoleMember) {
		formatter.Error(ErrCodeInput, fmt.Sprintf("invalid role %q", role), nil)
		return WrapExitError(ExitCommandError, "users add", fmt.Errorf("invalid role"))
	}
	if displayName == "" {
		displayName = email
		if at := strings.IndexByte(email, '@'); at > 0 {
			displayName = email[:at]
		}
	}

	env, err := openEnv(opts)
	if err != nil {
		formatter.Error(ErrCodeStorage, err.Error(), nil)
		return err
	}
	defer env.Close()

	rec, err := env.tables.Insert(table.Users, record.Record{
		"email":       email,
		"displayName": displayName,
		"role":        role,
	})
	if err != nil {
		formatter.Error(ErrCodeStorage, "insert user", err.Error())
		return WrapExitError(ExitFailure, "users add", err)
	}
	env.cache.InvalidateByPattern("users")

	if opts.Format == "json" {
		return formatter.Success(rec)
	}
	return formatter.Success(fmt.Sprintf("added user %s (%s)", rec.ID(), email))
}
