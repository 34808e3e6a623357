package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/partkeep/partkeep/internal/adapters/localauth"
	"github.com/partkeep/partkeep/internal/data"
	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/service"
)

const listUsersDefaultLimit = 100

type createUserOptions struct {
	Timeout  time.Duration
	Username string
	Email    string
	FullName string
	Role     string
	Password string
}

type listUsersOptions struct {
	Timeout time.Duration
	Limit   int
	Role    string
	Query   string
}

type setPasswordOptions struct {
	Timeout  time.Duration
	Username string
	Password string
}

type deleteUserOptions struct {
	Timeout  time.Duration
	Username string
	Yes      bool
}

func newUserService(db *sql.DB) *service.UserService {
	return service.MustNewUserService(service.UserServiceOptions{
		Users:    data.NewUserRepo(db),
		Verifier: localauth.NewVerifier(data.NewCredentialRepo(db)),
	})
}

func runCreateUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateUserFlags(args)
	if err != nil {
		return err
	}

	role, ok := domainauth.ParseRole(opts.Role)
	if !ok {
		return fmt.Errorf("invalid --role %q; expected admin, manager, or designer", opts.Role)
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		user, createErr := newUserService(db).Create(ctx, model.CreateUserRequest{
			Username:        opts.Username,
			Email:           opts.Email,
			FullName:        opts.FullName,
			Role:            role,
			Password:        opts.Password,
			ConfirmPassword: opts.Password,
		})
		if createErr != nil {
			return fmt.Errorf("create user: %w", createErr)
		}

		cmdCtx.Logger.Info("user created",
			"username", user.Username,
			"email", user.Email,
			"role", user.Role,
		)
		return nil
	})
}

func runListUsers(cmdCtx *commandContext, args []string) error {
	opts, err := parseListUsersFlags(args)
	if err != nil {
		return err
	}

	listOpts := model.UsersListOptions{
		Limit: opts.Limit,
		Sort:  "username",
		Dir:   "asc",
	}
	if opts.Query != "" {
		q := opts.Query
		listOpts.Q = &q
	}
	if opts.Role != "" {
		role, ok := domainauth.ParseRole(opts.Role)
		if !ok {
			return fmt.Errorf("invalid --role %q; expected admin, manager, or designer", opts.Role)
		}
		listOpts.Role = &role
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		svc := newUserService(db)

		users, listErr := svc.List(ctx, listOpts)
		if listErr != nil {
			return listErr
		}
		total, countErr := svc.Count(ctx, listOpts)
		if countErr != nil {
			return countErr
		}

		if printErr := printUserTable(users); printErr != nil {
			return printErr
		}
		return writef(os.Stdout, "\n%d of %d user(s)\n", len(users), total)
	})
}

func printUserTable(users []*model.User) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(tw, "USERNAME\tEMAIL\tFULL NAME\tROLE\tCREATED\n"); err != nil {
		return err
	}
	for _, u := range users {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			u.Username,
			u.Email,
			u.FullName,
			u.Role,
			u.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush user table: %w", err)
	}
	return nil
}

func runSetPassword(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetPasswordFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		if _, updateErr := newUserService(db).Update(ctx, opts.Username, model.UpdateUserRequest{}, opts.Password); updateErr != nil {
			if errors.Is(updateErr, data.ErrUserNotFound) {
				return fmt.Errorf("user %q not found", opts.Username)
			}
			return fmt.Errorf("set password: %w", updateErr)
		}

		cmdCtx.Logger.Info("password updated", "username", opts.Username)
		return nil
	})
}

func runDeleteUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseDeleteUserFlags(args)
	if err != nil {
		return err
	}

	if confirmErr := confirmAction(opts.Yes, fmt.Sprintf("About to delete user %q and its credential.", opts.Username)); confirmErr != nil {
		return confirmErr
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		if deleteErr := newUserService(db).Delete(ctx, opts.Username); deleteErr != nil {
			if errors.Is(deleteErr, data.ErrUserNotFound) {
				return fmt.Errorf("user %q not found", opts.Username)
			}
			return fmt.Errorf("delete user: %w", deleteErr)
		}

		cmdCtx.Logger.Info("user deleted", "username", opts.Username)
		return nil
	})
}

func parseCreateUserFlags(args []string) (createUserOptions, error) {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := createUserOptions{
		Timeout: defaultCommandTimeout,
	}

	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the command to complete")
	fs.StringVar(&opts.Username, "username", "", "Username for the new account (required)")
	fs.StringVar(&opts.Email, "email", "", "Email address for the new account (required)")
	fs.StringVar(&opts.FullName, "full-name", "", "Full name for the new account")
	fs.StringVar(&opts.Role, "role", string(domainauth.RoleDesigner), "Role for the new account: admin, manager, or designer")
	fs.StringVar(&opts.Password, "password", "", "Initial password for the new account (required)")

	if err := fs.Parse(args); err != nil {
		return createUserOptions{}, err
	}

	if opts.Timeout <= 0 {
		return createUserOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Username == "" {
		return createUserOptions{}, errors.New("--username is required")
	}
	if opts.Email == "" {
		return createUserOptions{}, errors.New("--email is required")
	}
	if opts.Password == "" {
		return createUserOptions{}, errors.New("--password is required")
	}

	return opts, nil
}

func parseListUsersFlags(args []string) (listUsersOptions, error) {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listUsersOptions{
		Timeout: defaultCommandTimeout,
		Limit:   listUsersDefaultLimit,
	}

	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the command to complete")
	fs.IntVar(&opts.Limit, "limit", listUsersDefaultLimit, "Maximum number of users to display")
	fs.StringVar(&opts.Role, "role", "", "Only show users with this role")
	fs.StringVar(&opts.Query, "q", "", "Substring filter on username, email, or full name")

	if err := fs.Parse(args); err != nil {
		return listUsersOptions{}, err
	}

	if opts.Timeout <= 0 {
		return listUsersOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Limit <= 0 {
		return listUsersOptions{}, errors.New("--limit must be greater than zero")
	}

	return opts, nil
}

func parseSetPasswordFlags(args []string) (setPasswordOptions, error) {
	fs := flag.NewFlagSet("set-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := setPasswordOptions{
		Timeout: defaultCommandTimeout,
	}

	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the command to complete")
	fs.StringVar(&opts.Username, "username", "", "Username of the account to update (required)")
	fs.StringVar(&opts.Password, "password", "", "New password for the account (required)")

	if err := fs.Parse(args); err != nil {
		return setPasswordOptions{}, err
	}

	if opts.Timeout <= 0 {
		return setPasswordOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Username == "" {
		return setPasswordOptions{}, errors.New("--username is required")
	}
	if opts.Password == "" {
		return setPasswordOptions{}, errors.New("--password is required")
	}

	return opts, nil
}

func parseDeleteUserFlags(args []string) (deleteUserOptions, error) {
	fs := flag.NewFlagSet("delete-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := deleteUserOptions{
		Timeout: defaultCommandTimeout,
	}

	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the command to complete")
	fs.StringVar(&opts.Username, "username", "", "Username of the account to delete (required)")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return deleteUserOptions{}, err
	}

	if opts.Timeout <= 0 {
		return deleteUserOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Username == "" {
		return deleteUserOptions{}, errors.New("--username is required")
	}

	return opts, nil
}
