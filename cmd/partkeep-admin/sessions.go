package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

// sessionKeyPrefix matches the prefix the web server stores sessions under.
const sessionKeyPrefix = "session:"

const sessionScanBatch = 100

type listSessionsOptions struct {
	Timeout  time.Duration
	Username string
}

type clearSessionsOptions struct {
	Timeout  time.Duration
	Username string
	Yes      bool
}

type sessionEntry struct {
	Key     string
	Session domainauth.Session
	TTL     time.Duration
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}

	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		entries, scanErr := scanSessions(ctx, client, opts.Username)
		if scanErr != nil {
			return scanErr
		}

		if printErr := printSessionTable(entries); printErr != nil {
			return printErr
		}
		return writef(os.Stdout, "\n%d active session(s)\n", len(entries))
	})
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionsFlags(args)
	if err != nil {
		return err
	}

	scope := "all active sessions"
	if opts.Username != "" {
		scope = fmt.Sprintf("active sessions for user %q", opts.Username)
	}
	if confirmErr := confirmAction(opts.Yes, fmt.Sprintf("About to clear %s. Affected users must sign in again.", scope)); confirmErr != nil {
		return confirmErr
	}

	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		entries, scanErr := scanSessions(ctx, client, opts.Username)
		if scanErr != nil {
			return scanErr
		}
		if len(entries) == 0 {
			cmdCtx.Logger.Info("no matching sessions found")
			return nil
		}

		cleared := 0
		for _, entry := range entries {
			if delErr := client.Del(ctx, entry.Key).Err(); delErr != nil {
				return fmt.Errorf("delete session %q: %w", entry.Key, delErr)
			}
			cleared++
		}

		cmdCtx.Logger.Info("sessions cleared", "count", cleared)
		return nil
	})
}

// scanSessions walks the session keyspace with SCAN so large deployments are
// not blocked by a single KEYS call. Sessions that fail to decode are listed
// with empty identity fields rather than dropped.
func scanSessions(ctx context.Context, client redis.UniversalClient, username string) ([]sessionEntry, error) {
	var entries []sessionEntry

	iter := client.Scan(ctx, 0, sessionKeyPrefix+"*", sessionScanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		raw, err := client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("read session %q: %w", key, err)
		}

		var sess domainauth.Session
		_ = json.Unmarshal([]byte(raw), &sess)

		if username != "" && sess.Username != username {
			continue
		}

		ttl, err := client.TTL(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("read session ttl %q: %w", key, err)
		}

		entries = append(entries, sessionEntry{
			Key:     key,
			Session: sess,
			TTL:     ttl,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}

	return entries, nil
}

func printSessionTable(entries []sessionEntry) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(tw, "SESSION\tUSERNAME\tROLE\tEXPIRES\tTTL\n"); err != nil {
		return err
	}
	for _, entry := range entries {
		expires := ""
		if !entry.Session.ExpiresAt.IsZero() {
			expires = entry.Session.ExpiresAt.UTC().Format(time.RFC3339)
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			entry.Session.ID,
			entry.Session.Username,
			entry.Session.Role,
			expires,
			entry.TTL.Round(time.Second),
		); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush session table: %w", err)
	}
	return nil
}

func withRedis(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, redis.UniversalClient) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := connectSessionStore(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	return f(ctx, client)
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listSessionsOptions{
		Timeout: defaultCommandTimeout,
	}

	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the command to complete")
	fs.StringVar(&opts.Username, "username", "", "Only show sessions belonging to this user")

	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}

	if opts.Timeout <= 0 {
		return listSessionsOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseClearSessionsFlags(args []string) (clearSessionsOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearSessionsOptions{
		Timeout: defaultCommandTimeout,
	}

	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the command to complete")
	fs.StringVar(&opts.Username, "username", "", "Only clear sessions belonging to this user")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return clearSessionsOptions{}, err
	}

	if opts.Timeout <= 0 {
		return clearSessionsOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}
