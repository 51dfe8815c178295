// Package main is an administrative tool for the account API.
//
// Usage:
//
//	accountctl lock [-minutes N] <username>
//	accountctl unlock <username>
//	accountctl hash [-cost N]
//
// lock and unlock read the same configuration as the server. hash prompts
// for a password without echoing it and prints the bcrypt hash.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/account-api/internal/redact"
)

var errUsage = errors.New("usage: accountctl <lock|unlock|hash> [flags] [username]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, errUsage)
			os.Exit(2)
		}
		slog.Error("accountctl failed", "error", redact.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "lock":
		fs := flag.NewFlagSet("lock", flag.ContinueOnError)
		minutes := fs.Int("minutes", 0, "lock duration in minutes (0 locks indefinitely)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errUsage
		}
		return withStore(ctx, func(ctx context.Context, a *admin) error {
			until, err := a.lock(ctx, fs.Arg(0), *minutes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(stdout, "locked %s until %s\n", fs.Arg(0), until.Format("2006-01-02T15:04:05Z07:00"))
			return err
		})
	case "unlock":
		if len(args) != 2 {
			return errUsage
		}
		return withStore(ctx, func(ctx context.Context, a *admin) error {
			if err := a.unlock(ctx, args[1]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(stdout, "unlocked %s\n", args[1])
			return err
		})
	case "hash":
		fs := flag.NewFlagSet("hash", flag.ContinueOnError)
		cost := fs.Int("cost", 0, "bcrypt cost (defaults to bcrypt.DefaultCost)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		password, err := readPassword(stdin, stdout)
		if err != nil {
			return err
		}
		hash, err := hashPassword(password, *cost)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, hash)
		return err
	default:
		return errUsage
	}
}
