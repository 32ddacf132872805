// Command hashpw prints an argon2id hash for DASHBOARD_PASSWORD_HASH and,
// optionally, a fresh SESSION_SECRET.
//
//	echo -n 'correct horse' | hashpw -format env -secret >> .env
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quotecast/quotecast/internal/auth"
)

type output struct {
	PasswordHash  string `json:"dashboard_password_hash"`
	SessionSecret string `json:"session_secret,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("hashpw", flag.ContinueOnError)
	var (
		password = fs.String("password", "", "Dashboard password (read from stdin when empty)")
		secret   = fs.Bool("secret", false, "Also generate a SESSION_SECRET")
		format   = fs.String("format", "plain", "Output format: plain, env or json")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *password
	if pw == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if pw == "" {
		return errors.New("password is required")
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	out := output{PasswordHash: hash}

	if *secret {
		out.SessionSecret, err = auth.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Fprintln(stdout, out.PasswordHash)
		if out.SessionSecret != "" {
			fmt.Fprintln(stdout, out.SessionSecret)
		}
	case "env":
		// Single quotes keep the '$' separators from being expanded.
		fmt.Fprintf(stdout, "DASHBOARD_PASSWORD_HASH='%s'\n", out.PasswordHash)
		if out.SessionSecret != "" {
			fmt.Fprintf(stdout, "SESSION_SECRET=%s\n", out.SessionSecret)
		}
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return errors.New("invalid format; use plain, env or json")
	}
	return nil
}
