package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/phrazzld/account-api/internal/store"
)

var errEmptyPassword = errors.New("password cannot be empty")

// readPassword prompts on out and reads a password from in. Terminal input
// is not echoed; anything else is read as a single line.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// hashPassword applies the same length policy as the credential store and
// returns the bcrypt hash of password.
func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	if len(password) < store.MinPasswordLength || len(password) > store.MaxPasswordLength {
		return "", fmt.Errorf("password must be between %d and %d bytes",
			store.MinPasswordLength, store.MaxPasswordLength)
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
