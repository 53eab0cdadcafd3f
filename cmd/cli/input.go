package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is swapped in tests to keep the terminal out of the way.
var readPassword = term.ReadPassword

// promptPassword asks for a password on w and reads it from stdin without echo.
func promptPassword(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return "", errors.New("empty password")
	}
	return string(pw), nil
}

// passwordOr returns flagVal when set and prompts otherwise.
func passwordOr(flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	return promptPassword(os.Stderr)
}
