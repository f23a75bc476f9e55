package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNonInteractive is returned when a value must be prompted for but stdin
// is not a terminal.
var ErrNonInteractive = errors.New("input required in non-interactive mode")

// Prompter asks the user for values the flags and environment left out.
type Prompter interface {
	Input(label string, validate func(string) error) (string, error)
	Secret(label string) (string, error)
}

type terminalPrompter struct {
	out io.Writer
}

func NewTerminalPrompter(out io.Writer) Prompter {
	return &terminalPrompter{out: out}
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (p *terminalPrompter) Input(label string, validate func(string) error) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), ErrNonInteractive)
	}

	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return strings.TrimSpace(value), nil
}

// Secret reads without echo, the same way passwords are read elsewhere.
func (p *terminalPrompter) Secret(label string) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), ErrNonInteractive)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// valueOr returns the first non-empty of value and the environment variable
// env, prompting as a last resort.
func valueOr(value, env string, ask func() (string, error)) (string, error) {
	if value != "" {
		return value, nil
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	return ask()
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}
