package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrPromptCancelled is returned when the user interrupts a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Prompter reads values the user did not pass as flags.
type Prompter interface {
	Line(prompt string) (string, error)
	Password(prompt string) (string, error)
}

// TerminalPrompter prompts on the controlling terminal.
type TerminalPrompter struct{}

// NewPrompter returns a TerminalPrompter when stdin is a terminal and nil
// otherwise, so scripted runs fail on missing input instead of blocking.
func NewPrompter() Prompter {
	if !readline.DefaultIsTerminal() {
		return nil
	}
	return TerminalPrompter{}
}

// Line reads one line of input.
func (TerminalPrompter) Line(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return "", fmt.Errorf("failed to open terminal: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return "", promptError(err)
	}
	return strings.TrimSpace(line), nil
}

// Password reads a line without echoing it.
func (TerminalPrompter) Password(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{InterruptPrompt: "^C"})
	if err != nil {
		return "", fmt.Errorf("failed to open terminal: %w", err)
	}
	defer rl.Close()

	pw, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", promptError(err)
	}
	return string(pw), nil
}

func promptError(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrPromptCancelled
	}
	return err
}
