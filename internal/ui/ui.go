// Package ui handles interaction with the user on a terminal: yes/no
// prompts, editing text in an external editor, and error and warning lines.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// Terminal talks to the user. Prompts are only asked when Interactive is
// set; otherwise they resolve to their default.
type Terminal struct {
	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Editor      string
	Interactive bool

	reader *bufio.Reader
}

// NewTerminal returns a Terminal on the process's standard streams.
func NewTerminal(editor string) *Terminal {
	return &Terminal{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Editor:      editor,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// Message prints a line to the output stream.
func (t *Terminal) Message(format string, args ...interface{}) {
	fmt.Fprintf(t.Out, format+"\n", args...)
}

// Warning prints a warning line to the error stream.
func (t *Terminal) Warning(format string, args ...interface{}) {
	fmt.Fprintf(t.Err, "warning: "+format+"\n", args...)
}

// Error prints an error line to the error stream.
func (t *Terminal) Error(format string, args ...interface{}) {
	fmt.Fprintf(t.Err, "error: "+format+"\n", args...)
}

// PromptYesNo asks question and returns the answer. An empty answer or a
// non-interactive terminal gives def. End of input answers no.
func (t *Terminal) PromptYesNo(question string, def bool) bool {
	if !t.Interactive {
		return def
	}
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}

	choices := "[y/N]"
	if def {
		choices = "[Y/n]"
	}
	for {
		fmt.Fprintf(t.Err, "%s %s ", question, choices)
		input, err := t.reader.ReadString('\n')
		input = strings.ToLower(strings.TrimSpace(input))

		switch {
		case input == "y" || input == "yes":
			return true
		case input == "n" || input == "no":
			return false
		case err != nil:
			// Ctrl-D or a closed pipe declines.
			fmt.Fprintln(t.Err)
			return false
		case input == "":
			return def
		}
		fmt.Fprintln(t.Err, "Please answer y or n.")
	}
}

// EditText opens initial in the editor and returns the saved text. The
// temp file gets suffix so editors can pick a syntax mode.
func (t *Terminal) EditText(initial, suffix string) (string, error) {
	f, err := os.CreateTemp("", "papyrus-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	args := strings.Fields(t.Editor)
	if len(args) == 0 {
		return "", fmt.Errorf("no editor configured")
	}
	cmd := exec.Command(args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running editor %s: %w", args[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return string(data), nil
}
