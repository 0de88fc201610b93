package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// InputProvider supplies additional human input at the graph's suspension
// points (input_email, input_json). Implementations block until a line is
// available; the graph never busy-waits.
type InputProvider interface {
	ReadInput(ctx context.Context) (string, error)
}

// IsQuitSentinel reports whether a line asks to end the interaction.
func IsQuitSentinel(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// ReaderInput reads lines from an io.Reader (normally stdin), printing a
// prompt first. The read itself is a plain blocking scan.
type ReaderInput struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

func NewReaderInput(in io.Reader, out io.Writer, prompt string) *ReaderInput {
	if prompt == "" {
		prompt = "User: "
	}
	return &ReaderInput{scanner: bufio.NewScanner(in), out: out, prompt: prompt}
}

func (r *ReaderInput) ReadInput(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.out != nil {
		fmt.Fprint(r.out, r.prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// ScriptedInput replays pre-supplied lines, letting the same state machine
// run under a batch driver without a terminal. Exhausting the script yields
// io.EOF.
type ScriptedInput struct {
	lines []string
}

func NewScriptedInput(lines ...string) *ScriptedInput {
	return &ScriptedInput{lines: lines}
}

func (s *ScriptedInput) ReadInput(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}
