package geo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter answers yes/no questions on behalf of the user.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// FixedPrompter returns the same answer to every question.
type FixedPrompter bool

func (p FixedPrompter) Confirm(context.Context, string) (bool, error) {
	return bool(p), nil
}

// TerminalPrompter asks on Out and reads a y/n line from In.
// Only y/yes (or Turkish e/evet) count as a grant.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.Out, "%s [y/N] ", question)

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "e", "evet":
		return true, nil
	}
	return false, nil
}
