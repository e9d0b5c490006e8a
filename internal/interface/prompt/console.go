package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConsolePrompter reads answers line by line from an input stream. It
// implements repository.Prompter on stdin/stdout by default.
type ConsolePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewConsolePrompter creates a prompter on stdin/stdout.
func NewConsolePrompter() *ConsolePrompter {
	return New(os.Stdin, os.Stdout)
}

// New creates a prompter on arbitrary streams.
func New(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{
		reader: bufio.NewReader(in),
		writer: out,
	}
}

// Ask prints the prompt and returns the trimmed answer line.
func (p *ConsolePrompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.writer, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Say prints user-facing text verbatim, on its own line.
func (p *ConsolePrompter) Say(text string) {
	fmt.Fprintln(p.writer, text)
}
