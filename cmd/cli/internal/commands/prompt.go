package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from a terminal, or line by line from a pipe.
type prompter struct {
	in   *bufio.Reader
	file *os.File
	out  io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.file = f
	}
	return p
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	return p.readLine()
}

// secret reads without echo when attached to a terminal.
func (p *prompter) secret(label string) (string, error) {
	fmt.Fprint(p.out, label)

	if p.file != nil {
		b, err := term.ReadPassword(int(p.file.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	return p.readLine()
}

func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", nil
	}
	return strings.TrimRight(line, "\r\n"), nil
}
