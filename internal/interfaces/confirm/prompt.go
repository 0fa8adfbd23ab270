// internal/interfaces/confirm/prompt.go
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user a yes/no question
type Prompter interface {
	Confirm(question string) (bool, error)
}

// Terminal prompts on a line-oriented terminal. Anything but y or yes is a no.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a prompter reading answers from in
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Confirm implements Prompter
func (t *Terminal) Confirm(question string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N]: ", question)

	line, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Always answers every question with the same value
type Always bool

// Confirm implements Prompter
func (a Always) Confirm(string) (bool, error) {
	return bool(a), nil
}
