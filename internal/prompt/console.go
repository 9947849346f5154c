// Package prompt talks to the operator on the console: credentials, the quiz
// URL, the desired ratio and manual-intervention pauses.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrNoInput is returned when the console input is exhausted before the
// operator answered.
var ErrNoInput = errors.New("console input closed")

// Console reads operator answers line by line. Reads happen on a background
// goroutine so that every question gives up as soon as its context is done;
// a line typed after that goes to the next question. A Console must not be
// used from more than one goroutine.
type Console struct {
	in     *bufio.Reader
	inFile *os.File
	out    io.Writer
	label  lipgloss.Style
	hint   lipgloss.Style
	styled bool

	// reading is set while a read is outstanding; its result arrives on lines.
	reading bool
	lines   chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// New builds a console over the given streams. Labels are styled only when
// out is a terminal and NO_COLOR is unset.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan lineResult, 1),
		label: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		hint:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
	if f, ok := in.(*os.File); ok {
		c.inFile = f
	}
	if f, ok := out.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		c.styled = term.IsTerminal(int(f.Fd()))
	}
	return c
}

// Stdio returns a console bound to the process standard streams.
func Stdio() *Console {
	return New(os.Stdin, os.Stdout)
}

func (c *Console) render(style lipgloss.Style, text string) string {
	if !c.styled {
		return text
	}
	return style.Render(text)
}

// Ask prints label and returns the trimmed line typed by the operator.
func (c *Console) Ask(ctx context.Context, label string) (string, error) {
	fmt.Fprint(c.out, c.render(c.label, label))
	return c.readLine(ctx)
}

// AskSecret behaves like Ask but disables echo when the input is a terminal.
func (c *Console) AskSecret(ctx context.Context, label string) (string, error) {
	if c.inFile == nil || !term.IsTerminal(int(c.inFile.Fd())) {
		return c.Ask(ctx, label)
	}
	fd := int(c.inFile.Fd())
	fmt.Fprint(c.out, c.render(c.label, label))

	// ReadPassword restores echo only when it returns.
	state, err := term.GetState(fd)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	done := make(chan lineResult, 1)
	go func() {
		secret, err := term.ReadPassword(fd)
		done <- lineResult{line: string(secret), err: err}
	}()

	select {
	case <-ctx.Done():
		_ = term.Restore(fd, state)
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	case res := <-done:
		fmt.Fprintln(c.out)
		if res.err != nil {
			return "", fmt.Errorf("read secret: %w", res.err)
		}
		return strings.TrimSpace(res.line), nil
	}
}

// AskFloat repeats the question until the answer parses as a float within
// [min, max]. There is no retry limit; only closed input stops it.
func (c *Console) AskFloat(ctx context.Context, label string, min, max float64) (float64, error) {
	for {
		answer, err := c.Ask(ctx, label)
		if err != nil {
			return 0, err
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(answer, ",", "."), 64)
		if err == nil && value >= min && value <= max {
			return value, nil
		}
		fmt.Fprintln(c.out, c.render(c.hint, fmt.Sprintf("Enter a number between %g and %g.", min, max)))
	}
}

// WaitEnter prints message and blocks until the operator presses Enter.
func (c *Console) WaitEnter(ctx context.Context, message string) error {
	fmt.Fprint(c.out, c.render(c.label, message))
	_, err := c.readLine(ctx)
	return err
}

// Println writes a plain informational line.
func (c *Console) Println(text string) {
	fmt.Fprintln(c.out, c.render(c.hint, text))
}

// readLine waits for the next line or for ctx. A read left behind by a
// canceled call is not restarted; its line answers the next call.
func (c *Console) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.reading {
		c.reading = true
		go func() {
			line, err := c.in.ReadString('\n')
			c.lines <- lineResult{line: line, err: err}
		}()
	}

	var res lineResult
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-c.lines:
		c.reading = false
	}

	line, err := res.line, res.err
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("read console: %w", err)
	}
	return strings.TrimSpace(line), nil
}
