package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/relay/pkg/confirm"
)

// Presenter asks the operator for a verdict on the terminal. It blocks on
// operator input or on closure of its input stream; it never holds transport
// resources, so a waiting prompt cannot leak a command's channel.
type Presenter struct {
	in     io.Reader
	out    io.Writer
	render func(string) (string, error)
	isTTY  bool
}

var _ confirm.Presenter = (*Presenter)(nil)

// Option configures a Presenter.
type Option func(*Presenter)

// WithIO overrides the input/output streams (used by tests and headless
// hosts).
func WithIO(in io.Reader, out io.Writer) Option {
	return func(p *Presenter) {
		p.in = in
		p.out = out
		p.isTTY = false
	}
}

// NewPresenter builds a terminal presenter on Stdin/Stdout.
func NewPresenter(opts ...Option) *Presenter {
	p := &Presenter{
		in:    os.Stdin,
		out:   os.Stdout,
		isTTY: term.IsTerminal(int(os.Stdout.Fd())),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.render == nil {
		if p.isTTY {
			p.render = NewRenderer()
		} else {
			p.render = func(s string) (string, error) { return s, nil }
		}
	}
	return p
}

// Present shows the prompt and reads the operator's answer. Empty input
// defaults to accept; EOF or a closed input stream abandons the request.
func (p *Presenter) Present(ctx context.Context, prompt confirm.Prompt) (bool, error) {
	text := prompt.Text
	if rendered, err := p.render(text); err == nil {
		text = rendered
	}

	profile := termenv.Ascii
	if p.isTTY {
		profile = termenv.ColorProfile()
	}
	header := termenv.String("confirm command").Foreground(profile.Color("3")).Bold()

	fmt.Fprintf(p.out, "%s\n%s\n", header, strings.TrimRight(text, "\n"))
	if prompt.ReferencePath != "" {
		fmt.Fprintf(p.out, "reference: %s\n", prompt.ReferencePath)
	}
	fmt.Fprint(p.out, "accept result? [Y/n] ")

	answerCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(p.in)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				errCh <- err
				return
			}
			errCh <- io.EOF
			return
		}
		answerCh <- scanner.Text()
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errCh:
		return false, err
	case answer := <-answerCh:
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "", "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
