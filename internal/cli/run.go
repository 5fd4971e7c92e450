package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/config"
	"github.com/aretw0/relay/pkg/domain"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	File      string // YAML command file; takes precedence over flags
	Argv      []string
	Transport string
	Mode      string
	Timeout   string
	Reference string
	Params    string // Raw JSON object of transport parameters
	Confirm   bool
	JSON      bool
	Debug     bool
	Quiet     bool
}

// runResult is the machine-readable output shape for --json.
type runResult struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Verdict   string `json:"verdict,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Execute handles the 'run' command logic: build the command, dispatch it,
// print the transcript.
func Execute(opts RunOptions) error {
	cmd, err := buildCommand(opts)
	if err != nil {
		return err
	}

	logger := createLogger(opts.Debug)
	r := relay.New(relay.WithLogger(logger))

	sc := NewSignalContext()
	defer sc.Cancel()

	res, err := r.Dispatch(sc, cmd)
	if err != nil {
		var openErr *domain.OpenError
		if errors.As(err, &openErr) {
			return &OpenFailure{Err: err}
		}
		if errors.Is(err, domain.ErrConfirmationAbandoned) {
			printResult(res, opts)
			if !opts.Quiet {
				printSystemMessage("Confirmation abandoned; no verdict recorded.")
			}
			return nil
		}
		return err
	}

	printResult(res, opts)
	return nil
}

func buildCommand(opts RunOptions) (domain.Command, error) {
	if opts.File != "" {
		return config.Load(opts.File)
	}

	spec := config.CommandSpec{
		Argv:      opts.Argv,
		Transport: opts.Transport,
		Mode:      opts.Mode,
		Timeout:   opts.Timeout,
		Reference: opts.Reference,
	}
	if opts.Confirm {
		spec.Mode = string(domain.ModeConfirm)
	}
	if opts.Params != "" {
		if err := json.Unmarshal([]byte(opts.Params), &spec.Params); err != nil {
			return domain.Command{}, fmt.Errorf("error parsing --params JSON: %w", err)
		}
	}
	return config.Build(spec)
}

func printResult(res domain.Result, opts RunOptions) {
	if opts.JSON {
		out := runResult{
			Text:      res.Text,
			Completed: res.Completed,
		}
		if res.Verdict.Decided() {
			out.Verdict = res.Verdict.String()
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		_ = enc.Encode(out)
		return
	}

	if res.Text != "" {
		fmt.Print(res.Text)
		if res.Text[len(res.Text)-1] != '\n' {
			fmt.Println()
		}
	}
	if opts.Quiet {
		return
	}
	if !res.Completed {
		printSystemMessage("Deadline reached; output above is partial.")
	}
	if res.Err != nil {
		printSystemMessage("Transport error mid-command: %v", res.Err)
	}
	if res.Verdict.Decided() {
		printSystemMessage("Operator verdict: %s.", res.Verdict)
	}
}
