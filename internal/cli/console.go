package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/presentation/tui"
	httpadapter "github.com/aretw0/relay/pkg/adapters/http"
	"github.com/aretw0/relay/pkg/domain"
)

// ConsoleOptions configures the 'console' command: a run whose confirmation
// is answered over HTTP by a remote operator instead of the local terminal.
type ConsoleOptions struct {
	Run  RunOptions
	Addr string
}

// ExecuteConsole dispatches a command with the HTTP operator console as the
// confirmation presenter. The embedded server also exposes /metrics.
func ExecuteConsole(opts ConsoleOptions) error {
	cmd, err := buildCommand(opts.Run)
	if err != nil {
		return err
	}

	logger := createLogger(opts.Run.Debug)
	console := httpadapter.NewConsole(httpadapter.WithLogger(logger))

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: console.Handler(),
	}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("operator console listening", "address", opts.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	if !opts.Run.Quiet {
		tui.PrintBanner()
		printSystemMessage("Operator console on %s; waiting for verdicts at /confirmations.", opts.Addr)
	}

	r := relay.New(relay.WithLogger(logger), relay.WithPresenter(console))

	sc := NewSignalContext()
	defer sc.Cancel()

	res, dispatchErr := r.Dispatch(sc, cmd)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("console shutdown", "err", err)
	}
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("console server: %w", err)
		}
	default:
	}

	if dispatchErr != nil {
		var openErr *domain.OpenError
		if errors.As(dispatchErr, &openErr) {
			return &OpenFailure{Err: dispatchErr}
		}
		if errors.Is(dispatchErr, domain.ErrConfirmationAbandoned) {
			printResult(res, opts.Run)
			if !opts.Run.Quiet {
				printSystemMessage("Confirmation abandoned; no verdict recorded.")
			}
			return nil
		}
		return dispatchErr
	}

	printResult(res, opts.Run)
	return nil
}
