// Package lifecycle runs a service's HTTP server and background workers and
// tears them down in a fixed order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Worker runs until its context is canceled. Returning context.Canceled is a
// clean exit; any other error stops the service.
type Worker struct {
	Name string
	Run  func(ctx context.Context) error
}

// Step is one shutdown action with its own deadline.
type Step struct {
	Name    string
	Timeout time.Duration
	Stop    func(ctx context.Context) error
}

// Closer adapts an io.Closer-style method to Step.Stop.
func Closer(close func() error) func(context.Context) error {
	return func(context.Context) error { return close() }
}

// Run serves srv and starts workers, then blocks until ctx is done or one
// of them fails. Workers are canceled before steps run in order; every step
// runs even if an earlier one fails. The result joins the failure that
// ended the run with any step errors.
func Run(ctx context.Context, logger *slog.Logger, srv *http.Server, workers []Worker, steps []Step) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	failed := make(chan error, len(workers)+1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			failed <- fmt.Errorf("http server: %w", err)
		}
	}()
	for _, w := range workers {
		go func() {
			if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				failed <- fmt.Errorf("%s: %w", w.Name, err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-failed:
		logger.Error("service component failed", slog.String("error", runErr.Error()))
	}
	cancel()

	steps = append([]Step{{Name: "http server", Timeout: 10 * time.Second, Stop: srv.Shutdown}}, steps...)
	return errors.Join(runErr, Shutdown(logger, steps...))
}

// Shutdown runs steps in order and joins their errors.
func Shutdown(logger *slog.Logger, steps ...Step) error {
	var errs []error
	for _, s := range steps {
		if s.Stop == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		err := s.Stop(ctx)
		cancel()
		if err != nil {
			logger.Error("shutdown step failed", slog.String("step", s.Name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	logger.Info("shutdown complete")
	return errors.Join(errs...)
}
