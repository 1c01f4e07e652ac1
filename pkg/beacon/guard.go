package beacon

import (
	"context"
	"fmt"
	"time"
)

// runConfig holds per-operation options for Run and Go.
type runConfig struct {
	format func(error) string
}

// RunOption configures a single guarded operation.
type RunOption func(*runConfig)

// FormatErrors sets the function that turns an operation fault into the
// signal's error message. The default is err.Error().
func FormatErrors(fn func(error) string) RunOption {
	return func(c *runConfig) {
		c.format = fn
	}
}

// Run executes op as a guarded operation: the signal is marked Busy first,
// and on return exactly one terminal status is applied: Success on nil
// error, Error otherwise. A panic inside op is recovered and converted to
// the Error status, so no fault escapes the signal boundary.
//
// The context passed to op is derived from ctx and from the signal's
// lifetime: disposing the signal cancels it, letting in-flight work abort
// promptly instead of completing into a discarded result.
//
// Run returns the operation's error for callers that want it; the status
// and error message are the canonical surface for consumers. Calling Run on
// a disposed signal returns ErrDisposed without executing op.
func (s *Signal[T]) Run(ctx context.Context, op func(context.Context) error, opts ...RunOption) error {
	if s.disposed.Load() {
		return ErrDisposed
	}
	cfg := runConfig{
		format: func(err error) string { return err.Error() },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.MarkBusy()
	start := time.Now()

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.lifetime, cancel)
	defer stop()

	err := runRecovered(opCtx, op)

	s.mu.Lock()
	obs := s.observer
	s.mu.Unlock()

	if err != nil {
		s.MarkError(cfg.format(err))
		obs.OperationFinished(s, StatusError, time.Since(start))
		return err
	}
	s.MarkSuccess()
	obs.OperationFinished(s, StatusSuccess, time.Since(start))
	return nil
}

// Go runs a guarded operation on its own goroutine. The status surface is
// the only result channel; use Run directly when the caller needs the error.
func (s *Signal[T]) Go(ctx context.Context, op func(context.Context) error, opts ...RunOption) {
	go func() {
		_ = s.Run(ctx, op, opts...)
	}()
}

// runRecovered invokes op, converting a panic into an error.
func runRecovered(ctx context.Context, op func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in guarded operation: %v", r)
		}
	}()
	return op(ctx)
}
