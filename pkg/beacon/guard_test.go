package beacon

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunSuccess(t *testing.T) {
	s := New(0)
	l := newTestListener()
	s.Subscribe(l)

	var sawBusy bool
	err := s.Run(context.Background(), func(ctx context.Context) error {
		sawBusy = s.Status() == StatusBusy
		s.Set(42, Silently())
		return nil
	})

	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if !sawBusy {
		t.Error("signal should be Busy while the operation runs")
	}
	if s.Status() != StatusSuccess {
		t.Errorf("expected StatusSuccess, got %v", s.Status())
	}
	if s.Get() != 42 {
		t.Errorf("expected payload 42, got %d", s.Get())
	}
	if got := l.getDirtyCount(); got != 2 {
		t.Errorf("expected busy + success notifications, got %d", got)
	}
}

func TestRunError(t *testing.T) {
	s := New(0)
	boom := errors.New("boom")

	err := s.Run(context.Background(), func(context.Context) error {
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("Run should return the operation error, got %v", err)
	}
	if s.Status() != StatusError {
		t.Errorf("expected StatusError, got %v", s.Status())
	}
	if s.ErrorMessage() != "boom" {
		t.Errorf("expected error message %q, got %q", "boom", s.ErrorMessage())
	}
}

func TestRunRecoversPanic(t *testing.T) {
	s := New(0)

	err := s.Run(context.Background(), func(context.Context) error {
		panic("kaboom")
	})

	if err == nil {
		t.Fatal("expected an error from the recovered panic")
	}
	if s.Status() != StatusError {
		t.Errorf("a panicking operation must end in StatusError, got %v", s.Status())
	}
	if !strings.Contains(s.ErrorMessage(), "kaboom") {
		t.Errorf("error message should carry the panic value, got %q", s.ErrorMessage())
	}
}

func TestRunNeverLeavesBusy(t *testing.T) {
	s := New(0)

	ops := []func(context.Context) error{
		func(context.Context) error { return nil },
		func(context.Context) error { return errors.New("sync fault") },
		func(context.Context) error { panic("fault") },
	}
	for i, op := range ops {
		_ = s.Run(context.Background(), op)
		if st := s.Status(); st == StatusBusy {
			t.Errorf("op %d: Run left the signal stuck at Busy", i)
		}
	}
}

func TestRunErrorFormatter(t *testing.T) {
	s := New(0)

	_ = s.Run(context.Background(), func(context.Context) error {
		return errors.New("raw")
	}, FormatErrors(func(err error) string {
		return "friendly: " + err.Error()
	}))

	if got := s.ErrorMessage(); got != "friendly: raw" {
		t.Errorf("expected formatted message, got %q", got)
	}
}

func TestRunOnDisposedSignal(t *testing.T) {
	s := New(0)
	s.Dispose()

	ran := false
	err := s.Run(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})

	if !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
	if ran {
		t.Error("operation must not run on a disposed signal")
	}
}

func TestDisposeDuringPendingOperation(t *testing.T) {
	s := New(0)
	l := newTestListener()
	s.Subscribe(l)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	statusAtDispose := s.Status()
	countAtDispose := l.getDirtyCount()
	s.Dispose()
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if s.Status() != statusAtDispose {
		t.Errorf("status must stay frozen at dispose time: was %v, now %v", statusAtDispose, s.Status())
	}
	if got := l.getDirtyCount(); got != countAtDispose {
		t.Errorf("no notification may follow dispose: expected %d, got %d", countAtDispose, got)
	}
}

func TestDisposeCancelsOperationContext(t *testing.T) {
	s := New(0)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	s.Dispose()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispose did not cancel the operation context")
	}
}

func TestRunHonorsCallerContext(t *testing.T) {
	s := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, func(ctx context.Context) error {
		return ctx.Err()
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("operation context should derive from the caller context, got %v", err)
	}
	if s.Status() != StatusError {
		t.Errorf("expected StatusError, got %v", s.Status())
	}
}

func TestGoAppliesTerminalStatus(t *testing.T) {
	s := New(0)
	done := make(chan struct{})

	s.Go(context.Background(), func(context.Context) error {
		defer close(done)
		return nil
	})

	<-done
	// Go applies Success after the op returns; give the goroutine a beat.
	deadline := time.Now().Add(2 * time.Second)
	for s.Status() != StatusSuccess {
		if time.Now().After(deadline) {
			t.Fatalf("expected StatusSuccess, got %v", s.Status())
		}
		time.Sleep(time.Millisecond)
	}
}
