package beacon

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Signal is a unit of observable state: an arbitrary payload plus a
// busy/success/error status, with a single notification channel that fires
// whenever either changes.
//
// A signal is exclusively owned by whoever created it (or by the Scope that
// provided it) and is disposed exactly once by that owner. After disposal
// every mutation is a silent no-op.
type Signal[T any] struct {
	id   uint64
	name string

	mu       sync.Mutex
	value    T
	status   Status
	errMsg   string
	observer Observer

	// equal decides whether a payload write changed the value.
	// nil means defaultEquals.
	equal func(T, T) bool

	subs *registry

	disposed atomic.Bool
	lifetime context.Context
	cancel   context.CancelFunc

	// derived are the subscriptions this signal holds on parent signals.
	// They are cancelled on dispose.
	derivedMu   sync.Mutex
	derived     []*Subscription
	derivedFrom map[uint64]struct{}
}

// New creates a signal with the given initial payload and StatusIdle.
func New[T any](initial T, opts ...Option) *Signal[T] {
	cfg := applyOptions(opts)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Signal[T]{
		id:       nextID(),
		name:     cfg.name,
		value:    initial,
		status:   StatusIdle,
		observer: cfg.observer,
		lifetime: ctx,
		cancel:   cancel,
	}
	if s.name == "" {
		s.name = fmt.Sprintf("signal-%d", s.id)
	}
	s.subs = &registry{owner: s}

	s.observer.SignalCreated(s)
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.id
}

// Name returns the signal's diagnostic name.
func (s *Signal[T]) Name() string {
	return s.name
}

// Status returns the current status.
func (s *Signal[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Disposed reports whether the signal has been disposed.
func (s *Signal[T]) Disposed() bool {
	return s.disposed.Load()
}

// Lifetime returns a context that is cancelled when the signal is disposed.
// Guarded operations receive a context derived from it, so in-flight work
// can observe disposal and abort instead of running to a discarded result.
func (s *Signal[T]) Lifetime() context.Context {
	return s.lifetime
}

// Get returns the current payload.
func (s *Signal[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set writes the payload and notifies subscribers if the value changed.
// Equality is decided by the signal's equality function.
func (s *Signal[T]) Set(value T, opts ...NotifyOption) {
	cfg := applyNotifyOptions(opts)

	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		return
	}
	if s.equals(s.value, value) {
		s.mu.Unlock()
		return
	}
	s.value = value
	st := s.status
	obs := s.observer
	s.mu.Unlock()

	if !cfg.silent {
		s.emit(obs, Change{Kind: KindPayload, Status: st})
	}
}

// Update atomically reads and rewrites the payload. Notifies if the result
// differs from the prior value.
func (s *Signal[T]) Update(fn func(T) T, opts ...NotifyOption) {
	cfg := applyNotifyOptions(opts)

	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		return
	}
	next := fn(s.value)
	if s.equals(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	st := s.status
	obs := s.observer
	s.mu.Unlock()

	if !cfg.silent {
		s.emit(obs, Change{Kind: KindPayload, Status: st})
	}
}

// MarkBusy transitions the status to Busy and clears any prior error.
// Re-entering Busy while already Busy is a no-op and does not re-notify.
func (s *Signal[T]) MarkBusy(opts ...NotifyOption) {
	cfg := applyNotifyOptions(opts)

	s.mu.Lock()
	if s.disposed.Load() || s.status == StatusBusy {
		s.mu.Unlock()
		return
	}
	s.status = StatusBusy
	s.errMsg = ""
	obs := s.observer
	s.mu.Unlock()

	obs.StatusChanged(s, StatusBusy)
	if !cfg.silent {
		s.emit(obs, Change{Kind: KindStatus, Status: StatusBusy})
	}
}

// MarkSuccess transitions the status to Success and clears any prior error.
// Unlike Busy, Success is always re-announced: marking an already-successful
// signal notifies again so consumers can refresh from a fresh payload.
func (s *Signal[T]) MarkSuccess(opts ...NotifyOption) {
	cfg := applyNotifyOptions(opts)

	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		return
	}
	s.status = StatusSuccess
	s.errMsg = ""
	obs := s.observer
	s.mu.Unlock()

	obs.StatusChanged(s, StatusSuccess)
	if !cfg.silent {
		s.emit(obs, Change{Kind: KindStatus, Status: StatusSuccess})
	}
}

// MarkError transitions the status to Error with the given message.
func (s *Signal[T]) MarkError(msg string, opts ...NotifyOption) {
	cfg := applyNotifyOptions(opts)

	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		return
	}
	s.status = StatusError
	s.errMsg = msg
	obs := s.observer
	s.mu.Unlock()

	obs.StatusChanged(s, StatusError)
	if !cfg.silent {
		s.emit(obs, Change{Kind: KindStatus, Status: StatusError})
	}
}

// ErrorMessage returns the current error message, or "" when the status is
// not Error. Reading does not clear the message; it persists until the next
// transition or an explicit ClearError.
func (s *Signal[T]) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// TakeError returns the error message and clears it, leaving the status at
// Error. The first read after a failure yields the message; subsequent
// reads yield "". For consumers that display an error exactly once.
func (s *Signal[T]) TakeError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.errMsg
	s.errMsg = ""
	return msg
}

// ClearError resets an Error status back to Idle and notifies. No-op when
// the status is not Error.
func (s *Signal[T]) ClearError(opts ...NotifyOption) {
	cfg := applyNotifyOptions(opts)

	s.mu.Lock()
	if s.disposed.Load() || s.status != StatusError {
		s.mu.Unlock()
		return
	}
	s.status = StatusIdle
	s.errMsg = ""
	obs := s.observer
	s.mu.Unlock()

	obs.StatusChanged(s, StatusIdle)
	if !cfg.silent {
		s.emit(obs, Change{Kind: KindStatus, Status: StatusIdle})
	}
}

// Subscribe attaches a listener. At most one subscription per listener ID is
// active: subscribing an already-subscribed listener cancels the prior
// subscription before installing the new one. Subscribing to a disposed
// signal returns an already-cancelled handle.
func (s *Signal[T]) Subscribe(l Listener, opts ...SubscribeOption) *Subscription {
	var cfg subscribeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return s.subs.subscribe(l, cfg)
}

// ListenerCount returns the number of attached subscriptions.
func (s *Signal[T]) ListenerCount() int {
	return s.subs.listenerCount()
}

// Dispose tears the signal down: derived subscriptions on parents are
// cancelled, the lifetime context is cancelled, and the notification channel
// is closed. Idempotent; a second call is a guaranteed no-op. Mutations
// racing a pending guarded operation are absorbed by the disposed gate.
func (s *Signal[T]) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	s.derivedMu.Lock()
	derived := s.derived
	s.derived = nil
	s.derivedFrom = nil
	s.derivedMu.Unlock()
	for _, sub := range derived {
		sub.Cancel()
	}

	s.cancel()
	s.subs.clear()

	s.mu.Lock()
	obs := s.observer
	s.mu.Unlock()
	obs.SignalDisposed(s)
}

// WithEquals configures a custom equality function for payload writes.
// Useful where reflect.DeepEqual is too expensive or has the wrong
// semantics. Returns the signal for chaining at construction.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.mu.Lock()
	s.equal = fn
	s.mu.Unlock()
	return s
}

// emit reports the emission to the observer and fans it out to subscribers.
func (s *Signal[T]) emit(obs Observer, c Change) {
	obs.SignalNotified(s, c)
	s.subs.notifyAll(c)
}

// equals is called with s.mu held.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// adoptObserver installs an observer on a signal that has none. Used by
// Provide so scope-provided signals show up in the scope's diagnostics
// without every factory having to thread the option through.
func (s *Signal[T]) adoptObserver(o Observer) {
	if o == nil {
		return
	}
	if _, nop := o.(NopObserver); nop {
		return
	}

	s.mu.Lock()
	_, hasNone := s.observer.(NopObserver)
	if hasNone {
		s.observer = o
	}
	s.mu.Unlock()

	if hasNone {
		o.SignalCreated(s)
	}
}

// defaultEquals compares with == for common comparable types and falls back
// to reflect.DeepEqual for the rest.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
