package beacon

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// disposable is anything a scope can own and tear down.
type disposable interface {
	Dispose()
}

// Scope owns signals and resolves the nearest instance of a payload type
// for descendant code. Scopes form a hierarchy mirroring whatever structure
// the consuming application has (for a UI, the component tree). Disposing a
// scope disposes its children, then the signals it provided, then runs
// registered cleanups.
//
// Each provided signal has exactly one owner: the scope that created it.
// Resolve never transfers ownership.
type Scope struct {
	id     uint64
	parent *Scope

	mu       sync.Mutex
	children []*Scope
	provided map[reflect.Type]disposable
	owned    []disposable // creation order
	cleanups []func()

	observer Observer
	disposed atomic.Bool
}

// NewScope creates a scope. A non-nil parent registers the new scope as a
// child and lends it its observer unless one is set explicitly.
func NewScope(parent *Scope, opts ...Option) *Scope {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	sc := &Scope{
		id:       nextID(),
		parent:   parent,
		provided: make(map[reflect.Type]disposable),
		observer: cfg.observer,
	}
	if sc.observer == nil {
		if parent != nil {
			sc.observer = parent.observer
		} else {
			sc.observer = NopObserver{}
		}
	}

	if parent != nil {
		parent.addChild(sc)
	}
	return sc
}

// ID returns the unique identifier for this scope.
func (sc *Scope) ID() uint64 {
	return sc.id
}

// Parent returns the parent scope, or nil for a root scope.
func (sc *Scope) Parent() *Scope {
	return sc.parent
}

// Disposed reports whether this scope has been disposed.
func (sc *Scope) Disposed() bool {
	return sc.disposed.Load()
}

func (sc *Scope) addChild(child *Scope) {
	sc.mu.Lock()
	sc.children = append(sc.children, child)
	sc.mu.Unlock()
}

func (sc *Scope) removeChild(child *Scope) {
	sc.mu.Lock()
	for i, c := range sc.children {
		if c == child {
			sc.children = append(sc.children[:i], sc.children[i+1:]...)
			break
		}
	}
	sc.mu.Unlock()
}

// OnCleanup registers a function to run when the scope is disposed.
// Cleanups run in reverse registration order. Registering on an
// already-disposed scope runs the function immediately.
func (sc *Scope) OnCleanup(fn func()) {
	if sc.disposed.Load() {
		fn()
		return
	}
	sc.mu.Lock()
	sc.cleanups = append(sc.cleanups, fn)
	sc.mu.Unlock()
}

// Dispose tears the scope down: children in reverse creation order, then
// provided signals in reverse creation order, then cleanups in reverse
// registration order. Idempotent.
func (sc *Scope) Dispose() {
	if sc.disposed.Swap(true) {
		return
	}

	if sc.parent != nil {
		sc.parent.removeChild(sc)
	}

	sc.mu.Lock()
	children := sc.children
	sc.children = nil
	owned := sc.owned
	sc.owned = nil
	sc.provided = nil
	cleanups := sc.cleanups
	sc.cleanups = nil
	sc.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}
	for i := len(owned) - 1; i >= 0; i-- {
		owned[i].Dispose()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// Provide returns the scope's signal for payload type T, invoking factory
// exactly once per scope to create it. The scope assumes ownership and will
// dispose the signal; the factory's caller must not.
//
// Providing on a disposed scope still returns a signal, but it is disposed
// before it is returned, so every use of it is inert.
func Provide[T any](sc *Scope, factory func() *Signal[T]) *Signal[T] {
	key := typeKey[T]()

	sc.mu.Lock()
	if existing, ok := sc.provided[key]; ok {
		sc.mu.Unlock()
		return existing.(*Signal[T])
	}
	sc.mu.Unlock()

	// The factory runs unlocked: it may resolve from parent scopes.
	sig := factory()

	sc.mu.Lock()
	if sc.provided == nil {
		// Scope disposed while the factory ran.
		sc.mu.Unlock()
		sig.Dispose()
		return sig
	}
	if existing, ok := sc.provided[key]; ok {
		sc.mu.Unlock()
		sig.Dispose()
		return existing.(*Signal[T])
	}
	sc.provided[key] = sig
	sc.owned = append(sc.owned, sig)
	obs := sc.observer
	sc.mu.Unlock()

	sig.adoptObserver(obs)

	if sc.disposed.Load() {
		sig.Dispose()
	}
	return sig
}

// Resolve returns the nearest signal of payload type T, searching this
// scope and then its ancestors. Absence is a wiring defect and surfaces as
// a hard ErrNotFound, never a silent nil.
func Resolve[T any](sc *Scope) (*Signal[T], error) {
	key := typeKey[T]()
	for cur := sc; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		v, ok := cur.provided[key]
		cur.mu.Unlock()
		if ok {
			return v.(*Signal[T]), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// MustResolve is Resolve that panics on absence. For wiring code where a
// missing provider is a programming error that should fail loudly.
func MustResolve[T any](sc *Scope) *Signal[T] {
	sig, err := Resolve[T](sc)
	if err != nil {
		panic(err)
	}
	return sig
}

// typeKey returns the lookup key for payload type T.
func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
