package beacon

import (
	"errors"
	"testing"
)

type sessionState struct{ UserID string }
type cartState struct{ Items int }

func TestProvideInvokesFactoryOnce(t *testing.T) {
	sc := NewScope(nil)

	calls := 0
	factory := func() *Signal[sessionState] {
		calls++
		return New(sessionState{})
	}

	first := Provide(sc, factory)
	second := Provide(sc, factory)

	if calls != 1 {
		t.Errorf("factory must run exactly once per scope, ran %d times", calls)
	}
	if first != second {
		t.Error("Provide must return the same instance for the same type")
	}
}

func TestResolveNearest(t *testing.T) {
	root := NewScope(nil)
	child := NewScope(root)

	provided := Provide(root, func() *Signal[sessionState] {
		return New(sessionState{UserID: "u1"})
	})

	got, err := Resolve[sessionState](child)
	if err != nil {
		t.Fatalf("Resolve returned %v", err)
	}
	if got != provided {
		t.Error("child scope should resolve the parent's signal")
	}
}

func TestResolveShadowing(t *testing.T) {
	root := NewScope(nil)
	child := NewScope(root)

	Provide(root, func() *Signal[sessionState] { return New(sessionState{UserID: "root"}) })
	inner := Provide(child, func() *Signal[sessionState] { return New(sessionState{UserID: "child"}) })

	got, err := Resolve[sessionState](child)
	if err != nil {
		t.Fatalf("Resolve returned %v", err)
	}
	if got != inner {
		t.Error("the nearest provider wins")
	}
}

func TestResolveNotFound(t *testing.T) {
	sc := NewScope(nil)

	_, err := Resolve[cartState](sc)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMustResolvePanicsOnAbsence(t *testing.T) {
	sc := NewScope(nil)

	defer func() {
		if recover() == nil {
			t.Error("MustResolve must panic when no provider exists")
		}
	}()
	MustResolve[cartState](sc)
}

func TestScopeDisposeDisposesProvidedSignals(t *testing.T) {
	sc := NewScope(nil)
	sig := Provide(sc, func() *Signal[cartState] { return New(cartState{}) })

	sc.Dispose()

	if !sig.Disposed() {
		t.Error("provided signal must be disposed with its owning scope")
	}
	if _, err := Resolve[cartState](sc); !errors.Is(err, ErrNotFound) {
		t.Errorf("disposed scope must not resolve, got %v", err)
	}
}

func TestScopeDisposeCascadesToChildren(t *testing.T) {
	root := NewScope(nil)
	child := NewScope(root)
	grandchild := NewScope(child)

	sig := Provide(grandchild, func() *Signal[cartState] { return New(cartState{}) })

	root.Dispose()

	if !child.Disposed() || !grandchild.Disposed() {
		t.Error("dispose must cascade to all descendant scopes")
	}
	if !sig.Disposed() {
		t.Error("dispose must reach signals provided by descendants")
	}
}

func TestScopeCleanupsRunInReverseOrder(t *testing.T) {
	sc := NewScope(nil)

	var order []int
	sc.OnCleanup(func() { order = append(order, 1) })
	sc.OnCleanup(func() { order = append(order, 2) })
	sc.OnCleanup(func() { order = append(order, 3) })

	sc.Dispose()

	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("expected reverse order [3 2 1], got %v", order)
	}
}

func TestOnCleanupAfterDisposeRunsImmediately(t *testing.T) {
	sc := NewScope(nil)
	sc.Dispose()

	ran := false
	sc.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("cleanup registered on a disposed scope must run immediately")
	}
}

func TestScopeDoubleDisposeIsNoOp(t *testing.T) {
	sc := NewScope(nil)

	runs := 0
	sc.OnCleanup(func() { runs++ })

	sc.Dispose()
	sc.Dispose()

	if runs != 1 {
		t.Errorf("cleanups must run exactly once, ran %d times", runs)
	}
}

func TestProvideOnDisposedScope(t *testing.T) {
	sc := NewScope(nil)
	sc.Dispose()

	sig := Provide(sc, func() *Signal[cartState] { return New(cartState{}) })
	if !sig.Disposed() {
		t.Error("a signal provided on a disposed scope must come back disposed")
	}
}

func TestDisposedChildDetachesFromParent(t *testing.T) {
	root := NewScope(nil)
	child := NewScope(root)

	child.Dispose()
	root.Dispose() // must not re-dispose or panic on the detached child
}
