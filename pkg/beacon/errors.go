package beacon

import "errors"

// ErrNotFound is returned by Resolve when no signal of the requested type is
// provided anywhere in the scope chain. This indicates a wiring defect and
// should be treated as a hard failure at the call site, not swallowed.
var ErrNotFound = errors.New("beacon: no signal of the requested type in scope")

// ErrDisposed is returned by Run when the signal was already disposed before
// the operation started. Note that mutator calls on a disposed signal are
// silent no-ops; only starting new guarded work reports the condition.
var ErrDisposed = errors.New("beacon: signal disposed")
