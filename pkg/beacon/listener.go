package beacon

// ChangeKind discriminates what part of a signal changed. Predicates match
// on the kind instead of inspecting the emitting signal's runtime type.
type ChangeKind uint8

const (
	// KindStatus marks a busy/success/error transition.
	KindStatus ChangeKind = iota + 1

	// KindPayload marks a payload write that changed the value.
	KindPayload
)

// String returns a human-readable name for the change kind.
func (k ChangeKind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindPayload:
		return "payload"
	default:
		return "unknown"
	}
}

// Change describes a single emission from a signal. It is passed to
// listeners and predicates; the payload itself is not carried, consumers
// read it back from the signal.
type Change struct {
	// Kind says whether the status or the payload changed.
	Kind ChangeKind

	// Status is the signal's status at the moment of emission.
	Status Status
}

// Listener is anything that can be notified when a signal changes.
// Implemented by binders, derived projections, and test doubles.
type Listener interface {
	// MarkDirty notifies the listener that the signal changed. The refresh
	// it performs must be idempotent: batching may coalesce several
	// emissions into one call.
	MarkDirty(Change)

	// ID returns a unique identifier for this listener. A signal keeps at
	// most one active subscription per listener ID.
	ID() uint64
}

// Emitter is the type-erased view of a signal presented to predicates and
// observers, where the payload type parameter is not known.
type Emitter interface {
	// ID returns the signal's unique identifier.
	ID() uint64

	// Name returns the signal's diagnostic name.
	Name() string

	// Status returns the signal's current status.
	Status() Status

	// Disposed reports whether the signal has been disposed.
	Disposed() bool
}

// Source is a subscribable Emitter. Every Signal[T] is a Source; the
// type-erased form lets binders attach without knowing the payload type.
type Source interface {
	Emitter
	Subscribe(l Listener, opts ...SubscribeOption) *Subscription
}

// Predicate decides per emission whether a subscription forwards the event
// to its listener. A nil predicate forwards everything.
type Predicate func(src Emitter, c Change) bool
