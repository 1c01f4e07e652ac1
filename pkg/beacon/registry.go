package beacon

import (
	"sync"
	"sync/atomic"
)

// Subscription is the handle returned by Subscribe. Cancel detaches the
// listener; after Cancel returns the listener receives no further
// notifications. Cancel is idempotent and a cancelled handle is inert.
type Subscription struct {
	id        uint64
	listener  Listener
	predicate Predicate
	reg       *registry
	cancelled atomic.Bool
}

// Cancel detaches the subscription. Double-cancel is a no-op.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	if s.cancelled.Swap(true) {
		return
	}
	s.reg.remove(s)
}

// Active reports whether the subscription is still attached.
func (s *Subscription) Active() bool {
	return s != nil && !s.cancelled.Load()
}

// registry tracks the listeners attached to one signal. It is private to
// its signal; consumers only touch it through Subscribe and Cancel.
type registry struct {
	owner Emitter

	mu     sync.Mutex
	subs   []*Subscription // registration order
	closed bool
}

// subscribe attaches a listener, replacing any prior subscription with the
// same listener ID. The old subscription is cancelled before the new one is
// installed, so the two are never active simultaneously.
func (r *registry) subscribe(l Listener, cfg subscribeConfig) *Subscription {
	sub := &Subscription{
		id:        nextID(),
		listener:  l,
		predicate: cfg.predicate,
		reg:       r,
	}
	if l == nil {
		sub.cancelled.Store(true)
		return sub
	}

	var replaced *Subscription
	r.mu.Lock()
	lid := l.ID()
	for i, existing := range r.subs {
		if existing.listener.ID() == lid {
			replaced = existing
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			break
		}
	}
	if replaced != nil {
		replaced.cancelled.Store(true)
	}
	if r.closed {
		sub.cancelled.Store(true)
	} else {
		r.subs = append(r.subs, sub)
	}
	r.mu.Unlock()
	return sub
}

// remove detaches a subscription, preserving the order of the rest.
func (r *registry) remove(sub *Subscription) {
	r.mu.Lock()
	for i, existing := range r.subs {
		if existing == sub {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
}

// notifyAll delivers a change to a snapshot of the current subscribers, in
// registration order. Listeners added during delivery do not see the
// in-flight event; a listener that cancels itself mid-delivery is skipped
// for the rest of the pass. Inside a Batch the deliveries are queued and
// coalesced instead.
func (r *registry) notifyAll(c Change) {
	r.mu.Lock()
	snapshot := make([]*Subscription, len(r.subs))
	copy(snapshot, r.subs)
	r.mu.Unlock()

	if b := currentBatch(); b != nil {
		for _, sub := range snapshot {
			b.queue(sub, c)
		}
		return
	}

	for _, sub := range snapshot {
		sub.deliver(c)
	}
}

// deliver invokes the subscription's listener for one emission. A panicking
// predicate or listener must not abort delivery to the remaining
// subscribers, so faults are contained here.
func (s *Subscription) deliver(c Change) {
	if s.cancelled.Load() {
		return
	}
	defer func() {
		_ = recover()
	}()
	if s.predicate != nil && !s.predicate(s.reg.owner, c) {
		return
	}
	s.listener.MarkDirty(c)
}

// listenerCount returns the number of attached subscriptions.
func (r *registry) listenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// clear cancels every subscription and refuses new ones. Called exactly
// once, from the signal's dispose path.
func (r *registry) clear() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.closed = true
	r.mu.Unlock()

	for _, sub := range subs {
		sub.cancelled.Store(true)
	}
}
