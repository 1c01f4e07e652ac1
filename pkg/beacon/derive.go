package beacon

// projection adapts a parent-change callback into a Listener. It is the
// child-side half of a derived subscription.
type projection[P any] struct {
	id     uint64
	parent *Signal[P]
	apply  func(parent *Signal[P], c Change)
}

func (p *projection[P]) MarkDirty(c Change) {
	p.apply(p.parent, c)
}

func (p *projection[P]) ID() uint64 {
	return p.id
}

// DeriveFrom makes child re-derive its own state from parent: on each parent
// notification the projection runs synchronously, inside the parent's
// delivery pass, and may call the child's own MarkBusy/MarkSuccess/MarkError
// or payload writers.
//
// The binding is registered at most once per (child, parent) pair; a second
// call is a no-op, so registration hooks may safely race or re-run. It is
// torn down when the child is disposed. Returns whether a new binding was
// installed.
func DeriveFrom[P, C any](child *Signal[C], parent *Signal[P], project func(parent *Signal[P], c Change)) bool {
	if child == nil || parent == nil || project == nil {
		return false
	}
	if child.disposed.Load() {
		return false
	}

	child.derivedMu.Lock()
	if child.derivedFrom == nil {
		child.derivedFrom = make(map[uint64]struct{})
	}
	if _, ok := child.derivedFrom[parent.ID()]; ok {
		child.derivedMu.Unlock()
		return false
	}
	child.derivedFrom[parent.ID()] = struct{}{}
	child.derivedMu.Unlock()

	l := &projection[P]{
		id:     nextID(),
		parent: parent,
		apply:  project,
	}
	sub := parent.Subscribe(l)

	child.derivedMu.Lock()
	if child.disposed.Load() {
		// Lost the race with Dispose; do not leak the subscription.
		child.derivedMu.Unlock()
		sub.Cancel()
		return false
	}
	child.derived = append(child.derived, sub)
	child.derivedMu.Unlock()
	return true
}

// Derive resolves the nearest parent of payload type P from the scope and
// installs a derived subscription on it. The missing-provider case surfaces
// as ErrNotFound; everything else follows DeriveFrom.
//
// Example:
//
//	beacon.Derive(sc, cart, func(session *beacon.Signal[Session], c beacon.Change) {
//	    if c.Status == beacon.StatusError {
//	        cart.MarkError("session lost")
//	    }
//	})
func Derive[P, C any](sc *Scope, child *Signal[C], project func(parent *Signal[P], c Change)) error {
	parent, err := Resolve[P](sc)
	if err != nil {
		return err
	}
	DeriveFrom(child, parent, project)
	return nil
}
