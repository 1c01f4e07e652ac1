package beacon

import (
	"runtime"
	"sync"
)

// batchState accumulates queued deliveries for one goroutine's batch.
type batchState struct {
	depth   int
	pending []pendingDelivery
}

type pendingDelivery struct {
	sub    *Subscription
	change Change
}

func (b *batchState) queue(sub *Subscription, c Change) {
	b.pending = append(b.pending, pendingDelivery{sub: sub, change: c})
}

// batchStates stores per-goroutine batch state. Batching is scoped to the
// mutating goroutine: notifications triggered on other goroutines are
// unaffected.
var batchStates sync.Map

// goroutineID extracts the current goroutine's ID from the runtime stack.
// Implementation detail; not exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack header is "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentBatch returns the active batch for this goroutine, or nil.
func currentBatch() *batchState {
	v, ok := batchStates.Load(goroutineID())
	if !ok {
		return nil
	}
	return v.(*batchState)
}

// Batch groups the notifications from several mutations into a single
// delivery pass. Deliveries are deduplicated by listener ID, with the latest
// change winning, and run when the outermost batch completes. Batches nest.
//
// Example:
//
//	beacon.Batch(func() {
//	    profile.Set(p)
//	    avatar.Set(a)
//	    profile.MarkSuccess()
//	})
//	// each listener refreshes once
func Batch(fn func()) {
	gid := goroutineID()
	var st *batchState
	if v, ok := batchStates.Load(gid); ok {
		st = v.(*batchState)
	} else {
		st = &batchState{}
		batchStates.Store(gid, st)
	}
	st.depth++

	defer func() {
		st.depth--
		if st.depth == 0 {
			pending := st.pending
			st.pending = nil
			batchStates.Delete(gid)
			flushPending(pending)
		}
	}()

	fn()
}

// flushPending delivers queued notifications, one per listener. The first
// queued occurrence fixes the delivery position; the last queued change is
// the one delivered.
func flushPending(pending []pendingDelivery) {
	if len(pending) == 0 {
		return
	}

	seen := make(map[uint64]int, len(pending))
	unique := make([]pendingDelivery, 0, len(pending))
	for _, d := range pending {
		lid := d.sub.listener.ID()
		if i, ok := seen[lid]; ok {
			unique[i].change = d.change
			continue
		}
		seen[lid] = len(unique)
		unique = append(unique, d)
	}

	for _, d := range unique {
		d.sub.deliver(d.change)
	}
}
