package beacon

import "time"

// Observer receives diagnostics events from signals. It replaces a global
// registry of live instances: anything that wants to track signals for
// inspection injects an Observer at construction time.
//
// Observer callbacks run synchronously on the mutating goroutine and must
// not block. They have no effect on correctness and may be omitted entirely.
type Observer interface {
	// SignalCreated fires once when a signal is constructed (or adopted by
	// a scope that carries this observer).
	SignalCreated(src Emitter)

	// StatusChanged fires on every status transition, including silent ones.
	StatusChanged(src Emitter, status Status)

	// SignalNotified fires when an emission is delivered to subscribers.
	// Silent mutations do not produce this event.
	SignalNotified(src Emitter, c Change)

	// OperationFinished fires when a guarded operation reaches its terminal
	// status, with the time spent inside the operation.
	OperationFinished(src Emitter, terminal Status, d time.Duration)

	// SignalDisposed fires exactly once when a signal is disposed.
	SignalDisposed(src Emitter)
}

// NopObserver is an Observer that ignores every event. It is the default.
type NopObserver struct{}

func (NopObserver) SignalCreated(Emitter)                            {}
func (NopObserver) StatusChanged(Emitter, Status)                    {}
func (NopObserver) SignalNotified(Emitter, Change)                   {}
func (NopObserver) OperationFinished(Emitter, Status, time.Duration) {}
func (NopObserver) SignalDisposed(Emitter)                           {}

// multiObserver fans out every event to several observers in order.
type multiObserver []Observer

// MultiObserver combines several observers into one. Nil entries are
// skipped. With zero usable observers it returns NopObserver.
func MultiObserver(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o == nil {
			continue
		}
		if _, nop := o.(NopObserver); nop {
			continue
		}
		m = append(m, o)
	}
	switch len(m) {
	case 0:
		return NopObserver{}
	case 1:
		return m[0]
	default:
		return m
	}
}

func (m multiObserver) SignalCreated(src Emitter) {
	for _, o := range m {
		o.SignalCreated(src)
	}
}

func (m multiObserver) StatusChanged(src Emitter, status Status) {
	for _, o := range m {
		o.StatusChanged(src, status)
	}
}

func (m multiObserver) SignalNotified(src Emitter, c Change) {
	for _, o := range m {
		o.SignalNotified(src, c)
	}
}

func (m multiObserver) OperationFinished(src Emitter, terminal Status, d time.Duration) {
	for _, o := range m {
		o.OperationFinished(src, terminal, d)
	}
}

func (m multiObserver) SignalDisposed(src Emitter) {
	for _, o := range m {
		o.SignalDisposed(src)
	}
}
