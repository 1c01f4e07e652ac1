package beacon

// config holds construction options shared by signals and scopes.
type config struct {
	name     string
	observer Observer
}

// Option is a functional option for configuring signals and scopes.
type Option func(*config)

// WithName sets a diagnostic name. Names appear in observer events and the
// devtools inspector; they have no effect on behavior.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithObserver attaches a diagnostics observer. Observers are a correctness
// no-op: omitting one changes nothing about delivery or disposal.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// applyOptions applies the given options and returns the resulting config.
func applyOptions(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.observer == nil {
		cfg.observer = NopObserver{}
	}
	return cfg
}

// notifyConfig holds per-mutation options.
type notifyConfig struct {
	silent bool
}

// NotifyOption configures a single status or payload mutation.
type NotifyOption func(*notifyConfig)

// Silently suppresses the notification for this mutation. The state still
// changes; listeners are not woken. Used for priming a signal during
// construction before any listener attaches.
//
// Example:
//
//	s := beacon.New(Cart{})
//	s.Set(restored, beacon.Silently())
//	s.MarkSuccess(beacon.Silently())
func Silently() NotifyOption {
	return func(c *notifyConfig) {
		c.silent = true
	}
}

// applyNotifyOptions applies the given options and returns the config.
func applyNotifyOptions(opts []NotifyOption) notifyConfig {
	var cfg notifyConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// subscribeConfig holds per-subscription options.
type subscribeConfig struct {
	predicate Predicate
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

// WithPredicate filters which emissions reach the listener. The predicate
// runs during delivery, before the listener is invoked.
//
// Example:
//
//	sub := sig.Subscribe(l, beacon.WithPredicate(
//	    func(src beacon.Emitter, c beacon.Change) bool {
//	        return c.Kind == beacon.KindStatus
//	    }))
func WithPredicate(p Predicate) SubscribeOption {
	return func(c *subscribeConfig) {
		c.predicate = p
	}
}
