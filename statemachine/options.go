package statemachine

// Options configures a Machine at bind time.
type Options struct {
	// Name identifies the machine in logs, metrics and spans.
	Name string

	// Verbosity emits a diagnostic log line for every failure and state change.
	Verbosity bool

	// ThrowExceptions returns failures as errors instead of only in the result.
	// A false guard is never returned as an error.
	ThrowExceptions bool

	// StrictOrigins skips, inside the candidate loop, every candidate whose own
	// origins do not include the current state. The whole-call origin check
	// against the union of all candidates runs either way.
	StrictOrigins bool

	// Logger receives diagnostics when Verbosity is on.
	Logger Logger
}

// Option is a functional option for New and Merge.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Name:            "statemachine",
		ThrowExceptions: true,
	}
}

// WithName sets the machine name.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithVerbosity toggles diagnostic logging.
func WithVerbosity(verbose bool) Option {
	return func(o *Options) {
		o.Verbosity = verbose
	}
}

// WithThrowExceptions sets the default raise-or-return policy.
func WithThrowExceptions(throw bool) Option {
	return func(o *Options) {
		o.ThrowExceptions = throw
	}
}

// WithStrictOrigins toggles per-candidate origin enforcement.
func WithStrictOrigins(strict bool) Option {
	return func(o *Options) {
		o.StrictOrigins = strict
	}
}

// WithLogger sets the diagnostics logger. It does not enable verbosity on its own.
func WithLogger(logger Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// callOptions holds per-trigger settings.
type callOptions struct {
	props   Props
	throw   *bool
	onError func()
}

// CallOption is a functional option for a single Trigger call.
type CallOption func(*callOptions)

// WithProps passes props to every effect of the call.
func WithProps(props Props) CallOption {
	return func(o *callOptions) {
		o.props = props
	}
}

// Throw overrides the machine's raise-or-return policy for one call.
func Throw(throw bool) CallOption {
	return func(o *callOptions) {
		o.throw = &throw
	}
}

// OnError registers a callback run exactly once if an effect fails. It is the
// place to undo partial mutations; the machine never rolls anything back.
func OnError(fn func()) CallOption {
	return func(o *callOptions) {
		o.onError = fn
	}
}

func newCallOptions(opts []CallOption) callOptions {
	call := callOptions{}

	for _, opt := range opts {
		opt(&call)
	}

	if call.props == nil {
		call.props = Props{}
	}

	return call
}
