package statemachine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"facette.io/natsort"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// Stats counts trigger calls made through a machine.
type Stats struct {
	Calls     uint64
	Successes uint64
	Failures  uint64
	Fallbacks uint64
}

type counters struct {
	calls     atomic.Uint64
	successes atomic.Uint64
	failures  atomic.Uint64
	fallbacks atomic.Uint64
}

// Machine evaluates triggers against one subject. It is not safe for
// concurrent Trigger calls; callers sharing a subject across goroutines must
// serialize access themselves.
type Machine[S comparable, T ~string, O Stateful[S]] struct {
	subject O
	table   Table[S, T]
	caps    *Capabilities[O]
	opts    Options
	logger  Logger
	stats   counters
}

// New binds a machine to subject. When caps is nil the capabilities are
// discovered from the subject's exported methods.
func New[S comparable, T ~string, O Stateful[S]](
	subject O,
	table Table[S, T],
	caps *Capabilities[O],
	opts ...Option,
) *Machine[S, T, O] {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if caps == nil {
		caps = MethodCapabilities[O]()
	}

	logger := options.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}

	return &Machine[S, T, O]{
		subject: subject,
		table:   table.clone(),
		caps:    caps,
		opts:    options,
		logger:  logger,
	}
}

// Name returns the machine name.
func (m *Machine[S, T, O]) Name() string {
	return m.opts.Name
}

// State returns the subject's current state.
func (m *Machine[S, T, O]) State() S {
	return m.subject.State()
}

// Subject returns the live subject the machine is bound to.
func (m *Machine[S, T, O]) Subject() O {
	return m.subject
}

// Triggers returns every declared trigger in natural order.
func (m *Machine[S, T, O]) Triggers() []T {
	names := make([]string, 0, len(m.table))
	for trigger := range m.table {
		names = append(names, string(trigger))
	}

	natsort.Sort(names)

	triggers := make([]T, len(names))
	for i, name := range names {
		triggers[i] = T(name)
	}

	return triggers
}

// Permitted returns the triggers whose origins include the current state.
// Guards are not evaluated, so a permitted trigger may still fail.
func (m *Machine[S, T, O]) Permitted() []T {
	current := m.subject.State()

	var permitted []T

	for _, trigger := range m.Triggers() {
		if slices.Contains(m.table[trigger].Origins(), current) {
			permitted = append(permitted, trigger)
		}
	}

	return permitted
}

// Stats returns the call counters accumulated so far.
func (m *Machine[S, T, O]) Stats() Stats {
	return Stats{
		Calls:     m.stats.calls.Load(),
		Successes: m.stats.successes.Load(),
		Failures:  m.stats.failures.Load(),
		Fallbacks: m.stats.fallbacks.Load(),
	}
}

// Check reports every condition and effect the table references that the
// capabilities do not provide. Trigger still reports them when it reaches them.
func (m *Machine[S, T, O]) Check() error {
	var errs []error

	for _, trigger := range m.Triggers() {
		for i, candidate := range m.table[trigger] {
			for _, name := range candidate.Conditions {
				if _, ok := m.caps.LookupGuard(name); !ok {
					errs = append(errs, fmt.Errorf("%w: trigger %s, transition %d: %s", ErrConditionUndefined, trigger, i, name))
				}
			}

			for _, name := range candidate.Effects {
				if _, ok := m.caps.LookupEffect(name); !ok {
					errs = append(errs, fmt.Errorf("%w: trigger %s, transition %d: %s", ErrEffectUndefined, trigger, i, name))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// Trigger attempts the named transition. See TriggerContext.
func (m *Machine[S, T, O]) Trigger(trigger T, opts ...CallOption) (*Result[S, T, O], error) {
	return m.TriggerContext(context.Background(), trigger, opts...)
}

// TriggerContext attempts the named transition. A result is always returned.
// Failures are additionally returned as a *TransitionError when exceptions are
// enabled, except for a false guard, which is only reported in the result.
// The context is used for tracing and logging only; evaluation is synchronous
// and cannot be cancelled.
func (m *Machine[S, T, O]) TriggerContext(
	ctx context.Context,
	trigger T,
	opts ...CallOption,
) (result *Result[S, T, O], err error) {
	call := newCallOptions(opts)

	throw := m.opts.ThrowExceptions
	if call.throw != nil {
		throw = *call.throw
	}

	start := time.Now()
	current := m.subject.State()

	result = &Result[S, T, O]{
		ID:          uuid.New(),
		Trigger:     trigger,
		Previous:    current,
		Current:     current,
		PreSnapshot: m.snapshot(),
	}

	ctx, span := startTriggerSpan(ctx, m.opts.Name, string(trigger), result.ID.String(), stateLabel(current))

	defer func() {
		m.finish(span, result, err, time.Since(start))
	}()

	eval := &evaluation[S, T, O]{
		machine: m,
		ctx:     ctx,
		result:  result,
		call:    call,
		throw:   throw,
	}

	return eval.run()
}

func (m *Machine[S, T, O]) snapshot() O {
	return TakeSnapshot(m.subject)
}

// eligible returns the indices of the candidates to try, in order.
func (m *Machine[S, T, O]) eligible(candidates Candidates[S], current S) []int {
	indices := make([]int, 0, len(candidates))

	for i, candidate := range candidates {
		if m.opts.StrictOrigins && !candidate.Allows(current) {
			continue
		}

		indices = append(indices, i)
	}

	return indices
}

// finish records the outcome of a call on the span, metrics and counters.
func (m *Machine[S, T, O]) finish(span trace.Span, result *Result[S, T, O], err error, duration time.Duration) {
	result.Duration = duration

	kind := ErrorKind("")
	if result.Failure != nil {
		kind = result.Failure.Kind
	}

	outcome := outcomeOf(result.Success, err != nil)

	for _, attempt := range result.Attempts {
		attemptKind := ErrorKind("")
		if attempt.Failure != nil {
			attemptKind = attempt.Failure.Kind
		}

		recordAttemptEvent(span, attempt.Index, stateLabel(attempt.Transition.Destination), attempt.Success, attemptKind)
	}

	span.SetAttributes(
		attribute.String("state.current", stateLabel(result.Current)),
		attribute.String("outcome", outcome),
		attribute.String("failure", sanitizeKind(kind)),
		attribute.Int("attempts", len(result.Attempts)),
		attribute.Int64("duration_us", duration.Microseconds()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	span.End()

	m.stats.calls.Inc()

	if result.Success {
		m.stats.successes.Inc()
	} else {
		m.stats.failures.Inc()
	}

	name := sanitizeMachine(m.opts.Name)
	trigger := sanitizeTrigger(string(result.Trigger), kind)

	triggersTotal.WithLabelValues(name, trigger, outcome, sanitizeKind(kind)).Inc()
	triggerDuration.WithLabelValues(name, trigger, outcome).Observe(duration.Seconds())
}

// evaluation holds the state of a single trigger call.
type evaluation[S comparable, T ~string, O Stateful[S]] struct {
	machine *Machine[S, T, O]
	ctx     context.Context //nolint:containedctx // Scoped to one synchronous call
	result  *Result[S, T, O]
	call    callOptions
	throw   bool
}

func (e *evaluation[S, T, O]) run() (*Result[S, T, O], error) {
	m := e.machine
	trigger := e.result.Trigger

	candidates := m.table[trigger]
	if len(candidates) == 0 {
		failure := e.newFailure(TriggerUndefined, "", NoIndex, NoIndex, nil,
			fmt.Sprintf("Trigger %q is not defined in the machine.", string(trigger)))

		return e.fail(nil, failure)
	}

	// Origins are checked once against every candidate before any guard runs.
	current := m.subject.State()
	if !slices.Contains(candidates.Origins(), current) {
		failure := e.newFailure(OriginDisallowed, "", NoIndex, NoIndex, nil,
			fmt.Sprintf("Invalid transition from %s using trigger %s", stateLabel(current), string(trigger)))

		return e.fail(nil, failure)
	}

	eligible := m.eligible(candidates, current)

	for n, index := range eligible {
		attempt := &Attempt[S, T, O]{
			Trigger:    trigger,
			Index:      index,
			Transition: candidates[index],
			Snapshot:   m.snapshot(),
		}
		e.result.Attempts = append(e.result.Attempts, attempt)

		if failure := e.evaluateConditions(attempt); failure != nil {
			if failure.Kind.Fallback() && n < len(eligible)-1 {
				e.fallback(attempt, failure)

				continue
			}

			return e.fail(attempt, failure)
		}

		if failure := e.executeEffects(attempt); failure != nil {
			result, err := e.fail(attempt, failure)

			if failure.Kind == EffectError && e.call.onError != nil {
				e.call.onError()
			}

			return result, err
		}

		return e.succeed(attempt), nil
	}

	// Unreachable: the origin check guarantees at least one eligible candidate.
	return e.result, nil
}

func (e *evaluation[S, T, O]) evaluateConditions(attempt *Attempt[S, T, O]) *Failure[T, O] {
	m := e.machine

	for i, name := range attempt.Transition.Conditions {
		record := &CapabilityAttempt[O]{
			Name:     name,
			Snapshot: m.snapshot(),
		}
		attempt.Conditions = append(attempt.Conditions, record)

		guard, ok := m.caps.LookupGuard(name)
		if !ok {
			return e.newFailure(ConditionUndefined, name, attempt.Index, i, nil,
				fmt.Sprintf("Condition %s is not defined in the machine.", name))
		}

		if !guard(m.subject) {
			return e.newFailure(ConditionValue, name, attempt.Index, i, nil,
				fmt.Sprintf("Condition %s false, transition aborted.", name))
		}

		record.Success = true
	}

	return nil
}

func (e *evaluation[S, T, O]) executeEffects(attempt *Attempt[S, T, O]) *Failure[T, O] {
	m := e.machine

	for i, name := range attempt.Transition.Effects {
		record := &CapabilityAttempt[O]{
			Name:     name,
			Snapshot: m.snapshot(),
		}
		attempt.Effects = append(attempt.Effects, record)

		effect, ok := m.caps.LookupEffect(name)
		if !ok {
			return e.newFailure(EffectUndefined, name, attempt.Index, i, nil,
				fmt.Sprintf("Effect %s is not defined in the machine.", name))
		}

		err := invokeEffect(effect, m.subject, e.call.props)
		if err != nil {
			return e.newFailure(EffectError, name, attempt.Index, i, err,
				fmt.Sprintf("Effect %s caused an error.", name))
		}

		record.Success = true
	}

	return nil
}

func invokeEffect[O any](effect Effect[O], subject O, props Props) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrEffectPanicked, r)
		}
	}()

	return effect(subject, props)
}

func (e *evaluation[S, T, O]) newFailure(
	kind ErrorKind,
	capability CapabilityName,
	candidate, index int,
	cause error,
	message string,
) *Failure[T, O] {
	return &Failure[T, O]{
		Kind:            kind,
		Undefined:       kind.IsUndefinedReference(),
		Trigger:         e.result.Trigger,
		Capability:      capability,
		CandidateIndex:  candidate,
		CapabilityIndex: index,
		Message:         message,
		Cause:           cause,
		Snapshot:        e.machine.snapshot(),
	}
}

// fallback abandons a candidate whose guard returned false.
func (e *evaluation[S, T, O]) fallback(attempt *Attempt[S, T, O], failure *Failure[T, O]) {
	m := e.machine
	attempt.Failure = failure

	m.stats.fallbacks.Inc()
	fallbacksTotal.WithLabelValues(sanitizeMachine(m.opts.Name), string(e.result.Trigger)).Inc()

	if m.opts.Verbosity {
		m.logger.CandidateRejected(e.ctx, e.diagnostic(failure))
	}
}

// fail ends the call with failure. The error is non-nil only when the failure
// is raised.
func (e *evaluation[S, T, O]) fail(attempt *Attempt[S, T, O], failure *Failure[T, O]) (*Result[S, T, O], error) {
	m := e.machine

	if attempt != nil {
		attempt.Failure = failure
	}

	e.result.Failure = failure
	e.result.Current = m.subject.State()
	e.result.PostSnapshot = m.snapshot()

	if m.opts.Verbosity {
		m.logger.TriggerFailed(e.ctx, e.diagnostic(failure))
	}

	if !e.throw || !failure.Kind.Raises() {
		return e.result, nil
	}

	return e.result, &TransitionError[S, T, O]{
		Kind:    failure.Kind,
		Trigger: e.result.Trigger,
		Message: failure.Message,
		Result:  e.result,
		Cause:   failure.Cause,
	}
}

// succeed writes the destination state. This is the only state write of a call.
func (e *evaluation[S, T, O]) succeed(attempt *Attempt[S, T, O]) *Result[S, T, O] {
	m := e.machine
	from := m.subject.State()

	m.subject.SetState(attempt.Transition.Destination)

	attempt.Success = true
	e.result.Success = true
	e.result.Current = m.subject.State()
	e.result.PostSnapshot = m.snapshot()

	stateChangesTotal.WithLabelValues(
		sanitizeMachine(m.opts.Name),
		stateLabel(from),
		stateLabel(e.result.Current),
	).Inc()

	if m.opts.Verbosity {
		m.logger.StateChanged(e.ctx, Diagnostic{
			Machine:   m.opts.Name,
			CallID:    e.result.ID.String(),
			Trigger:   string(e.result.Trigger),
			Candidate: attempt.Index,
			From:      stateLabel(from),
			To:        stateLabel(e.result.Current),
			Message:   "State changed to " + stateLabel(e.result.Current),
		})
	}

	return e.result
}

func (e *evaluation[S, T, O]) diagnostic(failure *Failure[T, O]) Diagnostic {
	return Diagnostic{
		Machine:    e.machine.opts.Name,
		CallID:     e.result.ID.String(),
		Trigger:    string(e.result.Trigger),
		Kind:       failure.Kind,
		Capability: failure.Capability,
		Candidate:  failure.CandidateIndex,
		Message:    failure.Message,
		Err:        failure.Cause,
	}
}

func stateLabel[S comparable](state S) string {
	return fmt.Sprint(state)
}
