package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
// It follows the Go module path convention for OTel instrumentation libraries.
const tracerName = "github.com/fitstack/fitstack-core/pkg/lifecycle"

// StateChangeHandler is a callback invoked when a service's lifecycle
// state changes. It receives the previous state and the new state.
//
// Handlers execute synchronously under the service's state mutex during
// [BaseService.SetState]. Implementations must not block for extended
// periods or call lifecycle methods on the same service, as this will
// cause a deadlock. Handlers that panic are recovered and logged without
// preventing the state change.
//
// Typical uses include emitting metrics, flipping readiness gauges, and
// triggering alerts on failure transitions.
type StateChangeHandler func(old, new State)

// Hook is a function called during a lifecycle transition (start or
// stop). It receives the caller's context, which may carry deadlines
// and cancellation signals.
//
// If a hook returns a non-nil error, the lifecycle transition is
// aborted and the service transitions to [StateFailed]. Hooks should
// perform cleanup on error to avoid leaving resources in an
// inconsistent state.
//
// Hooks execute outside the service's state mutex, so they may safely
// call read-only methods ([BaseService.State], [BaseService.Info]) on
// the service without causing deadlocks.
type Hook func(ctx context.Context) error

// Service defines the lifecycle contract for FitStack backend
// processes. Every process, regardless of its specific role, implements
// this interface to provide uniform lifecycle management and health
// reporting to orchestration probes.
//
// All methods must be safe for concurrent use by multiple goroutines.
//
// The package provides [BaseService] as a ready-to-use implementation
// with thread-safe state management, OpenTelemetry tracing, and hook
// support. Concrete services embed or compose [BaseService] and
// register lifecycle hooks via [ServiceBuilder] to inject their own
// startup and shutdown logic.
type Service interface {
	// Name returns the service name (e.g., "workout-api"). Names
	// identify the service type, not the instance.
	Name() string

	// Version returns the semantic version of the service build
	// (e.g., "1.2.0").
	Version() string

	// Info returns a point-in-time snapshot of the service's identity,
	// state, components, and uptime. The returned [ServiceInfo] is a
	// copy safe to serialize or store.
	Info() ServiceInfo

	// Start begins the service's operation. It transitions the service
	// through [StateStarting] to [StateReady], executing any registered
	// OnStart hook between the two transitions. If the hook fails, the
	// service transitions to [StateFailed].
	//
	// Start may only be called from [StateCreated], [StateStopped], or
	// [StateFailed]. Calling Start from any other state returns a
	// [fserr.CodeConflict] error.
	//
	// The context controls the deadline for startup; if the context is
	// canceled, Start returns immediately with a [fserr.CodeTimeout]
	// error.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the service. It transitions the
	// service through [StateDraining] to [StateStopped], executing any
	// registered OnStop hook between the two transitions. If the hook
	// fails, the service transitions to [StateFailed].
	//
	// Calling Stop from a terminal state is a no-op and returns nil,
	// which makes it safe in a deferred cleanup.
	Stop(ctx context.Context) error

	// State returns the current lifecycle state of the service.
	State() State

	// Components returns the backing dependencies registered with this
	// service. The returned slice is a copy; modifying it does not
	// affect the service's internal state.
	Components() []Component

	// Health performs a health check. It returns nil only when the
	// service is in [StateReady] and every registered component probe
	// succeeds. A non-ready state yields a [fserr.CodeUnavailable]
	// error; a failed component probe yields a
	// [fserr.CodeUnavailableDependency] error naming the component.
	Health(ctx context.Context) error
}

// ServiceInfo provides a point-in-time snapshot of a service's
// identity, state, components, and uptime. It is returned by
// [Service.Info] and is safe to serialize to JSON for readiness
// endpoints and deployment dashboards.
//
// The Uptime field is computed at the time Info() is called and
// reflects the elapsed time since the service entered [StateReady]. It
// is zero if the service has not yet started or has been stopped.
type ServiceInfo struct {
	// Name is the service type name.
	Name string `json:"name"`

	// Version is the semantic version of the service build.
	Version string `json:"version"`

	// State is the current lifecycle state.
	State State `json:"state"`

	// Components lists the backing dependencies the service reports.
	Components []Component `json:"components"`

	// StartedAt is the time the service entered StateReady. Nil if the
	// service has not started or has been stopped.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// Uptime is the elapsed time since the service entered StateReady.
	// Zero if the service is not currently ready.
	Uptime time.Duration `json:"uptime,omitempty"`
}

// BaseService provides a thread-safe base implementation of the
// [Service] interface with lifecycle state management, observer hooks,
// and OpenTelemetry tracing.
//
// A BaseService is safe for concurrent use by multiple goroutines.
// Create one using [ServiceBuilder] and share it across the process.
//
// BaseService enforces a state machine that prevents invalid lifecycle
// transitions. All state changes are validated against the transition
// matrix defined in [validTransitions]. State change observers
// registered via [ServiceBuilder.OnStateChange] are notified
// synchronously on every transition.
//
// Lifecycle hooks (OnStart, OnStop) execute outside the state mutex to
// prevent deadlocks. If a hook fails, the service transitions to
// [StateFailed] and the error is wrapped with a platform error code.
type BaseService struct {
	// Immutable fields, set at construction, never modified. These do
	// not require mutex protection.
	name    string
	version string

	// Mutable fields, protected by mu.
	mu         sync.RWMutex
	state      State
	components []Component
	startedAt  *time.Time

	// Observability, set at construction, never modified.
	tracer trace.Tracer
	logger *slog.Logger

	// Lifecycle hooks, set at construction via builder, never modified.
	onStart Hook
	onStop  Hook

	// State change observers, set at construction via builder, never modified.
	stateHandlers []StateChangeHandler
}

// Compile-time interface compliance check.
var _ Service = (*BaseService)(nil)

// Name returns the service name. This value is immutable after
// construction.
func (s *BaseService) Name() string {
	return s.name
}

// Version returns the semantic version of the service build. This value
// is immutable after construction.
func (s *BaseService) Version() string {
	return s.version
}

// State returns the current lifecycle state. This method is safe for
// concurrent use.
func (s *BaseService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Components returns a copy of the registered components. Modifying the
// returned slice does not affect the service's internal state. This
// method is safe for concurrent use.
func (s *BaseService) Components() []Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneComponents(s.components)
}

// Info returns a point-in-time snapshot of the service's identity,
// state, components, and uptime. The returned [ServiceInfo] is safe to
// serialize to JSON. This method is safe for concurrent use.
func (s *BaseService) Info() ServiceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := ServiceInfo{
		Name:       s.name,
		Version:    s.version,
		State:      s.state,
		Components: cloneComponents(s.components),
	}

	if s.startedAt != nil && s.state == StateReady {
		t := *s.startedAt
		info.StartedAt = &t
		info.Uptime = time.Since(t)
	}

	return info
}

// Health performs a health check on the service and its registered
// components. It returns nil only when the service is in [StateReady]
// and every component probe succeeds.
//
// Component probes run sequentially in registration order. The first
// failing probe aborts the check and its error is returned wrapped with
// [fserr.CodeUnavailableDependency] and the component name, so
// readiness endpoints can report which dependency is down.
func (s *BaseService) Health(ctx context.Context) error {
	if state := s.State(); state != StateReady {
		return fserr.Newf(fserr.CodeUnavailable,
			"lifecycle: service is not ready, current state is %q", state)
	}

	for _, comp := range s.Components() {
		if comp.Check == nil {
			continue
		}
		if err := comp.Check(ctx); err != nil {
			return fserr.Wrapf(err, fserr.CodeUnavailableDependency,
				"lifecycle: component %q (%s) unhealthy", comp.Name, comp.Kind)
		}
	}

	return nil
}

// SetState transitions the service to the given state after validating
// the transition against the lifecycle state machine. Returns a
// [*fserr.Error] with code [fserr.CodeConflict] if the transition is
// not allowed.
//
// On a successful transition, all registered [StateChangeHandler]
// functions are called synchronously with the old and new state values.
// Handlers execute under the state mutex; they must not call lifecycle
// methods on the same service or block for extended periods.
//
// SetState is exported for use by concrete services that need to set
// state programmatically (e.g., transitioning to [StateFailed] when an
// internal error is detected).
func (s *BaseService) SetState(new State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.state
	if !ValidTransition(old, new) {
		return fserr.Newf(fserr.CodeConflict,
			"lifecycle: invalid state transition from %q to %q", old, new)
	}

	s.state = new

	// Notify state change handlers under the lock to guarantee ordering.
	// Each handler is called in a deferred-recover wrapper to prevent a
	// panicking handler from crashing the service or corrupting state.
	for _, h := range s.stateHandlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("lifecycle: state change handler panicked",
						"panic", r,
						"service", s.name,
						"old_state", string(old),
						"new_state", string(new),
					)
				}
			}()
			h(old, new)
		}()
	}

	return nil
}

// Start begins the service's operation. It transitions the service
// through [StateStarting] to [StateReady], executing any registered
// OnStart hook between the two transitions.
//
// The context controls the deadline for startup. If the context is
// already canceled, Start returns immediately without modifying state.
//
// If the OnStart hook returns an error, the service transitions to
// [StateFailed] and the error is returned wrapped with
// [fserr.CodeInternal].
func (s *BaseService) Start(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Start",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.name", s.name),
			attribute.String("service.version", s.version),
		),
	)
	defer span.End()

	// Check context before acquiring the lock.
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fserr.Wrap(err, fserr.CodeTimeout,
			"lifecycle: start canceled before execution")
	}

	if err := s.SetState(StateStarting); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.logger.InfoContext(ctx, "lifecycle: starting service",
		"service", s.name,
		"version", s.version,
	)

	// Execute the OnStart hook outside the lock.
	if s.onStart != nil {
		if err := s.onStart(ctx); err != nil {
			s.logger.ErrorContext(ctx, "lifecycle: start hook failed",
				"service", s.name,
				"error", err,
			)
			_ = s.SetState(StateFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fserr.Wrap(err, fserr.CodeInternal,
				"lifecycle: start hook failed")
		}
	}

	// Transition to Ready and record the start timestamp.
	if err := s.SetState(StateReady); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.startedAt = &now
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "lifecycle: service ready",
		"service", s.name,
	)
	span.SetStatus(codes.Ok, "")

	return nil
}

// Stop gracefully shuts down the service. It transitions the service
// through [StateDraining] to [StateStopped], executing any registered
// OnStop hook between the two transitions.
//
// If the service is already in a terminal state ([StateStopped] or
// [StateFailed]), Stop is a no-op and returns nil. This makes it safe
// to call Stop multiple times or in a deferred cleanup.
//
// If the OnStop hook returns an error, the service transitions to
// [StateFailed] and the error is returned wrapped with
// [fserr.CodeInternal].
func (s *BaseService) Stop(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Stop",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.name", s.name),
		),
	)
	defer span.End()

	// Terminal states: Stop is a no-op.
	if s.State().IsTerminal() {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fserr.Wrap(err, fserr.CodeTimeout,
			"lifecycle: stop canceled before execution")
	}

	if err := s.SetState(StateDraining); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.logger.InfoContext(ctx, "lifecycle: draining service",
		"service", s.name,
	)

	// Execute the OnStop hook outside the lock.
	if s.onStop != nil {
		if err := s.onStop(ctx); err != nil {
			s.logger.ErrorContext(ctx, "lifecycle: stop hook failed",
				"service", s.name,
				"error", err,
			)
			_ = s.SetState(StateFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fserr.Wrap(err, fserr.CodeInternal,
				"lifecycle: stop hook failed")
		}
	}

	// Transition to Stopped and clear the start timestamp.
	if err := s.SetState(StateStopped); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.mu.Lock()
	s.startedAt = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "lifecycle: service stopped",
		"service", s.name,
	)
	span.SetStatus(codes.Ok, "")

	return nil
}

// cloneComponents returns a copy of a component slice. Components are
// value types, so a shallow copy of the slice is sufficient.
func cloneComponents(comps []Component) []Component {
	if comps == nil {
		return []Component{}
	}
	cloned := make([]Component, len(comps))
	copy(cloned, comps)
	return cloned
}
