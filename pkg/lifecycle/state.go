// Package lifecycle provides service lifecycle management for FitStack
// backend processes, including state machine transitions, component
// health checks, and graceful shutdown.
//
// # Service Lifecycle
//
// Every FitStack process (API server, export worker, media processor)
// follows a defined lifecycle managed by a finite state machine. The
// [State] type represents the service's current position in this
// lifecycle, and all transitions are validated against the
// [validTransitions] matrix to prevent illegal state changes.
//
// The lifecycle flow for a healthy service is:
//
//	Created → Starting → Ready → Draining → Stopped
//
// Any non-terminal state may transition to Failed on error, and both
// terminal states (Stopped, Failed) may transition back to Starting
// for restart.
//
// # Thread Safety
//
// State management in [BaseService] is protected by a [sync.RWMutex].
// All state reads and writes are safe for concurrent use by multiple
// goroutines, including lifecycle methods ([BaseService.Start],
// [BaseService.Stop]) and state queries ([BaseService.State],
// [BaseService.Info]).
//
// # OpenTelemetry Integration
//
// Lifecycle operations create OpenTelemetry spans with semantic
// attributes for observability. The tracer scope is
// "github.com/fitstack/fitstack-core/pkg/lifecycle".
package lifecycle

// State represents the lifecycle state of a FitStack service. States
// form a finite state machine with validated transitions defined by
// [ValidTransition].
//
// The zero value ("") is not a valid state; services are initialized
// with [StateCreated] at construction time.
type State string

const (
	// StateCreated is the initial state of a newly constructed service
	// before any lifecycle method has been called.
	StateCreated State = "created"

	// StateStarting indicates the service is in the process of starting.
	// This is a transient state set at the beginning of
	// [BaseService.Start] before the OnStart hook executes. Readiness
	// probes observing this state should report not-ready.
	StateStarting State = "starting"

	// StateReady indicates the service has started successfully and is
	// accepting requests. This is the only state in which
	// [BaseService.Health] reports healthy.
	StateReady State = "ready"

	// StateDraining indicates the service is shutting down gracefully.
	// This is a transient state set at the beginning of
	// [BaseService.Stop] before the OnStop hook executes, giving
	// in-flight requests time to complete. Load balancers observing
	// this state should stop routing new requests.
	StateDraining State = "draining"

	// StateStopped indicates the service has completed a clean shutdown.
	// This is a terminal state. A stopped service may be restarted by
	// calling [BaseService.Start].
	StateStopped State = "stopped"

	// StateFailed indicates the service encountered an unrecoverable
	// error. This is a terminal state. A failed service may be
	// restarted by calling [BaseService.Start]. The error that caused
	// the failure should be logged before the transition.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Valid reports whether the state is one of the recognized lifecycle
// states. The zero value ("") is not valid.
func (s State) Valid() bool {
	switch s {
	case StateCreated, StateStarting, StateReady, StateDraining,
		StateStopped, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the state is a terminal lifecycle state.
// Terminal states are [StateStopped] and [StateFailed]. A service in a
// terminal state is not accepting requests and must be restarted to
// resume operation.
func (s State) IsTerminal() bool {
	switch s {
	case StateStopped, StateFailed:
		return true
	default:
		return false
	}
}

// validTransitions defines the allowed state transitions for the
// service lifecycle state machine. Each key is a source state, and the
// value is the set of states it may transition to. Transitions not
// present in this map are rejected by [ValidTransition].
//
// Transition matrix:
//
//	Created  → Starting, Failed
//	Starting → Ready, Failed, Draining
//	Ready    → Draining, Failed
//	Draining → Stopped, Failed
//	Stopped  → Starting              (restart)
//	Failed   → Starting              (recovery restart)
var validTransitions = map[State][]State{
	StateCreated:  {StateStarting, StateFailed},
	StateStarting: {StateReady, StateFailed, StateDraining},
	StateReady:    {StateDraining, StateFailed},
	StateDraining: {StateStopped, StateFailed},
	StateStopped:  {StateStarting},
	StateFailed:   {StateStarting},
}

// ValidTransition reports whether transitioning from state from to
// state to is allowed by the lifecycle state machine. Both from and to
// must be valid states, and the transition must be present in the
// [validTransitions] matrix. Same-state transitions (from == to) are
// always rejected.
func ValidTransition(from, to State) bool {
	if from == to {
		return false
	}
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}
