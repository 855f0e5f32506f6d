package lifecycle

import (
	"log/slog"

	"go.opentelemetry.io/otel"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// ServiceBuilder constructs a [BaseService] with validated
// configuration and optional lifecycle hooks. Use [NewServiceBuilder]
// to start building.
//
// The builder follows the fluent API pattern: all configuration methods
// return the builder for chaining. Call [ServiceBuilder.Build] to
// validate the configuration and produce the service.
//
// Example:
//
//	svc, err := lifecycle.NewServiceBuilder("workout-api", "1.0.0").
//	    WithComponent(lifecycle.Component{Name: "workout-db", Kind: "postgres", Check: db.Health}).
//	    WithComponent(lifecycle.Component{Name: "leaderboard-cache", Kind: "redis", Check: cache.Health}).
//	    WithOnStart(func(ctx context.Context) error {
//	        return db.Health(ctx)
//	    }).
//	    WithOnStop(func(ctx context.Context) error {
//	        db.Close()
//	        return nil
//	    }).
//	    OnStateChange(func(old, new lifecycle.State) {
//	        readinessGauge.Set(boolToFloat(new == lifecycle.StateReady))
//	    }).
//	    Build()
type ServiceBuilder struct {
	name          string
	version       string
	components    []Component
	logger        *slog.Logger
	onStart       Hook
	onStop        Hook
	stateHandlers []StateChangeHandler
}

// NewServiceBuilder creates a new builder with the required identity
// fields. The name and version are validated during
// [ServiceBuilder.Build].
//
// Parameters:
//   - name: service type name (e.g., "workout-api")
//   - version: semantic version of the service build (e.g., "1.0.0")
func NewServiceBuilder(name, version string) *ServiceBuilder {
	return &ServiceBuilder{
		name:    name,
		version: version,
	}
}

// WithComponent registers a single backing dependency with the service.
// Components are validated and copied during [ServiceBuilder.Build].
func (b *ServiceBuilder) WithComponent(comp Component) *ServiceBuilder {
	b.components = append(b.components, comp)
	return b
}

// WithComponents registers multiple backing dependencies with the
// service.
func (b *ServiceBuilder) WithComponents(comps []Component) *ServiceBuilder {
	b.components = append(b.components, comps...)
	return b
}

// WithLogger sets a custom [*slog.Logger] for the service. If not
// called, [slog.Default] is used. The logger is used for lifecycle
// event logging and panic recovery messages.
func (b *ServiceBuilder) WithLogger(logger *slog.Logger) *ServiceBuilder {
	b.logger = logger
	return b
}

// WithOnStart sets the lifecycle hook called during
// [BaseService.Start], after the service transitions to [StateStarting]
// and before it transitions to [StateReady]. Use this to perform
// service-specific initialization (e.g., verifying database
// connectivity, warming caches, binding listeners).
func (b *ServiceBuilder) WithOnStart(hook Hook) *ServiceBuilder {
	b.onStart = hook
	return b
}

// WithOnStop sets the lifecycle hook called during [BaseService.Stop],
// after the service transitions to [StateDraining] and before it
// transitions to [StateStopped]. Use this to perform service-specific
// cleanup (e.g., closing database connections, flushing buffers).
func (b *ServiceBuilder) WithOnStop(hook Hook) *ServiceBuilder {
	b.onStop = hook
	return b
}

// OnStateChange registers a [StateChangeHandler] that is called on
// every state transition. Multiple handlers may be registered and are
// called in registration order. Handlers execute synchronously under
// the state mutex during [BaseService.SetState].
//
// Handlers are copied during [ServiceBuilder.Build]; registering more
// handlers on the builder afterwards does not affect a built service.
func (b *ServiceBuilder) OnStateChange(handler StateChangeHandler) *ServiceBuilder {
	b.stateHandlers = append(b.stateHandlers, handler)
	return b
}

// Build validates the configuration and constructs a [*BaseService].
// Returns a [*fserr.Error] with code [fserr.CodeValidation] if any
// required field is empty or a registered component is invalid.
//
// Build copies all mutable inputs (components, state handlers) so the
// built service cannot be mutated through the builder afterwards. The
// initial state is [StateCreated].
func (b *ServiceBuilder) Build() (*BaseService, error) {
	if b.name == "" {
		return nil, fserr.New(fserr.CodeValidation,
			"lifecycle: service name must not be empty")
	}
	if b.version == "" {
		return nil, fserr.New(fserr.CodeValidation,
			"lifecycle: service version must not be empty")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Validate and copy components, rejecting duplicate names.
	seen := make(map[string]struct{}, len(b.components))
	comps := make([]Component, 0, len(b.components))
	for _, c := range b.components {
		if c.Name == "" || c.Kind == "" {
			return nil, fserr.Newf(fserr.CodeValidation,
				"lifecycle: component name and kind must not be empty (name=%q kind=%q)",
				c.Name, c.Kind)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fserr.Newf(fserr.CodeValidation,
				"lifecycle: duplicate component name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		comps = append(comps, c)
	}

	// Copy state handlers so later builder mutations are not observed.
	handlers := make([]StateChangeHandler, len(b.stateHandlers))
	copy(handlers, b.stateHandlers)

	return &BaseService{
		name:          b.name,
		version:       b.version,
		state:         StateCreated,
		components:    comps,
		tracer:        otel.Tracer(tracerName),
		logger:        logger,
		onStart:       b.onStart,
		onStop:        b.onStop,
		stateHandlers: handlers,
	}, nil
}
