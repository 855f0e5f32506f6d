package lifecycle

import (
	"context"
	"errors"
	"fmt"
)

// HealthFunc probes a single backing dependency. It returns nil when
// the dependency is reachable and serving, or an error describing the
// failure. The context carries the deadline for the probe.
type HealthFunc func(ctx context.Context) error

// Component describes a backing dependency that a service needs to
// serve requests, such as the workout database, the leaderboard cache,
// or the media object store. Components are reported via [ServiceInfo]
// and probed during [BaseService.Health].
//
// Components are value types. Use [NewComponent] to construct validated
// instances.
//
// Example:
//
//	comp, err := lifecycle.NewComponent("workout-db", "postgres", db.Health)
//	if err != nil {
//	    return err
//	}
type Component struct {
	// Name identifies the component within the service (e.g.,
	// "workout-db", "leaderboard-cache", "media-store"). Must not be
	// empty and must be unique per service.
	Name string `json:"name"`

	// Kind is the dependency technology (e.g., "postgres", "redis",
	// "minio"). Must not be empty.
	Kind string `json:"kind"`

	// Check probes the dependency. A nil Check means the component is
	// registered for reporting only and is skipped during health
	// aggregation.
	Check HealthFunc `json:"-"`
}

// NewComponent creates a new [Component] with validated fields. Returns
// an error if name or kind is empty. A nil check is allowed for
// components that are reported but not probed.
func NewComponent(name, kind string, check HealthFunc) (Component, error) {
	if name == "" {
		return Component{}, errors.New("lifecycle: component name must not be empty")
	}
	if kind == "" {
		return Component{}, fmt.Errorf("lifecycle: component %q kind must not be empty", name)
	}
	return Component{
		Name:  name,
		Kind:  kind,
		Check: check,
	}, nil
}
