// Package models defines the core data models for the FitStack platform.
//
// The models in this package represent the central data structures shared
// across all backend services. They are designed for serialization (JSON),
// database persistence, and cross-service transport.
//
// Workout Model:
//
// The [Workout] type represents a single training session — the core record
// that the workout service creates and all other services reference. Every
// tracked session connects a user profile, an ordered list of performed
// sets, and timing data.
//
// A Workout flows through a defined lifecycle:
//
//	planned → in_progress → completed
//	                      → abandoned
//
// Once a workout reaches a terminal state (completed, abandoned), it cannot
// transition to another state. The [Workout.IsTerminal] method identifies
// terminal states.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkoutSchemaVersion identifies the current schema version of the
// Workout model. Increment this when making breaking changes to the struct
// fields or serialization format to support schema migration.
const WorkoutSchemaVersion = 1

// WorkoutStatus represents the lifecycle state of a training session.
// Workouts begin in [WorkoutStatusPlanned] and progress through the
// lifecycle until reaching a terminal state.
type WorkoutStatus string

const (
	// WorkoutStatusPlanned indicates the workout has been created (for
	// example from a training plan) but not yet started. This is the
	// initial state set by [NewWorkout].
	WorkoutStatusPlanned WorkoutStatus = "planned"

	// WorkoutStatusInProgress indicates the user has started the session
	// and sets are being recorded.
	WorkoutStatusInProgress WorkoutStatus = "in_progress"

	// WorkoutStatusCompleted indicates the user finished the session.
	// This is a terminal state.
	WorkoutStatusCompleted WorkoutStatus = "completed"

	// WorkoutStatusAbandoned indicates the session was started but never
	// finished, either explicitly discarded by the user or expired by the
	// platform. This is a terminal state.
	WorkoutStatusAbandoned WorkoutStatus = "abandoned"
)

// String returns the string representation of the workout status.
func (s WorkoutStatus) String() string {
	return string(s)
}

// Valid reports whether the workout status is one of the recognized values.
func (s WorkoutStatus) Valid() bool {
	switch s {
	case WorkoutStatusPlanned, WorkoutStatusInProgress,
		WorkoutStatusCompleted, WorkoutStatusAbandoned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether this status represents a final state from
// which no further transitions are possible.
func (s WorkoutStatus) IsTerminal() bool {
	switch s {
	case WorkoutStatusCompleted, WorkoutStatusAbandoned:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the lifecycle allows moving from this
// status to the target status.
func (s WorkoutStatus) CanTransitionTo(target WorkoutStatus) bool {
	switch s {
	case WorkoutStatusPlanned:
		return target == WorkoutStatusInProgress || target == WorkoutStatusAbandoned
	case WorkoutStatusInProgress:
		return target == WorkoutStatusCompleted || target == WorkoutStatusAbandoned
	default:
		return false
	}
}

// WorkoutSet is a single performed set within a workout: one exercise,
// executed for a number of repetitions at a given load. Duration-based
// exercises (planks, cardio intervals) record DurationSeconds instead of
// repetitions.
type WorkoutSet struct {
	// ExerciseID references the [Exercise] catalog entry performed.
	ExerciseID string `json:"exercise_id" db:"exercise_id"`

	// SetNumber is the 1-based position of this set within the exercise.
	SetNumber int `json:"set_number" db:"set_number"`

	// Reps is the number of repetitions performed. Zero for pure
	// duration-based sets.
	Reps int `json:"reps,omitempty" db:"reps"`

	// WeightKg is the load in kilograms. Zero for bodyweight exercises.
	WeightKg float64 `json:"weight_kg,omitempty" db:"weight_kg"`

	// DurationSeconds is the elapsed time for duration-based sets. Zero
	// for repetition-based sets.
	DurationSeconds int `json:"duration_seconds,omitempty" db:"duration_seconds"`

	// RPE is the rating of perceived exertion on the 1-10 scale, or zero
	// if the user did not record one.
	RPE float64 `json:"rpe,omitempty" db:"rpe"`
}

// Validate checks the set's fields for internal consistency.
func (s *WorkoutSet) Validate() error {
	if s.ExerciseID == "" {
		return errors.New("models: workout set exercise ID is required")
	}
	if s.SetNumber < 1 {
		return fmt.Errorf("models: workout set number must be at least 1, got %d", s.SetNumber)
	}
	if s.Reps < 0 {
		return fmt.Errorf("models: workout set reps must not be negative, got %d", s.Reps)
	}
	if s.WeightKg < 0 {
		return fmt.Errorf("models: workout set weight must not be negative, got %v", s.WeightKg)
	}
	if s.DurationSeconds < 0 {
		return fmt.Errorf("models: workout set duration must not be negative, got %d", s.DurationSeconds)
	}
	if s.Reps == 0 && s.DurationSeconds == 0 {
		return errors.New("models: workout set must record reps or a duration")
	}
	if s.RPE != 0 && (s.RPE < 1 || s.RPE > 10) {
		return fmt.Errorf("models: workout set RPE must be in [1, 10], got %v", s.RPE)
	}
	return nil
}

// Volume returns the training volume of the set (reps times load). Zero
// for bodyweight or duration-based sets.
func (s *WorkoutSet) Volume() float64 {
	return float64(s.Reps) * s.WeightKg
}

// Workout represents a single training session in the FitStack platform.
//
// Every field is annotated with both JSON tags (for API serialization) and
// db tags (for database mapping). Optional fields use omitempty to exclude
// zero values from serialized output.
//
// Workout records are created via [NewWorkout] and are immutable after
// creation except for lifecycle updates (Status, EndTime, Sets, Notes,
// Metadata, UpdatedAt). Status transition validation belongs to the
// workout service; [WorkoutStatus.CanTransitionTo] encodes the allowed
// moves.
type Workout struct {
	// ID is the unique identifier for this workout (UUID v4).
	ID string `json:"id" db:"id"`

	// ProfileID is the ID of the user profile that owns this workout.
	// Links to the authenticated identity's [Profile].
	ProfileID string `json:"profile_id" db:"profile_id"`

	// Title is the user-facing name of the session, such as "Push Day"
	// or "5k Tempo Run".
	Title string `json:"title" db:"title"`

	// Status is the current lifecycle state of the workout.
	// See [WorkoutStatus] for valid values.
	Status WorkoutStatus `json:"status" db:"status"`

	// StartTime is the UTC timestamp when the session began. Set to the
	// creation time by [NewWorkout] and updated when the session actually
	// starts.
	StartTime time.Time `json:"start_time" db:"start_time"`

	// EndTime is the UTC timestamp when the workout reached a terminal
	// state. Nil while the workout is planned or in progress.
	EndTime *time.Time `json:"end_time,omitempty" db:"end_time"`

	// Sets is the ordered list of performed sets. Empty for planned
	// workouts that have not started.
	Sets []WorkoutSet `json:"sets"`

	// Notes is free-form user commentary on the session.
	Notes string `json:"notes,omitempty" db:"notes"`

	// Metadata is an extensible key-value store for client-specific data
	// such as device identifiers or GPS track references. Nil metadata is
	// normalized to an empty map by [NewWorkout].
	Metadata map[string]any `json:"metadata" db:"metadata"`

	// CreatedAt is the UTC timestamp when the workout record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the UTC timestamp when the workout record was last
	// modified. Updated on every lifecycle change.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewWorkout creates a new Workout record with a generated UUID, planned
// status, and UTC timestamps. The metadata map is initialized to an empty
// map.
//
// Returns an error if profileID or title is empty. These fields are
// required because a workout is meaningless without an owner and a name.
func NewWorkout(profileID, title string) (*Workout, error) {
	if profileID == "" {
		return nil, errors.New("models: workout profileID must not be empty")
	}
	if title == "" {
		return nil, errors.New("models: workout title must not be empty")
	}

	now := time.Now().UTC()
	return &Workout{
		ID:        uuid.New().String(),
		ProfileID: profileID,
		Title:     title,
		Status:    WorkoutStatusPlanned,
		StartTime: now,
		Sets:      []WorkoutSet{},
		Metadata:  make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks that all required fields are present, that the status is
// a recognized value, and that every recorded set is itself valid. Returns
// the first validation error encountered, or nil if the workout is valid.
func (w *Workout) Validate() error {
	if w.ID == "" {
		return errors.New("models: workout ID is required")
	}
	if w.ProfileID == "" {
		return errors.New("models: workout profile ID is required")
	}
	if w.Title == "" {
		return errors.New("models: workout title is required")
	}
	if !w.Status.Valid() {
		return fmt.Errorf("models: invalid workout status %q", w.Status)
	}
	if w.StartTime.IsZero() {
		return errors.New("models: workout start time is required")
	}
	if w.CreatedAt.IsZero() {
		return errors.New("models: workout created_at is required")
	}
	if w.UpdatedAt.IsZero() {
		return errors.New("models: workout updated_at is required")
	}
	if w.EndTime != nil && w.EndTime.Before(w.StartTime) {
		return errors.New("models: workout end time must not precede start time")
	}
	for i := range w.Sets {
		if err := w.Sets[i].Validate(); err != nil {
			return fmt.Errorf("models: workout set %d: %w", i, err)
		}
	}
	return nil
}

// IsTerminal reports whether the workout has reached a final state from
// which no further transitions are possible (completed or abandoned).
func (w *Workout) IsTerminal() bool {
	return w.Status.IsTerminal()
}

// Duration returns the wall-clock duration of the session. If the workout
// has an EndTime, the duration is calculated from StartTime to EndTime.
// If the session is still in progress (EndTime is nil), the duration is
// calculated from StartTime to the current time.
//
// Returns zero if StartTime is zero.
func (w *Workout) Duration() time.Duration {
	if w.StartTime.IsZero() {
		return 0
	}
	if w.EndTime != nil {
		return w.EndTime.Sub(w.StartTime)
	}
	return time.Since(w.StartTime)
}

// TotalVolume returns the sum of the training volume of every recorded
// set. See [WorkoutSet.Volume].
func (w *Workout) TotalVolume() float64 {
	var total float64
	for i := range w.Sets {
		total += w.Sets[i].Volume()
	}
	return total
}
