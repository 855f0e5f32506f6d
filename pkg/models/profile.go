package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnitSystem selects how the mobile clients display measurements. Values
// are always stored metric; this is a presentation preference only.
type UnitSystem string

const (
	UnitMetric   UnitSystem = "metric"
	UnitImperial UnitSystem = "imperial"
)

// Valid reports whether the unit system is a recognized value.
func (u UnitSystem) Valid() bool {
	return u == UnitMetric || u == UnitImperial
}

// Profile is the per-user fitness profile. The ID matches the subject of
// the user's authentication token, so a profile row is addressable
// directly from a verified identity without a lookup table.
type Profile struct {
	// ID is the authenticated subject that owns this profile.
	ID string `json:"id" db:"id"`

	// DisplayName is the user-facing name shown in the mobile apps.
	DisplayName string `json:"display_name" db:"display_name"`

	// HeightCm is the user's height in centimeters, or zero if not set.
	HeightCm float64 `json:"height_cm,omitempty" db:"height_cm"`

	// WeightKg is the user's most recent bodyweight in kilograms, or zero
	// if not set.
	WeightKg float64 `json:"weight_kg,omitempty" db:"weight_kg"`

	// BirthDate is the user's date of birth, used for age-adjusted
	// metrics. Nil if the user declined to provide it.
	BirthDate *time.Time `json:"birth_date,omitempty" db:"birth_date"`

	// Units is the display preference for measurements.
	Units UnitSystem `json:"units" db:"units"`

	// CreatedAt is the UTC timestamp when the profile was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the UTC timestamp of the last profile modification.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewProfile creates a profile for the given authenticated subject with
// metric units and UTC timestamps.
func NewProfile(id, displayName string) (*Profile, error) {
	if id == "" {
		return nil, errors.New("models: profile ID must not be empty")
	}
	if displayName == "" {
		return nil, errors.New("models: profile display name must not be empty")
	}

	now := time.Now().UTC()
	return &Profile{
		ID:          id,
		DisplayName: displayName,
		Units:       UnitMetric,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Validate checks required fields and value ranges.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("models: profile ID is required")
	}
	if p.DisplayName == "" {
		return errors.New("models: profile display name is required")
	}
	if !p.Units.Valid() {
		return fmt.Errorf("models: invalid unit system %q", p.Units)
	}
	if p.HeightCm < 0 {
		return fmt.Errorf("models: profile height must not be negative, got %v", p.HeightCm)
	}
	if p.WeightKg < 0 {
		return fmt.Errorf("models: profile weight must not be negative, got %v", p.WeightKg)
	}
	if p.CreatedAt.IsZero() {
		return errors.New("models: profile created_at is required")
	}
	if p.UpdatedAt.IsZero() {
		return errors.New("models: profile updated_at is required")
	}
	return nil
}

// MuscleGroup classifies which area of the body an exercise primarily
// targets. Used for catalog filtering and training balance analytics.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "chest"
	MuscleBack      MuscleGroup = "back"
	MuscleLegs      MuscleGroup = "legs"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleArms      MuscleGroup = "arms"
	MuscleCore      MuscleGroup = "core"
	MuscleFullBody  MuscleGroup = "full_body"
	MuscleCardio    MuscleGroup = "cardio"
)

// Valid reports whether the muscle group is a recognized value.
func (m MuscleGroup) Valid() bool {
	switch m {
	case MuscleChest, MuscleBack, MuscleLegs, MuscleShoulders,
		MuscleArms, MuscleCore, MuscleFullBody, MuscleCardio:
		return true
	default:
		return false
	}
}

// Exercise is a catalog entry describing a repeatable movement. Workout
// sets reference exercises by ID; the catalog is shared across all users.
type Exercise struct {
	// ID is the unique identifier for this exercise (UUID v4).
	ID string `json:"id" db:"id"`

	// Name is the canonical exercise name, such as "Barbell Back Squat".
	Name string `json:"name" db:"name"`

	// MuscleGroup is the primary area the exercise targets.
	MuscleGroup MuscleGroup `json:"muscle_group" db:"muscle_group"`

	// Equipment names the required equipment, or "bodyweight" when none
	// is needed.
	Equipment string `json:"equipment,omitempty" db:"equipment"`

	// Instructions is optional free-form coaching text.
	Instructions string `json:"instructions,omitempty" db:"instructions"`

	// CreatedAt is the UTC timestamp when the catalog entry was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewExercise creates a catalog entry with a generated UUID and a UTC
// creation timestamp. The name is whitespace-trimmed.
func NewExercise(name string, group MuscleGroup) (*Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("models: exercise name must not be empty")
	}
	if !group.Valid() {
		return nil, fmt.Errorf("models: invalid muscle group %q", group)
	}

	return &Exercise{
		ID:          uuid.New().String(),
		Name:        name,
		MuscleGroup: group,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Validate checks required fields and that the muscle group is recognized.
func (e *Exercise) Validate() error {
	if e.ID == "" {
		return errors.New("models: exercise ID is required")
	}
	if e.Name == "" {
		return errors.New("models: exercise name is required")
	}
	if !e.MuscleGroup.Valid() {
		return fmt.Errorf("models: invalid muscle group %q", e.MuscleGroup)
	}
	if e.CreatedAt.IsZero() {
		return errors.New("models: exercise created_at is required")
	}
	return nil
}
