package models

import (
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

func TestNewProfile(t *testing.T) {
	p, err := NewProfile("user-123", "Alex Carter")
	if err != nil {
		t.Fatalf("NewProfile() unexpected error: %v", err)
	}

	if p.ID != "user-123" {
		t.Errorf("ID = %q, want %q", p.ID, "user-123")
	}
	if p.DisplayName != "Alex Carter" {
		t.Errorf("DisplayName = %q, want %q", p.DisplayName, "Alex Carter")
	}
	if p.Units != UnitMetric {
		t.Errorf("Units = %q, want %q", p.Units, UnitMetric)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestNewProfile_RequiredFields(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		displayName string
	}{
		{name: "empty ID", id: "", displayName: "Alex"},
		{name: "empty display name", id: "user-123", displayName: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProfile(tt.id, tt.displayName); err == nil {
				t.Error("NewProfile() expected error, got nil")
			}
		})
	}
}

func TestProfile_Validate(t *testing.T) {
	newValid := func(t *testing.T) *Profile {
		t.Helper()
		p, err := NewProfile("user-123", "Alex Carter")
		if err != nil {
			t.Fatalf("NewProfile() error: %v", err)
		}
		return p
	}

	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr string
	}{
		{name: "fresh profile is valid", mutate: func(p *Profile) {}},
		{
			name: "populated measurements are valid",
			mutate: func(p *Profile) {
				p.HeightCm = 180
				p.WeightKg = 82.5
				birth := time.Date(1994, 6, 12, 0, 0, 0, 0, time.UTC)
				p.BirthDate = &birth
			},
		},
		{
			name:    "missing ID",
			mutate:  func(p *Profile) { p.ID = "" },
			wantErr: "profile ID",
		},
		{
			name:    "missing display name",
			mutate:  func(p *Profile) { p.DisplayName = "" },
			wantErr: "display name",
		},
		{
			name:    "invalid unit system",
			mutate:  func(p *Profile) { p.Units = UnitSystem("nautical") },
			wantErr: "unit system",
		},
		{
			name:    "negative height",
			mutate:  func(p *Profile) { p.HeightCm = -1 },
			wantErr: "height",
		},
		{
			name:    "negative weight",
			mutate:  func(p *Profile) { p.WeightKg = -1 },
			wantErr: "weight",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newValid(t)
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestUnitSystem_Valid(t *testing.T) {
	tests := []struct {
		name     string
		units    UnitSystem
		expected bool
	}{
		{name: "metric", units: UnitMetric, expected: true},
		{name: "imperial", units: UnitImperial, expected: true},
		{name: "empty", units: UnitSystem(""), expected: false},
		{name: "unknown", units: UnitSystem("stone"), expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.units.Valid(); got != tt.expected {
				t.Errorf("UnitSystem.Valid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Exercise
// ---------------------------------------------------------------------------

func TestNewExercise(t *testing.T) {
	ex, err := NewExercise("Barbell Back Squat", MuscleLegs)
	if err != nil {
		t.Fatalf("NewExercise() unexpected error: %v", err)
	}

	if ex.ID == "" {
		t.Error("ID should not be empty")
	}
	if ex.Name != "Barbell Back Squat" {
		t.Errorf("Name = %q, want %q", ex.Name, "Barbell Back Squat")
	}
	if ex.MuscleGroup != MuscleLegs {
		t.Errorf("MuscleGroup = %q, want %q", ex.MuscleGroup, MuscleLegs)
	}
	if ex.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestNewExercise_TrimsName(t *testing.T) {
	ex, err := NewExercise("  Deadlift  ", MuscleBack)
	if err != nil {
		t.Fatalf("NewExercise() unexpected error: %v", err)
	}
	if ex.Name != "Deadlift" {
		t.Errorf("Name = %q, want %q", ex.Name, "Deadlift")
	}
}

func TestNewExercise_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		exercise string
		group    MuscleGroup
	}{
		{name: "empty name", exercise: "", group: MuscleLegs},
		{name: "whitespace only name", exercise: "   ", group: MuscleLegs},
		{name: "invalid muscle group", exercise: "Squat", group: MuscleGroup("forearm")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewExercise(tt.exercise, tt.group); err == nil {
				t.Error("NewExercise() expected error, got nil")
			}
		})
	}
}

func TestMuscleGroup_Valid(t *testing.T) {
	valid := []MuscleGroup{
		MuscleChest, MuscleBack, MuscleLegs, MuscleShoulders,
		MuscleArms, MuscleCore, MuscleFullBody, MuscleCardio,
	}
	for _, g := range valid {
		if !g.Valid() {
			t.Errorf("MuscleGroup(%q).Valid() = false, want true", g)
		}
	}
	if MuscleGroup("neck").Valid() {
		t.Error(`MuscleGroup("neck").Valid() = true, want false`)
	}
	if MuscleGroup("").Valid() {
		t.Error(`MuscleGroup("").Valid() = true, want false`)
	}
}

func TestExercise_Validate(t *testing.T) {
	ex, err := NewExercise("Bench Press", MuscleChest)
	if err != nil {
		t.Fatalf("NewExercise() error: %v", err)
	}
	if err := ex.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	ex.MuscleGroup = MuscleGroup("forearm")
	if err := ex.Validate(); err == nil {
		t.Error("Validate() expected error for invalid muscle group, got nil")
	}
}
