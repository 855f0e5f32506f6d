package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/fitstack/fitstack-core/pkg/auth"
	"github.com/fitstack/fitstack-core/pkg/clients/postgres"
	fserr "github.com/fitstack/fitstack-core/pkg/errors"
	"github.com/fitstack/fitstack-core/pkg/models"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newMockWorkoutStore(t *testing.T) (pgxmock.PgxPoolIface, *WorkoutStore) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error: %v", err)
	}
	t.Cleanup(mock.Close)

	client := postgres.NewFromPool(mock, nil)
	return mock, NewWorkoutStore(client)
}

func authedContext(t *testing.T, subject string) context.Context {
	t.Helper()

	identity, err := auth.NewUserIdentity(subject, "", "", map[string]any{"sub": subject})
	if err != nil {
		t.Fatalf("NewUserIdentity() error: %v", err)
	}
	return auth.ContextWithIdentity(context.Background(), identity)
}

// expectAuthenticated registers the transaction open and session claim
// installation that every store operation performs.
func expectAuthenticated(mock pgxmock.PgxPoolIface, subject string) {
	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").
		WithArgs(pgxmock.AnyArg(), subject).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func testWorkout(t *testing.T, profileID string) *models.Workout {
	t.Helper()

	w, err := models.NewWorkout(profileID, "Push Day")
	if err != nil {
		t.Fatalf("NewWorkout() error: %v", err)
	}
	return w
}

func workoutRows(t *testing.T, w *models.Workout) *pgxmock.Rows {
	t.Helper()

	setsJSON, err := json.Marshal(w.Sets)
	if err != nil {
		t.Fatalf("marshal sets: %v", err)
	}
	metaJSON, err := json.Marshal(w.Metadata)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}

	return pgxmock.NewRows([]string{
		"id", "profile_id", "title", "status", "start_time", "end_time",
		"sets", "notes", "metadata", "created_at", "updated_at",
	}).AddRow(w.ID, w.ProfileID, w.Title, w.Status, w.StartTime, w.EndTime,
		setsJSON, w.Notes, metaJSON, w.CreatedAt, w.UpdatedAt)
}

// ============================================================================
// Create
// ============================================================================

func TestWorkoutStore_Create(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")
	w := testWorkout(t, "user-123")

	expectAuthenticated(mock, "user-123")
	mock.ExpectExec("INSERT INTO workouts").
		WithArgs(w.ID, w.ProfileID, w.Title, w.Status, w.StartTime, w.EndTime,
			pgxmock.AnyArg(), w.Notes, pgxmock.AnyArg(), w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := store.Create(ctx, w); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWorkoutStore_Create_NilWorkout(t *testing.T) {
	_, store := newMockWorkoutStore(t)

	err := store.Create(authedContext(t, "user-123"), nil)
	if fserr.GetCode(err) != fserr.CodeValidation {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeValidation)
	}
}

func TestWorkoutStore_Create_InvalidWorkout(t *testing.T) {
	_, store := newMockWorkoutStore(t)
	w := testWorkout(t, "user-123")
	w.Title = ""

	err := store.Create(authedContext(t, "user-123"), w)
	if fserr.GetCode(err) != fserr.CodeValidation {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeValidation)
	}
}

func TestWorkoutStore_Create_NoIdentity(t *testing.T) {
	_, store := newMockWorkoutStore(t)
	w := testWorkout(t, "user-123")

	err := store.Create(context.Background(), w)
	if fserr.GetCode(err) != fserr.CodeAuthentication {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeAuthentication)
	}
}

func TestWorkoutStore_Create_InsertError(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")
	w := testWorkout(t, "user-123")

	expectAuthenticated(mock, "user-123")
	mock.ExpectExec("INSERT INTO workouts").
		WithArgs(w.ID, w.ProfileID, w.Title, w.Status, w.StartTime, w.EndTime,
			pgxmock.AnyArg(), w.Notes, pgxmock.AnyArg(), w.CreatedAt, w.UpdatedAt).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.Create(ctx, w)
	if fserr.GetCode(err) != fserr.CodeInternalDatabase {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeInternalDatabase)
	}
}

// ============================================================================
// Get
// ============================================================================

func TestWorkoutStore_Get(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")
	w := testWorkout(t, "user-123")
	w.Metadata["device"] = "watch-7"

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts WHERE id").
		WithArgs(w.ID).
		WillReturnRows(workoutRows(t, w))
	mock.ExpectCommit()

	got, err := store.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.ID != w.ID {
		t.Errorf("ID = %q, want %q", got.ID, w.ID)
	}
	if got.Status != models.WorkoutStatusPlanned {
		t.Errorf("Status = %q, want %q", got.Status, models.WorkoutStatusPlanned)
	}
	if got.Metadata["device"] != "watch-7" {
		t.Errorf("Metadata[device] = %v, want watch-7", got.Metadata["device"])
	}
	if got.Sets == nil {
		t.Error("Sets should be hydrated to an empty slice, not nil")
	}
}

func TestWorkoutStore_Get_NotFound(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := store.Get(ctx, "missing")
	if fserr.GetCode(err) != fserr.CodeNotFoundWorkout {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeNotFoundWorkout)
	}
}

func TestWorkoutStore_Get_EmptyID(t *testing.T) {
	_, store := newMockWorkoutStore(t)

	_, err := store.Get(authedContext(t, "user-123"), "")
	if fserr.GetCode(err) != fserr.CodeValidation {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeValidation)
	}
}

// ============================================================================
// List
// ============================================================================

func TestWorkoutStore_List(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")

	w1 := testWorkout(t, "user-123")
	w2 := testWorkout(t, "user-123")
	rows := workoutRows(t, w1)
	setsJSON, _ := json.Marshal(w2.Sets)
	metaJSON, _ := json.Marshal(w2.Metadata)
	rows.AddRow(w2.ID, w2.ProfileID, w2.Title, w2.Status, w2.StartTime, w2.EndTime,
		setsJSON, w2.Notes, metaJSON, w2.CreatedAt, w2.UpdatedAt)

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts").
		WithArgs(DefaultListLimit, 0).
		WillReturnRows(rows)
	mock.ExpectCommit()

	got, err := store.List(ctx, 0, -5)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != w1.ID || got[1].ID != w2.ID {
		t.Errorf("unexpected workout order: %q, %q", got[0].ID, got[1].ID)
	}
}

func TestWorkoutStore_List_QueryError(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts").
		WithArgs(25, 10).
		WillReturnError(errors.New("relation does not exist"))

	_, err := store.List(ctx, 25, 10)
	if fserr.GetCode(err) != fserr.CodeInternalDatabase {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeInternalDatabase)
	}
}

// ============================================================================
// Transition
// ============================================================================

func TestWorkoutStore_Transition(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")
	w := testWorkout(t, "user-123")

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts WHERE id (.+) FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(workoutRows(t, w))
	mock.ExpectExec("UPDATE workouts SET status").
		WithArgs(w.ID, models.WorkoutStatusInProgress, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	got, err := store.Transition(ctx, w.ID, models.WorkoutStatusInProgress)
	if err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if got.Status != models.WorkoutStatusInProgress {
		t.Errorf("Status = %q, want %q", got.Status, models.WorkoutStatusInProgress)
	}
	if got.EndTime != nil {
		t.Error("EndTime should remain nil for a non-terminal status")
	}
}

func TestWorkoutStore_Transition_Terminal_SetsEndTime(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")
	w := testWorkout(t, "user-123")
	w.Status = models.WorkoutStatusInProgress

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts WHERE id (.+) FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(workoutRows(t, w))
	mock.ExpectExec("UPDATE workouts SET status").
		WithArgs(w.ID, models.WorkoutStatusCompleted, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	got, err := store.Transition(ctx, w.ID, models.WorkoutStatusCompleted)
	if err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if got.EndTime == nil {
		t.Fatal("EndTime should be set when completing a workout")
	}
	if time.Since(*got.EndTime) > time.Minute {
		t.Errorf("EndTime = %v, want recent", *got.EndTime)
	}
}

func TestWorkoutStore_Transition_Forbidden(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")
	w := testWorkout(t, "user-123")

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts WHERE id (.+) FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(workoutRows(t, w))

	// Planned workouts cannot complete without starting first.
	_, err := store.Transition(ctx, w.ID, models.WorkoutStatusCompleted)
	if fserr.GetCode(err) != fserr.CodeConflict {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeConflict)
	}
}

func TestWorkoutStore_Transition_InvalidStatus(t *testing.T) {
	_, store := newMockWorkoutStore(t)

	_, err := store.Transition(authedContext(t, "user-123"), "w-1", "paused")
	if fserr.GetCode(err) != fserr.CodeValidation {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeValidation)
	}
}

// ============================================================================
// AddSet
// ============================================================================

func TestWorkoutStore_AddSet(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")
	w := testWorkout(t, "user-123")
	w.Status = models.WorkoutStatusInProgress

	set := models.WorkoutSet{
		ExerciseID: "bench-press",
		SetNumber:  1,
		Reps:       8,
		WeightKg:   80,
	}

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts WHERE id (.+) FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(workoutRows(t, w))
	mock.ExpectExec("UPDATE workouts SET sets").
		WithArgs(w.ID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	got, err := store.AddSet(ctx, w.ID, set)
	if err != nil {
		t.Fatalf("AddSet() error: %v", err)
	}
	if len(got.Sets) != 1 {
		t.Fatalf("len(Sets) = %d, want 1", len(got.Sets))
	}
	if got.Sets[0].ExerciseID != "bench-press" {
		t.Errorf("ExerciseID = %q, want bench-press", got.Sets[0].ExerciseID)
	}
}

func TestWorkoutStore_AddSet_NotInProgress(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")
	w := testWorkout(t, "user-123")

	set := models.WorkoutSet{ExerciseID: "bench-press", SetNumber: 1, Reps: 8}

	expectAuthenticated(mock, "user-123")
	mock.ExpectQuery("SELECT (.+) FROM workouts WHERE id (.+) FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(workoutRows(t, w))

	_, err := store.AddSet(ctx, w.ID, set)
	if fserr.GetCode(err) != fserr.CodeConflict {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeConflict)
	}
}

func TestWorkoutStore_AddSet_InvalidSet(t *testing.T) {
	_, store := newMockWorkoutStore(t)

	_, err := store.AddSet(authedContext(t, "user-123"), "w-1", models.WorkoutSet{})
	if fserr.GetCode(err) != fserr.CodeValidation {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeValidation)
	}
}

// ============================================================================
// Delete
// ============================================================================

func TestWorkoutStore_Delete(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")

	expectAuthenticated(mock, "user-123")
	mock.ExpectExec("DELETE FROM workouts").
		WithArgs("w-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	if err := store.Delete(ctx, "w-1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
}

func TestWorkoutStore_Delete_NotFound(t *testing.T) {
	mock, store := newMockWorkoutStore(t)
	ctx := authedContext(t, "user-123")

	expectAuthenticated(mock, "user-123")
	mock.ExpectExec("DELETE FROM workouts").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := store.Delete(ctx, "missing")
	if fserr.GetCode(err) != fserr.CodeNotFoundWorkout {
		t.Errorf("code = %v, want %v", fserr.GetCode(err), fserr.CodeNotFoundWorkout)
	}
}
