// Package store implements persistence for FitStack's fitness records on
// top of the postgres client.
//
// All user-scoped operations run inside an authenticated transaction
// ([postgres.Client.BeginAuthenticated]), so the database's row-level
// security policies enforce ownership: a caller can only ever read or
// modify workouts belonging to their own verified identity. The store
// never filters by profile ID in application code for security purposes;
// ownership is the database's job.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fitstack/fitstack-core/pkg/clients/postgres"
	fserr "github.com/fitstack/fitstack-core/pkg/errors"
	"github.com/fitstack/fitstack-core/pkg/models"
)

// DefaultListLimit bounds workout listings when the caller does not
// specify a page size.
const DefaultListLimit = 50

const workoutColumns = `id, profile_id, title, status, start_time, end_time, sets, notes, metadata, created_at, updated_at`

// WorkoutStore persists workouts. Create one with [NewWorkoutStore] and
// share it; it is safe for concurrent use.
type WorkoutStore struct {
	db *postgres.Client
}

// NewWorkoutStore creates a WorkoutStore backed by the given client.
func NewWorkoutStore(db *postgres.Client) *WorkoutStore {
	return &WorkoutStore{db: db}
}

// Create inserts a new workout. The workout must validate and its profile
// ID must match the authenticated identity, which row-level security
// enforces at insert time.
func (s *WorkoutStore) Create(ctx context.Context, w *models.Workout) error {
	if w == nil {
		return fserr.Validation("store: workout must not be nil")
	}
	if err := w.Validate(); err != nil {
		return fserr.Wrap(err, fserr.CodeValidation, "store: invalid workout")
	}

	setsJSON, metaJSON, err := encodeWorkoutJSON(w)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO workouts (`+workoutColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		w.ID, w.ProfileID, w.Title, w.Status, w.StartTime, w.EndTime,
		setsJSON, w.Notes, metaJSON, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return wrapStoreError(err, "store: failed to insert workout")
	}

	return commit(ctx, tx)
}

// Get returns the workout with the given ID. Returns
// [fserr.CodeNotFoundWorkout] when no visible row matches; a workout
// owned by another user is indistinguishable from a missing one.
func (s *WorkoutStore) Get(ctx context.Context, id string) (*models.Workout, error) {
	if id == "" {
		return nil, fserr.Validation("store: workout ID must not be empty")
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := scanWorkout(tx.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	return w, nil
}

// List returns the caller's workouts ordered by start time, newest first.
// A non-positive limit falls back to [DefaultListLimit].
func (s *WorkoutStore) List(ctx context.Context, limit, offset int) ([]*models.Workout, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT `+workoutColumns+` FROM workouts
		ORDER BY start_time DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrapStoreError(err, "store: failed to list workouts")
	}
	defer rows.Close()

	var workouts []*models.Workout
	for rows.Next() {
		w, scanErr := scanWorkout(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(err, "store: failed to read workout rows")
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Transition moves the workout to the target lifecycle status. The
// current row is read and checked against the allowed transitions inside
// the same transaction, so concurrent transitions cannot race past the
// lifecycle rules. Reaching a terminal status records the end time.
//
// Returns [fserr.CodeNotFoundWorkout] for unknown or foreign workouts and
// [fserr.CodeConflict] for a transition the lifecycle forbids.
func (s *WorkoutStore) Transition(ctx context.Context, id string, target models.WorkoutStatus) (*models.Workout, error) {
	if id == "" {
		return nil, fserr.Validation("store: workout ID must not be empty")
	}
	if !target.Valid() {
		return nil, fserr.Validationf("store: invalid target status %q", target)
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := scanWorkout(tx.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if !w.Status.CanTransitionTo(target) {
		return nil, fserr.Newf(fserr.CodeConflict,
			"store: workout cannot move from %q to %q", w.Status, target)
	}

	now := time.Now().UTC()
	w.Status = target
	w.UpdatedAt = now
	if target.IsTerminal() {
		w.EndTime = &now
	}

	_, err = tx.Exec(ctx, `
		UPDATE workouts SET status = $2, end_time = $3, updated_at = $4
		WHERE id = $1`,
		w.ID, w.Status, w.EndTime, w.UpdatedAt)
	if err != nil {
		return nil, wrapStoreError(err, "store: failed to update workout status")
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	return w, nil
}

// AddSet appends a performed set to an in-progress workout.
//
// Returns [fserr.CodeConflict] when the workout is not in progress, since
// planned and finished sessions cannot record sets.
func (s *WorkoutStore) AddSet(ctx context.Context, id string, set models.WorkoutSet) (*models.Workout, error) {
	if id == "" {
		return nil, fserr.Validation("store: workout ID must not be empty")
	}
	if err := set.Validate(); err != nil {
		return nil, fserr.Wrap(err, fserr.CodeValidation, "store: invalid workout set")
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := scanWorkout(tx.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if w.Status != models.WorkoutStatusInProgress {
		return nil, fserr.Newf(fserr.CodeConflict,
			"store: cannot record sets on a %q workout", w.Status)
	}

	w.Sets = append(w.Sets, set)
	w.UpdatedAt = time.Now().UTC()

	setsJSON, err := json.Marshal(w.Sets)
	if err != nil {
		return nil, fserr.Wrap(err, fserr.CodeInternal, "store: failed to encode workout sets")
	}

	_, err = tx.Exec(ctx, `
		UPDATE workouts SET sets = $2, updated_at = $3
		WHERE id = $1`,
		w.ID, setsJSON, w.UpdatedAt)
	if err != nil {
		return nil, wrapStoreError(err, "store: failed to update workout sets")
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	return w, nil
}

// Delete removes a workout. Deleting a missing or foreign workout returns
// [fserr.CodeNotFoundWorkout].
func (s *WorkoutStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fserr.Validation("store: workout ID must not be empty")
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, id)
	if err != nil {
		return wrapStoreError(err, "store: failed to delete workout")
	}
	if tag.RowsAffected() == 0 {
		return fserr.Newf(fserr.CodeNotFoundWorkout, "store: workout %q not found", id)
	}

	return commit(ctx, tx)
}

// rowScanner is the subset of pgx.Row/pgx.Rows needed to hydrate a
// workout.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanWorkout hydrates a workout from a row holding workoutColumns.
func scanWorkout(row rowScanner) (*models.Workout, error) {
	var (
		w        models.Workout
		setsJSON []byte
		metaJSON []byte
	)
	err := row.Scan(&w.ID, &w.ProfileID, &w.Title, &w.Status, &w.StartTime,
		&w.EndTime, &setsJSON, &w.Notes, &metaJSON, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fserr.New(fserr.CodeNotFoundWorkout, "store: workout not found")
	}
	if err != nil {
		return nil, wrapStoreError(err, "store: failed to scan workout")
	}

	if len(setsJSON) > 0 {
		if err := json.Unmarshal(setsJSON, &w.Sets); err != nil {
			return nil, fserr.Wrap(err, fserr.CodeInternal, "store: corrupt workout sets")
		}
	}
	if w.Sets == nil {
		w.Sets = []models.WorkoutSet{}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &w.Metadata); err != nil {
			return nil, fserr.Wrap(err, fserr.CodeInternal, "store: corrupt workout metadata")
		}
	}
	if w.Metadata == nil {
		w.Metadata = map[string]any{}
	}

	return &w, nil
}

// encodeWorkoutJSON marshals the JSONB columns of a workout.
func encodeWorkoutJSON(w *models.Workout) (sets, meta []byte, err error) {
	sets, err = json.Marshal(w.Sets)
	if err != nil {
		return nil, nil, fserr.Wrap(err, fserr.CodeInternal, "store: failed to encode workout sets")
	}
	meta, err = json.Marshal(w.Metadata)
	if err != nil {
		return nil, nil, fserr.Wrap(err, fserr.CodeInternal, "store: failed to encode workout metadata")
	}
	return sets, meta, nil
}

// commit finalizes the transaction, preserving structured errors.
func commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return fserr.Wrap(err, fserr.CodeInternalDatabase, "store: commit failed")
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// wrapStoreError classifies a database error, passing through errors the
// postgres client already coded.
func wrapStoreError(err error, message string) error {
	var fe *fserr.Error
	if errors.As(err, &fe) {
		return fe
	}
	return fserr.Wrap(err, fserr.CodeInternalDatabase, message)
}
