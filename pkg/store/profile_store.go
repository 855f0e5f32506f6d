package store

import (
	"context"

	"github.com/fitstack/fitstack-core/pkg/clients/postgres"
	fserr "github.com/fitstack/fitstack-core/pkg/errors"
	"github.com/fitstack/fitstack-core/pkg/models"
)

const profileColumns = `id, display_name, height_cm, weight_kg, birth_date, units, created_at, updated_at`

// ProfileStore persists user profiles. Profile IDs are identity subjects,
// so the row-level security policy on the profiles table reduces every
// operation to the caller's own row.
type ProfileStore struct {
	db *postgres.Client
}

// NewProfileStore creates a ProfileStore backed by the given client.
func NewProfileStore(db *postgres.Client) *ProfileStore {
	return &ProfileStore{db: db}
}

// Upsert creates or replaces the caller's profile.
func (s *ProfileStore) Upsert(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return fserr.Validation("store: profile must not be nil")
	}
	if err := p.Validate(); err != nil {
		return fserr.Wrap(err, fserr.CodeValidation, "store: invalid profile")
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			height_cm    = EXCLUDED.height_cm,
			weight_kg    = EXCLUDED.weight_kg,
			birth_date   = EXCLUDED.birth_date,
			units        = EXCLUDED.units,
			updated_at   = EXCLUDED.updated_at`,
		p.ID, p.DisplayName, p.HeightCm, p.WeightKg, p.BirthDate,
		p.Units, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return wrapStoreError(err, "store: failed to upsert profile")
	}

	return commit(ctx, tx)
}

// Get returns the profile with the given ID. Returns
// [fserr.CodeNotFoundProfile] when the row does not exist or belongs to
// another user.
func (s *ProfileStore) Get(ctx context.Context, id string) (*models.Profile, error) {
	if id == "" {
		return nil, fserr.Validation("store: profile ID must not be empty")
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var p models.Profile
	err = tx.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.DisplayName, &p.HeightCm, &p.WeightKg, &p.BirthDate,
			&p.Units, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, fserr.Newf(fserr.CodeNotFoundProfile, "store: profile %q not found", id)
		}
		return nil, wrapStoreError(err, "store: failed to load profile")
	}

	if err := commit(ctx, tx); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the caller's profile. Returns
// [fserr.CodeNotFoundProfile] when nothing was deleted.
func (s *ProfileStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fserr.Validation("store: profile ID must not be empty")
	}

	tx, err := s.db.BeginAuthenticated(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return wrapStoreError(err, "store: failed to delete profile")
	}
	if tag.RowsAffected() == 0 {
		return fserr.Newf(fserr.CodeNotFoundProfile, "store: profile %q not found", id)
	}

	return commit(ctx, tx)
}
