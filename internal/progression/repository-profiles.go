package progression

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/progapp/internal/sqlite"
)

// sqliteProfileRepository handles database operations for profiles.
type sqliteProfileRepository struct {
	baseRepository
}

func newSQLiteProfileRepository(db *sqlite.Database, logger *slog.Logger) *sqliteProfileRepository {
	return &sqliteProfileRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// Create inserts a new profile and returns it with its assigned ID.
func (r *sqliteProfileRepository) Create(ctx context.Context, name string, boundaryHour int, mode Mode) (Profile, error) {
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO profiles (name, boundary_hour, mode)
		VALUES (?, ?, ?)`,
		name, boundaryHour, string(mode))
	if err != nil {
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Profile{}, fmt.Errorf("profile last insert id: %w", err)
	}
	return Profile{
		ID:           id,
		Name:         name,
		BoundaryHour: boundaryHour,
		Mode:         mode,
	}, nil
}

// Get retrieves a profile by ID.
func (r *sqliteProfileRepository) Get(ctx context.Context, id int64) (Profile, error) {
	var (
		profile Profile
		modeStr string
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, boundary_hour, mode
		FROM profiles
		WHERE id = ?`, id).
		Scan(&profile.ID, &profile.Name, &profile.BoundaryHour, &modeStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	profile.Mode = Mode(modeStr)
	return profile, nil
}

// GetByName retrieves a profile by its unique name.
func (r *sqliteProfileRepository) GetByName(ctx context.Context, name string) (Profile, error) {
	var (
		profile Profile
		modeStr string
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, boundary_hour, mode
		FROM profiles
		WHERE name = ?`, name).
		Scan(&profile.ID, &profile.Name, &profile.BoundaryHour, &modeStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile by name: %w", err)
	}
	profile.Mode = Mode(modeStr)
	return profile, nil
}

// List retrieves all profiles ordered by name.
func (r *sqliteProfileRepository) List(ctx context.Context) (_ []Profile, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, boundary_hour, mode
		FROM profiles
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var profiles []Profile
	for rows.Next() {
		var (
			profile Profile
			modeStr string
		)
		if err = rows.Scan(&profile.ID, &profile.Name, &profile.BoundaryHour, &modeStr); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		profile.Mode = Mode(modeStr)
		profiles = append(profiles, profile)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return profiles, nil
}

// Update applies updateFn to the profile and persists it when the function reports a change.
func (r *sqliteProfileRepository) Update(
	ctx context.Context,
	id int64,
	updateFn func(profile *Profile) (bool, error),
) error {
	profile, err := r.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get profile for update: %w", err)
	}

	updated, err := updateFn(&profile)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}

	if updated {
		if _, err = r.db.ReadWrite.ExecContext(ctx, `
			UPDATE profiles
			SET name = ?, boundary_hour = ?, mode = ?
			WHERE id = ?`,
			profile.Name, profile.BoundaryHour, string(profile.Mode), id); err != nil {
			return fmt.Errorf("save updated profile: %w", err)
		}
	}

	return nil
}
