package progression

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/progapp/internal/sqlite"
)

// sqliteProgressRepository handles database operations for the plan and
// cycle progression pointers.
type sqliteProgressRepository struct {
	baseRepository
}

func newSQLiteProgressRepository(db *sqlite.Database, logger *slog.Logger) *sqliteProgressRepository {
	return &sqliteProgressRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// GetOrCreatePlanProgress returns the progression state for (profile, plan),
// creating it at day one when it does not exist yet. The second return
// reports whether the row was created.
func (r *sqliteProgressRepository) GetOrCreatePlanProgress(
	ctx context.Context,
	profileID, planID int64,
) (PlanProgress, bool, error) {
	progress, err := r.getPlanProgress(ctx, profileID, planID)
	if err == nil {
		return progress, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return PlanProgress{}, false, err
	}

	// Another request may have created the row concurrently, so an existing
	// row wins and we re-read.
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO plan_progress (profile_id, plan_id, current_day_index)
		VALUES (?, ?, 1)
		ON CONFLICT (profile_id, plan_id) DO NOTHING`,
		profileID, planID)
	if err != nil {
		return PlanProgress{}, false, fmt.Errorf("insert plan progress: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return PlanProgress{}, false, fmt.Errorf("insert plan progress rows affected: %w", err)
	}
	progress, err = r.getPlanProgress(ctx, profileID, planID)
	if err != nil {
		return PlanProgress{}, false, err
	}
	return progress, inserted > 0, nil
}

func (r *sqliteProgressRepository) getPlanProgress(
	ctx context.Context,
	profileID, planID int64,
) (PlanProgress, error) {
	var (
		progress         PlanProgress
		lastOpenedStr    sql.NullString
		lastCompletedStr sql.NullString
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT profile_id, plan_id, current_day_index, last_opened_date, last_completed_date
		FROM plan_progress
		WHERE profile_id = ? AND plan_id = ?`, profileID, planID).
		Scan(&progress.ProfileID, &progress.PlanID, &progress.CurrentDayIndex,
			&lastOpenedStr, &lastCompletedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanProgress{}, ErrNotFound
	}
	if err != nil {
		return PlanProgress{}, fmt.Errorf("query plan progress: %w", err)
	}
	if progress.LastOpenedDate, err = parseNullableDate(lastOpenedStr); err != nil {
		return PlanProgress{}, fmt.Errorf("parse last_opened_date: %w", err)
	}
	if progress.LastCompletedDate, err = parseNullableDate(lastCompletedStr); err != nil {
		return PlanProgress{}, fmt.Errorf("parse last_completed_date: %w", err)
	}
	return progress, nil
}

// UpdatePlanProgress applies updateFn to the progression state and persists
// it when the function reports a change.
func (r *sqliteProgressRepository) UpdatePlanProgress(
	ctx context.Context,
	profileID, planID int64,
	updateFn func(progress *PlanProgress) (bool, error),
) error {
	progress, err := r.getPlanProgress(ctx, profileID, planID)
	if err != nil {
		return fmt.Errorf("get plan progress for update: %w", err)
	}

	updated, err := updateFn(&progress)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}

	if updated {
		if _, err = r.db.ReadWrite.ExecContext(ctx, `
			UPDATE plan_progress
			SET current_day_index = ?, last_opened_date = ?, last_completed_date = ?
			WHERE profile_id = ? AND plan_id = ?`,
			progress.CurrentDayIndex,
			nullableDate(progress.LastOpenedDate),
			nullableDate(progress.LastCompletedDate),
			profileID, planID); err != nil {
			return fmt.Errorf("save updated plan progress: %w", err)
		}
	}

	return nil
}

// GetOrCreateCycleProgress returns the rotation state for a cycle, creating
// it at the first item's first day when it does not exist yet.
func (r *sqliteProgressRepository) GetOrCreateCycleProgress(
	ctx context.Context,
	cycleID int64,
) (CycleProgress, bool, error) {
	progress, err := r.getCycleProgress(ctx, cycleID)
	if err == nil {
		return progress, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return CycleProgress{}, false, err
	}

	result, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO cycle_progress (cycle_id, current_item_index, current_day_index)
		VALUES (?, 0, 0)
		ON CONFLICT (cycle_id) DO NOTHING`, cycleID)
	if err != nil {
		return CycleProgress{}, false, fmt.Errorf("insert cycle progress: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return CycleProgress{}, false, fmt.Errorf("insert cycle progress rows affected: %w", err)
	}
	progress, err = r.getCycleProgress(ctx, cycleID)
	if err != nil {
		return CycleProgress{}, false, err
	}
	return progress, inserted > 0, nil
}

func (r *sqliteProgressRepository) getCycleProgress(ctx context.Context, cycleID int64) (CycleProgress, error) {
	var (
		progress        CycleProgress
		lastAdvancedStr sql.NullString
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT cycle_id, current_item_index, current_day_index, last_advanced_at
		FROM cycle_progress
		WHERE cycle_id = ?`, cycleID).
		Scan(&progress.CycleID, &progress.CurrentItemIndex, &progress.CurrentDayIndex, &lastAdvancedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return CycleProgress{}, ErrNotFound
	}
	if err != nil {
		return CycleProgress{}, fmt.Errorf("query cycle progress: %w", err)
	}
	if progress.LastAdvancedAt, err = parseTimestamp(lastAdvancedStr); err != nil {
		return CycleProgress{}, fmt.Errorf("parse last_advanced_at: %w", err)
	}
	return progress, nil
}

// UpdateCycleProgress applies updateFn to the rotation state and persists it
// when the function reports a change.
func (r *sqliteProgressRepository) UpdateCycleProgress(
	ctx context.Context,
	cycleID int64,
	updateFn func(progress *CycleProgress) (bool, error),
) error {
	progress, err := r.getCycleProgress(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("get cycle progress for update: %w", err)
	}

	updated, err := updateFn(&progress)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}

	if updated {
		var lastAdvanced any
		if !progress.LastAdvancedAt.IsZero() {
			lastAdvanced = formatTimestamp(progress.LastAdvancedAt)
		}
		if _, err = r.db.ReadWrite.ExecContext(ctx, `
			UPDATE cycle_progress
			SET current_item_index = ?, current_day_index = ?, last_advanced_at = ?
			WHERE cycle_id = ?`,
			progress.CurrentItemIndex, progress.CurrentDayIndex, lastAdvanced, cycleID); err != nil {
			return fmt.Errorf("save updated cycle progress: %w", err)
		}
	}

	return nil
}

// ResetCycleProgress rewinds the rotation to the first item's first day.
func (r *sqliteProgressRepository) ResetCycleProgress(ctx context.Context, cycleID int64) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE cycle_progress
		SET current_item_index = 0, current_day_index = 0, last_advanced_at = NULL
		WHERE cycle_id = ?`, cycleID); err != nil {
		return fmt.Errorf("reset cycle progress: %w", err)
	}
	return nil
}
