package progression

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/myrjola/progapp/internal/sqlite"
)

// sqlitePlanRepository handles database operations for plans and their days.
type sqlitePlanRepository struct {
	baseRepository
}

func newSQLitePlanRepository(db *sqlite.Database, logger *slog.Logger) *sqlitePlanRepository {
	return &sqlitePlanRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Create inserts a plan with its days and returns it with assigned IDs.
func (r *sqlitePlanRepository) Create(ctx context.Context, profileID int64, name string, days []Day) (_ Plan, err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return Plan{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO plans (profile_id, name)
		VALUES (?, ?)`, profileID, name)
	if err != nil {
		return Plan{}, fmt.Errorf("insert plan: %w", err)
	}
	planID, err := result.LastInsertId()
	if err != nil {
		return Plan{}, fmt.Errorf("plan last insert id: %w", err)
	}

	plan := Plan{
		ID:        planID,
		ProfileID: profileID,
		Name:      name,
	}
	for i, day := range days {
		if day.ID == uuid.Nil {
			day.ID = uuid.New()
		}
		day.Position = i + 1
		if err = insertDay(ctx, tx, planID, day); err != nil {
			return Plan{}, err
		}
		plan.Days = append(plan.Days, day)
	}

	if err = tx.Commit(); err != nil {
		return Plan{}, fmt.Errorf("commit transaction: %w", err)
	}
	return plan, nil
}

func insertDay(ctx context.Context, q querier, planID int64, day Day) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO plan_days (id, plan_id, position, name, is_rest_day, exercise_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		day.ID.String(), planID, day.Position, day.Name, day.IsRestDay, day.ExerciseCount); err != nil {
		return fmt.Errorf("insert plan day: %w", err)
	}
	return nil
}

// Get retrieves a plan with its days ordered by position.
func (r *sqlitePlanRepository) Get(ctx context.Context, planID int64) (Plan, error) {
	return getPlan(ctx, r.db.ReadOnly, planID)
}

func getPlan(ctx context.Context, q querier, planID int64) (Plan, error) {
	var plan Plan
	err := q.QueryRowContext(ctx, `
		SELECT id, profile_id, name, is_active
		FROM plans
		WHERE id = ?`, planID).
		Scan(&plan.ID, &plan.ProfileID, &plan.Name, &plan.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, fmt.Errorf("query plan: %w", err)
	}

	plan.Days, err = loadDays(ctx, q, planID)
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func loadDays(ctx context.Context, q querier, planID int64) (_ []Day, err error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, position, name, is_rest_day, exercise_count
		FROM plan_days
		WHERE plan_id = ?
		ORDER BY position`, planID)
	if err != nil {
		return nil, fmt.Errorf("query plan days: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var days []Day
	for rows.Next() {
		var (
			day   Day
			idStr string
		)
		if err = rows.Scan(&idStr, &day.Position, &day.Name, &day.IsRestDay, &day.ExerciseCount); err != nil {
			return nil, fmt.Errorf("scan plan day row: %w", err)
		}
		if day.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse plan day id: %w", err)
		}
		days = append(days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return days, nil
}

// List retrieves all plans of a profile without their days.
func (r *sqlitePlanRepository) List(ctx context.Context, profileID int64) (_ []Plan, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, profile_id, name, is_active
		FROM plans
		WHERE profile_id = ?
		ORDER BY id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var plans []Plan
	for rows.Next() {
		var plan Plan
		if err = rows.Scan(&plan.ID, &plan.ProfileID, &plan.Name, &plan.Active); err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return plans, nil
}

// Activate marks the plan active and deactivates the profile's other plans.
func (r *sqlitePlanRepository) Activate(ctx context.Context, profileID, planID int64) (err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		UPDATE plans SET is_active = 0 WHERE profile_id = ?`, profileID); err != nil {
		return fmt.Errorf("deactivate plans: %w", err)
	}
	result, err := tx.ExecContext(ctx, `
		UPDATE plans SET is_active = 1 WHERE id = ? AND profile_id = ?`, planID, profileID)
	if err != nil {
		return fmt.Errorf("activate plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate plan rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ActiveForProfile retrieves the profile's active plan with its days.
func (r *sqlitePlanRepository) ActiveForProfile(ctx context.Context, profileID int64) (Plan, error) {
	var planID int64
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id FROM plans WHERE profile_id = ? AND is_active = 1`, profileID).
		Scan(&planID)
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, fmt.Errorf("query active plan: %w", err)
	}
	return r.Get(ctx, planID)
}

// Delete removes a plan. Days, progress, and records cascade in the schema.
func (r *sqlitePlanRepository) Delete(ctx context.Context, planID int64) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, planID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Rename updates the plan's name.
func (r *sqlitePlanRepository) Rename(ctx context.Context, planID int64, name string) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE plans SET name = ? WHERE id = ?`, name, planID)
	if err != nil {
		return fmt.Errorf("rename plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename plan rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddDay inserts a day at day.Position (clamped, 0 appends) shifting later
// days back, and re-resolves the stored day pointer.
func (r *sqlitePlanRepository) AddDay(ctx context.Context, planID int64, day Day) (Day, error) {
	if day.ID == uuid.Nil {
		day.ID = uuid.New()
	}
	err := r.mutateDays(ctx, planID, func(days []Day) ([]Day, error) {
		pos := day.Position
		if pos < 1 || pos > len(days)+1 {
			pos = len(days) + 1
		}
		next := make([]Day, 0, len(days)+1)
		next = append(next, days[:pos-1]...)
		next = append(next, day)
		next = append(next, days[pos-1:]...)
		return next, nil
	})
	if err != nil {
		return Day{}, err
	}
	return day, nil
}

// UpdateDay applies updateFn to a day and persists it when the function
// reports a change. Position changes must go through ReorderDays.
func (r *sqlitePlanRepository) UpdateDay(
	ctx context.Context,
	planID int64,
	dayID uuid.UUID,
	updateFn func(day *Day) (bool, error),
) error {
	var (
		day   Day
		idStr string
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, position, name, is_rest_day, exercise_count
		FROM plan_days
		WHERE plan_id = ? AND id = ?`, planID, dayID.String()).
		Scan(&idStr, &day.Position, &day.Name, &day.IsRestDay, &day.ExerciseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query plan day: %w", err)
	}
	day.ID = dayID

	updated, err := updateFn(&day)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}
	if updated {
		if _, err = r.db.ReadWrite.ExecContext(ctx, `
			UPDATE plan_days
			SET name = ?, is_rest_day = ?, exercise_count = ?
			WHERE plan_id = ? AND id = ?`,
			day.Name, day.IsRestDay, day.ExerciseCount, planID, dayID.String()); err != nil {
			return fmt.Errorf("save updated plan day: %w", err)
		}
	}
	return nil
}

// DeleteDay removes a day and re-resolves the stored day pointer.
func (r *sqlitePlanRepository) DeleteDay(ctx context.Context, planID int64, dayID uuid.UUID) error {
	return r.mutateDays(ctx, planID, func(days []Day) ([]Day, error) {
		next := make([]Day, 0, len(days))
		found := false
		for _, day := range days {
			if day.ID == dayID {
				found = true
				continue
			}
			next = append(next, day)
		}
		if !found {
			return nil, ErrNotFound
		}
		return next, nil
	})
}

// ReorderDays rearranges the plan's days to the given ID order and
// re-resolves the stored day pointer. Every existing day must appear in
// orderedIDs exactly once.
func (r *sqlitePlanRepository) ReorderDays(ctx context.Context, planID int64, orderedIDs []uuid.UUID) error {
	return r.mutateDays(ctx, planID, func(days []Day) ([]Day, error) {
		if len(orderedIDs) != len(days) {
			return nil, fmt.Errorf("reorder expects %d day ids, got %d", len(days), len(orderedIDs))
		}
		byID := make(map[uuid.UUID]Day, len(days))
		for _, day := range days {
			byID[day.ID] = day
		}
		next := make([]Day, 0, len(days))
		for _, id := range orderedIDs {
			day, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("unknown day id %s: %w", id, ErrNotFound)
			}
			delete(byID, id)
			next = append(next, day)
		}
		return next, nil
	})
}

// mutateDays applies mutate to the plan's ordered days inside a transaction,
// re-densifies positions, and re-resolves the stored day pointer through its
// identity anchor so it keeps referring to the same day after the mutation.
func (r *sqlitePlanRepository) mutateDays(
	ctx context.Context,
	planID int64,
	mutate func(days []Day) ([]Day, error),
) (err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
	}()

	days, err := loadDays(ctx, tx, planID)
	if err != nil {
		return err
	}

	// Capture what the stored pointer refers to before positions shift.
	var (
		profileID  int64
		oldIndex   int
		anchor     uuid.UUID
		hasPointer = true
	)
	err = tx.QueryRowContext(ctx, `
		SELECT profile_id, current_day_index
		FROM plan_progress
		WHERE plan_id = ?`, planID).
		Scan(&profileID, &oldIndex)
	if errors.Is(err, sql.ErrNoRows) {
		hasPointer = false
	} else if err != nil {
		return fmt.Errorf("query plan progress: %w", err)
	}
	if hasPointer {
		anchor = dayAnchor(days, oldIndex)
	}

	next, err := mutate(days)
	if err != nil {
		return err
	}

	// Write the new day list as a diff so stable day ids survive.
	keep := make(map[uuid.UUID]bool, len(next))
	for i := range next {
		next[i].Position = i + 1
		keep[next[i].ID] = true
	}
	for _, day := range days {
		if !keep[day.ID] {
			if _, err = tx.ExecContext(ctx, `
				DELETE FROM plan_days WHERE plan_id = ? AND id = ?`,
				planID, day.ID.String()); err != nil {
				return fmt.Errorf("delete plan day: %w", err)
			}
		}
	}
	for _, day := range next {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO plan_days (id, plan_id, position, name, is_rest_day, exercise_count)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				position = excluded.position,
				name = excluded.name,
				is_rest_day = excluded.is_rest_day,
				exercise_count = excluded.exercise_count`,
			day.ID.String(), planID, day.Position, day.Name, day.IsRestDay, day.ExerciseCount); err != nil {
			return fmt.Errorf("upsert plan day: %w", err)
		}
	}

	if hasPointer {
		newIndex := resolveDayIndex(next, anchor, oldIndex)
		if _, err = tx.ExecContext(ctx, `
			UPDATE plan_progress
			SET current_day_index = ?
			WHERE profile_id = ? AND plan_id = ?`,
			newIndex, profileID, planID); err != nil {
			return fmt.Errorf("reindex plan progress: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
