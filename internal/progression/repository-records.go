package progression

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/progapp/internal/sqlite"
)

// defaultSetsPerExercise is the number of set slots materialized for each
// exercise of a workout day.
const defaultSetsPerExercise = 3

// SetSlot is one set of one exercise within a workout record.
type SetSlot struct {
	ExerciseIndex int // 1-based
	SetNumber     int // 1-based
	Completed     bool
}

// Record is a workout record for one program day with its set slots.
type Record struct {
	ProfileID   int64
	PlanID      int64
	Date        Date
	PlanDayID   string
	CompletedAt time.Time
	Sets        []SetSlot
}

// sqliteRecordRepository handles database operations for workout records.
type sqliteRecordRepository struct {
	baseRepository
}

func newSQLiteRecordRepository(db *sqlite.Database, logger *slog.Logger) *sqliteRecordRepository {
	return &sqliteRecordRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// Status reports whether the record for a program day is absent, incomplete,
// or complete. A record is complete when it was explicitly marked completed
// or every one of its set slots is done.
func (r *sqliteRecordRepository) Status(ctx context.Context, profileID, planID int64, date Date) (RecordStatus, error) {
	var (
		completedAt sql.NullString
		total       int
		incomplete  int
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT r.completed_at,
		       COUNT(s.set_number),
		       COALESCE(SUM(CASE WHEN s.completed = 0 THEN 1 ELSE 0 END), 0)
		FROM workout_records r
		LEFT JOIN workout_record_sets s
		    ON s.profile_id = r.profile_id AND s.plan_id = r.plan_id AND s.record_date = r.record_date
		WHERE r.profile_id = ? AND r.plan_id = ? AND r.record_date = ?
		GROUP BY r.profile_id, r.plan_id, r.record_date`,
		profileID, planID, date.String()).
		Scan(&completedAt, &total, &incomplete)
	if errors.Is(err, sql.ErrNoRows) {
		return RecordAbsent, nil
	}
	if err != nil {
		return RecordAbsent, fmt.Errorf("query record status: %w", err)
	}
	if completedAt.Valid || (total > 0 && incomplete == 0) {
		return RecordComplete, nil
	}
	return RecordIncomplete, nil
}

// Get retrieves the record for a program day with its set slots.
func (r *sqliteRecordRepository) Get(ctx context.Context, profileID, planID int64, date Date) (_ Record, err error) {
	record := Record{
		ProfileID: profileID,
		PlanID:    planID,
		Date:      date,
	}
	var completedAt sql.NullString
	err = r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT plan_day_id, completed_at
		FROM workout_records
		WHERE profile_id = ? AND plan_id = ? AND record_date = ?`,
		profileID, planID, date.String()).
		Scan(&record.PlanDayID, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("query record: %w", err)
	}
	if record.CompletedAt, err = parseTimestamp(completedAt); err != nil {
		return Record{}, fmt.Errorf("parse completed_at: %w", err)
	}

	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT exercise_index, set_number, completed
		FROM workout_record_sets
		WHERE profile_id = ? AND plan_id = ? AND record_date = ?
		ORDER BY exercise_index, set_number`,
		profileID, planID, date.String())
	if err != nil {
		return Record{}, fmt.Errorf("query record sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	for rows.Next() {
		var slot SetSlot
		if err = rows.Scan(&slot.ExerciseIndex, &slot.SetNumber, &slot.Completed); err != nil {
			return Record{}, fmt.Errorf("scan record set row: %w", err)
		}
		record.Sets = append(record.Sets, slot)
	}
	if err = rows.Err(); err != nil {
		return Record{}, fmt.Errorf("rows error: %w", err)
	}
	return record, nil
}

// Materialize creates the record for a program day with empty set slots for
// each of the day's exercises. An existing record is left untouched.
func (r *sqliteRecordRepository) Materialize(ctx context.Context, profileID, planID int64, date Date, day Day) (err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
	}()

	// Backfilled records may not know which day they belong to.
	dayID := ""
	if day.ID != uuid.Nil {
		dayID = day.ID.String()
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO workout_records (profile_id, plan_id, record_date, plan_day_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (profile_id, plan_id, record_date) DO NOTHING`,
		profileID, planID, date.String(), dayID)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert record rows affected: %w", err)
	}
	if inserted > 0 {
		for exercise := 1; exercise <= day.ExerciseCount; exercise++ {
			for set := 1; set <= defaultSetsPerExercise; set++ {
				if _, err = tx.ExecContext(ctx, `
					INSERT INTO workout_record_sets
					    (profile_id, plan_id, record_date, exercise_index, set_number)
					VALUES (?, ?, ?, ?, ?)`,
					profileID, planID, date.String(), exercise, set); err != nil {
					return fmt.Errorf("insert record set: %w", err)
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the record for a program day. Set slots cascade.
func (r *sqliteRecordRepository) Delete(ctx context.Context, profileID, planID int64, date Date) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `
		DELETE FROM workout_records
		WHERE profile_id = ? AND plan_id = ? AND record_date = ?`,
		profileID, planID, date.String()); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Complete marks the record and all its set slots completed at the given
// time, creating the record first when it does not exist.
func (r *sqliteRecordRepository) Complete(ctx context.Context, profileID, planID int64, date Date, day Day, completedAt time.Time) error {
	if err := r.Materialize(ctx, profileID, planID, date, day); err != nil {
		return err
	}
	if _, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE workout_record_sets
		SET completed = 1
		WHERE profile_id = ? AND plan_id = ? AND record_date = ?`,
		profileID, planID, date.String()); err != nil {
		return fmt.Errorf("complete record sets: %w", err)
	}
	if _, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE workout_records
		SET completed_at = ?
		WHERE profile_id = ? AND plan_id = ? AND record_date = ?`,
		formatTimestamp(completedAt), profileID, planID, date.String()); err != nil {
		return fmt.Errorf("complete record: %w", err)
	}
	return nil
}

// MarkSet sets the completion flag of a single set slot.
func (r *sqliteRecordRepository) MarkSet(
	ctx context.Context,
	profileID, planID int64,
	date Date,
	exerciseIndex, setNumber int,
	completed bool,
) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE workout_record_sets
		SET completed = ?
		WHERE profile_id = ? AND plan_id = ? AND record_date = ?
		  AND exercise_index = ? AND set_number = ?`,
		completed, profileID, planID, date.String(), exerciseIndex, setNumber)
	if err != nil {
		return fmt.Errorf("mark record set: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark record set rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompletedSetCount returns how many set slots of a program day are done.
func (r *sqliteRecordRepository) CompletedSetCount(ctx context.Context, profileID, planID int64, date Date) (int, error) {
	var count int
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM workout_record_sets
		WHERE profile_id = ? AND plan_id = ? AND record_date = ? AND completed = 1`,
		profileID, planID, date.String()).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query completed set count: %w", err)
	}
	return count, nil
}
