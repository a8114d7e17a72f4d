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

// sqliteCycleRepository handles database operations for cycles and their
// plan references.
type sqliteCycleRepository struct {
	baseRepository
}

func newSQLiteCycleRepository(db *sqlite.Database, logger *slog.Logger) *sqliteCycleRepository {
	return &sqliteCycleRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// Create inserts a cycle referencing the given plans in order.
func (r *sqliteCycleRepository) Create(ctx context.Context, profileID int64, name string, planIDs []int64) (_ Cycle, err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return Cycle{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO cycles (profile_id, name)
		VALUES (?, ?)`, profileID, name)
	if err != nil {
		return Cycle{}, fmt.Errorf("insert cycle: %w", err)
	}
	cycleID, err := result.LastInsertId()
	if err != nil {
		return Cycle{}, fmt.Errorf("cycle last insert id: %w", err)
	}

	cycle := Cycle{
		ID:        cycleID,
		ProfileID: profileID,
		Name:      name,
	}
	for i, planID := range planIDs {
		item := CycleItem{
			ID:       uuid.New(),
			Position: i,
			PlanID:   planID,
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cycle_items (id, cycle_id, position, plan_id)
			VALUES (?, ?, ?, ?)`,
			item.ID.String(), cycleID, item.Position, item.PlanID); err != nil {
			return Cycle{}, fmt.Errorf("insert cycle item: %w", err)
		}
		cycle.Items = append(cycle.Items, item)
	}

	if err = tx.Commit(); err != nil {
		return Cycle{}, fmt.Errorf("commit transaction: %w", err)
	}
	return cycle, nil
}

// Get retrieves a cycle with its items ordered by position.
func (r *sqliteCycleRepository) Get(ctx context.Context, cycleID int64) (Cycle, error) {
	var cycle Cycle
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, profile_id, name, is_active
		FROM cycles
		WHERE id = ?`, cycleID).
		Scan(&cycle.ID, &cycle.ProfileID, &cycle.Name, &cycle.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Cycle{}, ErrNotFound
	}
	if err != nil {
		return Cycle{}, fmt.Errorf("query cycle: %w", err)
	}

	cycle.Items, err = loadItems(ctx, r.db.ReadOnly, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	return cycle, nil
}

func loadItems(ctx context.Context, q querier, cycleID int64) (_ []CycleItem, err error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, position, plan_id
		FROM cycle_items
		WHERE cycle_id = ?
		ORDER BY position`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query cycle items: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var items []CycleItem
	for rows.Next() {
		var (
			item   CycleItem
			idStr  string
			planID sql.NullInt64
		)
		if err = rows.Scan(&idStr, &item.Position, &planID); err != nil {
			return nil, fmt.Errorf("scan cycle item row: %w", err)
		}
		if item.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse cycle item id: %w", err)
		}
		// Deleted plans null the reference, leaving PlanID 0.
		if planID.Valid {
			item.PlanID = planID.Int64
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

// List retrieves all cycles of a profile without their items.
func (r *sqliteCycleRepository) List(ctx context.Context, profileID int64) (_ []Cycle, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, profile_id, name, is_active
		FROM cycles
		WHERE profile_id = ?
		ORDER BY id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var cycles []Cycle
	for rows.Next() {
		var cycle Cycle
		if err = rows.Scan(&cycle.ID, &cycle.ProfileID, &cycle.Name, &cycle.Active); err != nil {
			return nil, fmt.Errorf("scan cycle row: %w", err)
		}
		cycles = append(cycles, cycle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return cycles, nil
}

// Activate marks the cycle active and deactivates the profile's other cycles.
func (r *sqliteCycleRepository) Activate(ctx context.Context, profileID, cycleID int64) (err error) {
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
		UPDATE cycles SET is_active = 0 WHERE profile_id = ?`, profileID); err != nil {
		return fmt.Errorf("deactivate cycles: %w", err)
	}
	result, err := tx.ExecContext(ctx, `
		UPDATE cycles SET is_active = 1 WHERE id = ? AND profile_id = ?`, cycleID, profileID)
	if err != nil {
		return fmt.Errorf("activate cycle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate cycle rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ActiveForProfile retrieves the profile's active cycle with its items.
func (r *sqliteCycleRepository) ActiveForProfile(ctx context.Context, profileID int64) (Cycle, error) {
	var cycleID int64
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id FROM cycles WHERE profile_id = ? AND is_active = 1`, profileID).
		Scan(&cycleID)
	if errors.Is(err, sql.ErrNoRows) {
		return Cycle{}, ErrNotFound
	}
	if err != nil {
		return Cycle{}, fmt.Errorf("query active cycle: %w", err)
	}
	return r.Get(ctx, cycleID)
}

// Delete removes a cycle. Items and progress cascade in the schema.
func (r *sqliteCycleRepository) Delete(ctx context.Context, cycleID int64) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM cycles WHERE id = ?`, cycleID)
	if err != nil {
		return fmt.Errorf("delete cycle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cycle rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddItem appends a plan reference at item.Position (clamped, negative
// appends) and re-resolves the stored item pointer.
func (r *sqliteCycleRepository) AddItem(ctx context.Context, cycleID int64, item CycleItem) (CycleItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	err := r.mutateItems(ctx, cycleID, func(items []CycleItem) ([]CycleItem, error) {
		pos := item.Position
		if pos < 0 || pos > len(items) {
			pos = len(items)
		}
		next := make([]CycleItem, 0, len(items)+1)
		next = append(next, items[:pos]...)
		next = append(next, item)
		next = append(next, items[pos:]...)
		return next, nil
	})
	if err != nil {
		return CycleItem{}, err
	}
	return item, nil
}

// DeleteItem removes a plan reference and re-resolves the stored item pointer.
func (r *sqliteCycleRepository) DeleteItem(ctx context.Context, cycleID int64, itemID uuid.UUID) error {
	return r.mutateItems(ctx, cycleID, func(items []CycleItem) ([]CycleItem, error) {
		next := make([]CycleItem, 0, len(items))
		found := false
		for _, item := range items {
			if item.ID == itemID {
				found = true
				continue
			}
			next = append(next, item)
		}
		if !found {
			return nil, ErrNotFound
		}
		return next, nil
	})
}

// ReorderItems rearranges the cycle's items to the given ID order and
// re-resolves the stored item pointer. Every existing item must appear in
// orderedIDs exactly once.
func (r *sqliteCycleRepository) ReorderItems(ctx context.Context, cycleID int64, orderedIDs []uuid.UUID) error {
	return r.mutateItems(ctx, cycleID, func(items []CycleItem) ([]CycleItem, error) {
		if len(orderedIDs) != len(items) {
			return nil, fmt.Errorf("reorder expects %d item ids, got %d", len(items), len(orderedIDs))
		}
		byID := make(map[uuid.UUID]CycleItem, len(items))
		for _, item := range items {
			byID[item.ID] = item
		}
		next := make([]CycleItem, 0, len(items))
		for _, id := range orderedIDs {
			item, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("unknown item id %s: %w", id, ErrNotFound)
			}
			delete(byID, id)
			next = append(next, item)
		}
		return next, nil
	})
}

// mutateItems applies mutate to the cycle's ordered items inside a
// transaction, re-densifies positions, and re-resolves the stored item
// pointer through its identity anchor.
func (r *sqliteCycleRepository) mutateItems(
	ctx context.Context,
	cycleID int64,
	mutate func(items []CycleItem) ([]CycleItem, error),
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

	items, err := loadItems(ctx, tx, cycleID)
	if err != nil {
		return err
	}

	var (
		oldIndex   int
		anchor     uuid.UUID
		hasPointer = true
	)
	err = tx.QueryRowContext(ctx, `
		SELECT current_item_index
		FROM cycle_progress
		WHERE cycle_id = ?`, cycleID).
		Scan(&oldIndex)
	if errors.Is(err, sql.ErrNoRows) {
		hasPointer = false
	} else if err != nil {
		return fmt.Errorf("query cycle progress: %w", err)
	}
	if hasPointer {
		anchor = itemAnchor(items, oldIndex)
	}

	next, err := mutate(items)
	if err != nil {
		return err
	}

	keep := make(map[uuid.UUID]bool, len(next))
	for i := range next {
		next[i].Position = i
		keep[next[i].ID] = true
	}
	for _, item := range items {
		if !keep[item.ID] {
			if _, err = tx.ExecContext(ctx, `
				DELETE FROM cycle_items WHERE cycle_id = ? AND id = ?`,
				cycleID, item.ID.String()); err != nil {
				return fmt.Errorf("delete cycle item: %w", err)
			}
		}
	}
	for _, item := range next {
		var planID any
		if item.PlanID != 0 {
			planID = item.PlanID
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cycle_items (id, cycle_id, position, plan_id)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				position = excluded.position,
				plan_id = excluded.plan_id`,
			item.ID.String(), cycleID, item.Position, planID); err != nil {
			return fmt.Errorf("upsert cycle item: %w", err)
		}
	}

	if hasPointer {
		newIndex := resolveItemIndex(next, anchor, oldIndex)
		if _, err = tx.ExecContext(ctx, `
			UPDATE cycle_progress
			SET current_item_index = ?
			WHERE cycle_id = ?`,
			newIndex, cycleID); err != nil {
			return fmt.Errorf("reindex cycle progress: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
