package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kinmark/internal/card"
)

// CreateRecord inserts a record with the given label set.
// Seeding surface for the CLI, the harness, and tests; a real host owns
// record creation itself.
func (s *Store) CreateRecord(ctx context.Context, id card.RecordID, labels []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create record: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records (id, created) VALUES (?, ?)
	`, id, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("create record %d: %w", id, err)
	}

	for pos, label := range labels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO record_labels (record_id, pos, label) VALUES (?, ?, ?)
		`, id, pos, label); err != nil {
			return fmt.Errorf("create record %d label %q: %w", id, label, err)
		}
	}

	return tx.Commit()
}

// CreateItem inserts an item. Seeding surface, same caveat as CreateRecord.
func (s *Store) CreateItem(ctx context.Context, it card.Item) error {
	if !it.Phase.Valid() {
		return fmt.Errorf("create item %d: invalid phase %q", it.ID, it.Phase)
	}
	if it.Activity == "" {
		it.Activity = card.ActivityActive
	}
	if !it.Activity.Valid() {
		return fmt.Errorf("create item %d: invalid activity %q", it.ID, it.Activity)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, record_id, phase, activity, due) VALUES (?, ?, ?, ?, ?)
	`, it.ID, it.RecordID, it.Phase, it.Activity, it.Due)
	if err != nil {
		return fmt.Errorf("create item %d: %w", it.ID, err)
	}
	return nil
}

// ReplaceLabels atomically rewrites a record's label set, preserving the
// given order.
func (s *Store) ReplaceLabels(ctx context.Context, id card.RecordID, labels []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace labels: begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM records WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("record %d: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM record_labels WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("replace labels %d: clear: %w", id, err)
	}
	for pos, label := range labels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO record_labels (record_id, pos, label) VALUES (?, ?, ?)
		`, id, pos, label); err != nil {
			return fmt.Errorf("replace labels %d: insert %q: %w", id, label, err)
		}
	}

	return tx.Commit()
}

// UpdateItem persists an item's phase, activity state, and due value.
func (s *Store) UpdateItem(ctx context.Context, it card.Item) error {
	if !it.Phase.Valid() || !it.Activity.Valid() {
		return fmt.Errorf("update item %d: invalid state %q/%q", it.ID, it.Phase, it.Activity)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET phase = ?, activity = ?, due = ? WHERE id = ?
	`, it.Phase, it.Activity, it.Due, it.ID)
	if err != nil {
		return fmt.Errorf("update item %d: %w", it.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item %d: rows affected: %w", it.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", it.ID, ErrNotFound)
	}
	return nil
}

// Bury marks the given items buried in one statement. Items that are not
// currently active keep their state: burial never weakens suspension and
// re-burying is a no-op.
func (s *Store) Bury(ctx context.Context, ids []card.ItemID) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, card.ActivityBuried)
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE items SET activity = ? WHERE id IN (%s) AND activity = 'active'
	`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("bury %d items: %w", len(ids), err)
	}
	return nil
}

// AddReview appends a review-history entry. A zero ID is assigned the
// current epoch-millisecond, bumped past the newest existing entry so the
// id sequence stays strictly increasing.
func (s *Store) AddReview(ctx context.Context, r card.Review) error {
	id := r.ID
	if id == 0 {
		var last int64
		if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM reviews`).Scan(&last); err != nil {
			return fmt.Errorf("add review: last id: %w", err)
		}
		id = time.Now().UnixMilli()
		if id <= last {
			id = last + 1
		}
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, item_id, outcome) VALUES (?, ?, ?)
	`, id, r.ItemID, r.Outcome); err != nil {
		return fmt.Errorf("add review for item %d: %w", r.ItemID, err)
	}
	return nil
}

// SetToday sets the scheduling day index. A real host derives this from
// the collection creation time; here it is explicit for tests and demos.
func (s *Store) SetToday(ctx context.Context, day int) error {
	return s.SetConfigInt64(ctx, "sched_day", int64(day))
}

// SetConfigInt64 writes an integer configuration entry.
func (s *Store) SetConfigInt64(ctx context.Context, key string, v int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, fmt.Sprintf("%d", v))
	if err != nil {
		return fmt.Errorf("write config %q: %w", key, err)
	}
	return nil
}
