package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"kinmark/internal/card"
)

// Record fetches a record and its ordered label set.
func (s *Store) Record(ctx context.Context, id card.RecordID) (card.Record, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM records WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return card.Record{}, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return card.Record{}, fmt.Errorf("read record %d: %w", id, err)
	}

	labels, err := s.labelsFor(ctx, id)
	if err != nil {
		return card.Record{}, err
	}
	return card.Record{ID: id, Labels: labels}, nil
}

// RecordsWithLabelPrefix returns every record carrying at least one label
// starting with prefix, labels loaded, ordered by record id ascending.
func (s *Store) RecordsWithLabelPrefix(ctx context.Context, prefix string) ([]card.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT record_id FROM record_labels
		WHERE label LIKE ? ESCAPE '\'
		ORDER BY record_id ASC
	`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("records with label prefix: %w", err)
	}
	defer rows.Close()

	var ids []card.RecordID
	for rows.Next() {
		var id card.RecordID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record ids: %w", err)
	}

	records := make([]card.Record, 0, len(ids))
	for _, id := range ids {
		labels, err := s.labelsFor(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, card.Record{ID: id, Labels: labels})
	}
	return records, nil
}

// Item fetches a single item by id.
func (s *Store) Item(ctx context.Context, id card.ItemID) (card.Item, error) {
	var it card.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, record_id, phase, activity, due FROM items WHERE id = ?
	`, id).Scan(&it.ID, &it.RecordID, &it.Phase, &it.Activity, &it.Due)
	if errors.Is(err, sql.ErrNoRows) {
		return card.Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return card.Item{}, fmt.Errorf("read item %d: %w", id, err)
	}
	return it, nil
}

// Items returns a record's items ordered by id ascending.
func (s *Store) Items(ctx context.Context, id card.RecordID) ([]card.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, phase, activity, due FROM items
		WHERE record_id = ?
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("items of record %d: %w", id, err)
	}
	defer rows.Close()

	var items []card.Item
	for rows.Next() {
		var it card.Item
		if err := rows.Scan(&it.ID, &it.RecordID, &it.Phase, &it.Activity, &it.Due); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// HasReviews reports whether the item has any review history.
func (s *Store) HasReviews(ctx context.Context, id card.ItemID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM reviews WHERE item_id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has reviews %d: %w", id, err)
	}
	return true, nil
}

// ReviewsSince returns review-history entries with id greater than
// sinceMillis, ordered by id ascending.
func (s *Store) ReviewsSince(ctx context.Context, sinceMillis int64) ([]card.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, outcome FROM reviews
		WHERE id > ?
		ORDER BY id ASC
	`, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("reviews since %d: %w", sinceMillis, err)
	}
	defer rows.Close()

	var revs []card.Review
	for rows.Next() {
		var r card.Review
		if err := rows.Scan(&r.ID, &r.ItemID, &r.Outcome); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		revs = append(revs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return revs, nil
}

// Today returns the current scheduling day index.
func (s *Store) Today(ctx context.Context) (int, error) {
	v, ok, err := s.GetConfigInt64(ctx, "sched_day")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return int(v), nil
}

// GetConfigInt64 reads an integer configuration entry.
// The second return value reports whether the key exists.
func (s *Store) GetConfigInt64(ctx context.Context, key string) (int64, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read config %q: %w", key, err)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse config %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) labelsFor(ctx context.Context, id card.RecordID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label FROM record_labels WHERE record_id = ? ORDER BY pos ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("labels of record %d: %w", id, err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return labels, nil
}

// escapeLike escapes LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
