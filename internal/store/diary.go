package store

import (
	"context"
	"fmt"
	"time"
)

// InsertDiaryEntry appends a journal entry for a plant.
func (s *Store) InsertDiaryEntry(ctx context.Context, e *DiaryEntry) error {
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO diary_entries (plant_id, created_at, content, linked_task_id)
		VALUES (?, ?, ?, ?)`,
		e.PlantID, e.CreatedAt, e.Content, e.LinkedTaskID)
	if err != nil {
		return fmt.Errorf("insert diary entry: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert diary entry id: %w", err)
	}
	return nil
}

// DiaryEntriesForPlant returns a plant's journal, newest first.
func (s *Store) DiaryEntriesForPlant(ctx context.Context, plantID int64) ([]*DiaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plant_id, created_at, content, linked_task_id
		FROM diary_entries WHERE plant_id = ?
		ORDER BY created_at DESC`, plantID)
	if err != nil {
		return nil, fmt.Errorf("query diary entries: %w", err)
	}
	defer rows.Close()

	var entries []*DiaryEntry
	for rows.Next() {
		e := &DiaryEntry{}
		if err := rows.Scan(&e.ID, &e.PlantID, &e.CreatedAt, &e.Content, &e.LinkedTaskID); err != nil {
			return nil, fmt.Errorf("scan diary entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return entries, nil
}

// DeleteDiaryEntry removes a single entry.
func (s *Store) DeleteDiaryEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diary_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete diary entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete diary entry rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("diary entry not found: %d", id)
	}
	return nil
}
