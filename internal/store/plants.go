package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const plantColumns = `id, nickname, official_name, photo_path,
	watering_cycle_min, watering_cycle_max, pesticide_cycle_min, pesticide_cycle_max,
	temp_range, lifespan_min, lifespan_max, estimated_age_days, health_rating,
	last_watered, last_pesticide, needs_attention_at, attention_reasons, created_at`

// InsertPlant inserts a new plant and fills in its assigned ID.
func (s *Store) InsertPlant(ctx context.Context, p *Plant) error {
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO plants (nickname, official_name, photo_path,
			watering_cycle_min, watering_cycle_max, pesticide_cycle_min, pesticide_cycle_max,
			temp_range, lifespan_min, lifespan_max, estimated_age_days, health_rating,
			last_watered, last_pesticide, needs_attention_at, attention_reasons, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Nickname, p.OfficialName, p.PhotoPath,
		p.WateringCycleMin, p.WateringCycleMax, p.PesticideCycleMin, p.PesticideCycleMax,
		p.TempRange, p.LifespanMin, p.LifespanMax, p.EstimatedAgeDays, p.HealthRating,
		p.LastWatered, p.LastPesticide, p.NeedsAttentionAt, p.AttentionReasons, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert plant: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert plant id: %w", err)
	}
	return nil
}

// GetPlant returns the plant with the given ID, or nil if it does not exist.
func (s *Store) GetPlant(ctx context.Context, id int64) (*Plant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = ?`, id)
	p, err := scanPlant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return p, nil
}

// ListPlants returns all plants, newest registration first.
func (s *Store) ListPlants(ctx context.Context) ([]*Plant, error) {
	return s.queryPlants(ctx, `SELECT `+plantColumns+` FROM plants ORDER BY created_at DESC`)
}

// SearchPlants returns plants whose nickname contains the query.
func (s *Store) SearchPlants(ctx context.Context, query string) ([]*Plant, error) {
	return s.queryPlants(ctx, `
		SELECT `+plantColumns+` FROM plants
		WHERE nickname LIKE '%' || ? || '%'
		ORDER BY created_at DESC`, query)
}

// NeedsAttentionPlants returns plants currently flagged for attention,
// ordered by when they first became due.
func (s *Store) NeedsAttentionPlants(ctx context.Context) ([]*Plant, error) {
	return s.queryPlants(ctx, `
		SELECT `+plantColumns+` FROM plants
		WHERE needs_attention_at IS NOT NULL
		ORDER BY needs_attention_at ASC`)
}

// UpdatePlant persists a full plant snapshot.
func (s *Store) UpdatePlant(ctx context.Context, p *Plant) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE plants SET nickname = ?, official_name = ?, photo_path = ?,
			watering_cycle_min = ?, watering_cycle_max = ?,
			pesticide_cycle_min = ?, pesticide_cycle_max = ?,
			temp_range = ?, lifespan_min = ?, lifespan_max = ?,
			estimated_age_days = ?, health_rating = ?,
			last_watered = ?, last_pesticide = ?,
			needs_attention_at = ?, attention_reasons = ?
		WHERE id = ?`,
		p.Nickname, p.OfficialName, p.PhotoPath,
		p.WateringCycleMin, p.WateringCycleMax,
		p.PesticideCycleMin, p.PesticideCycleMax,
		p.TempRange, p.LifespanMin, p.LifespanMax,
		p.EstimatedAgeDays, p.HealthRating,
		p.LastWatered, p.LastPesticide,
		p.NeedsAttentionAt, p.AttentionReasons, p.ID)
	if err != nil {
		return fmt.Errorf("update plant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plant rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("plant not found: %d", p.ID)
	}
	return nil
}

// DeletePlant removes a plant. Calendar tasks and diary entries cascade.
func (s *Store) DeletePlant(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plant rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("plant not found: %d", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (*Plant, error) {
	p := &Plant{}
	var needsAt sql.NullInt64
	var reasons sql.NullString
	err := row.Scan(
		&p.ID, &p.Nickname, &p.OfficialName, &p.PhotoPath,
		&p.WateringCycleMin, &p.WateringCycleMax, &p.PesticideCycleMin, &p.PesticideCycleMax,
		&p.TempRange, &p.LifespanMin, &p.LifespanMax, &p.EstimatedAgeDays, &p.HealthRating,
		&p.LastWatered, &p.LastPesticide, &needsAt, &reasons, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if needsAt.Valid {
		p.NeedsAttentionAt = &needsAt.Int64
	}
	if reasons.Valid {
		p.AttentionReasons = &reasons.String
	}
	return p, nil
}

func (s *Store) queryPlants(ctx context.Context, query string, args ...any) ([]*Plant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plants: %w", err)
	}
	defer rows.Close()

	var plants []*Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return plants, nil
}
