package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const taskColumns = `id, plant_id, task_type, title, due_date, completed, previous_timestamp, skipped`

// InsertTask inserts a calendar task and fills in its assigned ID.
func (s *Store) InsertTask(ctx context.Context, t *CalendarTask) error {
	return s.insertTask(ctx, s.db, t)
}

// InsertTaskTx is the transactional variant used by the synchronizer so the
// "no active task exists" check and the insert see the same snapshot.
func (s *Store) InsertTaskTx(ctx context.Context, tx *sql.Tx, t *CalendarTask) error {
	return s.insertTask(ctx, tx, t)
}

func (s *Store) insertTask(ctx context.Context, exec executor, t *CalendarTask) error {
	res, err := exec.ExecContext(ctx, `
		INSERT INTO calendar_tasks (plant_id, task_type, title, due_date, completed, previous_timestamp, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.PlantID, t.Type, t.Title, t.DueDate, t.Completed, t.PreviousTimestamp, t.Skipped)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert task id: %w", err)
	}
	return nil
}

// GetTask returns the task with the given ID, or nil if it does not exist.
func (s *Store) GetTask(ctx context.Context, id int64) (*CalendarTask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM calendar_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask persists a full task snapshot.
func (s *Store) UpdateTask(ctx context.Context, t *CalendarTask) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE calendar_tasks
		SET plant_id = ?, task_type = ?, title = ?, due_date = ?, completed = ?, previous_timestamp = ?, skipped = ?
		WHERE id = ?`,
		t.PlantID, t.Type, t.Title, t.DueDate, t.Completed, t.PreviousTimestamp, t.Skipped, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task not found: %d", t.ID)
	}
	return nil
}

// TasksForDate returns unskipped tasks due on the given (midnight-normalized)
// date, incomplete first.
func (s *Store) TasksForDate(ctx context.Context, date int64) ([]*CalendarTask, error) {
	return s.queryTasks(ctx, s.db, `
		SELECT `+taskColumns+` FROM calendar_tasks
		WHERE due_date = ? AND skipped = 0
		ORDER BY completed ASC, id ASC`, date)
}

// IncompleteTasks returns every active task.
func (s *Store) IncompleteTasks(ctx context.Context) ([]*CalendarTask, error) {
	return s.queryTasks(ctx, s.db, `
		SELECT `+taskColumns+` FROM calendar_tasks
		WHERE completed = 0 AND skipped = 0
		ORDER BY due_date ASC, id ASC`)
}

// ActiveTaskTx returns the active (incomplete, unskipped) task for a
// (plant, category) pair, or nil. At most one is expected; the lowest ID wins
// if the invariant was ever violated.
func (s *Store) ActiveTaskTx(ctx context.Context, tx *sql.Tx, plantID int64, taskType TaskType) (*CalendarTask, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM calendar_tasks
		WHERE plant_id = ? AND task_type = ? AND completed = 0 AND skipped = 0
		ORDER BY id ASC LIMIT 1`, plantID, taskType)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active task: %w", err)
	}
	return t, nil
}

// PurgeConflictingTx deletes active tasks for a (plant, category) pair whose
// due date differs from the freshly computed one. These are stale schedules
// left over from before a last-action timestamp changed.
func (s *Store) PurgeConflictingTx(ctx context.Context, tx *sql.Tx, plantID int64, taskType TaskType, exceptDueDate int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM calendar_tasks
		WHERE plant_id = ? AND task_type = ? AND completed = 0 AND skipped = 0 AND due_date != ?`,
		plantID, taskType, exceptDueDate)
	if err != nil {
		return fmt.Errorf("purge conflicting tasks: %w", err)
	}
	return nil
}

// CompletePastDueTx marks complete every incomplete task for a (plant,
// category) pair due strictly before today. Safety net for tasks whose window
// passed without interaction.
func (s *Store) CompletePastDueTx(ctx context.Context, tx *sql.Tx, plantID int64, taskType TaskType, today int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE calendar_tasks SET completed = 1
		WHERE plant_id = ? AND task_type = ? AND due_date < ? AND completed = 0`,
		plantID, taskType, today)
	if err != nil {
		return fmt.Errorf("complete past due tasks: %w", err)
	}
	return nil
}

// DeleteTasksByIDs hard-deletes tasks. Linked diary entries cascade.
func (s *Store) DeleteTasksByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := inClause(`DELETE FROM calendar_tasks WHERE id IN `, ids)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}

// SkipTasksByIDs marks tasks skipped so the synchronizer regenerates a fresh
// task at the next due date instead of resurrecting these.
func (s *Store) SkipTasksByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := inClause(`UPDATE calendar_tasks SET skipped = 1 WHERE id IN `, ids)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("skip tasks: %w", err)
	}
	return nil
}

func inClause(prefix string, ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return prefix + "(" + strings.Join(placeholders, ", ") + ")", args
}

func scanTask(row rowScanner) (*CalendarTask, error) {
	t := &CalendarTask{}
	var plantID sql.NullInt64
	err := row.Scan(&t.ID, &plantID, &t.Type, &t.Title, &t.DueDate, &t.Completed, &t.PreviousTimestamp, &t.Skipped)
	if err != nil {
		return nil, err
	}
	if plantID.Valid {
		t.PlantID = &plantID.Int64
	}
	return t, nil
}

func (s *Store) queryTasks(ctx context.Context, exec executor, query string, args ...any) ([]*CalendarTask, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*CalendarTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}
