package care

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leafcare/planty/internal/store"
)

// ErrNotEditable is returned when a toggle lands outside the editable
// window. Tasks can only be checked or unchecked on their due day or the day
// before it, so users cannot back-date or pre-complete care actions.
var ErrNotEditable = errors.New("task is only editable when due today or tomorrow")

// ErrTaskNotFound is returned when the referenced task does not exist.
var ErrTaskNotFound = errors.New("task not found")

// Completer applies user-driven check/uncheck of calendar tasks, keeping the
// owning plant's last-action timestamp consistent and supporting exact undo.
type Completer struct {
	store *store.Store
	sync  *Synchronizer
	now   func() time.Time
}

func NewCompleter(st *store.Store, sync *Synchronizer) *Completer {
	return &Completer{store: st, sync: sync, now: time.Now}
}

// Editable reports whether a task due on dueDate may be toggled right now.
func (c *Completer) Editable(dueDate int64) bool {
	nowMs := c.now().UnixMilli()
	today := NormalizeDate(nowMs)
	tomorrow := NormalizeDate(time.UnixMilli(today).AddDate(0, 0, 1).UnixMilli())
	return dueDate == today || dueDate == tomorrow
}

// Toggle marks a task completed or incomplete.
//
// Completing a watering/pesticide task stashes the plant's current
// last-action timestamp into the task (for undo) and moves the plant's
// timestamp to now. Unchecking restores the stashed value exactly. Custom
// tasks only flip their own flag. Either way a synchronizer pass follows,
// since the plant's due date may have moved.
func (c *Completer) Toggle(ctx context.Context, taskID int64, completed bool) error {
	task, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}

	// A repeat of the current state must not touch anything, or a double
	// "complete" would overwrite the stashed undo timestamp.
	if task.Completed == completed {
		return nil
	}

	if task.Type == store.TaskCustom || task.PlantID == nil {
		task.Completed = completed
		return c.store.UpdateTask(ctx, task)
	}

	if !c.Editable(task.DueDate) {
		return ErrNotEditable
	}

	plant, err := c.store.GetPlant(ctx, *task.PlantID)
	if err != nil {
		return err
	}
	if plant == nil {
		return fmt.Errorf("plant not found: %d", *task.PlantID)
	}

	snapshot := *plant
	if completed {
		switch task.Type {
		case store.TaskWatering:
			task.PreviousTimestamp = plant.LastWatered
			snapshot.LastWatered = c.now().UnixMilli()
		case store.TaskPesticide:
			task.PreviousTimestamp = plant.LastPesticide
			snapshot.LastPesticide = c.now().UnixMilli()
		}
		task.Completed = true
	} else {
		switch task.Type {
		case store.TaskWatering:
			snapshot.LastWatered = task.PreviousTimestamp
		case store.TaskPesticide:
			snapshot.LastPesticide = task.PreviousTimestamp
		}
		task.Completed = false
	}

	if err := c.store.UpdatePlant(ctx, &snapshot); err != nil {
		return err
	}
	if err := c.store.UpdateTask(ctx, task); err != nil {
		return err
	}

	c.sync.Sync(ctx)
	return nil
}

// Delete removes tasks by user action. Generated tasks are marked skipped so
// the synchronizer pushes the obligation to the next due date; custom tasks
// are hard-deleted, cascading any linked diary entries.
func (c *Completer) Delete(ctx context.Context, ids []int64) error {
	var customIDs, generatedIDs []int64
	for _, id := range ids {
		task, err := c.store.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if task == nil {
			continue
		}
		if task.Type == store.TaskCustom {
			customIDs = append(customIDs, id)
		} else {
			generatedIDs = append(generatedIDs, id)
		}
	}

	if err := c.store.DeleteTasksByIDs(ctx, customIDs); err != nil {
		return err
	}
	if err := c.store.SkipTasksByIDs(ctx, generatedIDs); err != nil {
		return err
	}

	if len(generatedIDs) > 0 {
		c.sync.Sync(ctx)
	}
	return nil
}

// MarkCaredFor records a care action performed directly from the home
// surface, outside any calendar task: the plant's timestamp moves to now, a
// diary entry is appended, and the calendar resynchronizes.
func (c *Completer) MarkCaredFor(ctx context.Context, plantID int64, taskType store.TaskType) error {
	plant, err := c.store.GetPlant(ctx, plantID)
	if err != nil {
		return err
	}
	if plant == nil {
		return fmt.Errorf("plant not found: %d", plantID)
	}

	nowMs := c.now().UnixMilli()
	snapshot := *plant
	var note string
	switch taskType {
	case store.TaskWatering:
		snapshot.LastWatered = nowMs
		note = "Watered"
	case store.TaskPesticide:
		snapshot.LastPesticide = nowMs
		note = "Pesticide applied"
	default:
		return fmt.Errorf("unsupported care action: %s", taskType)
	}

	if err := c.store.UpdatePlant(ctx, &snapshot); err != nil {
		return err
	}
	if err := c.store.InsertDiaryEntry(ctx, &store.DiaryEntry{
		PlantID:   plantID,
		CreatedAt: nowMs,
		Content:   note,
	}); err != nil {
		return err
	}

	c.sync.Sync(ctx)
	return nil
}
