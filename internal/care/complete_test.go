package care

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leafcare/planty/internal/store"
)

func newTestCompleter(t *testing.T, st *store.Store, now time.Time) (*Completer, *Synchronizer) {
	t.Helper()
	s := newTestSync(t, st, now)
	c := NewCompleter(st, s)
	c.now = func() time.Time { return now }
	return c, s
}

func TestToggle_UndoRestoresExactTimestamp(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)
	c, s := newTestCompleter(t, st, now)

	// Last watered long ago, so the schedule clamps to today and the task
	// sits inside the editable window.
	lastWatered := time.Date(2026, 3, 20, 14, 30, 12, 345e6, time.Local).UnixMilli()
	p := insertTestPlant(t, st, &store.Plant{
		Nickname:         "Fern",
		WateringCycleMin: 3,
		WateringCycleMax: 5,
		LastWatered:      lastWatered,
	})

	s.Sync(ctx)
	tasks := activeTasks(t, st)
	if len(tasks) != 1 {
		t.Fatalf("got %d active tasks, want 1", len(tasks))
	}
	taskID := tasks[0].ID

	if err := c.Toggle(ctx, taskID, true); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := st.GetPlant(ctx, p.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got.LastWatered != now.UnixMilli() {
		t.Errorf("completion should move LastWatered to now, got %d", got.LastWatered)
	}
	task, err := st.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if !task.Completed {
		t.Error("task should be completed")
	}
	if task.PreviousTimestamp != lastWatered {
		t.Errorf("PreviousTimestamp = %d, want stashed %d", task.PreviousTimestamp, lastWatered)
	}

	if err := c.Toggle(ctx, taskID, false); err != nil {
		t.Fatalf("uncomplete: %v", err)
	}

	got, err = st.GetPlant(ctx, p.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got.LastWatered != lastWatered {
		t.Errorf("undo must restore the exact timestamp: got %d, want %d", got.LastWatered, lastWatered)
	}

	// The calendar converged back to a single active task
	if tasks := activeTasks(t, st); len(tasks) != 1 {
		t.Fatalf("got %d active tasks after undo, want 1", len(tasks))
	}
}

func TestToggle_RepeatCompleteKeepsUndoValue(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)
	c, s := newTestCompleter(t, st, now)

	lastWatered := time.Date(2026, 3, 20, 14, 30, 0, 0, time.Local).UnixMilli()
	p := insertTestPlant(t, st, &store.Plant{
		Nickname:         "Fern",
		WateringCycleMin: 3,
		WateringCycleMax: 5,
		LastWatered:      lastWatered,
	})

	s.Sync(ctx)
	tasks := activeTasks(t, st)
	if len(tasks) != 1 {
		t.Fatalf("got %d active tasks, want 1", len(tasks))
	}
	taskID := tasks[0].ID

	if err := c.Toggle(ctx, taskID, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Completing again is a no-op, not a re-stash of the moved timestamp
	if err := c.Toggle(ctx, taskID, true); err != nil {
		t.Fatalf("repeat complete: %v", err)
	}

	task, err := st.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.PreviousTimestamp != lastWatered {
		t.Errorf("PreviousTimestamp = %d, want original %d", task.PreviousTimestamp, lastWatered)
	}

	if err := c.Toggle(ctx, taskID, false); err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	got, err := st.GetPlant(ctx, p.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got.LastWatered != lastWatered {
		t.Errorf("undo after double complete = %d, want %d", got.LastWatered, lastWatered)
	}
}

func TestToggle_OutsideEditableWindow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)
	c, s := newTestCompleter(t, st, now)

	// Watered today with a 7-9 day cycle: due in 8 days, far outside the window
	insertTestPlant(t, st, &store.Plant{
		Nickname:         "Fern",
		WateringCycleMin: 7,
		WateringCycleMax: 9,
		LastWatered:      now.UnixMilli(),
	})

	s.Sync(ctx)
	tasks := activeTasks(t, st)
	if len(tasks) != 1 {
		t.Fatalf("got %d active tasks, want 1", len(tasks))
	}

	err := c.Toggle(ctx, tasks[0].ID, true)
	if !errors.Is(err, ErrNotEditable) {
		t.Fatalf("toggle outside window: err = %v, want ErrNotEditable", err)
	}

	task, err := st.GetTask(ctx, tasks[0].ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Completed {
		t.Error("rejected toggle must not modify the task")
	}
}

func TestToggle_DueTomorrowIsEditable(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)
	c, s := newTestCompleter(t, st, now)

	// Midpoint of a 1-1 cycle lands tomorrow
	insertTestPlant(t, st, &store.Plant{
		Nickname:         "Basil",
		WateringCycleMin: 1,
		WateringCycleMax: 1,
		LastWatered:      now.UnixMilli(),
	})

	s.Sync(ctx)
	tasks := activeTasks(t, st)
	if len(tasks) != 1 {
		t.Fatalf("got %d active tasks, want 1", len(tasks))
	}
	if err := c.Toggle(ctx, tasks[0].ID, true); err != nil {
		t.Fatalf("toggle task due tomorrow: %v", err)
	}
}

func TestToggle_CustomTask(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)
	c, _ := newTestCompleter(t, st, now)

	task := &store.CalendarTask{
		Type:    store.TaskCustom,
		Title:   "Repot the monstera",
		DueDate: NormalizeDate(now.AddDate(0, 0, 30).UnixMilli()),
	}
	if err := st.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	// Custom tasks toggle freely, even far outside the editable window
	if err := c.Toggle(ctx, task.ID, true); err != nil {
		t.Fatalf("complete custom: %v", err)
	}
	got, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if !got.Completed {
		t.Error("custom task should be completed")
	}

	if err := c.Toggle(ctx, task.ID, false); err != nil {
		t.Fatalf("uncomplete custom: %v", err)
	}
}

func TestToggle_UnknownTask(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	c, _ := newTestCompleter(t, st, time.Now())

	err := c.Toggle(ctx, 9999, true)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestDelete_CustomVersusGenerated(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)
	c, s := newTestCompleter(t, st, now)

	insertTestPlant(t, st, &store.Plant{
		Nickname:         "Fern",
		WateringCycleMin: 3,
		WateringCycleMax: 5,
		LastWatered:      now.UnixMilli(),
	})
	s.Sync(ctx)
	generated := activeTasks(t, st)
	if len(generated) != 1 {
		t.Fatalf("got %d active tasks, want 1", len(generated))
	}

	custom := &store.CalendarTask{Type: store.TaskCustom, Title: "Buy fertilizer", DueDate: NormalizeDate(now.UnixMilli())}
	if err := st.InsertTask(ctx, custom); err != nil {
		t.Fatalf("insert custom: %v", err)
	}

	if err := c.Delete(ctx, []int64{custom.ID, generated[0].ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	gone, err := st.GetTask(ctx, custom.ID)
	if err != nil {
		t.Fatalf("get custom: %v", err)
	}
	if gone != nil {
		t.Error("custom task should be hard-deleted")
	}

	kept, err := st.GetTask(ctx, generated[0].ID)
	if err != nil {
		t.Fatalf("get generated: %v", err)
	}
	if kept == nil || !kept.Skipped {
		t.Error("generated task should be kept but marked skipped")
	}
}

func TestMarkCaredFor(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)
	c, _ := newTestCompleter(t, st, now)

	p := insertTestPlant(t, st, &store.Plant{
		Nickname:         "Fern",
		WateringCycleMin: 3,
		WateringCycleMax: 5,
		LastWatered:      now.AddDate(0, 0, -4).UnixMilli(),
	})

	if err := c.MarkCaredFor(ctx, p.ID, store.TaskWatering); err != nil {
		t.Fatalf("mark cared for: %v", err)
	}

	got, err := st.GetPlant(ctx, p.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got.LastWatered != now.UnixMilli() {
		t.Errorf("LastWatered = %d, want %d", got.LastWatered, now.UnixMilli())
	}

	entries, err := st.DiaryEntriesForPlant(ctx, p.ID)
	if err != nil {
		t.Fatalf("diary: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "Watered" {
		t.Fatalf("diary entries = %+v, want one 'Watered' note", entries)
	}

	if err := c.MarkCaredFor(ctx, p.ID, store.TaskCustom); err == nil {
		t.Error("custom type should be rejected")
	}
}
