package care

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/leafcare/planty/internal/logging"
	"github.com/leafcare/planty/internal/store"
)

// Synchronizer reconciles the calendar with each plant's computed next due
// date. It is idempotent and safe to request at any time: only one pass runs
// at once, and a request arriving mid-pass is coalesced into a single
// follow-up run so bursts of plant updates still converge.
type Synchronizer struct {
	store *store.Store
	now   func() time.Time

	mu      sync.Mutex
	running bool
	pending bool
}

func NewSynchronizer(st *store.Store) *Synchronizer {
	return &Synchronizer{store: st, now: time.Now}
}

// Sync runs a reconciliation pass. If one is already in flight the request
// is queued; the in-flight pass re-runs once so it observes the latest
// plant and task state.
func (s *Synchronizer) Sync(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	for {
		s.runPass(ctx)

		s.mu.Lock()
		if !s.pending {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
	}
}

// runPass iterates all plants. One plant failing must not starve the rest,
// so errors are logged and the loop continues; the next periodic pass
// retries from scratch.
func (s *Synchronizer) runPass(ctx context.Context) {
	plants, err := s.store.ListPlants(ctx)
	if err != nil {
		logging.Error("sync", "list plants: %v", err)
		return
	}

	for _, p := range plants {
		if err := s.syncPlant(ctx, p); err != nil {
			logging.Error("sync", "plant %d (%s): %v", p.ID, p.Nickname, err)
		}
	}
}

func (s *Synchronizer) syncPlant(ctx context.Context, p *store.Plant) error {
	if err := s.syncCategory(ctx, p, store.TaskWatering, p.LastWatered, p.WateringCycleMin, p.WateringCycleMax); err != nil {
		return fmt.Errorf("watering: %w", err)
	}
	if err := s.syncCategory(ctx, p, store.TaskPesticide, p.LastPesticide, p.PesticideCycleMin, p.PesticideCycleMax); err != nil {
		return fmt.Errorf("pesticide: %w", err)
	}
	return nil
}

// syncCategory maintains the single active task for one (plant, category)
// pair. The whole resolve/purge/check/insert sequence runs in one
// transaction so concurrent passes can never produce two active tasks.
func (s *Synchronizer) syncCategory(ctx context.Context, p *store.Plant, taskType store.TaskType, last int64, minDays, maxDays int) error {
	if maxDays <= 0 {
		return nil
	}

	today := NormalizeDate(s.now().UnixMilli())
	dueDate := NextDueDate(last, minDays, maxDays)
	// An overdue schedule is pulled up to today: re-inserting tasks in the
	// past would just be auto-resolved again on the next pass.
	if dueDate < today {
		dueDate = today
	}

	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		// Resolve dangling past-due tasks before looking for the active one.
		if err := s.store.CompletePastDueTx(ctx, tx, p.ID, taskType, today); err != nil {
			return err
		}

		if err := s.store.PurgeConflictingTx(ctx, tx, p.ID, taskType, dueDate); err != nil {
			return err
		}

		existing, err := s.store.ActiveTaskTx(ctx, tx, p.ID, taskType)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		plantID := p.ID
		task := &store.CalendarTask{
			PlantID: &plantID,
			Type:    taskType,
			Title:   taskTitle(p, taskType, minDays, maxDays),
			DueDate: dueDate,
		}
		if err := s.store.InsertTaskTx(ctx, tx, task); err != nil {
			return err
		}
		logging.Debug("sync", "scheduled %s for plant %d on %s", taskType, p.ID, time.UnixMilli(dueDate).Format("2006-01-02"))
		return nil
	})
}

func taskTitle(p *store.Plant, taskType store.TaskType, minDays, maxDays int) string {
	verb := "watering"
	if taskType == store.TaskPesticide {
		verb = "pesticide"
	}
	return fmt.Sprintf("%s %s (%d-%d days)", p.Nickname, verb, minDays, maxDays)
}
