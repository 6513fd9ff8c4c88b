package store

// TaskType identifies what kind of care action a calendar task represents.
type TaskType string

const (
	TaskWatering  TaskType = "WATERING"
	TaskPesticide TaskType = "PESTICIDE"
	TaskCustom    TaskType = "CUSTOM"
)

// Plant is one registered plant. Timestamps are epoch milliseconds; a zero
// last-action timestamp means "never". NeedsAttentionAt is set when any
// category first needs attention and cleared when none do, so it doubles as
// the "first became due" sort key. Invariant: NeedsAttentionAt is non-nil
// exactly when AttentionReasons is non-nil and non-empty.
type Plant struct {
	ID                int64   `json:"id"`
	Nickname          string  `json:"nickname"`
	OfficialName      string  `json:"official_name"`
	PhotoPath         string  `json:"photo_path"`
	WateringCycleMin  int     `json:"watering_cycle_min"`
	WateringCycleMax  int     `json:"watering_cycle_max"` // <= 0 means no watering needed
	PesticideCycleMin int     `json:"pesticide_cycle_min"`
	PesticideCycleMax int     `json:"pesticide_cycle_max"`
	TempRange         string  `json:"temp_range"` // free text, e.g. "18-27°C"
	LifespanMin       int     `json:"lifespan_min"`
	LifespanMax       int     `json:"lifespan_max"`
	EstimatedAgeDays  int     `json:"estimated_age_days"`
	HealthRating      float64 `json:"health_rating"`
	LastWatered       int64   `json:"last_watered"`
	LastPesticide     int64   `json:"last_pesticide"`
	NeedsAttentionAt  *int64  `json:"needs_attention_at,omitempty"`
	AttentionReasons  *string `json:"attention_reasons,omitempty"` // comma-joined: WATER,PESTICIDE,TEMP
	CreatedAt         int64   `json:"created_at"`
}

// CalendarTask is a scheduled or historical care action. PlantID is nil for
// free-standing custom tasks. DueDate is normalized to local midnight.
// PreviousTimestamp holds the plant's last-action timestamp from before this
// task was completed, which makes un-completion an exact undo.
type CalendarTask struct {
	ID                int64    `json:"id"`
	PlantID           *int64   `json:"plant_id,omitempty"`
	Type              TaskType `json:"task_type"`
	Title             string   `json:"title"`
	DueDate           int64    `json:"due_date"`
	Completed         bool     `json:"completed"`
	PreviousTimestamp int64    `json:"previous_timestamp"`
	Skipped           bool     `json:"skipped"`
}

// Active reports whether the task is the current obligation for its
// (plant, category) pair.
func (t *CalendarTask) Active() bool {
	return !t.Completed && !t.Skipped
}

// DiaryEntry is a free-text journal note for one plant, optionally linked to
// the calendar task that produced it.
type DiaryEntry struct {
	ID           int64  `json:"id"`
	PlantID      int64  `json:"plant_id"`
	CreatedAt    int64  `json:"created_at"`
	Content      string `json:"content"`
	LinkedTaskID *int64 `json:"linked_task_id,omitempty"`
}
