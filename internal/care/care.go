// Package care holds the care-cycle engine: deciding which plants need
// attention, keeping the calendar in step with each plant's next due date,
// and applying user check/uncheck of care tasks.
package care

import (
	"strconv"
	"strings"
	"time"
)

// Attention categories. TEMP has no matching task type: temperature problems
// are warnings, not schedulable actions.
const (
	CategoryWater     = "WATER"
	CategoryPesticide = "PESTICIDE"
	CategoryTemp      = "TEMP"
)

const (
	// TempThresholdC is how far outside a plant's comfort range a forecast
	// sample must be before it counts as a mismatch.
	TempThresholdC = 8.0

	// TempMismatchHours is the accumulated mismatch duration that flags a
	// plant for temperature attention.
	TempMismatchHours = 12

	// ForecastSlotHours is the span one forecast sample represents.
	ForecastSlotHours = 3
)

// Forecast is one weather sample inside the evaluation window.
type Forecast struct {
	Time time.Time
	Temp float64 // °C
}

// NotifyPrefs are the user's per-category notification toggles.
type NotifyPrefs struct {
	Water       bool
	Pesticide   bool
	Temperature bool
}

// NormalizeDate truncates an epoch-millisecond timestamp to local midnight.
// Calendar tasks are keyed by these normalized values.
func NormalizeDate(ts int64) int64 {
	t := time.UnixMilli(ts)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).UnixMilli()
}

// NextDueDate computes the midnight-normalized day the next care action is
// expected, using the midpoint of the recommended interval. Returns 0 when
// the category is disabled (maxDays <= 0).
func NextDueDate(lastTimestamp int64, minDays, maxDays int) int64 {
	if maxDays <= 0 {
		return 0
	}
	interval := (minDays + maxDays) / 2
	t := time.UnixMilli(lastTimestamp)
	y, m, d := t.Date()
	return time.Date(y, m, d+interval, 0, 0, 0, 0, t.Location()).UnixMilli()
}

// ParseTempRange parses a plant's comfort range string: either a single
// "°C"-suffixed number or two numbers separated by "-". Returns ok=false for
// anything else; callers treat that as "temperature checks disabled".
func ParseTempRange(s string) (min, max float64, ok bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, "°C", ""))
	parts := strings.Split(cleaned, "-")
	switch len(parts) {
	case 1:
		v, err := parseTemp(parts[0])
		if err != nil {
			return 0, 0, false
		}
		return v, v, true
	case 2:
		lo, err := parseTemp(parts[0])
		if err != nil {
			return 0, 0, false
		}
		hi, err := parseTemp(parts[1])
		if err != nil {
			return 0, 0, false
		}
		return lo, hi, true
	default:
		return 0, 0, false
	}
}

func parseTemp(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
