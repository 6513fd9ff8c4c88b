package care

import (
	"time"

	"github.com/leafcare/planty/internal/store"
)

// Evaluation is the per-plant outcome of one attention pass. Needs holds the
// categories currently needing attention; Notify holds the subset that should
// reach the user this pass given their notification preferences. The caller
// owns dedup across passes; the evaluator always reports raw need.
type Evaluation struct {
	Needs  []string
	Notify []string
}

// NeedsAttention reports whether any category fired.
func (e Evaluation) NeedsAttention() bool {
	return len(e.Needs) > 0
}

// Evaluate decides, for one plant at time now, which care categories need
// attention. Forecasts should cover roughly the next TempMismatchHours;
// an empty slice disables the temperature check for this pass.
func Evaluate(p *store.Plant, now int64, forecasts []Forecast, prefs NotifyPrefs) Evaluation {
	var ev Evaluation

	if checkCycle(p.LastWatered, p.WateringCycleMin, p.WateringCycleMax, now) {
		ev.Needs = append(ev.Needs, CategoryWater)
		if prefs.Water {
			ev.Notify = append(ev.Notify, CategoryWater)
		}
	}

	if checkCycle(p.LastPesticide, p.PesticideCycleMin, p.PesticideCycleMax, now) {
		ev.Needs = append(ev.Needs, CategoryPesticide)
		if prefs.Pesticide {
			ev.Notify = append(ev.Notify, CategoryPesticide)
		}
	}

	if checkTemperature(p.TempRange, forecasts) {
		ev.Needs = append(ev.Needs, CategoryTemp)
		if prefs.Temperature {
			ev.Notify = append(ev.Notify, CategoryTemp)
		}
	}

	return ev
}

// checkCycle applies the inclusive interval check: attention is needed while
// now sits inside [last + minDays, last + maxDays]. maxDays <= 0 disables
// the category outright.
func checkCycle(last int64, minDays, maxDays int, now int64) bool {
	if maxDays <= 0 {
		return false
	}
	minDue := last + daysToMillis(minDays)
	maxDue := last + daysToMillis(maxDays)
	return now >= minDue && now <= maxDue
}

// checkTemperature accumulates ForecastSlotHours of mismatch for every sample
// more than TempThresholdC outside the plant's comfort range, and fires once
// the total reaches TempMismatchHours. Unparseable range or no samples means
// the check is disabled.
func checkTemperature(tempRange string, forecasts []Forecast) bool {
	min, max, ok := ParseTempRange(tempRange)
	if !ok {
		return false
	}
	if len(forecasts) == 0 {
		return false
	}

	mismatchHours := 0
	for _, f := range forecasts {
		if f.Temp < min-TempThresholdC || f.Temp > max+TempThresholdC {
			mismatchHours += ForecastSlotHours
		}
	}
	return mismatchHours >= TempMismatchHours
}

func daysToMillis(days int) int64 {
	return int64(days) * int64(24*time.Hour/time.Millisecond)
}
