package care

import (
	"testing"
	"time"

	"github.com/leafcare/planty/internal/store"
)

var allPrefs = NotifyPrefs{Water: true, Pesticide: true, Temperature: true}

func testPlant(now int64) *store.Plant {
	return &store.Plant{
		ID:                1,
		Nickname:          "Fern",
		WateringCycleMin:  3,
		WateringCycleMax:  5,
		PesticideCycleMin: 14,
		PesticideCycleMax: 21,
		TempRange:         "18-27°C",
		LastWatered:       now,
		LastPesticide:     now,
	}
}

func hasNeed(ev Evaluation, cat string) bool {
	for _, n := range ev.Needs {
		if n == cat {
			return true
		}
	}
	return false
}

func TestEvaluate_CycleBoundaries(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.Local).UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)

	tests := []struct {
		name        string
		lastWatered int64
		want        bool
	}{
		{"before min", now - 3*day + 1, false},
		{"exactly min", now - 3*day, true},
		{"inside interval", now - 4*day, true},
		{"exactly max", now - 5*day, true},
		{"one millisecond past max", now - 5*day - 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPlant(now)
			p.LastWatered = tt.lastWatered
			ev := Evaluate(p, now, nil, allPrefs)
			if got := hasNeed(ev, CategoryWater); got != tt.want {
				t.Errorf("water need = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_DisabledCycle(t *testing.T) {
	now := time.Now().UnixMilli()
	p := testPlant(now)
	p.WateringCycleMax = 0
	p.LastWatered = 0 // ancient, would fire if the cycle were active

	ev := Evaluate(p, now, nil, allPrefs)
	if hasNeed(ev, CategoryWater) {
		t.Error("cycle with max <= 0 must never need attention")
	}
}

func TestEvaluate_MultipleCategories(t *testing.T) {
	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)

	p := testPlant(now)
	p.LastWatered = now - 4*day
	p.LastPesticide = now - 15*day

	ev := Evaluate(p, now, nil, allPrefs)
	if len(ev.Needs) != 2 {
		t.Fatalf("Needs = %v, want [WATER PESTICIDE]", ev.Needs)
	}
	if ev.Needs[0] != CategoryWater || ev.Needs[1] != CategoryPesticide {
		t.Errorf("category order = %v, want water before pesticide", ev.Needs)
	}
}

func TestEvaluate_NotifyPrefsFilterOnly(t *testing.T) {
	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)

	p := testPlant(now)
	p.LastWatered = now - 4*day

	ev := Evaluate(p, now, nil, NotifyPrefs{Water: false})
	if !hasNeed(ev, CategoryWater) {
		t.Error("disabled notification pref must not suppress the need itself")
	}
	if len(ev.Notify) != 0 {
		t.Errorf("Notify = %v, want empty with prefs off", ev.Notify)
	}
}

func TestEvaluate_Temperature(t *testing.T) {
	now := time.Now().UnixMilli()

	cold := make([]Forecast, 0, 8)
	mild := make([]Forecast, 0, 8)
	for i := 0; i < 8; i++ {
		ts := time.UnixMilli(now).Add(time.Duration(i) * 3 * time.Hour)
		cold = append(cold, Forecast{Time: ts, Temp: 5}) // below 18 - 8 = 10
		mild = append(mild, Forecast{Time: ts, Temp: 12})
	}

	p := testPlant(now)

	if ev := Evaluate(p, now, cold, allPrefs); !hasNeed(ev, CategoryTemp) {
		t.Error("sustained cold forecast should flag TEMP")
	}
	if ev := Evaluate(p, now, mild, allPrefs); hasNeed(ev, CategoryTemp) {
		t.Error("temperatures within threshold slack must not flag TEMP")
	}

	// Three cold slots is 9h of mismatch, under the 12h bar
	if ev := Evaluate(p, now, cold[:3], allPrefs); hasNeed(ev, CategoryTemp) {
		t.Error("9h of mismatch should not reach the 12h threshold")
	}
	// Four slots is exactly 12h
	if ev := Evaluate(p, now, cold[:4], allPrefs); !hasNeed(ev, CategoryTemp) {
		t.Error("12h of mismatch should reach the threshold")
	}
}

func TestEvaluate_TemperatureDisabled(t *testing.T) {
	now := time.Now().UnixMilli()
	at := time.UnixMilli(now)
	cold := []Forecast{{Time: at, Temp: -20}, {Time: at, Temp: -20}, {Time: at, Temp: -20}, {Time: at, Temp: -20}}

	p := testPlant(now)
	p.TempRange = "tropical"
	if ev := Evaluate(p, now, cold, allPrefs); hasNeed(ev, CategoryTemp) {
		t.Error("unparseable range must disable the temperature check")
	}

	p.TempRange = "18-27°C"
	if ev := Evaluate(p, now, nil, allPrefs); hasNeed(ev, CategoryTemp) {
		t.Error("no forecast data must disable the temperature check")
	}
}
