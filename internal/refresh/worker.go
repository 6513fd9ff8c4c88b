// Package refresh runs the periodic attention pass: weather in, attention
// state out, reminders and calendar kept current.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/leafcare/planty/internal/care"
	"github.com/leafcare/planty/internal/logging"
	"github.com/leafcare/planty/internal/notify"
	"github.com/leafcare/planty/internal/store"
	"github.com/leafcare/planty/internal/weather"
)

// Worker evaluates every plant against current weather, persists attention
// state, sends reminders, and triggers a calendar synchronization pass.
type Worker struct {
	store   *store.Store
	weather *weather.Client // nil when no API key is configured
	sync    *care.Synchronizer
	sender  notify.Sender
	prefs   care.NotifyPrefs
	lat     float64
	lon     float64
	now     func() time.Time

	mu          sync.Mutex
	cancel      context.CancelFunc
	lastSummary *weather.DaySummary
	lastError   string
	lastHome    string
}

func New(st *store.Store, wc *weather.Client, sync *care.Synchronizer, sender notify.Sender, prefs care.NotifyPrefs, lat, lon float64) *Worker {
	return &Worker{
		store:   st,
		weather: wc,
		sync:    sync,
		sender:  sender,
		prefs:   prefs,
		lat:     lat,
		lon:     lon,
		now:     time.Now,
	}
}

// Refresh supersedes any in-flight pass (its network calls are cancelled)
// and runs a fresh one. Used by the manual refresh endpoint; the periodic
// schedule calls Run directly on its own lifecycle.
func (w *Worker) Refresh(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	defer cancel()
	return w.Run(runCtx)
}

// Run executes one refresh pass. Weather trouble only disables the
// temperature category; the pass fails outright only when the plant
// iteration itself cannot proceed.
func (w *Worker) Run(ctx context.Context) error {
	forecasts, summary, weatherErr := w.fetchWeather(ctx)

	w.mu.Lock()
	w.lastSummary = summary
	w.lastError = weatherErr
	w.mu.Unlock()

	plants, err := w.store.ListPlants(ctx)
	if err != nil {
		return fmt.Errorf("list plants: %w", err)
	}

	nowMs := w.now().UnixMilli()
	toNotify := make(map[string][]string)

	for _, p := range plants {
		ev := care.Evaluate(p, nowMs, forecasts, w.prefs)
		changed, err := care.PersistAttention(ctx, w.store, p, ev.Needs, nowMs)
		if err != nil {
			logging.Error("refresh", "plant %d (%s): %v", p.ID, p.Nickname, err)
			continue
		}
		// Notify only when the attention state moved, so a plant that keeps
		// needing water does not ping the user every pass.
		if changed && len(ev.Notify) > 0 {
			toNotify[p.Nickname] = ev.Notify
		}
	}

	if alert := notify.FormatCareAlert(toNotify); alert != "" {
		if err := w.sender.Send(alert); err != nil {
			logging.Error("refresh", "send reminder: %v", err)
		}
	}

	w.sync.Sync(ctx)

	w.pushHomeSummary(ctx, summary, weatherErr)

	logging.Debug("refresh", "pass complete: %d plants, %d reminders, weather err=%q",
		len(plants), len(toNotify), weatherErr)
	return nil
}

// pushHomeSummary sends the widget text: the weather line plus the plants
// currently flagged for attention. Pushed only when the rendered text differs
// from the previous pass, so an unchanged home surface stays quiet.
func (w *Worker) pushHomeSummary(ctx context.Context, summary *weather.DaySummary, weatherErr string) {
	attention, err := w.store.NeedsAttentionPlants(ctx)
	if err != nil {
		logging.Error("refresh", "needs attention plants: %v", err)
		return
	}

	home := notify.FormatHomeSummary(summary, weatherErr, attention)

	w.mu.Lock()
	changed := home != w.lastHome
	w.lastHome = home
	w.mu.Unlock()
	if !changed {
		return
	}

	if err := w.sender.Send(home); err != nil {
		logging.Error("refresh", "send home summary: %v", err)
	}
}

// fetchWeather returns the forecast window for the evaluator plus today's
// summary. Failures come back as a short user-facing string, never an error:
// the temperature category is simply disabled for the pass.
func (w *Worker) fetchWeather(ctx context.Context) ([]care.Forecast, *weather.DaySummary, string) {
	if w.weather == nil || (w.lat == 0 && w.lon == 0) {
		return nil, nil, "location not configured"
	}

	resp, err := w.weather.Forecast(ctx, w.lat, w.lon)
	if err != nil {
		logging.Error("refresh", "weather fetch: %v", err)
		return nil, nil, classifyWeatherError(err)
	}

	now := w.now()
	var forecasts []care.Forecast
	for _, s := range resp.Window(now, care.TempMismatchHours) {
		forecasts = append(forecasts, care.Forecast{Time: s.Time(), Temp: s.Main.Temp})
	}
	return forecasts, resp.Today(now), ""
}

func classifyWeatherError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return "network error"
	}
	if errors.Is(err, context.Canceled) {
		return "refresh cancelled"
	}
	return "weather unavailable"
}

// LastWeather returns the most recent day summary (may be nil) and the
// best-effort error string from the last pass. This is the daemon's
// "widget": the home endpoint surfaces it alongside the plants needing
// attention.
func (w *Worker) LastWeather() (*weather.DaySummary, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSummary, w.lastError
}
