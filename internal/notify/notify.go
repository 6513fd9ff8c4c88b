// Package notify delivers care reminders and the home summary to the user's
// chat channel of choice.
package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leafcare/planty/internal/care"
	"github.com/leafcare/planty/internal/logging"
	"github.com/leafcare/planty/internal/store"
	"github.com/leafcare/planty/internal/weather"
)

// Sender pushes one message to the user. Implementations exist for Discord
// and Telegram; LogSender is the fallback when neither is configured.
type Sender interface {
	Send(text string) error
}

// LogSender writes notifications to the process log only.
type LogSender struct{}

func (LogSender) Send(text string) error {
	logging.Info("notify", "%s", logging.Truncate(text, 400))
	return nil
}

func categoryLabel(category string) string {
	switch category {
	case care.CategoryWater:
		return "watering"
	case care.CategoryPesticide:
		return "pesticide"
	case care.CategoryTemp:
		return "temperature warning"
	default:
		return strings.ToLower(category)
	}
}

// FormatCareAlert renders one reminder message covering every plant that
// should notify this pass. Returns "" when there is nothing to say.
func FormatCareAlert(byPlant map[string][]string) string {
	if len(byPlant) == 0 {
		return ""
	}

	names := make([]string, 0, len(byPlant))
	for name := range byPlant {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Plant care reminder\n")
	for _, name := range names {
		labels := make([]string, 0, len(byPlant[name]))
		for _, cat := range byPlant[name] {
			labels = append(labels, categoryLabel(cat))
		}
		fmt.Fprintf(&b, "%s: %s\n", name, strings.Join(labels, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHomeSummary renders the home-surface text: a weather line (or the
// best-effort error string when the fetch failed) plus the plants waiting
// for attention.
func FormatHomeSummary(summary *weather.DaySummary, weatherErr string, plants []*store.Plant) string {
	var b strings.Builder

	switch {
	case summary != nil:
		fmt.Fprintf(&b, "Now %.0f°C (%.0f-%.0f°C), %s", summary.CurrentTemp, summary.MinTemp, summary.MaxTemp, summary.Condition)
	case weatherErr != "":
		b.WriteString(weatherErr)
	default:
		b.WriteString("no weather data")
	}

	if len(plants) == 0 {
		b.WriteString("\nAll plants are doing fine")
		return b.String()
	}

	b.WriteString("\nNeeds attention:")
	for _, p := range plants {
		reasons := ""
		if p.AttentionReasons != nil {
			var labels []string
			for _, cat := range strings.Split(*p.AttentionReasons, ",") {
				labels = append(labels, categoryLabel(cat))
			}
			reasons = " (" + strings.Join(labels, ", ") + ")"
		}
		fmt.Fprintf(&b, "\n- %s%s", p.Nickname, reasons)
	}
	return b.String()
}
