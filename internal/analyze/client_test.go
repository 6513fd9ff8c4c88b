package analyze

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseAnalysis(t *testing.T) {
	raw := `{"is_plant": true, "official_name": "Monstera deliciosa",
		"watering_cycle_min": 5, "watering_cycle_max": 7, "temp_range": "18-27°C",
		"health_rating": 4.5}`

	tests := []struct {
		name string
		text string
	}{
		{"bare json", raw},
		{"markdown fenced", "```json\n" + raw + "\n```"},
		{"wrapped in prose", "Here is the analysis:\n" + raw + "\nLet me know if you need more."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAnalysis(tt.text)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !a.IsPlant || a.OfficialName != "Monstera deliciosa" {
				t.Errorf("analysis = %+v", a)
			}
			if a.WateringCycleMin != 5 || a.WateringCycleMax != 7 || a.HealthRating != 4.5 {
				t.Errorf("analysis = %+v", a)
			}
		})
	}
}

func TestParseAnalysis_Garbage(t *testing.T) {
	for _, text := range []string{"", "I cannot identify this image.", "{broken"} {
		if _, err := parseAnalysis(text); err == nil {
			t.Errorf("parseAnalysis(%q) should fail", text)
		}
	}
}

func TestAnalyzePhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{
						"text": `{"is_plant": false}`,
					}},
				},
			}},
		})
	}))
	defer srv.Close()

	c := NewClient("secret", "test-model")
	c.SetBaseURL(srv.URL)

	a, err := c.AnalyzePhoto(context.Background(), []byte("fakeimage"), "image/jpeg")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.IsPlant {
		t.Error("model said not a plant")
	}
}

func TestAnalyzePhoto_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	c := NewClient("secret", "test-model")
	c.SetBaseURL(srv.URL)
	if _, err := c.AnalyzePhoto(context.Background(), nil, "image/png"); err == nil {
		t.Error("empty candidate list should fail")
	}
}
