// Package analyze identifies a plant and its care parameters from a photo
// using the Gemini generateContent REST API.
package analyze

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Analysis is the structured result the model returns for one photo.
// CycleMin/Max pairs are days; zero max means the category does not apply.
type Analysis struct {
	IsPlant           bool    `json:"is_plant"`
	OfficialName      string  `json:"official_name"`
	WateringCycleMin  int     `json:"watering_cycle_min"`
	WateringCycleMax  int     `json:"watering_cycle_max"`
	PesticideCycleMin int     `json:"pesticide_cycle_min"`
	PesticideCycleMax int     `json:"pesticide_cycle_max"`
	TempRange         string  `json:"temp_range"`
	LifespanMin       int     `json:"lifespan_min"`
	LifespanMax       int     `json:"lifespan_max"`
	EstimatedAgeDays  int     `json:"estimated_age_days"`
	HealthRating      float64 `json:"health_rating"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// SetBaseURL overrides the API endpoint (tests).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

const prompt = `Identify the plant in this photo. Respond with a single JSON object:
{"is_plant": bool, "official_name": string, "watering_cycle_min": int,
"watering_cycle_max": int, "pesticide_cycle_min": int, "pesticide_cycle_max": int,
"temp_range": "MIN-MAX°C", "lifespan_min": int, "lifespan_max": int,
"estimated_age_days": int, "health_rating": float}
Cycle values are days. Use 0 for watering_cycle_max or pesticide_cycle_max when
the plant does not need that care. health_rating is 0.0-5.0. If the photo does
not show a plant, set is_plant to false and leave the rest zeroed.`

type generateRequest struct {
	Contents []struct {
		Parts []map[string]any `json:"parts"`
	} `json:"contents"`
	GenerationConfig map[string]any `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AnalyzePhoto sends the photo to the model and parses its JSON reply.
func (c *Client) AnalyzePhoto(ctx context.Context, image []byte, mimeType string) (*Analysis, error) {
	req := generateRequest{
		GenerationConfig: map[string]any{
			"temperature":     0.4,
			"topK":            32,
			"topP":            1.0,
			"maxOutputTokens": 2048,
		},
	}
	req.Contents = make([]struct {
		Parts []map[string]any `json:"parts"`
	}, 1)
	req.Contents[0].Parts = []map[string]any{
		{"text": prompt},
		{"inline_data": map[string]string{
			"mime_type": mimeType,
			"data":      base64.StdEncoding.EncodeToString(image),
		}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("analyze request failed: %d %s", resp.StatusCode, string(msg))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty model response")
	}

	text := out.Candidates[0].Content.Parts[0].Text
	return parseAnalysis(text)
}

// parseAnalysis extracts the JSON object from the model's reply, which may be
// wrapped in markdown fences or prose.
func parseAnalysis(text string) (*Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response: %s", text)
	}

	var a Analysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}
	return &a, nil
}
