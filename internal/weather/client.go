// Package weather wraps the OpenWeatherMap 5-day/3-hour forecast endpoint.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client fetches forecasts. A zero-value client is not usable; construct
// with NewClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
}

// SetBaseURL overrides the API endpoint (tests).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// ForecastResponse is the subset of the OpenWeatherMap payload we use.
type ForecastResponse struct {
	List []Sample `json:"list"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
}

// Sample is one 3-hour forecast slot.
type Sample struct {
	Dt   int64 `json:"dt"` // unix seconds
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	DtTxt   string      `json:"dt_txt"`
}

// Condition describes the sky for one sample.
type Condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Time returns the sample's timestamp.
func (s Sample) Time() time.Time {
	return time.Unix(s.Dt, 0)
}

// Forecast fetches the 5-day/3-hour forecast for a coordinate, metric units.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*ForecastResponse, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", lat))
	q.Set("lon", fmt.Sprintf("%.4f", lon))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("forecast request failed: %d %s", resp.StatusCode, string(body))
	}

	var out ForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return &out, nil
}

// Window returns the samples whose timestamps fall within [now-1h,
// now+hours+1h]. The hour of slack on both ends keeps boundary samples in
// the window, matching how the 3-hour slots straddle the clock.
func (r *ForecastResponse) Window(now time.Time, hours int) []Sample {
	start := now.Add(-time.Hour)
	end := now.Add(time.Duration(hours+1) * time.Hour)
	var out []Sample
	for _, s := range r.List {
		t := s.Time()
		if t.After(start) && t.Before(end) {
			out = append(out, s)
		}
	}
	return out
}

// DaySummary condenses today's samples into one displayable line of weather.
type DaySummary struct {
	Location    string  `json:"location"`
	CurrentTemp float64 `json:"current_temp"`
	MinTemp     float64 `json:"min_temp"`
	MaxTemp     float64 `json:"max_temp"`
	Humidity    int     `json:"humidity"`
	Condition   string  `json:"condition"`
	Icon        string  `json:"icon"`
}

// Today builds a DaySummary from the samples falling on now's calendar day.
// Returns nil if no sample lands on today.
func (r *ForecastResponse) Today(now time.Time) *DaySummary {
	y, m, d := now.Date()
	var todays []Sample
	for _, s := range r.List {
		sy, sm, sd := s.Time().In(now.Location()).Date()
		if sy == y && sm == m && sd == d {
			todays = append(todays, s)
		}
	}
	if len(todays) == 0 {
		return nil
	}

	sum := &DaySummary{
		Location:    r.City.Name,
		CurrentTemp: todays[0].Main.Temp,
		MinTemp:     todays[0].Main.TempMin,
		MaxTemp:     todays[0].Main.TempMax,
		Humidity:    todays[0].Main.Humidity,
	}
	if len(todays[0].Weather) > 0 {
		sum.Condition = todays[0].Weather[0].Description
		sum.Icon = todays[0].Weather[0].Icon
	}
	for _, s := range todays[1:] {
		if s.Main.TempMin < sum.MinTemp {
			sum.MinTemp = s.Main.TempMin
		}
		if s.Main.TempMax > sum.MaxTemp {
			sum.MaxTemp = s.Main.TempMax
		}
	}
	return sum
}
