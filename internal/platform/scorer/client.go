// Package scorer is a thin HTTP client for the external anomaly-scoring
// service. Every call is bounded by the client timeout and attempted exactly
// once; any transport error, timeout, or non-2xx response surfaces as
// ErrUnavailable so the caller can fall back to local analysis.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrUnavailable wraps every failure mode of the scoring service. The engine
// treats it as an expected condition, not an error to escalate.
var ErrUnavailable = errors.New("scoring service unavailable")

// DefaultTimeout bounds each call to the scoring service.
const DefaultTimeout = 5 * time.Second

// VitalsPayload is the wire shape the scoring service ingests.
type VitalsPayload struct {
	Timestamp          time.Time `json:"timestamp"`
	HeartRateResting   *float64  `json:"heart_rate_resting,omitempty"`
	HRVRMSSD           *float64  `json:"hrv_rmssd,omitempty"`
	SpO2               *float64  `json:"spo2,omitempty"`
	SkinTempOffset     *float64  `json:"skin_temp_offset,omitempty"`
	RespiratoryRate    *float64  `json:"respiratory_rate,omitempty"`
	StepCount          *int      `json:"step_count,omitempty"`
	ActiveCalories     *float64  `json:"active_calories,omitempty"`
	SleepDurationHours *float64  `json:"sleep_duration_hours,omitempty"`
	ECGRhythm          *string   `json:"ecg_rhythm,omitempty"`
	TemperatureTrend   *string   `json:"temperature_trend,omitempty"`
}

// ScoreResponse is returned by POST /ingest.
type ScoreResponse struct {
	AlertLevel string   `json:"alert_level"`
	Anomalies  []string `json:"anomalies"`
}

// ReadinessResponse is returned by GET /readiness-score/{user_id}.
type ReadinessResponse struct {
	Score          int    `json:"score"`
	BaselineStatus string `json:"baseline_status"`
}

// Client talks to the scoring service. It is stateless and safe for
// concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Score submits a vitals payload for anomaly scoring.
func (c *Client) Score(ctx context.Context, userID string, payload *VitalsPayload) (*ScoreResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode vitals payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ingest?user_id=%s", c.baseURL, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: ingest returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var out ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode ingest response: %v", ErrUnavailable, err)
	}
	return &out, nil
}

// Readiness fetches the current readiness score for a user. Its failure is
// independent of Score and recovered separately by the caller.
func (c *Client) Readiness(ctx context.Context, userID string) (*ReadinessResponse, error) {
	endpoint := fmt.Sprintf("%s/readiness-score/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build readiness request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: readiness returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var out ReadinessResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode readiness response: %v", ErrUnavailable, err)
	}
	return &out, nil
}
