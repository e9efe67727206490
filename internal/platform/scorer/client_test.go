package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func TestClient_Score(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ingest" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "patient-1" {
			t.Errorf("expected user_id patient-1, got %s", got)
		}
		var payload VitalsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		if payload.HeartRateResting == nil || *payload.HeartRateResting != 105 {
			t.Errorf("unexpected payload: %+v", payload)
		}
		json.NewEncoder(w).Encode(ScoreResponse{
			AlertLevel: "YELLOW",
			Anomalies:  []string{"elevated resting heart rate"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	resp, err := c.Score(context.Background(), "patient-1", &VitalsPayload{
		Timestamp:        time.Now().UTC(),
		HeartRateResting: f64(105),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AlertLevel != "YELLOW" || len(resp.Anomalies) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClient_ScoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Score(context.Background(), "p", &VitalsPayload{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestClient_ScoreConnectionRefused(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	_, err := c.Score(context.Background(), "p", &VitalsPayload{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestClient_ScoreTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.Score(context.Background(), "p", &VitalsPayload{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestClient_ScoreMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Score(context.Background(), "p", &VitalsPayload{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on bad body, got %v", err)
	}
}

func TestClient_Readiness(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/readiness-score/patient-2" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ReadinessResponse{Score: 77, BaselineStatus: "STABLE"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	resp, err := c.Readiness(context.Background(), "patient-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Score != 77 || resp.BaselineStatus != "STABLE" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClient_ReadinessServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Readiness(context.Background(), "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient("http://example.org", 0)
	if c.http.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultTimeout, c.http.Timeout)
	}
}
