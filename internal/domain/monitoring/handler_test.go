package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newHandlerFixture(scorer *fakeScorer) (*Handler, *mockReadingRepo, *mockAlertRepo) {
	readings := newMockReadingRepo()
	alerts := newMockAlertRepo()
	svc := newTestService(readings, alerts, scorer)
	return NewHandler(svc), readings, alerts
}

func jsonContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateReading(t *testing.T) {
	h, readings, _ := newHandlerFixture(&fakeScorer{
		assessment: &Assessment{Level: LevelGreen, Anomalies: []string{}},
		readiness:  &Readiness{Score: 92, Baseline: StatusStable},
	})
	e := echo.New()
	patientID := uuid.New()

	c, rec := jsonContext(e, http.MethodPost, "/", `{"heart_rate": 72, "spo2": 98}`)
	c.SetParamNames("patientId")
	c.SetParamValues(patientID.String())

	if err := h.CreateReading(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp processReadingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Result.AlertLevel != LevelGreen || resp.Result.ReadinessScore != 92 {
		t.Errorf("unexpected result: %+v", resp.Result)
	}
	if resp.ReadingID == uuid.Nil {
		t.Error("expected stored reading ID in response")
	}
	if resp.EarlyWarnings == nil {
		t.Error("expected early warnings array, possibly empty")
	}
	if len(readings.readings) != 1 {
		t.Errorf("expected stored reading, got %d", len(readings.readings))
	}
}

func TestCreateReading_InvalidPatientID(t *testing.T) {
	h, _, _ := newHandlerFixture(&fakeScorer{})
	e := echo.New()

	c, _ := jsonContext(e, http.MethodPost, "/", `{"heart_rate": 72}`)
	c.SetParamNames("patientId")
	c.SetParamValues("not-a-uuid")

	err := h.CreateReading(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestCreateReading_ValidationFailure(t *testing.T) {
	h, readings, _ := newHandlerFixture(&fakeScorer{})
	e := echo.New()

	c, _ := jsonContext(e, http.MethodPost, "/", `{"heart_rate": 500}`)
	c.SetParamNames("patientId")
	c.SetParamValues(uuid.New().String())

	err := h.CreateReading(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if len(readings.readings) != 0 {
		t.Error("rejected readings must not be stored")
	}
}

func TestCreateReading_EarlyWarningsInResponse(t *testing.T) {
	h, _, _ := newHandlerFixture(&fakeScorer{
		assessment: &Assessment{Level: LevelRed, Anomalies: []string{"heart_rate elevated", "hrv depressed"}},
		readiness:  &Readiness{Score: 35, Baseline: StatusStable},
	})
	e := echo.New()

	c, rec := jsonContext(e, http.MethodPost, "/", `{"heart_rate": 72}`)
	c.SetParamNames("patientId")
	c.SetParamValues(uuid.New().String())

	if err := h.CreateReading(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp processReadingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.EarlyWarnings) == 0 {
		t.Fatal("expected early warning signs")
	}
	if resp.EarlyWarnings[0].Condition != "Cardiovascular Event Risk" {
		t.Errorf("unexpected condition: %s", resp.EarlyWarnings[0].Condition)
	}
}

func TestListReadings(t *testing.T) {
	h, readings, _ := newHandlerFixture(&fakeScorer{})
	e := echo.New()
	patientID := uuid.New()
	_ = readings.Create(nil, &BiometricReading{PatientID: patientID, HeartRate: f64(70)})

	c, rec := jsonContext(e, http.MethodGet, "/?limit=10", "")
	c.SetParamNames("patientId")
	c.SetParamValues(patientID.String())

	if err := h.ListReadings(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected total 1, got %d", resp.Total)
	}
}

func TestListAlerts_ResolvedFilter(t *testing.T) {
	h, _, alerts := newHandlerFixture(&fakeScorer{})
	e := echo.New()
	patientID := uuid.New()
	_ = alerts.Create(nil, &HealthAlert{PatientID: patientID, Level: LevelRed})
	resolvedAlert := &HealthAlert{PatientID: patientID, Level: LevelYellow, Resolved: true}
	_ = alerts.Create(nil, resolvedAlert)

	c, rec := jsonContext(e, http.MethodGet, "/?resolved=false", "")
	c.SetParamNames("patientId")
	c.SetParamValues(patientID.String())

	if err := h.ListAlerts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 unresolved alert, got %d", resp.Total)
	}
}

func TestListAlerts_BadResolvedParam(t *testing.T) {
	h, _, _ := newHandlerFixture(&fakeScorer{})
	e := echo.New()

	c, _ := jsonContext(e, http.MethodGet, "/?resolved=maybe", "")
	c.SetParamNames("patientId")
	c.SetParamValues(uuid.New().String())

	err := h.ListAlerts(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestGetSummary(t *testing.T) {
	h, _, _ := newHandlerFixture(&fakeScorer{readiness: &Readiness{Score: 88, Baseline: StatusStable}})
	e := echo.New()

	c, rec := jsonContext(e, http.MethodGet, "/", "")
	c.SetParamNames("patientId")
	c.SetParamValues(uuid.New().String())

	if err := h.GetSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var summary MonitoringSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if summary.CurrentReadinessScore != 88 {
		t.Errorf("expected readiness 88, got %d", summary.CurrentReadinessScore)
	}
	if summary.BaselineEstablished {
		t.Error("expected calibrating baseline with no readings")
	}
}

func TestGetCalibration(t *testing.T) {
	h, readings, _ := newHandlerFixture(&fakeScorer{})
	e := echo.New()
	patientID := uuid.New()
	for i := 0; i < 5; i++ {
		_ = readings.Create(nil, &BiometricReading{PatientID: patientID, HeartRate: f64(70)})
	}

	c, rec := jsonContext(e, http.MethodGet, "/", "")
	c.SetParamNames("patientId")
	c.SetParamValues(patientID.String())

	if err := h.GetCalibration(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cal CalibrationStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &cal); err != nil {
		t.Fatalf("decoding calibration: %v", err)
	}
	if cal.Status != StatusCalibrating || cal.ReadingCount != 5 || cal.DaysRemaining != 9 {
		t.Errorf("unexpected calibration: %+v", cal)
	}
}

func TestResolveAlert(t *testing.T) {
	h, _, alerts := newHandlerFixture(&fakeScorer{})
	e := echo.New()
	alert := &HealthAlert{PatientID: uuid.New(), Level: LevelRed}
	_ = alerts.Create(nil, alert)

	c, rec := jsonContext(e, http.MethodPost, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(alert.ID.String())

	if err := h.ResolveAlert(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !alerts.alerts[alert.ID].Resolved {
		t.Error("expected alert marked resolved")
	}
}

func TestResolveAlert_NotFound(t *testing.T) {
	h, _, _ := newHandlerFixture(&fakeScorer{})
	e := echo.New()

	c, _ := jsonContext(e, http.MethodPost, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.ResolveAlert(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}
