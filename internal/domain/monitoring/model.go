package monitoring

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AlertLevel is the coarse severity tier assigned to a reading.
type AlertLevel string

const (
	LevelGreen  AlertLevel = "GREEN"
	LevelYellow AlertLevel = "YELLOW"
	LevelRed    AlertLevel = "RED"
)

// severity ranks alert levels for precedence comparisons (RED > YELLOW > GREEN).
func (l AlertLevel) severity() int {
	switch l {
	case LevelRed:
		return 2
	case LevelYellow:
		return 1
	default:
		return 0
	}
}

// Escalate returns the more severe of the two levels.
func Escalate(a, b AlertLevel) AlertLevel {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// BaselineStatus reports whether the patient's statistical baseline is reliable yet.
type BaselineStatus string

const (
	StatusCalibrating BaselineStatus = "CALIBRATING"
	StatusStable      BaselineStatus = "STABLE"
)

// Trend classifies the direction of recent readiness history.
type Trend string

const (
	TrendStable    Trend = "STABLE"
	TrendImproving Trend = "IMPROVING"
	TrendDeclining Trend = "DECLINING"
)

// RiskLevel is the qualitative risk attached to an early-warning sign.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ReadingSource tags how a reading entered the system.
type ReadingSource string

const (
	SourceWearable ReadingSource = "wearable"
	SourceManual   ReadingSource = "manual"
)

// BiometricReading maps to the biometric_reading table. One immutable
// observation per submission; the enrichment fields (Enriched, AlertLevel,
// Anomalies, ReadinessScore) are written exactly once after scoring and are
// either all present or all absent.
type BiometricReading struct {
	ID                 uuid.UUID     `db:"id" json:"id"`
	PatientID          uuid.UUID     `db:"patient_id" json:"patient_id"`
	Timestamp          time.Time     `db:"ts" json:"timestamp"`
	HeartRate          *float64      `db:"heart_rate" json:"heart_rate,omitempty"`
	RestingHeartRate   *float64      `db:"resting_heart_rate" json:"resting_heart_rate,omitempty"`
	HRV                *float64      `db:"hrv_rmssd" json:"hrv_rmssd,omitempty"`
	SpO2               *float64      `db:"spo2" json:"spo2,omitempty"`
	Temperature        *float64      `db:"temperature" json:"temperature,omitempty"`
	RespiratoryRate    *float64      `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	SystolicBP         *float64      `db:"systolic_bp" json:"systolic_bp,omitempty"`
	DiastolicBP        *float64      `db:"diastolic_bp" json:"diastolic_bp,omitempty"`
	Weight             *float64      `db:"weight_kg" json:"weight_kg,omitempty"`
	Height             *float64      `db:"height_cm" json:"height_cm,omitempty"`
	Glucose            *float64      `db:"glucose" json:"glucose,omitempty"`
	StepCount          *int          `db:"step_count" json:"step_count,omitempty"`
	ActiveCalories     *float64      `db:"active_calories" json:"active_calories,omitempty"`
	SleepDurationHours *float64      `db:"sleep_duration_hours" json:"sleep_duration_hours,omitempty"`
	ECGRhythm          *string       `db:"ecg_rhythm" json:"ecg_rhythm,omitempty"`
	TemperatureTrend   *string       `db:"temperature_trend" json:"temperature_trend,omitempty"`
	Source             ReadingSource `db:"source" json:"source"`
	Device             string        `db:"device" json:"device,omitempty"`
	Enriched           bool          `db:"enriched" json:"enriched"`
	AlertLevel         *AlertLevel   `db:"alert_level" json:"alert_level,omitempty"`
	Anomalies          []string      `db:"anomalies" json:"anomalies,omitempty"`
	ReadinessScore     *int          `db:"readiness_score" json:"readiness_score,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
}

// Assessment is the output of a scorer (external or fallback) for one reading.
type Assessment struct {
	Level     AlertLevel `json:"alert_level"`
	Anomalies []string   `json:"anomalies"`
}

// Readiness is the 0-100 composite wellness indicator paired with the
// baseline status the scoring side reports.
type Readiness struct {
	Score    int            `json:"score"`
	Baseline BaselineStatus `json:"baseline_status"`
}

// MonitoringResult is the per-request output of the engine. It is assembled
// in memory and returned to the caller even when downstream writes fail.
type MonitoringResult struct {
	AlertLevel      AlertLevel     `json:"alert_level"`
	Anomalies       []string       `json:"anomalies"`
	ReadinessScore  int            `json:"readiness_score"`
	BaselineStatus  BaselineStatus `json:"baseline_status"`
	Recommendations []string       `json:"recommendations"`
}

// EarlyWarningSign is a named risk condition derived from the anomaly list
// and the raw reading. Never persisted.
type EarlyWarningSign struct {
	Condition string    `json:"condition"`
	Risk      RiskLevel `json:"risk"`
	Window    string    `json:"window"`
}

// CalibrationStatus describes how far a patient is through baseline calibration.
type CalibrationStatus struct {
	Status        BaselineStatus `json:"status"`
	ReadingCount  int            `json:"reading_count"`
	DaysRemaining int            `json:"days_remaining"`
}

// MonitoringSummary aggregates recent history for a patient.
type MonitoringSummary struct {
	BaselineEstablished   bool  `json:"baseline_established"`
	DaysUntilBaseline     int   `json:"days_until_baseline"`
	CurrentReadinessScore int   `json:"current_readiness_score"`
	RecentAlerts          int   `json:"recent_alerts"`
	Trend                 Trend `json:"trend"`
}

// HealthAlert maps to the health_alert table. Created only for non-GREEN
// results with at least one anomaly; resolved externally by a reviewer.
type HealthAlert struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	Level     AlertLevel `db:"level" json:"level"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	Anomalies []string   `db:"anomalies" json:"anomalies"`
	ReadingID uuid.UUID  `db:"reading_id" json:"reading_id"`
	Resolved  bool       `db:"resolved" json:"resolved"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// NewHealthAlert builds an alert record for a non-nominal result. The message
// spells out at most two anomaly tags; additional tags are elided with an
// ellipsis.
func NewHealthAlert(patientID, readingID uuid.UUID, level AlertLevel, anomalies []string) *HealthAlert {
	return &HealthAlert{
		PatientID: patientID,
		Level:     level,
		Title:     "Health Alert: " + string(level),
		Message:   "Abnormal readings detected: " + summarizeAnomalies(anomalies),
		Anomalies: anomalies,
		ReadingID: readingID,
	}
}

func summarizeAnomalies(anomalies []string) string {
	if len(anomalies) <= 2 {
		return strings.Join(anomalies, ", ")
	}
	return strings.Join(anomalies[:2], ", ") + "…"
}
