package monitoring

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultCalibrationTarget is the number of historical readings required
// before a patient's baseline is considered established.
const DefaultCalibrationTarget = 14

// Scorer is the narrow contract to the anomaly-scoring side. The HTTP client
// and test fakes both implement it; the threshold fallback is applied by the
// service when Score fails.
type Scorer interface {
	Score(ctx context.Context, patientID uuid.UUID, r *BiometricReading) (*Assessment, error)
	ReadinessScore(ctx context.Context, patientID uuid.UUID) (*Readiness, error)
}

// Notifier dispatches a persisted alert to human responders. Failures are
// logged and swallowed; notification is best-effort like every other side
// effect of the pipeline.
type Notifier interface {
	NotifyAlert(ctx context.Context, a *HealthAlert) error
}

// Service runs the per-reading monitoring pipeline and the summary read path.
type Service struct {
	readings          ReadingRepository
	alerts            AlertRepository
	scorer            Scorer
	notifier          Notifier
	logger            zerolog.Logger
	calibrationTarget int
}

func NewService(readings ReadingRepository, alerts AlertRepository, scorer Scorer, logger zerolog.Logger) *Service {
	return &Service{
		readings:          readings,
		alerts:            alerts,
		scorer:            scorer,
		logger:            logger,
		calibrationTarget: DefaultCalibrationTarget,
	}
}

// SetNotifier attaches an optional alert Notifier to the service.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// SetCalibrationTarget overrides the number of readings required for a
// stable baseline. Values below 1 are ignored.
func (s *Service) SetCalibrationTarget(n int) {
	if n >= 1 {
		s.calibrationTarget = n
	}
}

// ProcessReading validates, stores, scores, and fuses one reading. Upstream
// scoring failures are recovered locally and persistence failures are logged
// and swallowed: no error past validation prevents returning a best-effort
// MonitoringResult.
func (s *Service) ProcessReading(ctx context.Context, patientID uuid.UUID, r *BiometricReading) (*MonitoringResult, error) {
	if r == nil {
		return nil, &ValidationError{Field: "reading", Reason: "is required"}
	}
	if err := Validate(r); err != nil {
		return nil, err
	}

	r.PatientID = patientID
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.Source == "" {
		r.Source = SourceWearable
	}

	stored := true
	if err := s.readings.Create(ctx, r); err != nil {
		stored = false
		s.logger.Error().Err(err).
			Str("patient_id", patientID.String()).
			Msg("failed to store reading, continuing with in-memory analysis")
	}

	cal := s.calibration(ctx, patientID)

	var (
		assessment *Assessment
		readiness  int
		baseline   BaselineStatus
	)
	assessment, err := s.scorer.Score(ctx, patientID, r)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("patient_id", patientID.String()).
			Msg("external scorer unavailable, using threshold fallback")
		assessment = AnalyzeThresholds(r)
		readiness = ReadinessForLevel(assessment.Level)
		// The fallback has no calibration concept and always reports STABLE.
		baseline = StatusStable
	} else {
		rd, err := s.scorer.ReadinessScore(ctx, patientID)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("patient_id", patientID.String()).
				Msg("readiness score unavailable, averaging stored scores")
			readiness = s.localReadiness(ctx, patientID)
			baseline = cal.Status
		} else {
			readiness = rd.Score
			baseline = rd.Baseline
		}
	}

	result := &MonitoringResult{
		AlertLevel:      assessment.Level,
		Anomalies:       assessment.Anomalies,
		ReadinessScore:  readiness,
		BaselineStatus:  baseline,
		Recommendations: Recommendations(assessment.Level, assessment.Anomalies, baseline),
	}

	if stored {
		if err := s.readings.Enrich(ctx, r.ID, result.AlertLevel, result.Anomalies, result.ReadinessScore); err != nil {
			s.logger.Error().Err(err).
				Str("reading_id", r.ID.String()).
				Msg("failed to enrich reading, row remains unenriched")
		} else {
			r.Enriched = true
			r.AlertLevel = &result.AlertLevel
			r.Anomalies = result.Anomalies
			r.ReadinessScore = &result.ReadinessScore
		}
	}

	if result.AlertLevel != LevelGreen && len(result.Anomalies) > 0 {
		alert := NewHealthAlert(patientID, r.ID, result.AlertLevel, result.Anomalies)
		if err := s.alerts.Create(ctx, alert); err != nil {
			s.logger.Error().Err(err).
				Str("patient_id", patientID.String()).
				Str("level", string(result.AlertLevel)).
				Msg("failed to persist health alert")
		} else if s.notifier != nil {
			if err := s.notifier.NotifyAlert(ctx, alert); err != nil {
				s.logger.Error().Err(err).
					Str("alert_id", alert.ID.String()).
					Msg("failed to dispatch alert notification")
			}
		}
	}

	return result, nil
}

// ReprocessUnenriched re-scores stored readings whose enrichment write
// previously failed. Scoring failures fall back to local thresholds exactly
// like the live path; rows that still cannot be written stay unenriched for
// the next pass. Returns the number of rows enriched.
func (s *Service) ReprocessUnenriched(ctx context.Context, limit int) int {
	rows, err := s.readings.ListUnenriched(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list unenriched readings")
		return 0
	}

	enriched := 0
	for _, r := range rows {
		assessment, err := s.scorer.Score(ctx, r.PatientID, r)
		var readiness int
		if err != nil {
			assessment = AnalyzeThresholds(r)
			readiness = ReadinessForLevel(assessment.Level)
		} else if rd, rdErr := s.scorer.ReadinessScore(ctx, r.PatientID); rdErr != nil {
			readiness = s.localReadiness(ctx, r.PatientID)
		} else {
			readiness = rd.Score
		}

		if err := s.readings.Enrich(ctx, r.ID, assessment.Level, assessment.Anomalies, readiness); err != nil {
			s.logger.Error().Err(err).
				Str("reading_id", r.ID.String()).
				Msg("failed to enrich reading during backfill")
			continue
		}
		enriched++
	}
	return enriched
}

// CalibrationStatus reports the patient's progress through baseline
// calibration based on the stored reading count.
func (s *Service) CalibrationStatus(ctx context.Context, patientID uuid.UUID) (*CalibrationStatus, error) {
	count, err := s.readings.CountByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.calibrationFromCount(count), nil
}

// calibration is the swallow-on-error variant used inside the pipeline: a
// failed count is logged and treated as an established baseline so that the
// reading is still scored.
func (s *Service) calibration(ctx context.Context, patientID uuid.UUID) *CalibrationStatus {
	count, err := s.readings.CountByPatient(ctx, patientID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("patient_id", patientID.String()).
			Msg("failed to count readings, assuming established baseline")
		return &CalibrationStatus{Status: StatusStable, ReadingCount: 0, DaysRemaining: 0}
	}
	return s.calibrationFromCount(count)
}

func (s *Service) calibrationFromCount(count int) *CalibrationStatus {
	status := StatusStable
	remaining := 0
	if count < s.calibrationTarget {
		status = StatusCalibrating
		remaining = s.calibrationTarget - count
	}
	return &CalibrationStatus{Status: status, ReadingCount: count, DaysRemaining: remaining}
}

// Summary aggregates recent history for a patient: calibration progress,
// current readiness, unresolved alerts over the last 7 days, and the
// readiness trend.
func (s *Service) Summary(ctx context.Context, patientID uuid.UUID) (*MonitoringSummary, error) {
	cal, err := s.CalibrationStatus(ctx, patientID)
	if err != nil {
		return nil, err
	}

	readiness := 0
	if rd, err := s.scorer.ReadinessScore(ctx, patientID); err != nil {
		s.logger.Warn().Err(err).
			Str("patient_id", patientID.String()).
			Msg("readiness score unavailable, averaging stored scores")
		readiness = s.localReadiness(ctx, patientID)
	} else {
		readiness = rd.Score
	}

	recent, err := s.alerts.CountUnresolvedSince(ctx, patientID, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	scores, err := s.readings.ListReadinessScores(ctx, patientID, 2*trendHalfWindow)
	if err != nil {
		return nil, err
	}

	return &MonitoringSummary{
		BaselineEstablished:   cal.Status == StatusStable,
		DaysUntilBaseline:     cal.DaysRemaining,
		CurrentReadinessScore: readiness,
		RecentAlerts:          recent,
		Trend:                 classifyTrend(scores),
	}, nil
}

// trendHalfWindow is the number of scores in each half of the trend
// comparison; the classification needs a full two halves of history.
const trendHalfWindow = 7

// classifyTrend compares the means of the two most recent 7-score halves.
// Fewer than 14 scores always yields STABLE; a difference of more than 5
// points in either direction tips the classification.
func classifyTrend(scores []int) Trend {
	if len(scores) < 2*trendHalfWindow {
		return TrendStable
	}
	recent := scores[len(scores)-2*trendHalfWindow:]
	first := mean(recent[:trendHalfWindow])
	second := mean(recent[trendHalfWindow:])
	switch {
	case second-first > 5:
		return TrendImproving
	case first-second > 5:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func mean(scores []int) float64 {
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// localReadiness approximates the readiness score from the last 7 stored
// scores when the external service cannot supply one; with no history the
// patient is assumed fully ready.
func (s *Service) localReadiness(ctx context.Context, patientID uuid.UUID) int {
	scores, err := s.readings.ListReadinessScores(ctx, patientID, 7)
	if err != nil || len(scores) == 0 {
		if err != nil {
			s.logger.Error().Err(err).
				Str("patient_id", patientID.String()).
				Msg("failed to read stored readiness scores")
		}
		return 100
	}
	return int(math.Round(mean(scores)))
}
