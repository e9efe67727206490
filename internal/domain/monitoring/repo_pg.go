package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Reading Repository ===========

type readingRepoPG struct{ pool *pgxpool.Pool }

func NewReadingRepoPG(pool *pgxpool.Pool) ReadingRepository {
	return &readingRepoPG{pool: pool}
}

const readingCols = `id, patient_id, ts, heart_rate, resting_heart_rate, hrv_rmssd, spo2,
	temperature, respiratory_rate, systolic_bp, diastolic_bp, weight_kg, height_cm,
	glucose, step_count, active_calories, sleep_duration_hours, ecg_rhythm,
	temperature_trend, source, device, enriched, alert_level, anomalies,
	readiness_score, created_at`

func scanReading(row pgx.Row) (*BiometricReading, error) {
	var r BiometricReading
	err := row.Scan(&r.ID, &r.PatientID, &r.Timestamp, &r.HeartRate, &r.RestingHeartRate, &r.HRV, &r.SpO2,
		&r.Temperature, &r.RespiratoryRate, &r.SystolicBP, &r.DiastolicBP, &r.Weight, &r.Height,
		&r.Glucose, &r.StepCount, &r.ActiveCalories, &r.SleepDurationHours, &r.ECGRhythm,
		&r.TemperatureTrend, &r.Source, &r.Device, &r.Enriched, &r.AlertLevel, &r.Anomalies,
		&r.ReadinessScore, &r.CreatedAt)
	return &r, err
}

func (repo *readingRepoPG) Create(ctx context.Context, r *BiometricReading) error {
	r.ID = uuid.New()
	_, err := repo.pool.Exec(ctx, `
		INSERT INTO biometric_reading (id, patient_id, ts, heart_rate, resting_heart_rate,
			hrv_rmssd, spo2, temperature, respiratory_rate, systolic_bp, diastolic_bp,
			weight_kg, height_cm, glucose, step_count, active_calories,
			sleep_duration_hours, ecg_rhythm, temperature_trend, source, device)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		r.ID, r.PatientID, r.Timestamp, r.HeartRate, r.RestingHeartRate,
		r.HRV, r.SpO2, r.Temperature, r.RespiratoryRate, r.SystolicBP, r.DiastolicBP,
		r.Weight, r.Height, r.Glucose, r.StepCount, r.ActiveCalories,
		r.SleepDurationHours, r.ECGRhythm, r.TemperatureTrend, r.Source, r.Device)
	return err
}

func (repo *readingRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*BiometricReading, error) {
	return scanReading(repo.pool.QueryRow(ctx, `SELECT `+readingCols+` FROM biometric_reading WHERE id = $1`, id))
}

func (repo *readingRepoPG) Enrich(ctx context.Context, id uuid.UUID, level AlertLevel, anomalies []string, readinessScore int) error {
	_, err := repo.pool.Exec(ctx, `
		UPDATE biometric_reading
		SET enriched = TRUE, alert_level = $2, anomalies = $3, readiness_score = $4
		WHERE id = $1`,
		id, level, anomalies, readinessScore)
	return err
}

func (repo *readingRepoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var count int
	err := repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM biometric_reading WHERE patient_id = $1`, patientID).Scan(&count)
	return count, err
}

func (repo *readingRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*BiometricReading, int, error) {
	var total int
	if err := repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM biometric_reading WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := repo.pool.Query(ctx, `SELECT `+readingCols+` FROM biometric_reading
		WHERE patient_id = $1 ORDER BY ts DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*BiometricReading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, rows.Err()
}

func (repo *readingRepoPG) ListReadinessScores(ctx context.Context, patientID uuid.UUID, limit int) ([]int, error) {
	query := `
		SELECT readiness_score FROM (
			SELECT readiness_score, ts FROM biometric_reading
			WHERE patient_id = $1 AND enriched AND readiness_score IS NOT NULL
			ORDER BY ts DESC LIMIT $2
		) recent ORDER BY ts ASC`
	// LIMIT NULL means no limit in PostgreSQL.
	var lim interface{}
	if limit > 0 {
		lim = limit
	}
	rows, err := repo.pool.Query(ctx, query, patientID, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var scores []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (repo *readingRepoPG) ListUnenriched(ctx context.Context, limit int) ([]*BiometricReading, error) {
	rows, err := repo.pool.Query(ctx, `SELECT `+readingCols+` FROM biometric_reading
		WHERE NOT enriched ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BiometricReading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// =========== Alert Repository ===========

type alertRepoPG struct{ pool *pgxpool.Pool }

func NewAlertRepoPG(pool *pgxpool.Pool) AlertRepository {
	return &alertRepoPG{pool: pool}
}

const alertCols = `id, patient_id, level, title, message, anomalies, reading_id, resolved, created_at`

func scanAlert(row pgx.Row) (*HealthAlert, error) {
	var a HealthAlert
	err := row.Scan(&a.ID, &a.PatientID, &a.Level, &a.Title, &a.Message, &a.Anomalies,
		&a.ReadingID, &a.Resolved, &a.CreatedAt)
	return &a, err
}

func (repo *alertRepoPG) Create(ctx context.Context, a *HealthAlert) error {
	a.ID = uuid.New()
	_, err := repo.pool.Exec(ctx, `
		INSERT INTO health_alert (id, patient_id, level, title, message, anomalies, reading_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.PatientID, a.Level, a.Title, a.Message, a.Anomalies, a.ReadingID)
	return err
}

func (repo *alertRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*HealthAlert, error) {
	return scanAlert(repo.pool.QueryRow(ctx, `SELECT `+alertCols+` FROM health_alert WHERE id = $1`, id))
}

func (repo *alertRepoPG) Resolve(ctx context.Context, id uuid.UUID) error {
	_, err := repo.pool.Exec(ctx, `UPDATE health_alert SET resolved = TRUE WHERE id = $1`, id)
	return err
}

func (repo *alertRepoPG) CountUnresolvedSince(ctx context.Context, patientID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := repo.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM health_alert
		WHERE patient_id = $1 AND NOT resolved AND created_at >= $2`,
		patientID, since).Scan(&count)
	return count, err
}

func (repo *alertRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, resolved *bool, limit, offset int) ([]*HealthAlert, int, error) {
	where := `WHERE patient_id = $1`
	args := []interface{}{patientID}
	if resolved != nil {
		where += ` AND resolved = $2`
		args = append(args, *resolved)
	}

	var total int
	if err := repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM health_alert `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+alertCols+` FROM health_alert `+where+
		` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := repo.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*HealthAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
