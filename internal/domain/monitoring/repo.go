package monitoring

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ReadingRepository interface {
	Create(ctx context.Context, r *BiometricReading) error
	GetByID(ctx context.Context, id uuid.UUID) (*BiometricReading, error)
	// Enrich writes the derived fields in a single statement and flips the
	// enriched flag so backfill jobs can find rows where this write failed.
	Enrich(ctx context.Context, id uuid.UUID, level AlertLevel, anomalies []string, readinessScore int) error
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*BiometricReading, int, error)
	// ListReadinessScores returns the most recent limit enriched readiness
	// scores for the patient in chronological (oldest-first) order. A
	// non-positive limit returns all of them.
	ListReadinessScores(ctx context.Context, patientID uuid.UUID, limit int) ([]int, error)
	ListUnenriched(ctx context.Context, limit int) ([]*BiometricReading, error)
}

type AlertRepository interface {
	Create(ctx context.Context, a *HealthAlert) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthAlert, error)
	Resolve(ctx context.Context, id uuid.UUID) error
	CountUnresolvedSince(ctx context.Context, patientID uuid.UUID, since time.Time) (int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, resolved *bool, limit, offset int) ([]*HealthAlert, int, error)
}
