package monitoring

import "fmt"

// ValidationError rejects a reading before any processing happens. Field
// names the offending vital.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid reading: %s %s", e.Field, e.Reason)
}

type vitalRange struct {
	min, max float64
}

// Physiological plausibility bounds per vital. Values outside these ranges
// are rejected outright rather than clamped.
var vitalRanges = map[string]vitalRange{
	"heart_rate":           {30, 220},
	"resting_heart_rate":   {30, 220},
	"hrv_rmssd":            {0, 300},
	"spo2":                 {50, 100},
	"temperature":          {30, 45},
	"respiratory_rate":     {4, 60},
	"systolic_bp":          {50, 250},
	"diastolic_bp":         {30, 150},
	"weight_kg":            {1, 500},
	"height_cm":            {30, 260},
	"glucose":              {20, 600},
	"step_count":           {0, 200000},
	"active_calories":      {0, 20000},
	"sleep_duration_hours": {0, 24},
}

// Validate range-checks every vital present on the reading. It is a pure
// check: either every present field is within bounds and nil is returned, or
// the first offending field is reported and nothing is accepted. A reading
// must carry at least one vital.
func Validate(r *BiometricReading) error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"heart_rate", r.HeartRate},
		{"resting_heart_rate", r.RestingHeartRate},
		{"hrv_rmssd", r.HRV},
		{"spo2", r.SpO2},
		{"temperature", r.Temperature},
		{"respiratory_rate", r.RespiratoryRate},
		{"systolic_bp", r.SystolicBP},
		{"diastolic_bp", r.DiastolicBP},
		{"weight_kg", r.Weight},
		{"height_cm", r.Height},
		{"glucose", r.Glucose},
		{"active_calories", r.ActiveCalories},
		{"sleep_duration_hours", r.SleepDurationHours},
	}

	present := 0
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		present++
		bounds := vitalRanges[f.name]
		if *f.value < bounds.min || *f.value > bounds.max {
			return &ValidationError{
				Field:  f.name,
				Reason: fmt.Sprintf("must be between %g and %g, got %g", bounds.min, bounds.max, *f.value),
			}
		}
	}

	if r.StepCount != nil {
		present++
		bounds := vitalRanges["step_count"]
		if float64(*r.StepCount) < bounds.min || float64(*r.StepCount) > bounds.max {
			return &ValidationError{
				Field:  "step_count",
				Reason: fmt.Sprintf("must be between %g and %g, got %d", bounds.min, bounds.max, *r.StepCount),
			}
		}
	}

	if r.Source != "" && r.Source != SourceWearable && r.Source != SourceManual {
		return &ValidationError{Field: "source", Reason: fmt.Sprintf("must be %q or %q", SourceWearable, SourceManual)}
	}

	if present == 0 {
		return &ValidationError{Field: "vitals", Reason: "at least one vital sign is required"}
	}
	return nil
}
