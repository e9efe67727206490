package monitoring

// AnalyzeThresholds is the local, rule-based scorer used whenever the
// external scoring service is unreachable. It never fails and never calls
// out of process. Each vital is judged independently; RED takes precedence
// and is never downgraded by a later rule.
func AnalyzeThresholds(r *BiometricReading) *Assessment {
	level := LevelGreen
	anomalies := []string{}

	if hr := restingOrHeartRate(r); hr != nil {
		switch {
		case *hr > 120:
			anomalies = append(anomalies, "significantly elevated heart rate")
			level = Escalate(level, LevelRed)
		case *hr > 100:
			anomalies = append(anomalies, "elevated resting heart rate")
			level = Escalate(level, LevelYellow)
		}
	}

	if r.SpO2 != nil {
		switch {
		case *r.SpO2 < 90:
			anomalies = append(anomalies, "critically low oxygen saturation")
			level = Escalate(level, LevelRed)
		case *r.SpO2 < 95:
			anomalies = append(anomalies, "low oxygen saturation")
			level = Escalate(level, LevelYellow)
		}
	}

	if (r.SystolicBP != nil && *r.SystolicBP > 140) || (r.DiastolicBP != nil && *r.DiastolicBP > 90) {
		anomalies = append(anomalies, "elevated blood pressure")
		level = Escalate(level, LevelYellow)
	}

	if r.RespiratoryRate != nil && *r.RespiratoryRate > 20 {
		anomalies = append(anomalies, "elevated respiratory rate")
		level = Escalate(level, LevelYellow)
	}

	return &Assessment{Level: level, Anomalies: anomalies}
}

// restingOrHeartRate prefers the resting heart rate when both are present.
func restingOrHeartRate(r *BiometricReading) *float64 {
	if r.RestingHeartRate != nil {
		return r.RestingHeartRate
	}
	return r.HeartRate
}

// ReadinessForLevel maps an alert level to the readiness score the fallback
// path reports: GREEN 100, YELLOW 70, RED 40.
func ReadinessForLevel(level AlertLevel) int {
	switch level {
	case LevelRed:
		return 40
	case LevelYellow:
		return 70
	default:
		return 100
	}
}
