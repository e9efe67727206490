package monitoring

// Recommendations produces ordered guidance text for a fused result. The
// rules are deterministic and the anomaly list is never mutated or
// deduplicated; order only matters for display.
func Recommendations(level AlertLevel, anomalies []string, baseline BaselineStatus) []string {
	if baseline == StatusCalibrating {
		return []string{
			"Baseline calibration is in progress. Keep submitting readings so your normal ranges can be established.",
		}
	}

	switch level {
	case LevelRed:
		recs := []string{
			"Seek immediate medical attention if you are feeling unwell.",
			"Contact your healthcare provider about these readings.",
		}
		if hasAnomalyTag(anomalies, "heart_rate") {
			recs = append(recs, "Avoid strenuous activity until your heart rate returns to its normal range.")
		}
		if hasAnomalyTag(anomalies, "spo2") || hasAnomalyTag(anomalies, "oxygen") {
			recs = append(recs, "Sit upright and take slow, deep breaths.")
		}
		if hasAnomalyTag(anomalies, "respiratory") {
			recs = append(recs, "Rest and monitor your breathing closely.")
		}
		return recs

	case LevelYellow:
		recs := []string{
			"Some deviations from your baseline were detected.",
			"Monitor your symptoms and consider consulting your provider if they persist.",
			"Continue monitoring your vitals regularly.",
		}
		if hasAnomalyTag(anomalies, "heart_rate") {
			recs = append(recs, "Consider light activity only and stay hydrated.")
		}
		if hasAnomalyTag(anomalies, "hrv") {
			recs = append(recs, "Prioritize rest and recovery; reduced HRV can indicate accumulated stress.")
		}
		return recs

	default:
		return []string{
			"All vitals are within your normal ranges.",
			"Keep up your current routine.",
		}
	}
}
