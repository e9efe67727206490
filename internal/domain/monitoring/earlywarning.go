package monitoring

import "strings"

// EarlyWarnings maps anomaly-tag combinations and raw reading fields onto
// named risk conditions. It is a pure function, independent of alert level,
// and may return several co-occurring conditions.
func EarlyWarnings(anomalies []string, r *BiometricReading) []EarlyWarningSign {
	signs := []EarlyWarningSign{}

	heartRate := hasAnomalyTag(anomalies, "heart_rate")
	hrv := hasAnomalyTag(anomalies, "hrv")
	switch {
	case heartRate && hrv:
		signs = append(signs, EarlyWarningSign{
			Condition: "Cardiovascular Event Risk",
			Risk:      RiskHigh,
			Window:    "days to weeks ahead",
		})
	case heartRate || hrv:
		signs = append(signs, EarlyWarningSign{
			Condition: "Cardiovascular Stress",
			Risk:      RiskMedium,
			Window:    "days to weeks ahead",
		})
	}

	if hasAnomalyTag(anomalies, "respiratory") && (hasAnomalyTag(anomalies, "spo2") || hasAnomalyTag(anomalies, "oxygen")) {
		signs = append(signs, EarlyWarningSign{
			Condition: "Respiratory Infection Risk",
			Risk:      RiskMedium,
			Window:    "days ahead",
		})
	}

	if r != nil && r.Temperature != nil && *r.Temperature > 37.5 {
		signs = append(signs, EarlyWarningSign{
			Condition: "Possible Infection",
			Risk:      RiskMedium,
			Window:    "hours to days ahead",
		})
	}

	return signs
}

// hasAnomalyTag reports whether any anomaly tag contains the given substring.
func hasAnomalyTag(anomalies []string, substr string) bool {
	for _, a := range anomalies {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}
