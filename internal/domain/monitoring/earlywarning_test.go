package monitoring

import "testing"

func findSign(signs []EarlyWarningSign, condition string) *EarlyWarningSign {
	for i := range signs {
		if signs[i].Condition == condition {
			return &signs[i]
		}
	}
	return nil
}

func TestEarlyWarnings_CardiovascularEventRisk(t *testing.T) {
	signs := EarlyWarnings([]string{"heart_rate elevated", "hrv depressed"}, nil)
	sign := findSign(signs, "Cardiovascular Event Risk")
	if sign == nil {
		t.Fatalf("expected Cardiovascular Event Risk, got %v", signs)
	}
	if sign.Risk != RiskHigh || sign.Window != "days to weeks ahead" {
		t.Errorf("unexpected sign: %+v", sign)
	}
	// Combined condition replaces the single-signal one.
	if findSign(signs, "Cardiovascular Stress") != nil {
		t.Error("did not expect Cardiovascular Stress alongside Event Risk")
	}
}

func TestEarlyWarnings_CardiovascularStress(t *testing.T) {
	for _, anomalies := range [][]string{
		{"heart_rate elevated"},
		{"hrv depressed"},
	} {
		signs := EarlyWarnings(anomalies, nil)
		sign := findSign(signs, "Cardiovascular Stress")
		if sign == nil {
			t.Fatalf("anomalies %v: expected Cardiovascular Stress, got %v", anomalies, signs)
		}
		if sign.Risk != RiskMedium {
			t.Errorf("expected MEDIUM, got %s", sign.Risk)
		}
	}
}

func TestEarlyWarnings_RespiratoryInfectionRisk(t *testing.T) {
	signs := EarlyWarnings([]string{"respiratory rate elevated", "spo2 low"}, nil)
	sign := findSign(signs, "Respiratory Infection Risk")
	if sign == nil {
		t.Fatalf("expected Respiratory Infection Risk, got %v", signs)
	}
	if sign.Risk != RiskMedium || sign.Window != "days ahead" {
		t.Errorf("unexpected sign: %+v", sign)
	}

	// The prose fallback tag also matches via the oxygen substring.
	signs = EarlyWarnings([]string{"elevated respiratory rate", "low oxygen saturation"}, nil)
	if findSign(signs, "Respiratory Infection Risk") == nil {
		t.Errorf("expected Respiratory Infection Risk from prose tags, got %v", signs)
	}
}

func TestEarlyWarnings_PossibleInfection(t *testing.T) {
	signs := EarlyWarnings(nil, &BiometricReading{Temperature: f64(38.2)})
	sign := findSign(signs, "Possible Infection")
	if sign == nil {
		t.Fatalf("expected Possible Infection, got %v", signs)
	}
	if sign.Risk != RiskMedium || sign.Window != "hours to days ahead" {
		t.Errorf("unexpected sign: %+v", sign)
	}

	signs = EarlyWarnings(nil, &BiometricReading{Temperature: f64(37.5)})
	if findSign(signs, "Possible Infection") != nil {
		t.Error("37.5 is the boundary and must not trigger")
	}
}

func TestEarlyWarnings_Empty(t *testing.T) {
	signs := EarlyWarnings(nil, nil)
	if signs == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(signs) != 0 {
		t.Errorf("expected no signs, got %v", signs)
	}
}

func TestEarlyWarnings_Idempotent(t *testing.T) {
	anomalies := []string{"heart_rate elevated", "hrv depressed"}
	r := &BiometricReading{Temperature: f64(38)}
	first := EarlyWarnings(anomalies, r)
	second := EarlyWarnings(anomalies, r)
	if len(first) != len(second) {
		t.Errorf("expected identical results, got %v vs %v", first, second)
	}
}
