package monitoring

import (
	"testing"

	"github.com/google/uuid"
)

func TestEscalate(t *testing.T) {
	tests := []struct {
		a, b, want AlertLevel
	}{
		{LevelGreen, LevelGreen, LevelGreen},
		{LevelGreen, LevelYellow, LevelYellow},
		{LevelYellow, LevelGreen, LevelYellow},
		{LevelYellow, LevelRed, LevelRed},
		{LevelRed, LevelYellow, LevelRed},
		{LevelRed, LevelGreen, LevelRed},
	}
	for _, tt := range tests {
		if got := Escalate(tt.a, tt.b); got != tt.want {
			t.Errorf("Escalate(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNewHealthAlert_Message(t *testing.T) {
	patientID := uuid.New()
	readingID := uuid.New()

	a := NewHealthAlert(patientID, readingID, LevelRed, []string{"significantly elevated heart rate"})
	if a.Title != "Health Alert: RED" {
		t.Errorf("unexpected title: %s", a.Title)
	}
	if a.Message != "Abnormal readings detected: significantly elevated heart rate" {
		t.Errorf("unexpected message: %s", a.Message)
	}
	if a.PatientID != patientID || a.ReadingID != readingID {
		t.Error("expected patient and reading references to be set")
	}
	if a.Resolved {
		t.Error("new alerts must start unresolved")
	}
}

func TestNewHealthAlert_MessageTruncation(t *testing.T) {
	a := NewHealthAlert(uuid.New(), uuid.New(), LevelYellow, []string{
		"elevated resting heart rate",
		"low oxygen saturation",
		"elevated blood pressure",
	})
	want := "Abnormal readings detected: elevated resting heart rate, low oxygen saturation…"
	if a.Message != want {
		t.Errorf("unexpected message:\n got %q\nwant %q", a.Message, want)
	}
	// The full list is still carried on the alert itself.
	if len(a.Anomalies) != 3 {
		t.Errorf("expected 3 anomalies, got %d", len(a.Anomalies))
	}
}

func TestNewHealthAlert_TwoAnomalies(t *testing.T) {
	a := NewHealthAlert(uuid.New(), uuid.New(), LevelYellow, []string{"a", "b"})
	if a.Message != "Abnormal readings detected: a, b" {
		t.Errorf("unexpected message: %q", a.Message)
	}
}
