package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStage(t *testing.T) {
	StageRunsTotal.Reset()

	RecordStage("summary", "succeeded", 1.5)
	RecordStage("summary", "succeeded", 0.5)
	RecordStage("summary", "failed", 0.1)

	if got := testutil.ToFloat64(StageRunsTotal.WithLabelValues("summary", "succeeded")); got != 2 {
		t.Errorf("Expected counter value 2, got %f", got)
	}
	if got := testutil.ToFloat64(StageRunsTotal.WithLabelValues("summary", "failed")); got != 1 {
		t.Errorf("Expected counter value 1, got %f", got)
	}
}

func TestRecordStaleResult(t *testing.T) {
	StaleResultsTotal.Reset()

	RecordStaleResult("transcription")

	if got := testutil.ToFloat64(StaleResultsTotal.WithLabelValues("transcription")); got != 1 {
		t.Errorf("Expected counter value 1, got %f", got)
	}
}

func TestSetActiveSessions(t *testing.T) {
	SetActiveSessions(3)
	if got := testutil.ToFloat64(ActiveSessions); got != 3 {
		t.Errorf("Expected gauge value 3, got %f", got)
	}
	SetActiveSessions(0)
	if got := testutil.ToFloat64(ActiveSessions); got != 0 {
		t.Errorf("Expected gauge value 0, got %f", got)
	}
}
