package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"hark/orchestrator"
)

func TestSessionUsage(t *testing.T) {
	m := New()
	m.SessionUsage(orchestrator.Usage{
		Mode:          orchestrator.Transcription,
		Outcome:       orchestrator.OutcomeInjected,
		Duration:      2 * time.Second,
		AudioBytes:    64000,
		OriginalWords: 4,
		CleanedWords:  3,
	})
	m.SessionUsage(orchestrator.Usage{Mode: orchestrator.Assistant, Outcome: orchestrator.OutcomeStartFailed})

	if got := testutil.ToFloat64(m.Sessions.WithLabelValues("transcription", "injected")); got != 1 {
		t.Errorf("injected = %v", got)
	}
	if got := testutil.ToFloat64(m.Sessions.WithLabelValues("assistant", "start_failed")); got != 1 {
		t.Errorf("start_failed = %v", got)
	}
	if got := testutil.CollectAndCount(m.AudioBytes); got != 1 {
		t.Errorf("audio histogram series = %d", got)
	}
}

func TestRecordingGauge(t *testing.T) {
	m := New()
	m.StatusChanged(orchestrator.Assistant, orchestrator.Recording)
	if got := testutil.ToFloat64(m.Recording.WithLabelValues("assistant")); got != 1 {
		t.Errorf("recording = %v", got)
	}
	m.StatusChanged(orchestrator.Assistant, orchestrator.Processing)
	if got := testutil.ToFloat64(m.Recording.WithLabelValues("assistant")); got != 0 {
		t.Errorf("recording = %v", got)
	}
	if got := testutil.ToFloat64(m.StatusChanges.WithLabelValues("assistant", "processing")); got != 1 {
		t.Errorf("status changes = %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.StatusChanged(orchestrator.Transcription, orchestrator.Recording)
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `hark_recording{mode="transcription"} 1`) {
		t.Errorf("metrics output missing gauge:\n%s", body)
	}
}
