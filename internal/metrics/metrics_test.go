package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPollCycle(t *testing.T) {
	before := testutil.ToFloat64(PollCycles.WithLabelValues(ResultNetworkError))

	RecordPollCycle(ResultNetworkError, 20*time.Millisecond)
	RecordPollCycle(ResultNetworkError, 30*time.Millisecond)

	got := testutil.ToFloat64(PollCycles.WithLabelValues(ResultNetworkError))
	if got-before != 2 {
		t.Errorf("network_error cycles delta = %v, want 2", got-before)
	}
}

func TestRecordCommand(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{name: "success", err: nil, result: "success"},
		{name: "failure", err: errors.New("router unreachable"), result: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(Commands.WithLabelValues("route", tt.result))
			RecordCommand("route", tt.err)
			got := testutil.ToFloat64(Commands.WithLabelValues("route", tt.result))
			if got-before != 1 {
				t.Errorf("route/%s delta = %v, want 1", tt.result, got-before)
			}
		})
	}
}

func TestSetConnected(t *testing.T) {
	SetConnected(true)
	if got := testutil.ToFloat64(Connected); got != 1 {
		t.Errorf("Connected = %v, want 1", got)
	}
	SetConnected(false)
	if got := testutil.ToFloat64(Connected); got != 0 {
		t.Errorf("Connected = %v, want 0", got)
	}
}

func TestHandler(t *testing.T) {
	RecordNotification("matrix")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "kumo_notifications_total") {
		t.Error("metrics output missing kumo_notifications_total")
	}
}
