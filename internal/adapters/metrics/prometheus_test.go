package metrics

import (
	"announcebot/internal/core/domain"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		stage    domain.Stage
		reason   error
		expected string
	}{
		{"completed", domain.Completed, nil, OutcomeCompleted},
		{"permission denied", domain.Aborted, fmt.Errorf("%w: 403", domain.ErrPermissionDenied), OutcomePermissionDenied},
		{"delivery error", domain.Aborted, &domain.DeliveryError{ChannelID: "c", Cause: io.EOF}, OutcomeDeliveryError},
		{"timed out", domain.Aborted, domain.ErrTimedOut, OutcomeTimedOut},
		{"unknown reason", domain.Aborted, nil, OutcomeAborted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, outcome(tc.stage, tc.reason))
		})
	}
}

func TestPrometheus_Counters(t *testing.T) {
	p := NewPrometheus()

	p.FlowStarted()
	p.FlowStarted()
	p.FlowFinished(domain.Completed, nil)
	p.FlowFinished(domain.Aborted, domain.ErrTimedOut)
	p.StepRejected(domain.StepSend, domain.ErrStaleInteraction)
	p.StepRejected(domain.StepForm, domain.ErrValidation)

	assert.InDelta(t, 2, testutil.ToFloat64(p.started), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.finished.WithLabelValues(OutcomeCompleted)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.finished.WithLabelValues(OutcomeTimedOut)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.rejected.WithLabelValues("send", "stale")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.rejected.WithLabelValues("form", "invalid")), 0)
}

func TestPrometheus_Router(t *testing.T) {
	p := NewPrometheus()
	p.FlowStarted()

	srv := httptest.NewServer(p.Router())
	defer srv.Close()

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/metrics", http.StatusOK, "announcebot_flows_started_total 1"},
		{"/missing", http.StatusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tc.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Contains(t, string(body), tc.wantBody)
		})
	}
}
