// Package metrics exposes announcement flow counters in the Prometheus format.
package metrics

import (
	"announcebot/internal/core/domain"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "announcebot"

const (
	OutcomeCompleted        = "completed"
	OutcomePermissionDenied = "permission_denied"
	OutcomeDeliveryError    = "delivery_error"
	OutcomeTimedOut         = "timed_out"
	OutcomeAborted          = "aborted"
)

// Prometheus records flow lifecycle events on its own registry.
type Prometheus struct {
	reg *prometheus.Registry

	started  prometheus.Counter
	finished *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		reg: prometheus.NewRegistry(),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_started_total",
			Help:      "Announcement flows started",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_finished_total",
			Help:      "Announcement flows that reached a terminal stage, by outcome",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_rejected_total",
			Help:      "Flow callbacks rejected as stale or invalid, by step",
		}, []string{"step", "reason"}),
	}

	p.reg.MustRegister(p.started, p.finished, p.rejected)

	return p
}

func (p *Prometheus) FlowStarted() {
	p.started.Inc()
}

func (p *Prometheus) FlowFinished(stage domain.Stage, reason error) {
	p.finished.WithLabelValues(outcome(stage, reason)).Inc()
}

func (p *Prometheus) StepRejected(step domain.Step, reason error) {
	label := "invalid"
	if errors.Is(reason, domain.ErrStaleInteraction) {
		label = "stale"
	}

	p.rejected.WithLabelValues(string(step), label).Inc()
}

// Router serves the registry on /metrics and a liveness probe on /healthz.
func (p *Prometheus) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{}))

	return r
}

// Listen serves the router on addr until ctx is cancelled.
func (p *Prometheus) Listen(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           p.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Msg("metrics listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("stopping metrics listener")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}

func outcome(stage domain.Stage, reason error) string {
	switch {
	case stage == domain.Completed:
		return OutcomeCompleted
	case errors.Is(reason, domain.ErrPermissionDenied):
		return OutcomePermissionDenied
	case errors.Is(reason, domain.ErrDeliveryFailed):
		return OutcomeDeliveryError
	case errors.Is(reason, domain.ErrTimedOut):
		return OutcomeTimedOut
	default:
		return OutcomeAborted
	}
}
