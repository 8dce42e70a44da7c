// Package metrics exposes the agent's Prometheus instruments.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "wrap_agent"

var (
	// Registry holds every instrument the agent exports
	Registry = prometheus.NewRegistry()

	// Operations counts scheduler cycles by kind (wrap/unwrap) and result (succeeded/failed)
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Wrap and unwrap operations attempted, by kind and result.",
	}, []string{"kind", "result"})

	// FeeQuotes counts freshly produced fee quotes by the tier that produced them
	FeeQuotes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fee_quotes_total",
		Help:      "Fee quotes produced, by estimation tier.",
	}, []string{"tier"})

	// Backoffs counts cycles that escaped their own error handling
	Backoffs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backoffs_total",
		Help:      "Scheduler cycles that failed outside operation handling and triggered a backoff.",
	})

	// Running is 1 while a scheduler loop is active
	Running = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "running",
		Help:      "Whether the wrap scheduler loop is running.",
	})
)

func init() {
	Registry.MustRegister(
		Operations,
		FeeQuotes,
		Backoffs,
		Running,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}()

	logger.WithField("addr", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
