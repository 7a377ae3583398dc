// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TableTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_ticks_total",
			Help: "Snapshot swaps published per table.",
		},
		[]string{"table", "kind"},
	)

	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "table_rows",
			Help: "Rows in the current snapshot of each table.",
		},
		[]string{"table"},
	)

	PublishedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publisher_rows_total",
			Help: "Rows written through table publishers.",
		},
		[]string{"table"},
	)

	GeneratorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_errors_total",
			Help: "Failed regenerations of function generated tables.",
		},
		[]string{"table"},
	)

	GeneratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generator_duration_seconds",
			Help:    "Time spent building a generated snapshot.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	NamespaceVariables = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "namespace_variables",
		Help: "Variables currently registered in the scripting namespace.",
	})

	ServerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_requests_total",
			Help: "Requests handled by the TCP server, by op and status.",
		},
		[]string{"op", "status"},
	)
)

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
