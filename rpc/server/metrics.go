package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Server Metrics
// --------------------------------------------------------------------------

// serverMetrics holds all counters of one server instance.
// Each server owns its own metrics.Set so several servers can live in one process.
type serverMetrics struct {
	set *metrics.Set

	commandErrors     *metrics.Counter
	snapshotSaves     *metrics.Counter
	snapshotSaveFails *metrics.Counter
}

// connectionStats is the part of the transport the metrics read from
type connectionStats interface {
	ActiveConnections() int
	TotalConnections() uint64
}

// newServerMetrics creates the metric set. Connection and key counts are
// read from conns and storeKeys on every scrape.
func newServerMetrics(conns connectionStats, storeKeys func() int) *serverMetrics {
	set := metrics.NewSet()

	m := &serverMetrics{
		set:               set,
		commandErrors:     set.NewCounter("mkv_command_errors_total"),
		snapshotSaves:     set.NewCounter("mkv_snapshot_saves_total"),
		snapshotSaveFails: set.NewCounter("mkv_snapshot_save_errors_total"),
	}

	set.NewGauge("mkv_connections_total", func() float64 {
		return float64(conns.TotalConnections())
	})
	set.NewGauge("mkv_connections_active", func() float64 {
		return float64(conns.ActiveConnections())
	})
	set.NewGauge("mkv_store_keys", func() float64 {
		return float64(storeKeys())
	})

	return m
}

// incCommand increments the per command counter
func (m *serverMetrics) incCommand(t common.CommandType) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`mkv_commands_total{cmd=%q}`, t.String())).Inc()
}

// WritePrometheus writes all metrics in Prometheus text exposition format
func (m *serverMetrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Metrics Endpoint
// --------------------------------------------------------------------------

// startMetricsEndpoint serves /metrics on the given address until ctx is done
func (m *serverMetrics) startMetricsEndpoint(ctx context.Context, endpoint string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		m.WritePrometheus(w)
	})

	srv := &http.Server{
		Addr:              endpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	go func() {
		Logger.Infof("Serving metrics on http://%s/metrics", endpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics endpoint failed: %v", err)
		}
	}()
}
