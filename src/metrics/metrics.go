// Package metrics holds the prometheus instruments of both processes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Client sessions
	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_ws_sessions",
		Help: "Active client websocket sessions",
	})
	SessionOpenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_ws_session_open_total",
		Help: "Total client sessions opened",
	})
	SessionCloseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_ws_session_close_total",
		Help: "Total client sessions closed, partitioned by reason",
	}, []string{"reason"}) // closed/slow/shutdown
	ClientMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_ws_client_messages_total",
		Help: "Inbound client messages by type",
	}, []string{"type"}) // subscribe/unsubscribe/ping/unknown/invalid
	MsgsOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_ws_msgs_out_total",
		Help: "Total websocket messages written",
	})
	BytesOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_ws_bytes_out_total",
		Help: "Total websocket bytes written",
	})
	WriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_ws_write_errors_total",
		Help: "Total websocket write errors",
	})

	// Poll loop
	Subscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_subscriptions",
		Help: "Contracts in the subscription registry",
	})
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_poll_ticks_total",
		Help: "Poll ticks, partitioned by outcome",
	}, []string{"outcome"}) // polled/skipped
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_poll_tick_duration_seconds",
		Help:    "Duration of a polled tick",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
	QuotesBroadcastTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_quotes_broadcast_total",
		Help: "Quote samples broadcast to clients",
	})
	QuotesSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_quotes_suppressed_total",
		Help: "Quote samples dropped because bid, ask and last were all zero",
	})
	FieldFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_source_field_failures_total",
		Help: "Quote source field queries that failed or returned no value",
	}, []string{"field"})

	// Supervisor
	WorkerStartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_worker_starts_total",
		Help: "Worker processes spawned",
	})
	WorkerExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_worker_exits_total",
		Help: "Worker process exits, partitioned by clean/error/killed",
	}, []string{"kind"})
	WorkerUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_worker_up",
		Help: "1 while a worker process is running",
	})
	ControlRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_control_records_total",
		Help: "Upstream control records, partitioned by type",
	}, []string{"type"}) // log/status/plain
)

func OnSessionOpen() {
	Sessions.Inc()
	SessionOpenTotal.Inc()
}

func OnSessionClose(reason string) {
	Sessions.Dec()
	SessionCloseTotal.WithLabelValues(reason).Inc()
}

func ObserveWrite(bytes int, err error) {
	if err != nil {
		WriteErrorsTotal.Inc()
		return
	}
	MsgsOutTotal.Inc()
	BytesOutTotal.Add(float64(bytes))
}

func ObserveTick(polled bool, dur time.Duration) {
	if !polled {
		TicksTotal.WithLabelValues("skipped").Inc()
		return
	}
	TicksTotal.WithLabelValues("polled").Inc()
	TickDuration.Observe(dur.Seconds())
}
