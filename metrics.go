package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	handshakeBadRoomId   = "bad_room_id"
	handshakeUnknownRoom = "unknown_room"
	handshakeReadFailed  = "read_failed"
)

// Metrics owns its registry so that servers built in tests never collide on
// the global default one.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsTotal      prometheus.Counter
	ActiveConnections     prometheus.Gauge
	MessagesRelayed       prometheus.Counter
	HistoryAppendFailures prometheus.Counter
	DeliveriesDropped     prometheus.Counter
	HandshakeFailures     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_connections_total",
			Help: "Accepted chat connections.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_active_connections",
			Help: "Chat connections currently open.",
		}),
		MessagesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_messages_relayed_total",
			Help: "Chat lines broadcast to a room.",
		}),
		HistoryAppendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_history_append_failures_total",
			Help: "Chat lines that could not be written to history.",
		}),
		DeliveriesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_deliveries_dropped_total",
			Help: "Broadcast deliveries skipped because the recipient was closed or too slow.",
		}),
		HandshakeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_handshake_failures_total",
			Help: "Connections closed before joining a room.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.ConnectionsTotal,
		m.ActiveConnections,
		m.MessagesRelayed,
		m.HistoryAppendFailures,
		m.DeliveriesDropped,
		m.HandshakeFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
