package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vetclinic"

// Realtime holds the collectors the websocket hub reports to.
type Realtime struct {
	ConnectedClients prometheus.Gauge
	ChannelMembers   prometheus.Gauge
	EventsPublished  *prometheus.CounterVec
	EventsDelivered  *prometheus.CounterVec
	EventsDropped    *prometheus.CounterVec
}

func NewRealtime(reg prometheus.Registerer) *Realtime {
	m := &Realtime{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connected_clients",
			Help:      "Open websocket connections.",
		}),
		ChannelMembers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "channel_memberships",
			Help:      "Client memberships across all channels.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_published_total",
			Help:      "Events handed to the hub for delivery.",
		}, []string{"event"}),
		EventsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_delivered_total",
			Help:      "Events queued on a subscriber connection.",
		}, []string{"event"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber's send buffer was full.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		m.ConnectedClients,
		m.ChannelMembers,
		m.EventsPublished,
		m.EventsDelivered,
		m.EventsDropped,
	)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors installed.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
