// Package metrics exposes the bot's prometheus counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	CommandsProcessed *prometheus.CounterVec
	Rejections        prometheus.Counter
	TransportFailures prometheus.Counter
	Notifications     prometheus.Counter
}

// New registers the bot counters on reg (pass
// prometheus.DefaultRegisterer in production).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tipbot_commands_total",
			Help: "Commands processed, by command name.",
		}, []string{"command"}),
		Rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tipbot_rejections_total",
			Help: "Commands rejected by validation.",
		}),
		TransportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tipbot_transport_failures_total",
			Help: "Daemon or directory failures observed while handling commands.",
		}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tipbot_notifications_total",
			Help: "Operator notifications sent.",
		}),
	}
	reg.MustRegister(m.CommandsProcessed, m.Rejections, m.TransportFailures, m.Notifications)
	return m
}
