// Package promobserver exports xpubsub lifecycle events as Prometheus metrics.
package promobserver

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trickstertwo/xpubsub"
)

// metricNamespace is the namespace of every collector in this package.
const metricNamespace = "xpubsub"

// Observer counts bus lifecycle events. Register its collectors with
// Register before use; one Observer may serve several buses.
type Observer struct {
	emits       *prometheus.CounterVec
	emitErrors  *prometheus.CounterVec
	emitSeconds *prometheus.HistogramVec
	handlerErrs *prometheus.CounterVec
	listeners   prometheus.Counter
	attached    prometheus.Counter
}

var _ xpubsub.Observer = (*Observer)(nil)

// New creates an Observer with unregistered collectors.
func New() *Observer {
	return &Observer{
		emits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "emits_total",
				Help:      "Events emitted, by event name.",
			},
			[]string{"event"},
		),
		emitErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "emit_errors_total",
				Help:      "Emits that returned an error, by event name.",
			},
			[]string{"event"},
		),
		emitSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricNamespace,
				Name:      "emit_duration_seconds",
				Help:      "Synchronous dispatch time of an emit, by event name.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"event"},
		),
		handlerErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "handler_errors_total",
				Help:      "Handlers that failed and aborted a fan-out pass, by event name.",
			},
			[]string{"event"},
		),
		listeners: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "listeners_installed_total",
				Help:      "Native subscriptions installed.",
			},
		),
		attached: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "attached_buses_total",
				Help:      "Buses created through Attach.",
			},
		),
	}
}

// Collectors returns every collector of the Observer.
func (o *Observer) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		o.emits,
		o.emitErrors,
		o.emitSeconds,
		o.handlerErrs,
		o.listeners,
		o.attached,
	}
}

// Register registers the collectors with reg.
func (o *Observer) Register(reg prometheus.Registerer) error {
	for _, c := range o.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (o *Observer) OnBusEvent(e xpubsub.BusEvent) {
	switch e.Type {
	case xpubsub.EventEmitStart:
		o.emits.WithLabelValues(e.EventName).Inc()
	case xpubsub.EventEmitDone:
		o.emitSeconds.WithLabelValues(e.EventName).Observe(e.Duration.Seconds())
		if e.Err != nil {
			o.emitErrors.WithLabelValues(e.EventName).Inc()
		}
	case xpubsub.EventHandlerError:
		o.handlerErrs.WithLabelValues(e.EventName).Inc()
	case xpubsub.EventListenerInstalled:
		o.listeners.Inc()
	case xpubsub.EventAttach:
		o.attached.Inc()
	}
}
