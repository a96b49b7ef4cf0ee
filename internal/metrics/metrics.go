package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cvlab"

// Metrics tracks the user interactions with the sandbox.
type Metrics struct {
	registry        *prometheus.Registry
	Classifications *prometheus.CounterVec
	Steps           *prometheus.CounterVec
	Answers         *prometheus.CounterVec
	Requests        *prometheus.CounterVec
	Sessions        prometheus.Gauge
}

// New creates the metrics on their own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications",
				Help:      "knn classifications by predicted label",
			}, []string{"label"}),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kmeans_steps",
				Help:      "k-means steps by resulting phase",
			}, []string{"phase"}),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quiz_answers",
				Help:      "quiz answers by outcome",
			}, []string{"outcome"}),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests",
				Help:      "http requests by route and status code",
			}, []string{"route", "code"}),
		Sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions",
				Help:      "open sandbox sessions",
			}),
	}
	m.registry.MustRegister(m.Classifications, m.Steps, m.Answers, m.Requests, m.Sessions)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Answer records a quiz answer.
func (m *Metrics) Answer(right bool) {
	outcome := "wrong"
	if right {
		outcome = "right"
	}
	m.Answers.WithLabelValues(outcome).Inc()
}
