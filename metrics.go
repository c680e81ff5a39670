/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	votes   *prometheus.CounterVec
	clients prometheus.Gauge
	dropped prometheus.Counter
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "votebox",
			Name:      "votes_total",
			Help:      "Votes accepted, by response.",
		}, []string{"response"}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "votebox",
			Name:      "realtime_clients",
			Help:      "Currently connected realtime clients.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "votebox",
			Name:      "realtime_dropped_total",
			Help:      "Realtime clients dropped for falling behind.",
		}),
	}

	m.registry.MustRegister(
		m.votes,
		m.clients,
		m.dropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
