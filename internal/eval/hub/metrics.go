package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionsGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "llmeval_hub_connections",
		Help: "Number of currently attached subscriber connections",
	})

var evictionsCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "llmeval_hub_evictions_total",
		Help: "Total number of evicted subscriber connections",
	})

var sendFailuresCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "llmeval_hub_send_failures_total",
		Help: "Total number of failed event deliveries",
	})
