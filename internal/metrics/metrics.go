// Package metrics holds the process Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_auth_attempts_total",
			Help: "Sign-in and sign-up attempts by outcome",
		},
		[]string{"action", "result"},
	)
	DashboardRecomputes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tasker_dashboard_recomputes_total",
			Help: "Dashboard views recomputed from a snapshot",
		},
	)
	LiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasker_live_subscriptions",
			Help: "Open record store subscriptions",
		},
	)
	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasker_ws_clients",
			Help: "Connected websocket clients",
		},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_dashboard_cache_total",
			Help: "Dashboard cache lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RLRequests,
		RLBlocked,
		AuthAttempts,
		DashboardRecomputes,
		LiveSubscriptions,
		WSClients,
		CacheLookups,
	)
}
