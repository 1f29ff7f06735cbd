package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	providerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Outbound market data requests by host and outcome",
		},
		[]string{"host", "outcome"},
	)

	providerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Outbound market data request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "provider_breaker_state",
			Help: "Circuit breaker state per host (0 closed, 1 half open, 2 open)",
		},
		[]string{"host"},
	)
)

func observeRequest(host string, res interface{}, err error, elapsed time.Duration) {
	providerLatency.WithLabelValues(host).Observe(elapsed.Seconds())
	providerRequests.WithLabelValues(host, outcome(res, err)).Inc()
}

func outcome(res interface{}, err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.As(err, &statusErr):
		return strconv.Itoa(statusErr.StatusCode)
	case err != nil:
		return "error"
	}
	if response, ok := res.(*http.Response); ok {
		return strconv.Itoa(response.StatusCode)
	}
	return "ok"
}
