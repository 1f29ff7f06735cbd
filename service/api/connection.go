package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (compatible; quant-trading-journey/1.0)"

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client  *http.Client
	host    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

type Client struct {
	Connection Connection
	ApiKey     string
}

type ClientOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	// breaker opens after this many consecutive failures
	MaxFailures uint32
}

// StatusError is returned for responses the provider should be retried for
// later: throttling and server errors. They count against the breaker.
type StatusError struct {
	Host       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Host, e.StatusCode)
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:           time.Second * 30,
		RequestsPerSecond: 2,
		MaxFailures:       5,
	}
}

func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	if err := conn.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("error waiting for rate limiter: %w", err)
	}

	endpoint.Scheme = "https"
	endpoint.Host = conn.host
	targetUrl := endpoint.String()

	start := time.Now()
	res, err := conn.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetUrl, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		response, err := conn.client.Do(req)
		if err != nil {
			return nil, err
		}
		if response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= http.StatusInternalServerError {
			response.Body.Close()
			return nil, &StatusError{Host: conn.host, StatusCode: response.StatusCode}
		}
		return response, nil
	})
	observeRequest(conn.host, res, err, time.Since(start))

	if err != nil {
		log.Debug().Err(err).Str("host", conn.host).Str("path", endpoint.Path).Msg("provider request failed")
		return nil, err
	}
	return res.(*http.Response), nil
}

func ClientFactory(host string, apiKey string, options ClientOptions) *Client {
	client := &http.Client{
		Timeout: options.Timeout,
	}

	return &Client{
		Connection: newClientHost(client, host, options),
		ApiKey:     apiKey,
	}
}

func newClientHost(client *http.Client, host string, options ClientOptions) *ClientHost {
	limit := rate.Inf
	if options.RequestsPerSecond > 0 {
		limit = rate.Limit(options.RequestsPerSecond)
	}

	maxFailures := options.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultClientOptions().MaxFailures
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: time.Second * 30,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("host", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			breakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &ClientHost{
		client:  client,
		host:    host,
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
	}
}
