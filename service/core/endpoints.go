package core

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/guregu/null/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	"github.com/ImSeekingAlpha/Quant-trading-journey/data/repos"
	"github.com/ImSeekingAlpha/Quant-trading-journey/service/api"
	sm "github.com/ImSeekingAlpha/Quant-trading-journey/service/models"
)

const (
	DefaultAddr = ":8080"
)

var httpRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Handled api requests by route and status",
	},
	[]string{"route", "status"},
)

func GetHttpServer(sc *ServiceContext) *http.Server {
	addr := DefaultAddr
	if sc.Config != nil && sc.Config.Addr != "" {
		addr = sc.Config.Addr
	}

	return &http.Server{
		Addr:           addr,
		Handler:        NewRouter(sc),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   2 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
}

func NewRouter(sc *ServiceContext) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", ping)
		r.Get("/prices", func(w http.ResponseWriter, req *http.Request) { getPrices(w, req, sc) })
		r.Get("/snapshots/{name}", func(w http.ResponseWriter, req *http.Request) { getSnapshot(w, req, sc) })
		r.Post("/gaps", postGaps)
		r.Post("/performance", func(w http.ResponseWriter, req *http.Request) { postPerformance(w, req, sc) })
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()

		log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("handled request")
	})
}

func ping(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"message": "pong"})
}

func getPrices(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	req, err := parsePriceRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	prices, err := sc.Retriever.Fetch(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOk(w, r, &sm.PricesResponse{Table: prices.Table, Series: prices.Series, SavedTo: prices.SavedTo})
}

func getSnapshot(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	name := chi.URLParam(r, "name")
	if err := repos.ValidateSnapshotName(name); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	table, err := sc.Retriever.Load(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOk(w, r, &sm.PricesResponse{Table: table})
}

func postGaps(w http.ResponseWriter, r *http.Request) {
	var body sm.GapsRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	if body.Table == nil {
		writeError(w, r, fmt.Errorf("%w: table is required", ErrInvalidRequest))
		return
	}

	writeOk(w, r, &sm.GapsResponse{Report: AnalyzeGaps(body.Table)})
}

func postPerformance(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	var body sm.PerformanceRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	if body.Returns == nil || body.Returns.Empty() {
		writeError(w, r, fmt.Errorf("%w: returns are required", ErrInvalidRequest))
		return
	}

	riskFree, err := riskFreeFromRequest(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	options := sc.SharpeOptions(riskFree, body.PeriodsPerYear)

	cagr, err := CAGR(body.Returns, options.PeriodsPerYear)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sharpe, err := Sharpe(r.Context(), body.Returns, options)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOk(w, r, &sm.PerformanceResponse{PeriodsPerYear: options.PeriodsPerYear, CAGR: cagr, Sharpe: sharpe})
}

func riskFreeFromRequest(body sm.PerformanceRequest) (RiskFree, error) {
	if body.RiskFreeRate.Valid && body.RiskFreeSeries != nil {
		return RiskFree{}, fmt.Errorf("%w: riskFreeRate and riskFreeSeries are mutually exclusive", ErrInvalidRequest)
	}
	if body.RiskFreeSeries == nil {
		return RiskFree{Rate: body.RiskFreeRate}, nil
	}
	series, ok := body.RiskFreeSeries.Single()
	if !ok {
		return RiskFree{}, fmt.Errorf("%w: riskFreeSeries must have exactly one column", ErrInvalidRequest)
	}
	return RiskFree{Series: series}, nil
}

func parsePriceRequest(r *http.Request) (m.PriceRequest, error) {
	q := r.URL.Query()
	req := m.PriceRequest{
		Tickers:      strings.Split(q.Get("tickers"), ","),
		Period:       q.Get("period"),
		Interval:     q.Get("interval"),
		Adjust:       true,
		SnapshotName: q.Get("name"),
	}

	if req.SnapshotName != "" {
		if err := repos.ValidateSnapshotName(req.SnapshotName); err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	if _, err := api.ParseTimeInterval(req.Interval); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := api.ValidatePeriod(req.Period); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var err error
	if req.Start, err = parseDate(q.Get("start")); err != nil {
		return req, err
	}
	if req.End, err = parseDate(q.Get("end")); err != nil {
		return req, err
	}
	if req.Adjust, err = parseBool(q.Get("adjust"), true); err != nil {
		return req, err
	}
	if req.Persist, err = parseBool(q.Get("persist"), false); err != nil {
		return req, err
	}
	return req, nil
}

func parseDate(s string) (null.Time, error) {
	if s == "" {
		return null.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return null.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrInvalidRequest, s)
	}
	return null.TimeFrom(t), nil
}

func parseBool(s string, fallback bool) (bool, error) {
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback, fmt.Errorf("%w: invalid boolean %q", ErrInvalidRequest, s)
	}
	return b, nil
}

func writeOk[T any](w http.ResponseWriter, r *http.Request, data *T) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, sm.GetServiceResponseOk(data))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}

	render.Status(r, status)
	render.JSON(w, r, sm.GetServiceResponseError(err.Error()))
}

func statusFor(err error) int {
	var (
		noData      *m.NoDataError
		emptySeries *m.EmptySeriesError
		unavailable *m.DataUnavailableError
	)
	switch {
	case errors.As(err, &noData):
		return http.StatusNotFound
	case errors.As(err, &emptySeries):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, m.ErrInvalidTable), errors.Is(err, m.ErrInvalidSnapshotName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
