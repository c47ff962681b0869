// Package metrics owns the Prometheus collectors of the web app. Each App gets
// its own registry so tests can build several apps in one process.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests no route claimed, keeping label cardinality
// bounded for scanners probing random paths.
const unmatchedRoute = "unmatched"

type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Domain
	TodosCreated    prometheus.Counter
	TodosDeleted    prometheus.Counter
	UsersRegistered prometheus.Counter
}

// New registers every collector on a fresh registry, including the Go runtime
// and process collectors.
//
// Metrics:
//   - http_requests_total{method,route,status}
//   - http_request_duration_seconds{method,route}
//   - todos_created_total
//   - todos_deleted_total
//   - users_registered_total
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TodosCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "todos_created_total",
			Help: "Total number of todos created",
		}),
		TodosDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "todos_deleted_total",
			Help: "Total number of todos deleted",
		}),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of user accounts registered",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records one observation per request. It must sit outside the
// error middleware so the final status code is visible.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// Unmatched requests end on a Use middleware, whose path is "/".
		route := unmatchedRoute
		if r := c.Route(); r != nil && (r.Path != "/" || c.Path() == "/") {
			route = r.Path
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		m.RequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	}))
}

func (m *Metrics) TodoCreated() {
	if m != nil {
		m.TodosCreated.Inc()
	}
}

func (m *Metrics) TodoDeleted() {
	if m != nil {
		m.TodosDeleted.Inc()
	}
}

func (m *Metrics) UserRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}
