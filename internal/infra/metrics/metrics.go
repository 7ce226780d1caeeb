package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foodgram"

type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	shoppingLists *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// New регистрирует коллекторы в reg. В main это prometheus.NewRegistry(),
// в тестах тоже отдельный реестр, чтобы не ловить duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		shoppingLists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_lists_total",
			Help:      "Generated shopping lists by format and outcome.",
		}, []string{"format", "outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.duration, m.shoppingLists)
	return m
}

// Handler отдаёт /metrics для своего реестра.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware считает запросы по шаблону маршрута chi (а не по сырому пути,
// иначе id рецептов раздуют кардинальность).
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ShoppingList фиксирует выгрузку списка покупок: outcome = ok|empty|error.
func (m *Metrics) ShoppingList(format, outcome string) {
	if m == nil {
		return
	}
	m.shoppingLists.WithLabelValues(format, outcome).Inc()
}
