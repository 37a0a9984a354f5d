package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

const namespace = "photo_contest"

// Metrics holds the Prometheus collectors of the service. It implements application.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	LifecyclePasses  prometheus.Counter
	PhaseTransitions *prometheus.CounterVec
	LifecycleErrors  *prometheus.CounterVec
	Votes            *prometheus.CounterVec
	ReleaseFailures  prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
}

// New は専用レジストリにコレクタを登録する。テストで何度生成しても重複登録にならない。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LifecyclePasses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_passes_total",
			Help:      "Number of completed lifecycle advance passes",
		}),
		PhaseTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Persisted contest phase transitions",
		}, []string{"from", "to"}),
		LifecycleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_errors_total",
			Help:      "Contests the lifecycle pass could not resolve or persist",
		}, []string{"kind"}),
		Votes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote attempts by result",
		}, []string{"result"}),
		ReleaseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_release_failures_total",
			Help:      "External image releases that failed",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) LifecyclePass() {
	m.LifecyclePasses.Inc()
}

func (m *Metrics) PhaseTransition(from, to domain.Phase) {
	m.PhaseTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) LifecycleError(kind string) {
	m.LifecycleErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) VoteCast(firstVote bool) {
	if firstVote {
		m.Votes.WithLabelValues("first").Inc()
		return
	}
	m.Votes.WithLabelValues("revote").Inc()
}

func (m *Metrics) VoteRejected(reason string) {
	m.Votes.WithLabelValues("rejected_" + reason).Inc()
}

func (m *Metrics) ImageReleaseFailed() {
	m.ReleaseFailures.Inc()
}

// Handler は /metrics 用のハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the private registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware は chi のルートパターン単位でリクエスト時間を記録する。
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
