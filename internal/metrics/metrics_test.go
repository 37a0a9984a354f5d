package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecorderCounters(t *testing.T) {
	m := New()
	m.LifecyclePass()
	m.PhaseTransition(domain.PhaseActive, domain.PhaseVoting)
	m.PhaseTransition(domain.PhaseActive, domain.PhaseVoting)
	m.LifecycleError("indeterminate")
	m.VoteCast(true)
	m.VoteCast(false)
	m.VoteRejected("forbidden")
	m.ImageReleaseFailed()

	body := scrape(t, m)
	assert.Contains(t, body, "photo_contest_lifecycle_passes_total 1")
	assert.Contains(t, body, `photo_contest_phase_transitions_total{from="active",to="voting"} 2`)
	assert.Contains(t, body, `photo_contest_lifecycle_errors_total{kind="indeterminate"} 1`)
	assert.Contains(t, body, `photo_contest_votes_total{result="first"} 1`)
	assert.Contains(t, body, `photo_contest_votes_total{result="revote"} 1`)
	assert.Contains(t, body, `photo_contest_votes_total{result="rejected_forbidden"} 1`)
	assert.Contains(t, body, "photo_contest_image_release_failures_total 1")

	assert.NotPanics(t, func() { New() })
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New()
	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/contests/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/contests/abc", nil))

	body := scrape(t, m)
	assert.Contains(t, body, `photo_contest_http_request_duration_seconds_count{method="GET",route="/contests/{id}",status="418"} 1`)
}
