package admin

import (
	"log"
	"time"

	"github.com/go-chi/chi/v5"
	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger      *log.Logger
	contests    contestapp.ContestService
	submissions contestapp.SubmissionService
	lifecycle   contestapp.LifecycleService
	location    *time.Location
}

// Config provides dependencies for Handler.
type Config struct {
	Logger      *log.Logger
	Contests    contestapp.ContestService
	Submissions contestapp.SubmissionService
	Lifecycle   contestapp.LifecycleService
	// Location はタイムゾーン指定のない日時入力を解釈する地域。
	Location *time.Location
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		logger:      cfg.Logger,
		contests:    cfg.Contests,
		submissions: cfg.Submissions,
		lifecycle:   cfg.Lifecycle,
		location:    loc,
	}
}

// Register mounts admin routes onto router.
// ロールの検査はサービス層のガードが行うので、ここでは認証済みであることだけを前提にする。
func (h *Handler) Register(r chi.Router) {
	r.Post("/contests", h.contestCreateHandler())
	r.Patch("/contests/{id}", h.contestUpdateHandler())
	r.Delete("/contests/{id}", h.contestDeleteHandler())
	r.Post("/contests/{id}/photos/{photoRef}/moderation", h.moderationHandler())
	r.Post("/lifecycle/advance", h.advanceHandler())
}
