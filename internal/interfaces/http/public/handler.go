package public

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
	"github.com/sngm3741/photo-contest/api/internal/interfaces/http/common"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger         *log.Logger
	contests       contestapp.ContestService
	submissions    contestapp.SubmissionService
	voting         contestapp.VotingService
	ranking        contestapp.RankingService
	location       *time.Location
	maxUploadBytes int64
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger         *log.Logger
	Contests       contestapp.ContestService
	Submissions    contestapp.SubmissionService
	Voting         contestapp.VotingService
	Ranking        contestapp.RankingService
	Location       *time.Location
	MaxUploadBytes int64
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = common.DefaultMaxUploadBytes
	}
	return &Handler{
		logger:         cfg.Logger,
		contests:       cfg.Contests,
		submissions:    cfg.Submissions,
		voting:         cfg.Voting,
		ranking:        cfg.Ranking,
		location:       loc,
		maxUploadBytes: maxUpload,
	}
}

// Register mounts all public routes onto the router.
// 閲覧系は optionalAuth（トークンがあれば個人化）、更新系は authMiddleware 必須。
func (h *Handler) Register(r chi.Router, authMiddleware, optionalAuth func(http.Handler) http.Handler) {
	r.With(optionalAuth).Get("/contests", h.contestListHandler())
	r.With(optionalAuth).Get("/contests/{id}", h.contestDetailHandler())
	r.Get("/contests/{id}/countdown", h.countdownHandler())
	r.With(optionalAuth).Get("/contests/{id}/photos", h.galleryHandler())
	r.Get("/contests/{id}/ranking", h.rankingHandler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/auth/verify", h.authVerifyHandler())
		r.Post("/contests/{id}/subscription", h.subscribeHandler())
		r.Delete("/contests/{id}/subscription", h.unsubscribeHandler())
		r.Get("/contests/{id}/submissions/me", h.mySubmissionHandler())
		r.Put("/contests/{id}/slots/{slot}", h.uploadHandler())
		r.Delete("/contests/{id}/photos/{photoRef}", h.deletePhotoHandler())
		r.Put("/contests/{id}/photos/{photoRef}/vote", h.voteHandler())
		r.Get("/contests/{id}/votes/me", h.progressHandler())
	})
}
