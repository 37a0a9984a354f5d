package public

import (
	"context"
	"net/http"
	"strings"
	"time"

	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/sngm3741/photo-contest/api/internal/interfaces/http/common"
)

func (h *Handler) contestListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter contestapp.ContestFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("phase")); raw != "" {
			phase, err := domain.ParsePhase(raw)
			if err != nil {
				common.WriteError(h.logger, w, err, "コンテスト一覧の取得に失敗しました")
				return
			}
			filter.Phase = &phase
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		contests, err := h.contests.List(ctx, filter)
		if err != nil {
			common.WriteError(h.logger, w, err, "コンテスト一覧の取得に失敗しました")
			return
		}

		actor := common.ActorFromContext(r.Context())
		items := make([]contestResponse, 0, len(contests))
		for _, contest := range contests {
			items = append(items, toContestResponse(contest, actor, h.location, false))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, contestListResponse{Items: items, Total: len(items)})
	}
}

func (h *Handler) contestDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		contest, err := h.contests.Detail(ctx, common.IDParam(r))
		if err != nil {
			common.WriteError(h.logger, w, err, "コンテストの取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toContestResponse(*contest, common.ActorFromContext(r.Context()), h.location, true))
	}
}

func (h *Handler) countdownHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		cd, err := h.contests.Countdown(ctx, common.IDParam(r))
		if err != nil {
			common.WriteError(h.logger, w, err, "カウントダウンの取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toCountdownResponse(cd, h.location))
	}
}

func (h *Handler) subscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.contests.Subscribe(ctx, common.ActorFromContext(r.Context()), common.IDParam(r)); err != nil {
			common.WriteError(h.logger, w, err, "参加登録に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"subscribed": true})
	}
}

func (h *Handler) unsubscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.contests.Unsubscribe(ctx, common.ActorFromContext(r.Context()), common.IDParam(r)); err != nil {
			common.WriteError(h.logger, w, err, "参加登録の解除に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"subscribed": false})
	}
}

func (h *Handler) rankingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		entries, err := h.ranking.Ranking(ctx, common.IDParam(r))
		if err != nil {
			common.WriteError(h.logger, w, err, "ランキングの取得に失敗しました")
			return
		}

		items := make([]rankingEntryResponse, 0, len(entries))
		for _, entry := range entries {
			items = append(items, toRankingEntryResponse(entry))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"items": items})
	}
}
