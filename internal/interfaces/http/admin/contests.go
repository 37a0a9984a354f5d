package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/sngm3741/photo-contest/api/internal/interfaces/http/common"
)

func (h *Handler) decodeContestRequest(w http.ResponseWriter, r *http.Request) (contestRequest, error) {
	var req contestRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxJSONRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return contestRequest{}, fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	return req, nil
}

func (h *Handler) contestCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.decodeContestRequest(w, r)
		if err != nil {
			common.WriteError(h.logger, w, err, "コンテストの作成に失敗しました")
			return
		}
		cmd, err := req.toCommand(h.location)
		if err != nil {
			common.WriteError(h.logger, w, err, "コンテストの作成に失敗しました")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		contest, err := h.contests.Create(ctx, common.ActorFromContext(r.Context()), cmd)
		if err != nil {
			common.WriteError(h.logger, w, err, "コンテストの作成に失敗しました")
			return
		}
		h.logger.Printf("contest created id=%s phase=%s", contest.ID, contest.Phase)
		common.WriteJSON(h.logger, w, http.StatusCreated, toAdminContestResponse(*contest, h.location))
	}
}

func (h *Handler) contestUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.decodeContestRequest(w, r)
		if err != nil {
			common.WriteError(h.logger, w, err, "コンテストの更新に失敗しました")
			return
		}
		cmd, err := req.toCommand(h.location)
		if err != nil {
			common.WriteError(h.logger, w, err, "コンテストの更新に失敗しました")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		contest, err := h.contests.Update(ctx, common.ActorFromContext(r.Context()), common.IDParam(r), cmd)
		if err != nil {
			common.WriteError(h.logger, w, err, "コンテストの更新に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toAdminContestResponse(*contest, h.location))
	}
}

// contestDeleteHandler は応募・投票統計・ホスト上の画像までまとめて削除する。
func (h *Handler) contestDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		id := common.IDParam(r)
		if err := h.contests.Delete(ctx, common.ActorFromContext(r.Context()), id); err != nil {
			common.WriteError(h.logger, w, err, "コンテストの削除に失敗しました")
			return
		}
		h.logger.Printf("contest deleted id=%s", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) moderationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := common.PhotoRefParam(r)
		if err != nil {
			common.WriteError(h.logger, w, err, "審査結果の更新に失敗しました")
			return
		}

		var req moderationRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxJSONRequestBody)).Decode(&req); err != nil {
			common.WriteError(h.logger, w, fmt.Errorf("%w: invalid JSON body", domain.ErrValidation), "審査結果の更新に失敗しました")
			return
		}
		state, err := domain.ParseModerationState(req.State)
		if err != nil {
			common.WriteError(h.logger, w, err, "審査結果の更新に失敗しました")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := h.submissions.Moderate(ctx, common.ActorFromContext(r.Context()), common.IDParam(r), ref, state); err != nil {
			common.WriteError(h.logger, w, err, "審査結果の更新に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{"photoRef": ref.String(), "state": string(state)})
	}
}
