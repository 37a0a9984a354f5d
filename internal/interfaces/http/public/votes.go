package public

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/sngm3741/photo-contest/api/internal/interfaces/http/common"
)

func (h *Handler) voteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := common.PhotoRefParam(r)
		if err != nil {
			common.WriteError(h.logger, w, err, "投票に失敗しました")
			return
		}

		var req voteRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxJSONRequestBody))
		if err := decoder.Decode(&req); err != nil {
			common.WriteError(h.logger, w, fmt.Errorf("%w: invalid JSON body", domain.ErrValidation), "投票に失敗しました")
			return
		}
		if req.Score == nil {
			common.WriteError(h.logger, w, fmt.Errorf("%w: score is required", domain.ErrInvalidScore), "投票に失敗しました")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := h.voting.CastVote(ctx, common.ActorFromContext(r.Context()), common.IDParam(r), ref, *req.Score)
		if err != nil {
			common.WriteError(h.logger, w, err, "投票に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toVoteResponse(result))
	}
}

func (h *Handler) progressHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stats, err := h.voting.Progress(ctx, common.ActorFromContext(r.Context()), common.IDParam(r))
		if err != nil {
			common.WriteError(h.logger, w, err, "投票状況の取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toProgressResponse(stats))
	}
}
