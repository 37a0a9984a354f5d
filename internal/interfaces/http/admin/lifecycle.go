package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/sngm3741/photo-contest/api/internal/interfaces/http/common"
)

// advanceHandler は定期実行を待たずにフェーズ再解決を 1 回走らせる。
// 一部のコンテストで失敗しても、保存できた遷移は 207 で返す。
func (h *Handler) advanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := domain.Authorize(domain.Request{
			Action: domain.ActionAdvanceLifecycle,
			Actor:  common.ActorFromContext(r.Context()),
		})
		if err != nil {
			common.WriteError(h.logger, w, err, "フェーズ更新に失敗しました")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		transitions, err := h.lifecycle.Advance(ctx)
		resp := advanceResponse{Transitions: make([]transitionResponse, 0, len(transitions))}
		for _, t := range transitions {
			resp.Transitions = append(resp.Transitions, transitionResponse{ContestID: t.ContestID, From: string(t.From), To: string(t.To)})
		}

		status := http.StatusOK
		if err != nil {
			h.logger.Printf("manual lifecycle advance partially failed: %v", err)
			resp.Error = "一部のコンテストでフェーズ更新に失敗しました"
			status = http.StatusMultiStatus
		}
		common.WriteJSON(h.logger, w, status, resp)
	}
}
