package common

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *log.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Printf("JSON エンコードに失敗: %v", err)
	}
}

// errorResponse はエラー時の共通ボディ。code は機械判定用、reason は NotPermitted のときだけ入る。
type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// WriteError はドメインエラーを HTTP ステータスに写像して書き込む。
// 想定外のエラーはログに残し、fallback メッセージで 500 を返す。
func WriteError(logger *log.Logger, w http.ResponseWriter, err error, fallback string) {
	status, body := describeError(err, fallback)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Printf("%s: %v", fallback, err)
	}
	WriteJSON(logger, w, status, body)
}

func describeError(err error, fallback string) (int, errorResponse) {
	var denial *domain.DenialError
	switch {
	case errors.As(err, &denial):
		return http.StatusForbidden, errorResponse{Error: denial.Error(), Code: "not_permitted", Reason: string(denial.Reason)}
	case errors.Is(err, domain.ErrNotPermitted):
		return http.StatusForbidden, errorResponse{Error: err.Error(), Code: "not_permitted", Reason: string(domain.ReasonForbidden)}
	case errors.Is(err, domain.ErrInvalidScore):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_score"}
	case errors.Is(err, domain.ErrInvalidSlot):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_slot"}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "invalid_transition"}
	case errors.Is(err, domain.ErrPhaseIndeterminate):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "phase_indeterminate"}
	case errors.Is(err, domain.ErrExternalResource):
		return http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "external_resource"}
	}
	return http.StatusInternalServerError, errorResponse{Error: fallback, Code: "internal"}
}
