package public

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/sngm3741/photo-contest/api/internal/interfaces/http/common"
)

func (h *Handler) galleryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, err := h.submissions.Gallery(ctx, common.ActorFromContext(r.Context()), common.IDParam(r))
		if err != nil {
			common.WriteError(h.logger, w, err, "写真一覧の取得に失敗しました")
			return
		}

		resp := make([]galleryItemResponse, 0, len(items))
		for _, item := range items {
			resp = append(resp, toGalleryItemResponse(item))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"items": resp})
	}
}

func (h *Handler) mySubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		contestID := common.IDParam(r)
		submission, err := h.submissions.Mine(ctx, common.ActorFromContext(r.Context()), contestID)
		if err != nil {
			common.WriteError(h.logger, w, err, "応募情報の取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toSubmissionResponse(contestID, submission))
	}
}

// uploadHandler は multipart の "image" フィールドを 1 枚受け取り、指定スロットを置き換える。
func (h *Handler) uploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := common.SlotParam(r)
		if err != nil {
			common.WriteError(h.logger, w, err, "写真のアップロードに失敗しました")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				common.WriteJSON(h.logger, w, http.StatusRequestEntityTooLarge, map[string]string{"error": "画像サイズが大きすぎます"})
				return
			}
			common.WriteError(h.logger, w, fmt.Errorf("%w: invalid multipart body: %v", domain.ErrValidation, err), "写真のアップロードに失敗しました")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("image")
		if err != nil {
			common.WriteError(h.logger, w, fmt.Errorf("%w: image field is required", domain.ErrValidation), "写真のアップロードに失敗しました")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			common.WriteError(h.logger, w, fmt.Errorf("%w: failed to read image: %v", domain.ErrValidation, err), "写真のアップロードに失敗しました")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		contestID := common.IDParam(r)
		submission, err := h.submissions.Upload(ctx, common.ActorFromContext(r.Context()), contestapp.UploadPhotoCommand{
			ContestID: contestID,
			Slot:      slot,
			Filename:  header.Filename,
			Image:     data,
		})
		if err != nil {
			common.WriteError(h.logger, w, err, "写真のアップロードに失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toSubmissionResponse(contestID, submission))
	}
}

func (h *Handler) deletePhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := common.PhotoRefParam(r)
		if err != nil {
			common.WriteError(h.logger, w, err, "写真の削除に失敗しました")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := h.submissions.DeletePhoto(ctx, common.ActorFromContext(r.Context()), common.IDParam(r), ref); err != nil {
			common.WriteError(h.logger, w, err, "写真の削除に失敗しました")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
