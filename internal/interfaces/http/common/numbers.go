package common

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

// ParsePositiveInt parses positive integers with fallback.
func ParsePositiveInt(value string, fallback int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback, false
	}
	return parsed, true
}

// SlotParam は URL の {slot} を検証済みのスロット番号にする。
func SlotParam(r *http.Request) (int, error) {
	slot, ok := ParsePositiveInt(chi.URLParam(r, "slot"), 0)
	if !ok {
		return 0, domain.ErrInvalidSlot
	}
	if err := domain.ValidateSlot(slot); err != nil {
		return 0, err
	}
	return slot, nil
}

// PhotoRefParam は URL の {photoRef} ("<submissionID>-<slot>") を解析する。
func PhotoRefParam(r *http.Request) (domain.PhotoRef, error) {
	return domain.ParsePhotoRef(chi.URLParam(r, "photoRef"))
}

// IDParam は URL の {id} をトリムして返す。
func IDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
