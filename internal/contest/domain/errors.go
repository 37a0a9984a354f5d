package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPermitted はエリジビリティガードによる拒否を表す。
	ErrNotPermitted = errors.New("not permitted")
	// ErrInvalidScore は範囲外・非整数の投票スコア。
	ErrInvalidScore = errors.New("invalid score")
	// ErrPhaseIndeterminate は日付が壊れていてフェーズを導出できない状態。
	ErrPhaseIndeterminate = errors.New("phase indeterminate")
	// ErrNotFound は参照されたコンテスト/応募が存在しない。
	ErrNotFound = errors.New("not found")
	// ErrExternalResource は画像ホストなど外部リソース操作の失敗。
	ErrExternalResource = errors.New("external resource failure")
	// ErrInvalidSlot は存在しないスロット番号。
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrInvalidTransition は許可されていないモデレーション遷移。
	ErrInvalidTransition = errors.New("invalid moderation transition")
	// ErrValidation は入力値の検証エラー。
	ErrValidation = errors.New("validation failed")
)

// DenialReason は UI が「まだ」「もう」「権限なし」を出し分けるための拒否理由。
type DenialReason string

const (
	ReasonNotYet    DenialReason = "not_yet"
	ReasonNoLonger  DenialReason = "no_longer"
	ReasonForbidden DenialReason = "forbidden"
)

// DenialError はガードが拒否したアクションと理由を保持する。errors.Is(err, ErrNotPermitted) が真になる。
type DenialError struct {
	Action Action
	Reason DenialReason
	Detail string
}

func (e *DenialError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s (%s)", ErrNotPermitted, e.Action, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s): %s", ErrNotPermitted, e.Action, e.Reason, e.Detail)
}

func (e *DenialError) Unwrap() error {
	return ErrNotPermitted
}

func deny(action Action, reason DenialReason, detail string) *DenialError {
	return &DenialError{Action: action, Reason: reason, Detail: detail}
}

// ReasonOf は err から拒否理由を取り出す。DenialError でなければ空文字を返す。
func ReasonOf(err error) DenialReason {
	var denial *DenialError
	if errors.As(err, &denial) {
		return denial.Reason
	}
	return ""
}
