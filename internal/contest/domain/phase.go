package domain

import (
	"fmt"
	"strings"
	"time"
)

// Phase はコンテストの時間フェーズ。日時と現在時刻から一意に導出される。
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseActive    Phase = "active"
	PhaseVoting    Phase = "voting"
	PhaseFinalized Phase = "finalized"
)

// order は単調性の比較に使う。未知のフェーズは -1。
func (p Phase) order() int {
	switch p {
	case PhasePending:
		return 0
	case PhaseActive:
		return 1
	case PhaseVoting:
		return 2
	case PhaseFinalized:
		return 3
	}
	return -1
}

// Before は p が other より前のフェーズなら true。
func (p Phase) Before(other Phase) bool {
	return p.order() < other.order()
}

// Valid は既知のフェーズか判定する。
func (p Phase) Valid() bool {
	return p.order() >= 0
}

// ParsePhase はクエリ文字列などからフェーズを読み取る。
func ParsePhase(value string) (Phase, error) {
	phase := Phase(strings.ToLower(strings.TrimSpace(value)))
	if !phase.Valid() {
		return "", fmt.Errorf("%w: unknown phase %q", ErrValidation, value)
	}
	return phase, nil
}

// Resolution はフェーズ解決の結果。Degraded は votingCloseAt 欠落時のフォールバックを示す。
type Resolution struct {
	Phase    Phase
	Degraded bool
}

// ResolvePhase はコンテストの日時と now からフェーズを導出する純関数。
// startAt / submissionCloseAt が欠けている場合は ErrPhaseIndeterminate を返し、フェーズを進めない。
func ResolvePhase(c Contest, now time.Time) (Resolution, error) {
	if c.StartAt == nil || c.StartAt.IsZero() {
		return Resolution{}, fmt.Errorf("%w: contest %s has no startAt", ErrPhaseIndeterminate, c.ID)
	}
	if c.SubmissionCloseAt == nil || c.SubmissionCloseAt.IsZero() {
		return Resolution{}, fmt.Errorf("%w: contest %s has no submissionCloseAt", ErrPhaseIndeterminate, c.ID)
	}
	start := *c.StartAt
	submissionClose := *c.SubmissionCloseAt

	if now.Before(start) {
		return Resolution{Phase: PhasePending}, nil
	}
	if !now.After(submissionClose) {
		return Resolution{Phase: PhaseActive}, nil
	}

	if c.VotingCloseAt == nil || c.VotingCloseAt.IsZero() {
		return Resolution{Phase: PhaseFinalized, Degraded: true}, nil
	}
	if !now.After(*c.VotingCloseAt) {
		return Resolution{Phase: PhaseVoting}, nil
	}
	return Resolution{Phase: PhaseFinalized}, nil
}

// Drift は保存済みフェーズと導出フェーズの差分。
type Drift struct {
	Stored   Phase
	Derived  Phase
	Degraded bool
}

// Changed は保存値の更新が必要か返す。
func (d Drift) Changed() bool {
	return d.Stored != d.Derived
}

// DetectDrift は保存済みフェーズと導出フェーズを比較する。解決失敗時はエラーをそのまま返す。
func DetectDrift(c Contest, now time.Time) (Drift, error) {
	res, err := ResolvePhase(c, now)
	if err != nil {
		return Drift{Stored: c.Phase, Derived: c.Phase}, err
	}
	return Drift{Stored: c.Phase, Derived: res.Phase, Degraded: res.Degraded}, nil
}
