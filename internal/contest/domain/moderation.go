package domain

import "fmt"

var moderationTransitions = map[ModerationState][]ModerationState{
	ModerationPending:  {ModerationApproved, ModerationRejected},
	ModerationRejected: {ModerationApproved},
	ModerationApproved: {ModerationRejected},
}

// Transition は from から to への遷移が許可されているか検証する。
func Transition(from, to ModerationState) error {
	for _, allowed := range moderationTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// ReleasesImage は遷移先で外部画像を解放すべきかを返す。解放は却下時のみ。
func ReleasesImage(to ModerationState) bool {
	return to == ModerationRejected
}

// CheckModerationWindow は finalized 後のモデレーションを拒否する。
func CheckModerationWindow(c Contest) error {
	if c.Phase == PhaseFinalized {
		return deny(ActionModerate, ReasonNoLonger, "contest is finalized")
	}
	return nil
}
