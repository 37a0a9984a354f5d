package domain

import "time"

// Role は ID プロバイダが付与する呼び出し元のロール。
type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
	RoleSuperAdmin  Role = "superAdmin"
)

// Actor は操作の主体。コアは認証を行わず、ロールの有無だけを見る。
type Actor struct {
	ID    string
	Name  string
	Roles []Role
}

// Has は role を持っているか判定する。
func (a Actor) Has(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin は admin もしくは superAdmin なら true。superAdmin は admin を内包する。
func (a Actor) IsAdmin() bool {
	return a.Has(RoleAdmin) || a.Has(RoleSuperAdmin)
}

// IsSuperAdmin は superAdmin なら true。
func (a Actor) IsSuperAdmin() bool {
	return a.Has(RoleSuperAdmin)
}

// Action はガードが判定する操作の種類。
type Action string

const (
	ActionSubscribe     Action = "subscribe"
	ActionUnsubscribe   Action = "unsubscribe"
	ActionUploadPhoto   Action = "upload_photo"
	ActionDeletePhoto   Action = "delete_photo"
	ActionVote          Action = "vote"
	ActionEditContest   Action = "edit_contest"
	ActionModerate      Action = "moderate_photo"
	ActionCreateContest Action = "create_contest"
	ActionDeleteContest Action = "delete_contest"

	// ActionAdvanceLifecycle は手動のフェーズ再解決。Contest は参照しない。
	ActionAdvanceLifecycle Action = "advance_lifecycle"
)

// Request はガードへの問い合わせ。Submission は写真単位の操作でのみ必要。
type Request struct {
	Action     Action
	Actor      Actor
	Contest    Contest
	Submission *Submission
	Now        time.Time
}

type rule func(Request) *DenialError

var rules = map[Action]rule{
	ActionSubscribe:     canSubscribe,
	ActionUnsubscribe:   canUnsubscribe,
	ActionUploadPhoto:   canUpload,
	ActionDeletePhoto:   canDeletePhoto,
	ActionVote:          canVote,
	ActionEditContest:   canEditContest,
	ActionModerate:      requireAdmin(ActionModerate),
	ActionCreateContest: requireAdmin(ActionCreateContest),
	ActionDeleteContest: requireAdmin(ActionDeleteContest),

	ActionAdvanceLifecycle: requireAdmin(ActionAdvanceLifecycle),
}

// Authorize はアクションが許可されていれば nil、拒否なら *DenialError を返す。
// 表にない組み合わせは常に拒否する。
func Authorize(req Request) error {
	check, ok := rules[req.Action]
	if !ok {
		return deny(req.Action, ReasonForbidden, "unknown action")
	}
	if denial := check(req); denial != nil {
		return denial
	}
	return nil
}

// CanPerform は Authorize の真偽値版。
func CanPerform(req Request) bool {
	return Authorize(req) == nil
}

func phaseReason(current, required Phase) DenialReason {
	if current.Before(required) {
		return ReasonNotYet
	}
	return ReasonNoLonger
}

func canSubscribe(req Request) *DenialError {
	switch req.Contest.Phase {
	case PhasePending:
		return nil
	case PhaseActive:
		if req.Contest.SubmissionCloseAt != nil && req.Now.Before(*req.Contest.SubmissionCloseAt) {
			return nil
		}
		return deny(req.Action, ReasonNoLonger, "submission window closed")
	}
	return deny(req.Action, ReasonNoLonger, "contest is "+string(req.Contest.Phase))
}

func canUnsubscribe(req Request) *DenialError {
	if !req.Contest.IsSubscribed(req.Actor.ID) {
		return deny(req.Action, ReasonForbidden, "not subscribed")
	}
	if req.Contest.Phase == PhaseFinalized {
		return deny(req.Action, ReasonNoLonger, "contest is finalized")
	}
	return nil
}

func canUpload(req Request) *DenialError {
	if req.Contest.Phase != PhaseActive {
		return deny(req.Action, phaseReason(req.Contest.Phase, PhaseActive), "uploads require an active contest")
	}
	if !req.Contest.IsSubscribed(req.Actor.ID) {
		return deny(req.Action, ReasonForbidden, "not subscribed")
	}
	return nil
}

func canDeletePhoto(req Request) *DenialError {
	if req.Actor.IsAdmin() {
		return nil
	}
	if req.Submission == nil || req.Submission.ParticipantID != req.Actor.ID {
		return deny(req.Action, ReasonForbidden, "not the owner")
	}
	if req.Contest.Phase != PhaseActive {
		return deny(req.Action, phaseReason(req.Contest.Phase, PhaseActive), "owners may delete only while active")
	}
	return nil
}

func canVote(req Request) *DenialError {
	if req.Submission == nil {
		return deny(req.Action, ReasonForbidden, "no submission")
	}
	if req.Submission.ParticipantID == req.Actor.ID {
		return deny(req.Action, ReasonForbidden, "self vote")
	}
	if req.Contest.Phase != PhaseVoting {
		return deny(req.Action, phaseReason(req.Contest.Phase, PhaseVoting), "voting is closed")
	}
	return nil
}

func canEditContest(req Request) *DenialError {
	if !req.Actor.IsAdmin() {
		return deny(req.Action, ReasonForbidden, "admin only")
	}
	if req.Contest.Phase == PhaseFinalized && !req.Actor.IsSuperAdmin() {
		return deny(req.Action, ReasonNoLonger, "contest is finalized")
	}
	return nil
}

func requireAdmin(action Action) rule {
	return func(req Request) *DenialError {
		if !req.Actor.IsAdmin() {
			return deny(action, ReasonForbidden, "admin only")
		}
		return nil
	}
}
