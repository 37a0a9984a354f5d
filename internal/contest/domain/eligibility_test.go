package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	participant = Actor{ID: "p1", Roles: []Role{RoleParticipant}}
	otherUser   = Actor{ID: "p2", Roles: []Role{RoleParticipant}}
	admin       = Actor{ID: "a1", Roles: []Role{RoleAdmin}}
	superAdmin  = Actor{ID: "s1", Roles: []Role{RoleSuperAdmin}}
)

func contestIn(phase Phase, subscribers ...string) Contest {
	c := weekContest()
	c.Phase = phase
	c.Subscribers = subscribers
	return c
}

func TestAuthorizeTable(t *testing.T) {
	ownSubmission := &Submission{ID: "s1", ParticipantID: "p1"}
	during := baseTime.Add(day(3))

	tests := []struct {
		name   string
		req    Request
		allow  bool
		reason DenialReason
	}{
		{"subscribe pending", Request{Action: ActionSubscribe, Actor: participant, Contest: contestIn(PhasePending), Now: baseTime.Add(-day(1))}, true, ""},
		{"subscribe active before close", Request{Action: ActionSubscribe, Actor: participant, Contest: contestIn(PhaseActive), Now: during}, true, ""},
		{"subscribe active at close instant", Request{Action: ActionSubscribe, Actor: participant, Contest: contestIn(PhaseActive), Now: baseTime.Add(day(7))}, false, ReasonNoLonger},
		{"subscribe voting", Request{Action: ActionSubscribe, Actor: participant, Contest: contestIn(PhaseVoting), Now: baseTime.Add(day(10))}, false, ReasonNoLonger},

		{"unsubscribe subscribed active", Request{Action: ActionUnsubscribe, Actor: participant, Contest: contestIn(PhaseActive, "p1"), Now: during}, true, ""},
		{"unsubscribe not subscribed", Request{Action: ActionUnsubscribe, Actor: participant, Contest: contestIn(PhaseActive), Now: during}, false, ReasonForbidden},
		{"unsubscribe finalized", Request{Action: ActionUnsubscribe, Actor: participant, Contest: contestIn(PhaseFinalized, "p1")}, false, ReasonNoLonger},

		{"upload active subscribed", Request{Action: ActionUploadPhoto, Actor: participant, Contest: contestIn(PhaseActive, "p1")}, true, ""},
		{"upload active unsubscribed", Request{Action: ActionUploadPhoto, Actor: participant, Contest: contestIn(PhaseActive)}, false, ReasonForbidden},
		{"upload pending", Request{Action: ActionUploadPhoto, Actor: participant, Contest: contestIn(PhasePending, "p1")}, false, ReasonNotYet},
		{"upload voting", Request{Action: ActionUploadPhoto, Actor: participant, Contest: contestIn(PhaseVoting, "p1")}, false, ReasonNoLonger},

		{"delete own active", Request{Action: ActionDeletePhoto, Actor: participant, Contest: contestIn(PhaseActive, "p1"), Submission: ownSubmission}, true, ""},
		{"delete own voting", Request{Action: ActionDeletePhoto, Actor: participant, Contest: contestIn(PhaseVoting, "p1"), Submission: ownSubmission}, false, ReasonNoLonger},
		{"delete other's photo", Request{Action: ActionDeletePhoto, Actor: otherUser, Contest: contestIn(PhaseActive), Submission: ownSubmission}, false, ReasonForbidden},
		{"admin deletes in finalized", Request{Action: ActionDeletePhoto, Actor: admin, Contest: contestIn(PhaseFinalized), Submission: ownSubmission}, true, ""},

		{"vote in voting", Request{Action: ActionVote, Actor: otherUser, Contest: contestIn(PhaseVoting), Submission: ownSubmission}, true, ""},
		{"vote in active", Request{Action: ActionVote, Actor: otherUser, Contest: contestIn(PhaseActive), Submission: ownSubmission}, false, ReasonNotYet},
		{"vote in finalized", Request{Action: ActionVote, Actor: otherUser, Contest: contestIn(PhaseFinalized), Submission: ownSubmission}, false, ReasonNoLonger},
		{"self vote in voting", Request{Action: ActionVote, Actor: participant, Contest: contestIn(PhaseVoting), Submission: ownSubmission}, false, ReasonForbidden},
		{"self vote in active", Request{Action: ActionVote, Actor: participant, Contest: contestIn(PhaseActive), Submission: ownSubmission}, false, ReasonForbidden},
		{"vote without submission", Request{Action: ActionVote, Actor: otherUser, Contest: contestIn(PhaseVoting)}, false, ReasonForbidden},

		{"admin edits active", Request{Action: ActionEditContest, Actor: admin, Contest: contestIn(PhaseActive)}, true, ""},
		{"admin edits finalized", Request{Action: ActionEditContest, Actor: admin, Contest: contestIn(PhaseFinalized)}, false, ReasonNoLonger},
		{"super admin edits finalized", Request{Action: ActionEditContest, Actor: superAdmin, Contest: contestIn(PhaseFinalized)}, true, ""},
		{"participant edits", Request{Action: ActionEditContest, Actor: participant, Contest: contestIn(PhasePending)}, false, ReasonForbidden},

		{"admin moderates finalized", Request{Action: ActionModerate, Actor: admin, Contest: contestIn(PhaseFinalized)}, true, ""},
		{"participant moderates", Request{Action: ActionModerate, Actor: participant, Contest: contestIn(PhaseActive)}, false, ReasonForbidden},
		{"admin creates", Request{Action: ActionCreateContest, Actor: admin}, true, ""},
		{"participant deletes contest", Request{Action: ActionDeleteContest, Actor: participant}, false, ReasonForbidden},
		{"participant advances lifecycle", Request{Action: ActionAdvanceLifecycle, Actor: participant}, false, ReasonForbidden},
		{"admin advances lifecycle", Request{Action: ActionAdvanceLifecycle, Actor: admin}, true, ""},
		{"unknown action", Request{Action: Action("publish"), Actor: superAdmin}, false, ReasonForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.req)
			assert.Equal(t, tt.allow, CanPerform(tt.req))
			if tt.allow {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrNotPermitted)
			assert.Equal(t, tt.reason, ReasonOf(err))
		})
	}
}

func TestActorRoles(t *testing.T) {
	assert.True(t, superAdmin.IsAdmin())
	assert.True(t, superAdmin.IsSuperAdmin())
	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.IsSuperAdmin())
	assert.False(t, participant.IsAdmin())
	assert.False(t, Actor{}.IsAdmin())
}

func TestSubscribeUsesNowNotStoredBoundary(t *testing.T) {
	c := contestIn(PhaseActive)
	req := Request{Action: ActionSubscribe, Actor: participant, Contest: c, Now: c.SubmissionCloseAt.Add(-time.Minute)}
	assert.True(t, CanPerform(req))

	req.Now = c.SubmissionCloseAt.Add(time.Minute)
	assert.False(t, CanPerform(req))
}
