package application

import (
	"context"
	"testing"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validContestCommand() UpsertContestCommand {
	return UpsertContestCommand{
		Title:             "  Spring Light  ",
		Theme:             "Morning light",
		Description:       "Photos taken before eight in the morning.",
		CoverImageURL:     "https://img.example/cover.jpg",
		StartAt:           baseTime,
		SubmissionCloseAt: baseTime.Add(day(7)),
		VotingCloseAt:     baseTime.Add(day(14)),
	}
}

func TestCreateContest(t *testing.T) {
	f := newFixture(t, baseTime.Add(day(-2)))
	svc := NewContestService(f.deps)

	contest, err := svc.Create(context.Background(), admin, validContestCommand())
	require.NoError(t, err)
	assert.NotEmpty(t, contest.ID)
	assert.Equal(t, "Spring Light", contest.Title)
	assert.Equal(t, domain.PhasePending, contest.Phase)
	assert.Equal(t, admin.ID, contest.CreatedBy)

	_, err = svc.Create(context.Background(), participant, validContestCommand())
	assert.ErrorIs(t, err, domain.ErrNotPermitted)
}

func TestCreateContestResolvesPhaseImmediately(t *testing.T) {
	f := newFixture(t, baseTime.Add(day(1)))
	contest, err := NewContestService(f.deps).Create(context.Background(), admin, validContestCommand())
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseActive, contest.Phase)
	assert.Equal(t, domain.PhaseActive, f.contests.phaseOf(contest.ID))
}

func TestCreateContestValidation(t *testing.T) {
	f := newFixture(t, baseTime)
	svc := NewContestService(f.deps)

	cases := map[string]func(*UpsertContestCommand){
		"short title":       func(c *UpsertContestCommand) { c.Title = "abc" },
		"short description": func(c *UpsertContestCommand) { c.Description = "tiny" },
		"missing cover":     func(c *UpsertContestCommand) { c.CoverImageURL = "" },
		"bad cover":         func(c *UpsertContestCommand) { c.CoverImageURL = "not a url" },
		"close before start": func(c *UpsertContestCommand) {
			c.SubmissionCloseAt = baseTime.Add(-day(1))
		},
		"voting before submission": func(c *UpsertContestCommand) {
			c.VotingCloseAt = baseTime.Add(day(3))
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cmd := validContestCommand()
			mutate(&cmd)
			_, err := svc.Create(context.Background(), admin, cmd)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUpdateFinalizedContest(t *testing.T) {
	f := newFixture(t, baseTime.Add(day(20)), weekContest("c1", domain.PhaseVoting))
	svc := NewContestService(f.deps)

	_, err := svc.Update(context.Background(), admin, "c1", validContestCommand())
	assert.ErrorIs(t, err, domain.ErrNotPermitted)
	assert.Equal(t, domain.ReasonNoLonger, domain.ReasonOf(err))

	superAdmin := domain.Actor{ID: "root", Roles: []domain.Role{domain.RoleSuperAdmin}}
	cmd := validContestCommand()
	cmd.VotingCloseAt = baseTime.Add(day(30))
	updated, err := svc.Update(context.Background(), superAdmin, "c1", cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseVoting, updated.Phase)
	assert.Equal(t, domain.PhaseVoting, f.contests.phaseOf("c1"))
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	f := newFixture(t, baseTime.Add(day(2)), weekContest("c1", domain.PhaseActive))
	svc := NewContestService(f.deps)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, participant, "c1"))
	require.NoError(t, svc.Subscribe(ctx, participant, "c1"))
	contest, err := svc.Detail(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{participant.ID}, contest.Subscribers)

	require.NoError(t, svc.Unsubscribe(ctx, participant, "c1"))
	err = svc.Unsubscribe(ctx, participant, "c1")
	assert.Equal(t, domain.ReasonForbidden, domain.ReasonOf(err))

	f.clock.now = baseTime.Add(day(9))
	err = svc.Subscribe(ctx, participant, "c1")
	assert.Equal(t, domain.ReasonNoLonger, domain.ReasonOf(err))
}

func TestListFiltersByReconciledPhase(t *testing.T) {
	done := weekContest("done", domain.PhaseVoting)
	done.StartAt = timePtr(baseTime.Add(-day(20)))
	done.SubmissionCloseAt = timePtr(baseTime.Add(-day(13)))
	done.VotingCloseAt = timePtr(baseTime.Add(-day(6)))

	f := newFixture(t, baseTime.Add(day(10)),
		weekContest("stale", domain.PhaseActive),
		done,
	)
	ctx := context.Background()
	voting := domain.PhaseVoting
	contests, err := NewContestService(f.deps).List(ctx, ContestFilter{Phase: &voting})
	require.NoError(t, err)
	require.Len(t, contests, 1)
	assert.Equal(t, "stale", contests[0].ID)

	finalized := domain.PhaseFinalized
	contests, err = NewContestService(f.deps).List(ctx, ContestFilter{Phase: &finalized})
	require.NoError(t, err)
	require.Len(t, contests, 1)
	assert.Equal(t, "done", contests[0].ID)
}

func TestCountdown(t *testing.T) {
	f := newFixture(t, baseTime.Add(day(6)), weekContest("c1", domain.PhaseActive))
	countdown, err := NewContestService(f.deps).Countdown(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseActive, countdown.Phase)
	assert.Equal(t, 1, countdown.Days)

	_, err = NewContestService(f.deps).Countdown(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteContestCascades(t *testing.T) {
	f := newFixture(t, baseTime.Add(day(10)), weekContest("c1", domain.PhaseVoting))
	ref := f.seedPhoto("c1", participant, 1, domain.ModerationApproved)
	_, _, err := f.stats.RecordVote(context.Background(), "c1", voter1.ID, ref.String(), baseTime)
	require.NoError(t, err)
	f.images.On("Release", mock.Anything, "del-"+participant.ID).Return(nil).Once()

	svc := NewContestService(f.deps)
	assert.ErrorIs(t, svc.Delete(context.Background(), participant, "c1"), domain.ErrNotPermitted)
	require.NoError(t, svc.Delete(context.Background(), admin, "c1"))

	_, err = f.contests.FindByID(context.Background(), "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.submissions.items)
	assert.Empty(t, f.stats.items)
	f.images.AssertExpectations(t)
}
