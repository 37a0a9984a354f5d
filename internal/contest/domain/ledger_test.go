package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScore(t *testing.T) {
	for _, valid := range []float64{1, 5, 10} {
		score, err := ValidateScore(valid)
		require.NoError(t, err)
		assert.Equal(t, int(valid), score)
	}

	for _, invalid := range []float64{0, 11, -3, 7.5, math.NaN(), math.Inf(1)} {
		_, err := ValidateScore(invalid)
		assert.ErrorIs(t, err, ErrInvalidScore, "score %v", invalid)
	}
}

func TestNewVoteResult(t *testing.T) {
	ref := PhotoRef{SubmissionID: "sub", Slot: 2}

	result := NewVoteResult(ref, 8, nil, true, VotingStats{DistinctCount: 3})
	assert.Equal(t, 7, result.Remaining)
	assert.False(t, result.ThresholdReached)
	assert.True(t, result.FirstVote)

	previous := 4
	result = NewVoteResult(ref, 9, &previous, false, VotingStats{DistinctCount: 12})
	assert.Equal(t, 0, result.Remaining)
	assert.True(t, result.ThresholdReached)
	assert.Equal(t, 4, *result.PreviousScore)
}

func TestTransition(t *testing.T) {
	allowed := [][2]ModerationState{
		{ModerationPending, ModerationApproved},
		{ModerationPending, ModerationRejected},
		{ModerationRejected, ModerationApproved},
		{ModerationApproved, ModerationRejected},
	}
	for _, pair := range allowed {
		assert.NoError(t, Transition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	denied := [][2]ModerationState{
		{ModerationApproved, ModerationPending},
		{ModerationRejected, ModerationPending},
		{ModerationApproved, ModerationApproved},
		{ModerationPending, ModerationPending},
	}
	for _, pair := range denied {
		assert.ErrorIs(t, Transition(pair[0], pair[1]), ErrInvalidTransition, "%s -> %s", pair[0], pair[1])
	}

	assert.True(t, ReleasesImage(ModerationRejected))
	assert.False(t, ReleasesImage(ModerationApproved))
}

func TestCheckVotable(t *testing.T) {
	assert.NoError(t, CheckVotable(Photo{ModerationState: ModerationApproved}))

	err := CheckVotable(Photo{ModerationState: ModerationPending})
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Equal(t, ReasonNotYet, ReasonOf(err))

	err = CheckVotable(Photo{ModerationState: ModerationRejected})
	assert.Equal(t, ReasonForbidden, ReasonOf(err))
}

func TestCheckModerationWindow(t *testing.T) {
	assert.NoError(t, CheckModerationWindow(Contest{Phase: PhaseVoting}))

	err := CheckModerationWindow(Contest{Phase: PhaseFinalized})
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Equal(t, ReasonNoLonger, ReasonOf(err))
}
