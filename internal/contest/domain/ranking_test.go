package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedPhoto(votes map[string]int) Photo {
	return Photo{ImageURL: "https://img.example/x.jpg", ModerationState: ModerationApproved, Votes: votes}
}

func TestComputeRankingMeanAndVoteCount(t *testing.T) {
	sub := Submission{ID: "sub1", ParticipantID: "p1", ParticipantName: "Ana", Slots: map[int]Photo{
		1: approvedPhoto(map[string]int{"v1": 8}),
	}}

	ranking := ComputeRanking([]Submission{sub})
	require.Len(t, ranking, 1)
	assert.Equal(t, 8.0, ranking[0].MeanScore)
	assert.Equal(t, 1, ranking[0].VoteCount)

	sub.Slots[1] = approvedPhoto(map[string]int{"v1": 5})
	ranking = ComputeRanking([]Submission{sub})
	assert.Equal(t, 5.0, ranking[0].MeanScore)
	assert.Equal(t, 1, ranking[0].VoteCount)

	sub.Slots[1] = approvedPhoto(map[string]int{"v1": 5, "v2": 10})
	ranking = ComputeRanking([]Submission{sub})
	assert.Equal(t, 7.5, ranking[0].MeanScore)
	assert.Equal(t, 2, ranking[0].VoteCount)
	assert.Equal(t, "Ana", ranking[0].OwnerName)
	assert.Equal(t, "sub1-1", ranking[0].Photo.String())
	assert.Equal(t, 1, ranking[0].Position)
}

func TestComputeRankingTieBreaksOnVoteCount(t *testing.T) {
	photoB := approvedPhoto(map[string]int{"v1": 7, "v2": 8})
	photoA := approvedPhoto(map[string]int{"v1": 7, "v2": 8, "v3": 6, "v4": 9})
	subs := []Submission{
		{ID: "b", ParticipantID: "pb", Slots: map[int]Photo{1: photoB}},
		{ID: "a", ParticipantID: "pa", Slots: map[int]Photo{1: photoA}},
	}

	ranking := ComputeRanking(subs)
	require.Len(t, ranking, 2)
	assert.Equal(t, "a", ranking[0].Photo.SubmissionID)
	assert.Equal(t, 4, ranking[0].VoteCount)
	assert.Equal(t, "b", ranking[1].Photo.SubmissionID)
	assert.Equal(t, 7.5, ranking[0].MeanScore)
	assert.Equal(t, 7.5, ranking[1].MeanScore)
}

func TestComputeRankingExcludesNonApproved(t *testing.T) {
	subs := []Submission{{ID: "s", ParticipantID: "p", Slots: map[int]Photo{
		1: {ModerationState: ModerationPending, Votes: map[string]int{"v": 10}},
		2: {ModerationState: ModerationRejected, Votes: map[string]int{"v": 10}},
		3: approvedPhoto(nil),
	}}}

	ranking := ComputeRanking(subs)
	require.Len(t, ranking, 1)
	assert.Equal(t, 3, ranking[0].Photo.Slot)
	assert.Equal(t, 0.0, ranking[0].MeanScore)
	assert.Equal(t, 0, ranking[0].VoteCount)
}

func TestComputeRankingTopTenAndIdempotent(t *testing.T) {
	subs := make([]Submission, 0, 15)
	for i := 0; i < 15; i++ {
		subs = append(subs, Submission{
			ID:            fmt.Sprintf("s%02d", i),
			ParticipantID: fmt.Sprintf("p%02d", i),
			Slots: map[int]Photo{1: approvedPhoto(map[string]int{
				"v1": 1 + i%10,
				"v2": 1 + (i*3)%10,
				"v3": 1 + (i*7)%10,
			})},
		})
	}

	first := ComputeRanking(subs)
	second := ComputeRanking(subs)
	require.Len(t, first, RankingSize)
	assert.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].MeanScore, first[i].MeanScore)
	}
}

func TestComputeRankingEmpty(t *testing.T) {
	assert.Empty(t, ComputeRanking(nil))
}
