package domain

import (
	"fmt"
	"math"
)

const (
	// MinDistinctVotes は投票者に案内する「異なる写真への投票数」の目安。ランキング対象の条件ではない。
	MinDistinctVotes = 10
	MinScore         = 1
	MaxScore         = 10
)

// ValidateScore は 1..10 の整数以外を ErrInvalidScore として拒否する。
func ValidateScore(score float64) (int, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) || score != math.Trunc(score) {
		return 0, fmt.Errorf("%w: score must be an integer, got %v", ErrInvalidScore, score)
	}
	if score < MinScore || score > MaxScore {
		return 0, fmt.Errorf("%w: score must be between %d and %d, got %v", ErrInvalidScore, MinScore, MaxScore, score)
	}
	return int(score), nil
}

// VoteResult は投票 1 回の結果と投票者の進捗。
type VoteResult struct {
	Photo            PhotoRef
	Score            int
	PreviousScore    *int
	FirstVote        bool
	DistinctCount    int
	Remaining        int
	ThresholdReached bool
}

// NewVoteResult は記録後の統計から VoteResult を組み立てる。
func NewVoteResult(ref PhotoRef, score int, previous *int, firstVote bool, stats VotingStats) VoteResult {
	return VoteResult{
		Photo:            ref,
		Score:            score,
		PreviousScore:    previous,
		FirstVote:        firstVote,
		DistinctCount:    stats.DistinctCount,
		Remaining:        stats.Remaining(),
		ThresholdReached: stats.DistinctCount >= MinDistinctVotes,
	}
}

// CheckVotable は承認済みの写真以外への投票を拒否する。
func CheckVotable(photo Photo) error {
	switch photo.ModerationState {
	case ModerationApproved:
		return nil
	case ModerationPending:
		return deny(ActionVote, ReasonNotYet, "photo is awaiting moderation")
	}
	return deny(ActionVote, ReasonForbidden, "photo is not approved")
}
