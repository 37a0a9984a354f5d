package application

import (
	"context"
	"errors"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

// votingService implements VotingService.
type votingService struct {
	deps      Dependencies
	lifecycle *lifecycleService
}

func NewVotingService(deps Dependencies) VotingService {
	deps = deps.withDefaults()
	return &votingService{deps: deps, lifecycle: &lifecycleService{deps: deps}}
}

// CastVote は投票者のスコアを写真の台帳に書き込み、初回投票なら進捗を 1 つ進める。
// 同じ写真への再投票はスコアを上書きするだけで進捗は変わらない。
func (s *votingService) CastVote(ctx context.Context, actor domain.Actor, contestID string, ref domain.PhotoRef, score float64) (domain.VoteResult, error) {
	result, err := s.castVote(ctx, actor, contestID, ref, score)
	if err != nil {
		s.deps.Metrics.VoteRejected(rejectionLabel(err))
		return domain.VoteResult{}, err
	}
	s.deps.Metrics.VoteCast(result.FirstVote)
	return result, nil
}

func (s *votingService) castVote(ctx context.Context, actor domain.Actor, contestID string, ref domain.PhotoRef, score float64) (domain.VoteResult, error) {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, contestID)
	if err != nil {
		return domain.VoteResult{}, err
	}
	submission, photo, err := findPhoto(ctx, s.deps, contest.ID, ref)
	if err != nil {
		return domain.VoteResult{}, err
	}
	now := s.deps.Clock.Now()
	req := domain.Request{Action: domain.ActionVote, Actor: actor, Contest: *contest, Submission: submission, Now: now}
	if err := domain.Authorize(req); err != nil {
		return domain.VoteResult{}, err
	}
	if err := domain.CheckVotable(photo); err != nil {
		return domain.VoteResult{}, err
	}
	value, err := domain.ValidateScore(score)
	if err != nil {
		return domain.VoteResult{}, err
	}

	var previous *int
	if old, ok := photo.Votes[actor.ID]; ok {
		previous = &old
	}
	if err := s.deps.Submissions.SetVote(ctx, ref, actor.ID, value); err != nil {
		return domain.VoteResult{}, err
	}
	stats, firstVote, err := s.deps.VotingStats.RecordVote(ctx, contest.ID, actor.ID, photo.ID, now)
	if err != nil {
		// スコアは保存済みなので成功として返し、進捗は直前の値のままにする。
		s.deps.Logger.Printf("vote stored without progress contest=%s photo=%s voter=%s err=%v", contest.ID, ref, actor.ID, err)
		stats = s.lastStats(ctx, contest.ID, actor.ID)
		firstVote = previous == nil
	}
	if previous != nil {
		firstVote = false
	}
	return domain.NewVoteResult(ref, value, previous, firstVote, stats), nil
}

func (s *votingService) lastStats(ctx context.Context, contestID, voterID string) domain.VotingStats {
	stats, err := s.deps.VotingStats.Get(ctx, contestID, voterID)
	if err != nil {
		return domain.VotingStats{ContestID: contestID, VoterID: voterID}
	}
	return stats
}

// Progress は投票者の進捗を返す。まだ投票していなければゼロ値。
func (s *votingService) Progress(ctx context.Context, actor domain.Actor, contestID string) (domain.VotingStats, error) {
	if _, err := s.deps.Contests.FindByID(ctx, contestID); err != nil {
		return domain.VotingStats{}, err
	}
	stats, err := s.deps.VotingStats.Get(ctx, contestID, actor.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.VotingStats{ContestID: contestID, VoterID: actor.ID}, nil
	}
	return stats, err
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotPermitted):
		return string(domain.ReasonOf(err))
	case errors.Is(err, domain.ErrInvalidScore):
		return "invalid_score"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "error"
}
