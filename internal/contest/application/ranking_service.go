package application

import (
	"context"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

// rankingService implements RankingService.
type rankingService struct {
	deps Dependencies
}

func NewRankingService(deps Dependencies) RankingService {
	return &rankingService{deps: deps.withDefaults()}
}

// Ranking は保存された台帳から毎回計算し直す。キャッシュは持たない。
func (s *rankingService) Ranking(ctx context.Context, contestID string) ([]domain.RankingEntry, error) {
	if _, err := s.deps.Contests.FindByID(ctx, contestID); err != nil {
		return nil, err
	}
	submissions, err := s.deps.Submissions.FindByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return domain.ComputeRanking(submissions), nil
}
