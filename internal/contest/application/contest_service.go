package application

import (
	"context"
	"fmt"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

// contestService implements ContestService.
type contestService struct {
	deps      Dependencies
	lifecycle *lifecycleService
}

func NewContestService(deps Dependencies) ContestService {
	deps = deps.withDefaults()
	return &contestService{deps: deps, lifecycle: &lifecycleService{deps: deps}}
}

// loadContest は取得したコンテストを現在時刻で再解決してから返す。
func loadContest(ctx context.Context, deps Dependencies, lifecycle *lifecycleService, id string) (*domain.Contest, error) {
	contest, err := deps.Contests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Reconcile(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

func (s *contestService) List(ctx context.Context, filter ContestFilter) ([]domain.Contest, error) {
	contests, err := s.deps.Contests.Find(ctx, ContestFilter{})
	if err != nil {
		return nil, err
	}
	result := make([]domain.Contest, 0, len(contests))
	for i := range contests {
		if err := s.lifecycle.Reconcile(ctx, &contests[i]); err != nil {
			s.deps.Logger.Printf("contest list: reconcile failed id=%s err=%v", contests[i].ID, err)
		}
		if filter.Phase != nil && contests[i].Phase != *filter.Phase {
			continue
		}
		result = append(result, contests[i])
	}
	return result, nil
}

func (s *contestService) Detail(ctx context.Context, id string) (*domain.Contest, error) {
	return loadContest(ctx, s.deps, s.lifecycle, id)
}

func (s *contestService) Countdown(ctx context.Context, id string) (domain.Countdown, error) {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, id)
	if err != nil {
		return domain.Countdown{}, err
	}
	return domain.CountdownFor(*contest, s.deps.Clock.Now()), nil
}

func (s *contestService) Create(ctx context.Context, actor domain.Actor, cmd UpsertContestCommand) (*domain.Contest, error) {
	now := s.deps.Clock.Now()
	if err := domain.Authorize(domain.Request{Action: domain.ActionCreateContest, Actor: actor, Now: now}); err != nil {
		return nil, err
	}
	cmd = cmd.normalize()
	if err := validateContestCommand(cmd); err != nil {
		return nil, err
	}

	contest := &domain.Contest{
		CreatedBy:   actor.ID,
		Phase:       domain.PhasePending,
		Subscribers: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyContestCommand(contest, cmd)
	if err := s.deps.Contests.Create(ctx, contest); err != nil {
		return nil, err
	}
	s.deps.Logger.Printf("contest created id=%s by=%s", contest.ID, actor.ID)
	if err := s.lifecycle.Reconcile(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

func (s *contestService) Update(ctx context.Context, actor domain.Actor, id string, cmd UpsertContestCommand) (*domain.Contest, error) {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, id)
	if err != nil {
		return nil, err
	}
	now := s.deps.Clock.Now()
	if err := domain.Authorize(domain.Request{Action: domain.ActionEditContest, Actor: actor, Contest: *contest, Now: now}); err != nil {
		return nil, err
	}
	cmd = cmd.normalize()
	if err := validateContestCommand(cmd); err != nil {
		return nil, err
	}

	previous := contest.Phase
	applyContestCommand(contest, cmd)
	contest.UpdatedAt = now
	if resolution, err := domain.ResolvePhase(*contest, now); err == nil {
		contest.Phase = resolution.Phase
	}
	if err := s.deps.Contests.Update(ctx, contest); err != nil {
		return nil, err
	}
	if previous != contest.Phase {
		s.deps.Metrics.PhaseTransition(previous, contest.Phase)
		s.deps.Notifier.Notify(ctx, NotifyPhaseChanged, map[string]any{
			"contestId": contest.ID,
			"from":      string(previous),
			"to":        string(contest.Phase),
		})
	}
	return contest, nil
}

// Delete はコンテストと、その応募・投票進捗・外部画像をまとめて削除する。
func (s *contestService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	contest, err := s.deps.Contests.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := domain.Authorize(domain.Request{Action: domain.ActionDeleteContest, Actor: actor, Contest: *contest, Now: s.deps.Clock.Now()}); err != nil {
		return err
	}

	submissions, err := s.deps.Submissions.FindByContest(ctx, id)
	if err != nil {
		return err
	}
	for _, sub := range submissions {
		for _, photo := range sub.Slots {
			releaseImage(ctx, s.deps, photo.DeleteHandle)
		}
	}
	removed, err := s.deps.Submissions.DeleteByContest(ctx, id)
	if err != nil {
		return fmt.Errorf("delete submissions: %w", err)
	}
	if _, err := s.deps.VotingStats.DeleteByContest(ctx, id); err != nil {
		return fmt.Errorf("delete voting stats: %w", err)
	}
	if err := s.deps.Contests.Delete(ctx, id); err != nil {
		return err
	}
	s.deps.Logger.Printf("contest deleted id=%s submissions=%d by=%s", id, removed, actor.ID)
	return nil
}

func (s *contestService) Subscribe(ctx context.Context, actor domain.Actor, id string) error {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, id)
	if err != nil {
		return err
	}
	if err := domain.Authorize(domain.Request{Action: domain.ActionSubscribe, Actor: actor, Contest: *contest, Now: s.deps.Clock.Now()}); err != nil {
		return err
	}
	return s.deps.Contests.AddSubscriber(ctx, id, actor.ID)
}

func (s *contestService) Unsubscribe(ctx context.Context, actor domain.Actor, id string) error {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, id)
	if err != nil {
		return err
	}
	if err := domain.Authorize(domain.Request{Action: domain.ActionUnsubscribe, Actor: actor, Contest: *contest, Now: s.deps.Clock.Now()}); err != nil {
		return err
	}
	return s.deps.Contests.RemoveSubscriber(ctx, id, actor.ID)
}

func applyContestCommand(contest *domain.Contest, cmd UpsertContestCommand) {
	startAt := cmd.StartAt
	submissionCloseAt := cmd.SubmissionCloseAt
	votingCloseAt := cmd.VotingCloseAt
	contest.Title = cmd.Title
	contest.Theme = cmd.Theme
	contest.Description = cmd.Description
	contest.CoverImageURL = cmd.CoverImageURL
	contest.StartAt = &startAt
	contest.SubmissionCloseAt = &submissionCloseAt
	contest.VotingCloseAt = &votingCloseAt
}

// releaseImage は外部画像の削除を試みる。失敗はログとメトリクスに残すだけ。
func releaseImage(ctx context.Context, deps Dependencies, handle string) {
	if handle == "" || deps.Images == nil {
		return
	}
	if err := deps.Images.Release(ctx, handle); err != nil {
		deps.Logger.Printf("image release failed handle=%s err=%v", handle, err)
		deps.Metrics.ImageReleaseFailed()
	}
}
