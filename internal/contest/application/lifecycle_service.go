package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"golang.org/x/sync/errgroup"
)

type lifecycleService struct {
	deps Dependencies
}

// NewLifecycleService creates the phase advancer.
func NewLifecycleService(deps Dependencies) LifecycleService {
	return &lifecycleService{deps: deps.withDefaults()}
}

// Advance は全コンテストを独立に処理する。解決できないコンテストはスキップし、
// 保存に失敗したコンテストのエラーはまとめて返す（他のコンテストの処理は続行する）。
func (s *lifecycleService) Advance(ctx context.Context) ([]Transition, error) {
	contests, err := s.deps.Contests.Find(ctx, ContestFilter{})
	if err != nil {
		s.deps.Metrics.LifecycleError("list")
		return nil, fmt.Errorf("list contests: %w", err)
	}
	now := s.deps.Clock.Now()

	var (
		mu          sync.Mutex
		transitions []Transition
		errs        []error
	)

	group := new(errgroup.Group)
	group.SetLimit(s.deps.AdvanceConcurrency)
	for _, contest := range contests {
		contest := contest
		group.Go(func() error {
			transition, changed, err := s.advanceOne(ctx, contest, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			if changed {
				transitions = append(transitions, transition)
			}
			return nil
		})
	}
	_ = group.Wait()

	sort.Slice(transitions, func(i, j int) bool {
		return transitions[i].ContestID < transitions[j].ContestID
	})
	s.deps.Metrics.LifecyclePass()

	for _, t := range transitions {
		s.deps.Notifier.Notify(ctx, NotifyPhaseChanged, map[string]any{
			"contestId": t.ContestID,
			"from":      string(t.From),
			"to":        string(t.To),
		})
	}

	return transitions, errors.Join(errs...)
}

// advanceOne は 1 件分の解決と保存。解決不能は (changed=false, err=nil) としてスキップ扱い。
func (s *lifecycleService) advanceOne(ctx context.Context, contest domain.Contest, now time.Time) (Transition, bool, error) {
	drift, err := domain.DetectDrift(contest, now)
	if err != nil {
		s.deps.Logger.Printf("lifecycle: skip contest id=%s phase=%s err=%v", contest.ID, contest.Phase, err)
		s.deps.Metrics.LifecycleError("indeterminate")
		return Transition{}, false, nil
	}
	if drift.Degraded {
		s.deps.Logger.Printf("lifecycle: contest id=%s has no votingCloseAt, finalized from submissionCloseAt", contest.ID)
	}
	if !drift.Changed() {
		return Transition{}, false, nil
	}
	if err := s.deps.Contests.UpdatePhase(ctx, contest.ID, drift.Derived, now); err != nil {
		s.deps.Logger.Printf("lifecycle: persist phase failed id=%s %s->%s err=%v", contest.ID, drift.Stored, drift.Derived, err)
		s.deps.Metrics.LifecycleError("persist")
		return Transition{}, false, fmt.Errorf("contest %s: %w", contest.ID, err)
	}
	s.deps.Metrics.PhaseTransition(drift.Stored, drift.Derived)
	s.deps.Logger.Printf("lifecycle: contest id=%s %s -> %s", contest.ID, drift.Stored, drift.Derived)
	return Transition{ContestID: contest.ID, From: drift.Stored, To: drift.Derived}, true, nil
}

// Reconcile は読み込んだコンテストのドリフトをその場で解消する。
// 解決不能なら最後の保存値のまま返し、保存失敗のみエラーにする。
func (s *lifecycleService) Reconcile(ctx context.Context, contest *domain.Contest) error {
	transition, changed, err := s.advanceOne(ctx, *contest, s.deps.Clock.Now())
	if err != nil {
		return err
	}
	if changed {
		contest.Phase = transition.To
		s.deps.Notifier.Notify(ctx, NotifyPhaseChanged, map[string]any{
			"contestId": transition.ContestID,
			"from":      string(transition.From),
			"to":        string(transition.To),
		})
	}
	return nil
}
