package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

// submissionService implements SubmissionService.
type submissionService struct {
	deps      Dependencies
	lifecycle *lifecycleService
}

func NewSubmissionService(deps Dependencies) SubmissionService {
	deps = deps.withDefaults()
	return &submissionService{deps: deps, lifecycle: &lifecycleService{deps: deps}}
}

// Upload はスロットに写真を格納する。既存の写真があれば置き換え、旧画像を解放する。
func (s *submissionService) Upload(ctx context.Context, actor domain.Actor, cmd UploadPhotoCommand) (*domain.Submission, error) {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, cmd.ContestID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateSlot(cmd.Slot); err != nil {
		return nil, err
	}
	now := s.deps.Clock.Now()
	if err := domain.Authorize(domain.Request{Action: domain.ActionUploadPhoto, Actor: actor, Contest: *contest, Now: now}); err != nil {
		return nil, err
	}
	if len(cmd.Image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrValidation)
	}

	var previous domain.Photo
	existing, err := s.deps.Submissions.FindByParticipant(ctx, contest.ID, actor.ID)
	switch {
	case err == nil:
		previous, _ = existing.Photo(cmd.Slot)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	uploaded, err := s.deps.Images.Upload(ctx, cmd.Image, cmd.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: upload image: %v", domain.ErrExternalResource, err)
	}

	photo := domain.Photo{
		ID:              uuid.NewString(),
		ImageURL:        uploaded.DisplayURL,
		DeleteHandle:    uploaded.DeleteHandle,
		ModerationState: domain.ModerationPending,
		Votes:           map[string]int{},
		UploadedAt:      now,
	}
	submission, err := s.deps.Submissions.UpsertPhoto(ctx, contest.ID, actor, cmd.Slot, photo, now)
	if err != nil {
		releaseImage(ctx, s.deps, uploaded.DeleteHandle)
		return nil, err
	}
	releaseImage(ctx, s.deps, previous.DeleteHandle)

	ref := domain.PhotoRef{SubmissionID: submission.ID, Slot: cmd.Slot}
	s.deps.Logger.Printf("photo uploaded contest=%s photo=%s by=%s", contest.ID, ref, actor.ID)
	s.deps.Notifier.Notify(ctx, NotifyPhotoUploaded, map[string]any{
		"contestId":    contest.ID,
		"contestTitle": contest.Title,
		"photo":        ref.String(),
		"participant":  actor.Name,
		"imageUrl":     uploaded.DisplayURL,
	})
	return submission, nil
}

// findPhoto はコンテスト配下の応募と写真を解決する。別コンテストの応募は NotFound 扱い。
func findPhoto(ctx context.Context, deps Dependencies, contestID string, ref domain.PhotoRef) (*domain.Submission, domain.Photo, error) {
	submission, err := deps.Submissions.FindByID(ctx, ref.SubmissionID)
	if err != nil {
		return nil, domain.Photo{}, err
	}
	if submission.ContestID != contestID {
		return nil, domain.Photo{}, fmt.Errorf("%w: photo %s", domain.ErrNotFound, ref)
	}
	photo, ok := submission.Photo(ref.Slot)
	if !ok {
		return nil, domain.Photo{}, fmt.Errorf("%w: photo %s", domain.ErrNotFound, ref)
	}
	return submission, photo, nil
}

func (s *submissionService) DeletePhoto(ctx context.Context, actor domain.Actor, contestID string, ref domain.PhotoRef) error {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, contestID)
	if err != nil {
		return err
	}
	submission, photo, err := findPhoto(ctx, s.deps, contest.ID, ref)
	if err != nil {
		return err
	}
	now := s.deps.Clock.Now()
	req := domain.Request{Action: domain.ActionDeletePhoto, Actor: actor, Contest: *contest, Submission: submission, Now: now}
	if err := domain.Authorize(req); err != nil {
		return err
	}
	if err := s.deps.Submissions.RemovePhoto(ctx, ref, now); err != nil {
		return err
	}
	releaseImage(ctx, s.deps, photo.DeleteHandle)
	s.deps.Logger.Printf("photo deleted contest=%s photo=%s by=%s", contest.ID, ref, actor.ID)
	return nil
}

func (s *submissionService) Moderate(ctx context.Context, actor domain.Actor, contestID string, ref domain.PhotoRef, state domain.ModerationState) error {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, contestID)
	if err != nil {
		return err
	}
	now := s.deps.Clock.Now()
	if err := domain.Authorize(domain.Request{Action: domain.ActionModerate, Actor: actor, Contest: *contest, Now: now}); err != nil {
		return err
	}
	if err := domain.CheckModerationWindow(*contest); err != nil {
		return err
	}
	submission, photo, err := findPhoto(ctx, s.deps, contest.ID, ref)
	if err != nil {
		return err
	}
	if err := domain.Transition(photo.ModerationState, state); err != nil {
		return err
	}
	if err := s.deps.Submissions.SetModeration(ctx, ref, state, now); err != nil {
		return err
	}
	if domain.ReleasesImage(state) {
		releaseImage(ctx, s.deps, photo.DeleteHandle)
	}

	s.deps.Logger.Printf("photo moderated contest=%s photo=%s %s->%s by=%s", contest.ID, ref, photo.ModerationState, state, actor.ID)
	s.deps.Notifier.Notify(ctx, NotifyPhotoModerated, map[string]any{
		"contestId":    contest.ID,
		"contestTitle": contest.Title,
		"photo":        ref.String(),
		"ownerId":      submission.ParticipantID,
		"state":        string(state),
	})
	return nil
}

// Gallery は管理者には全写真を、それ以外には承認済みと自分の写真だけを返す。
func (s *submissionService) Gallery(ctx context.Context, actor domain.Actor, contestID string) ([]GalleryItem, error) {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, contestID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.deps.Submissions.FindByContest(ctx, contest.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].CreatedAt.Before(submissions[j].CreatedAt)
	})

	admin := actor.IsAdmin()
	items := make([]GalleryItem, 0)
	for _, sub := range submissions {
		own := actor.ID != "" && sub.ParticipantID == actor.ID
		slots := make([]int, 0, len(sub.Slots))
		for slot := range sub.Slots {
			slots = append(slots, slot)
		}
		sort.Ints(slots)
		for _, slot := range slots {
			photo := sub.Slots[slot]
			if !admin && !own && photo.ModerationState != domain.ModerationApproved {
				continue
			}
			item := GalleryItem{
				Photo:     domain.PhotoRef{SubmissionID: sub.ID, Slot: slot},
				ImageURL:  photo.ImageURL,
				OwnerID:   sub.ParticipantID,
				OwnerName: sub.ParticipantName,
				State:     photo.ModerationState,
				IsOwn:     own,
			}
			if admin {
				count := len(photo.Votes)
				item.VoteCount = &count
			}
			if score, ok := photo.Votes[actor.ID]; ok {
				score := score
				item.MyScore = &score
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *submissionService) Mine(ctx context.Context, actor domain.Actor, contestID string) (*domain.Submission, error) {
	contest, err := loadContest(ctx, s.deps, s.lifecycle, contestID)
	if err != nil {
		return nil, err
	}
	submission, err := s.deps.Submissions.FindByParticipant(ctx, contest.ID, actor.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return submission, err
}
