package application

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

// Dependencies bundles the collaborators shared by every use case.
type Dependencies struct {
	Contests    ContestRepository
	Submissions SubmissionRepository
	VotingStats VotingStatsRepository
	Images      ImageHost
	Notifier    Notifier
	Metrics     Recorder
	Clock       Clock
	Logger      *log.Logger
	// AdvanceConcurrency は Advance が同時に処理するコンテスト数の上限。
	AdvanceConcurrency int
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = log.New(os.Stderr, "[photo-contest] ", log.LstdFlags)
	}
	if d.AdvanceConcurrency <= 0 {
		d.AdvanceConcurrency = 8
	}
	return d
}

// Transition は Advance が永続化したフェーズ変更 1 件。
type Transition struct {
	ContestID string
	From      domain.Phase
	To        domain.Phase
}

// LifecycleService re-derives contest phases from wall-clock time.
type LifecycleService interface {
	// Advance は全コンテストを再解決し、変化したフェーズだけを保存する。冪等。
	Advance(ctx context.Context) ([]Transition, error)
	// Reconcile は 1 件のコンテストのドリフトを解消し、保存済みフェーズを更新した状態で返す。
	Reconcile(ctx context.Context, contest *domain.Contest) error
}

// ContestService describes contest use-cases for admins and participants.
type ContestService interface {
	List(ctx context.Context, filter ContestFilter) ([]domain.Contest, error)
	Detail(ctx context.Context, id string) (*domain.Contest, error)
	Countdown(ctx context.Context, id string) (domain.Countdown, error)
	Create(ctx context.Context, actor domain.Actor, cmd UpsertContestCommand) (*domain.Contest, error)
	Update(ctx context.Context, actor domain.Actor, id string, cmd UpsertContestCommand) (*domain.Contest, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	Subscribe(ctx context.Context, actor domain.Actor, id string) error
	Unsubscribe(ctx context.Context, actor domain.Actor, id string) error
}

// SubmissionService describes photo upload, removal and moderation.
type SubmissionService interface {
	Upload(ctx context.Context, actor domain.Actor, cmd UploadPhotoCommand) (*domain.Submission, error)
	DeletePhoto(ctx context.Context, actor domain.Actor, contestID string, ref domain.PhotoRef) error
	Moderate(ctx context.Context, actor domain.Actor, contestID string, ref domain.PhotoRef, state domain.ModerationState) error
	Gallery(ctx context.Context, actor domain.Actor, contestID string) ([]GalleryItem, error)
	Mine(ctx context.Context, actor domain.Actor, contestID string) (*domain.Submission, error)
}

// VotingService is the single entry point for the vote ledger.
type VotingService interface {
	CastVote(ctx context.Context, actor domain.Actor, contestID string, ref domain.PhotoRef, score float64) (domain.VoteResult, error)
	Progress(ctx context.Context, actor domain.Actor, contestID string) (domain.VotingStats, error)
}

// RankingService recomputes the leaderboard on every call.
type RankingService interface {
	Ranking(ctx context.Context, contestID string) ([]domain.RankingEntry, error)
}

// UpsertContestCommand contains inputs for creating/updating contests.
type UpsertContestCommand struct {
	Title             string    `validate:"required,min=5,max=120"`
	Theme             string    `validate:"required,min=5,max=120"`
	Description       string    `validate:"required,min=10,max=5000"`
	CoverImageURL     string    `validate:"required,url"`
	StartAt           time.Time `validate:"required"`
	SubmissionCloseAt time.Time `validate:"required,gtefield=StartAt"`
	VotingCloseAt     time.Time `validate:"required,gtefield=SubmissionCloseAt"`
}

// UploadPhotoCommand carries an image destined for one slot.
type UploadPhotoCommand struct {
	ContestID string
	Slot      int
	Filename  string
	Image     []byte
}

// GalleryItem は一覧表示用の写真 1 枚。VoteCount は管理者にのみ埋める。
type GalleryItem struct {
	Photo     domain.PhotoRef
	ImageURL  string
	OwnerID   string
	OwnerName string
	State     domain.ModerationState
	VoteCount *int
	MyScore   *int
	IsOwn     bool
}
