package application

import (
	"context"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock は UTC の現在時刻を返す本番用クロック。
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ContestRepository abstracts the contest collection.
// 取得系は存在しない場合 domain.ErrNotFound を返す。
type ContestRepository interface {
	Find(ctx context.Context, filter ContestFilter) ([]domain.Contest, error)
	FindByID(ctx context.Context, id string) (*domain.Contest, error)
	Create(ctx context.Context, contest *domain.Contest) error
	Update(ctx context.Context, contest *domain.Contest) error
	UpdatePhase(ctx context.Context, id string, phase domain.Phase, at time.Time) error
	AddSubscriber(ctx context.Context, id, userID string) error
	RemoveSubscriber(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id string) error
}

// SubmissionRepository abstracts per-participant submissions and their slot ledgers.
type SubmissionRepository interface {
	FindByContest(ctx context.Context, contestID string) ([]domain.Submission, error)
	FindByID(ctx context.Context, id string) (*domain.Submission, error)
	FindByParticipant(ctx context.Context, contestID, participantID string) (*domain.Submission, error)
	UpsertPhoto(ctx context.Context, contestID string, owner domain.Actor, slot int, photo domain.Photo, at time.Time) (*domain.Submission, error)
	RemovePhoto(ctx context.Context, ref domain.PhotoRef, at time.Time) error
	// SetModeration は却下時に deleteHandle を消し、解放済みの画像を二度解放しないようにする。
	SetModeration(ctx context.Context, ref domain.PhotoRef, state domain.ModerationState, at time.Time) error
	SetVote(ctx context.Context, ref domain.PhotoRef, voterID string, score int) error
	DeleteByContest(ctx context.Context, contestID string) (int64, error)
}

// VotingStatsRepository tracks each voter's distinct-photo count per contest.
type VotingStatsRepository interface {
	Get(ctx context.Context, contestID, voterID string) (domain.VotingStats, error)
	// RecordVote は photoKey が初出の場合だけ DistinctCount を増やし、firstVote=true を返す。
	RecordVote(ctx context.Context, contestID, voterID, photoKey string, at time.Time) (stats domain.VotingStats, firstVote bool, err error)
	DeleteByContest(ctx context.Context, contestID string) (int64, error)
}

// UploadedImage は画像ホストから返された不透明な参照。
type UploadedImage struct {
	DisplayURL   string
	DeleteHandle string
}

// ImageHost stores binaries outside the service.
type ImageHost interface {
	Upload(ctx context.Context, image []byte, filename string) (UploadedImage, error)
	Release(ctx context.Context, deleteHandle string) error
}

// NotificationKind は通知の種類。
type NotificationKind string

const (
	NotifyPhaseChanged   NotificationKind = "contest_phase_changed"
	NotifyPhotoUploaded  NotificationKind = "photo_submitted"
	NotifyPhotoModerated NotificationKind = "photo_moderated"
)

// Notifier is a fire-and-forget sink; callers never depend on delivery.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, payload map[string]any)
}

// Recorder receives counters from the use cases. metrics.Metrics implements it.
type Recorder interface {
	LifecyclePass()
	PhaseTransition(from, to domain.Phase)
	LifecycleError(kind string)
	VoteCast(firstVote bool)
	VoteRejected(reason string)
	ImageReleaseFailed()
}

// ContestFilter narrows contest listings.
type ContestFilter struct {
	Phase *domain.Phase
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, NotificationKind, map[string]any) {}

type nopRecorder struct{}

func (nopRecorder) LifecyclePass() {}
func (nopRecorder) PhaseTransition(_, _ domain.Phase) {}
func (nopRecorder) LifecycleError(string) {}
func (nopRecorder) VoteCast(bool) {}
func (nopRecorder) VoteRejected(string) {}
func (nopRecorder) ImageReleaseFailed() {}
