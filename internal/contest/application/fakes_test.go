package application

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/stretchr/testify/mock"
)

var (
	baseTime    = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	participant = domain.Actor{ID: "p1", Name: "Participant", Roles: []domain.Role{domain.RoleParticipant}}
	voter1      = domain.Actor{ID: "v1", Name: "Voter One", Roles: []domain.Role{domain.RoleParticipant}}
	voter2      = domain.Actor{ID: "v2", Name: "Voter Two", Roles: []domain.Role{domain.RoleParticipant}}
	admin       = domain.Actor{ID: "a1", Name: "Admin", Roles: []domain.Role{domain.RoleAdmin}}
)

func day(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func timePtr(t time.Time) *time.Time { return &t }

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

// memContests は ContestRepository のインメモリ実装。
type memContests struct {
	mu          sync.Mutex
	items       map[string]domain.Contest
	seq         int
	failPhaseOn map[string]bool
}

func newMemContests(contests ...domain.Contest) *memContests {
	repo := &memContests{items: map[string]domain.Contest{}, failPhaseOn: map[string]bool{}}
	for _, c := range contests {
		repo.items[c.ID] = c
	}
	return repo
}

func (r *memContests) Find(_ context.Context, filter ContestFilter) ([]domain.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Contest, 0, len(r.items))
	for _, c := range r.items {
		if filter.Phase != nil && c.Phase != *filter.Phase {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memContests) FindByID(_ context.Context, id string) (*domain.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Subscribers = append([]string{}, c.Subscribers...)
	return &c, nil
}

func (r *memContests) Create(_ context.Context, contest *domain.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	contest.ID = fmt.Sprintf("c%d", r.seq)
	r.items[contest.ID] = *contest
	return nil
}

func (r *memContests) Update(_ context.Context, contest *domain.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[contest.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[contest.ID] = *contest
	return nil
}

func (r *memContests) UpdatePhase(_ context.Context, id string, phase domain.Phase, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPhaseOn[id] {
		return fmt.Errorf("write conflict")
	}
	c, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Phase = phase
	c.UpdatedAt = at
	r.items[id] = c
	return nil
}

func (r *memContests) AddSubscriber(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.items[id]
	if !c.IsSubscribed(userID) {
		c.Subscribers = append(c.Subscribers, userID)
	}
	r.items[id] = c
	return nil
}

func (r *memContests) RemoveSubscriber(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.items[id]
	kept := make([]string, 0, len(c.Subscribers))
	for _, s := range c.Subscribers {
		if s != userID {
			kept = append(kept, s)
		}
	}
	c.Subscribers = kept
	r.items[id] = c
	return nil
}

func (r *memContests) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memContests) phaseOf(id string) domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Phase
}

// memSubmissions は SubmissionRepository のインメモリ実装。
type memSubmissions struct {
	items map[string]*domain.Submission
	seq   int
}

func newMemSubmissions() *memSubmissions {
	return &memSubmissions{items: map[string]*domain.Submission{}}
}

func cloneSubmission(s *domain.Submission) *domain.Submission {
	out := *s
	out.Slots = map[int]domain.Photo{}
	for slot, photo := range s.Slots {
		votes := map[string]int{}
		for k, v := range photo.Votes {
			votes[k] = v
		}
		photo.Votes = votes
		out.Slots[slot] = photo
	}
	return &out
}

func (r *memSubmissions) FindByContest(_ context.Context, contestID string) ([]domain.Submission, error) {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domain.Submission, 0)
	for _, id := range ids {
		if r.items[id].ContestID == contestID {
			out = append(out, *cloneSubmission(r.items[id]))
		}
	}
	return out, nil
}

func (r *memSubmissions) FindByID(_ context.Context, id string) (*domain.Submission, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSubmission(s), nil
}

func (r *memSubmissions) FindByParticipant(_ context.Context, contestID, participantID string) (*domain.Submission, error) {
	for _, s := range r.items {
		if s.ContestID == contestID && s.ParticipantID == participantID {
			return cloneSubmission(s), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memSubmissions) UpsertPhoto(ctx context.Context, contestID string, owner domain.Actor, slot int, photo domain.Photo, at time.Time) (*domain.Submission, error) {
	var target *domain.Submission
	for _, s := range r.items {
		if s.ContestID == contestID && s.ParticipantID == owner.ID {
			target = s
		}
	}
	if target == nil {
		r.seq++
		target = &domain.Submission{
			ID:              fmt.Sprintf("s%d", r.seq),
			ContestID:       contestID,
			ParticipantID:   owner.ID,
			ParticipantName: owner.Name,
			Slots:           map[int]domain.Photo{},
			CreatedAt:       at,
		}
		r.items[target.ID] = target
	}
	target.Slots[slot] = photo
	target.UpdatedAt = at
	return cloneSubmission(target), nil
}

func (r *memSubmissions) RemovePhoto(_ context.Context, ref domain.PhotoRef, at time.Time) error {
	s, ok := r.items[ref.SubmissionID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := s.Slots[ref.Slot]; !ok {
		return domain.ErrNotFound
	}
	delete(s.Slots, ref.Slot)
	s.UpdatedAt = at
	return nil
}

func (r *memSubmissions) SetModeration(_ context.Context, ref domain.PhotoRef, state domain.ModerationState, at time.Time) error {
	s, ok := r.items[ref.SubmissionID]
	if !ok {
		return domain.ErrNotFound
	}
	photo := s.Slots[ref.Slot]
	photo.ModerationState = state
	photo.ModeratedAt = &at
	if domain.ReleasesImage(state) {
		photo.DeleteHandle = ""
	}
	s.Slots[ref.Slot] = photo
	s.UpdatedAt = at
	return nil
}

func (r *memSubmissions) SetVote(_ context.Context, ref domain.PhotoRef, voterID string, score int) error {
	s, ok := r.items[ref.SubmissionID]
	if !ok {
		return domain.ErrNotFound
	}
	photo := s.Slots[ref.Slot]
	if photo.Votes == nil {
		photo.Votes = map[string]int{}
	}
	photo.Votes[voterID] = score
	s.Slots[ref.Slot] = photo
	return nil
}

func (r *memSubmissions) DeleteByContest(_ context.Context, contestID string) (int64, error) {
	var n int64
	for id, s := range r.items {
		if s.ContestID == contestID {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

// memStats は VotingStatsRepository のインメモリ実装。
type memStats struct {
	items     map[string]*domain.VotingStats
	recordErr error
}

func newMemStats() *memStats {
	return &memStats{items: map[string]*domain.VotingStats{}}
}

func (r *memStats) Get(_ context.Context, contestID, voterID string) (domain.VotingStats, error) {
	s, ok := r.items[contestID+"/"+voterID]
	if !ok {
		return domain.VotingStats{}, domain.ErrNotFound
	}
	return *s, nil
}

func (r *memStats) RecordVote(_ context.Context, contestID, voterID, photoKey string, at time.Time) (domain.VotingStats, bool, error) {
	if r.recordErr != nil {
		return domain.VotingStats{}, false, r.recordErr
	}
	key := contestID + "/" + voterID
	s, ok := r.items[key]
	if !ok {
		s = &domain.VotingStats{ContestID: contestID, VoterID: voterID}
		r.items[key] = s
	}
	for _, voted := range s.VotedPhotos {
		if voted == photoKey {
			s.LastVotedAt = at
			return *s, false, nil
		}
	}
	s.VotedPhotos = append(s.VotedPhotos, photoKey)
	s.DistinctCount++
	s.LastVotedAt = at
	return *s, true, nil
}

func (r *memStats) DeleteByContest(_ context.Context, contestID string) (int64, error) {
	var n int64
	for key, s := range r.items {
		if s.ContestID == contestID {
			delete(r.items, key)
			n++
		}
	}
	return n, nil
}

type mockImageHost struct {
	mock.Mock
}

func (m *mockImageHost) Upload(ctx context.Context, image []byte, filename string) (UploadedImage, error) {
	args := m.Called(ctx, image, filename)
	return args.Get(0).(UploadedImage), args.Error(1)
}

func (m *mockImageHost) Release(ctx context.Context, deleteHandle string) error {
	args := m.Called(ctx, deleteHandle)
	return args.Error(0)
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []NotificationKind
}

func (n *recordingNotifier) Notify(_ context.Context, kind NotificationKind, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

type fixture struct {
	clock       *fixedClock
	contests    *memContests
	submissions *memSubmissions
	stats       *memStats
	images      *mockImageHost
	notifier    *recordingNotifier
	deps        Dependencies
}

func newFixture(t *testing.T, now time.Time, contests ...domain.Contest) *fixture {
	t.Helper()
	f := &fixture{
		clock:       &fixedClock{now: now},
		contests:    newMemContests(contests...),
		submissions: newMemSubmissions(),
		stats:       newMemStats(),
		images:      &mockImageHost{},
		notifier:    &recordingNotifier{},
	}
	f.deps = Dependencies{
		Contests:    f.contests,
		Submissions: f.submissions,
		VotingStats: f.stats,
		Images:      f.images,
		Notifier:    f.notifier,
		Clock:       f.clock,
		Logger:      log.New(io.Discard, "", 0),
	}
	return f
}

// weekContest は baseTime 開始、7 日で応募締切、14 日で投票締切のコンテスト。
func weekContest(id string, phase domain.Phase, subscribers ...string) domain.Contest {
	return domain.Contest{
		ID:                id,
		Title:             "Spring Light",
		Theme:             "Morning light",
		StartAt:           timePtr(baseTime),
		SubmissionCloseAt: timePtr(baseTime.Add(day(7))),
		VotingCloseAt:     timePtr(baseTime.Add(day(14))),
		Phase:             phase,
		Subscribers:       subscribers,
	}
}

// seedPhoto は応募と写真を直接リポジトリに置く。
func (f *fixture) seedPhoto(contestID string, owner domain.Actor, slot int, state domain.ModerationState) domain.PhotoRef {
	sub, _ := f.submissions.UpsertPhoto(context.Background(), contestID, owner, slot, domain.Photo{
		ID:              fmt.Sprintf("%s-%s-%d", contestID, owner.ID, slot),
		ImageURL:        "https://img.example/" + owner.ID,
		DeleteHandle:    "del-" + owner.ID,
		ModerationState: state,
		Votes:           map[string]int{},
	}, f.clock.now)
	return domain.PhotoRef{SubmissionID: sub.ID, Slot: slot}
}
