package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotCount は参加者 1 人あたりの写真スロット数。
const SlotCount = 3

// Contest は 3 つの日時でフェーズが決まる期間限定のフォトコンテスト。
type Contest struct {
	ID                string
	Title             string
	Theme             string
	Description       string
	CoverImageURL     string
	StartAt           *time.Time
	SubmissionCloseAt *time.Time
	VotingCloseAt     *time.Time
	Phase             Phase
	CreatedBy         string
	Subscribers       []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsSubscribed は userID が参加登録済みか判定する。
func (c Contest) IsSubscribed(userID string) bool {
	for _, id := range c.Subscribers {
		if id == userID {
			return true
		}
	}
	return false
}

// ModerationState は写真 1 枚分の承認状態。
type ModerationState string

const (
	ModerationPending  ModerationState = "pending"
	ModerationApproved ModerationState = "approved"
	ModerationRejected ModerationState = "rejected"
)

// ParseModerationState は文字列を ModerationState に変換する。
func ParseModerationState(value string) (ModerationState, error) {
	switch ModerationState(strings.ToLower(strings.TrimSpace(value))) {
	case ModerationPending:
		return ModerationPending, nil
	case ModerationApproved:
		return ModerationApproved, nil
	case ModerationRejected:
		return ModerationRejected, nil
	}
	return "", fmt.Errorf("%w: unknown moderation state %q", ErrValidation, value)
}

// Photo は 1 スロットに格納された写真と、その投票台帳。
type Photo struct {
	ID              string
	ImageURL        string
	DeleteHandle    string
	ModerationState ModerationState
	Votes           map[string]int
	UploadedAt      time.Time
	ModeratedAt     *time.Time
}

// Submission は (コンテスト, 参加者) ごとの応募。最大 SlotCount 枚の写真を持つ。
type Submission struct {
	ID              string
	ContestID       string
	ParticipantID   string
	ParticipantName string
	Slots           map[int]Photo
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Photo は指定スロットの写真を返す。
func (s Submission) Photo(slot int) (Photo, bool) {
	if s.Slots == nil {
		return Photo{}, false
	}
	photo, ok := s.Slots[slot]
	return photo, ok
}

// ValidateSlot はスロット番号が 1..SlotCount の範囲か検証する。
func ValidateSlot(slot int) error {
	if slot < 1 || slot > SlotCount {
		return fmt.Errorf("%w: slot must be between 1 and %d, got %d", ErrInvalidSlot, SlotCount, slot)
	}
	return nil
}

// PhotoRef は応募 ID とスロット番号で写真 1 枚を指す識別子。
type PhotoRef struct {
	SubmissionID string
	Slot         int
}

func (r PhotoRef) String() string {
	return r.SubmissionID + "-" + strconv.Itoa(r.Slot)
}

// ParsePhotoRef は "<submissionID>-<slot>" 形式を解析する。
func ParsePhotoRef(value string) (PhotoRef, error) {
	value = strings.TrimSpace(value)
	idx := strings.LastIndex(value, "-")
	if idx <= 0 || idx == len(value)-1 {
		return PhotoRef{}, fmt.Errorf("%w: malformed photo reference %q", ErrValidation, value)
	}
	slot, err := strconv.Atoi(value[idx+1:])
	if err != nil {
		return PhotoRef{}, fmt.Errorf("%w: malformed photo slot in %q", ErrValidation, value)
	}
	if err := ValidateSlot(slot); err != nil {
		return PhotoRef{}, err
	}
	return PhotoRef{SubmissionID: value[:idx], Slot: slot}, nil
}

// VotingStats は投票者ごと・コンテストごとの投票進捗。DistinctCount は単調増加。
type VotingStats struct {
	ContestID     string
	VoterID       string
	DistinctCount int
	VotedPhotos   []string
	LastVotedAt   time.Time
}

// Remaining は閾値到達までに必要な残り枚数。
func (s VotingStats) Remaining() int {
	if s.DistinctCount >= MinDistinctVotes {
		return 0
	}
	return MinDistinctVotes - s.DistinctCount
}
