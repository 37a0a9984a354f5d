package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContestDocument は MongoDB 上でのコンテストスキーマ。日時は欠損を表現できるようポインタで持つ。
type ContestDocument struct {
	ID                primitive.ObjectID `bson:"_id"`
	Title             string             `bson:"title"`
	Theme             string             `bson:"theme"`
	Description       string             `bson:"description"`
	CoverImageURL     string             `bson:"coverImageURL"`
	StartAt           *time.Time         `bson:"startAt,omitempty"`
	SubmissionCloseAt *time.Time         `bson:"submissionCloseAt,omitempty"`
	VotingCloseAt     *time.Time         `bson:"votingCloseAt,omitempty"`
	Phase             string             `bson:"phase"`
	CreatedBy         string             `bson:"createdBy,omitempty"`
	Subscribers       []string           `bson:"subscribers"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

// SubmissionDocument は (コンテスト, 参加者) ごとの応募。slots のキーは "1".."3"。
type SubmissionDocument struct {
	ID              primitive.ObjectID       `bson:"_id"`
	ContestID       primitive.ObjectID       `bson:"contestId"`
	ParticipantID   string                   `bson:"participantId"`
	ParticipantName string                   `bson:"participantName,omitempty"`
	Slots           map[string]PhotoDocument `bson:"slots"`
	CreatedAt       time.Time                `bson:"createdAt"`
	UpdatedAt       time.Time                `bson:"updatedAt"`
}

// PhotoDocument はスロット 1 つ分の写真と投票台帳 (voterId -> score)。
type PhotoDocument struct {
	ID              string         `bson:"id"`
	ImageURL        string         `bson:"imageURL"`
	DeleteHandle    string         `bson:"deleteHandle,omitempty"`
	ModerationState string         `bson:"moderationState"`
	Votes           map[string]int `bson:"votes"`
	UploadedAt      time.Time      `bson:"uploadedAt"`
	ModeratedAt     *time.Time     `bson:"moderatedAt,omitempty"`
}

// VotingStatsDocument は投票者ごと・コンテストごとの進捗。
type VotingStatsDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ContestID     primitive.ObjectID `bson:"contestId"`
	VoterID       string             `bson:"voterId"`
	DistinctCount int                `bson:"distinctImagesVotedCount"`
	VotedPhotos   []string           `bson:"imagesVotedSet"`
	LastVotedAt   time.Time          `bson:"lastVotedAt"`
}
