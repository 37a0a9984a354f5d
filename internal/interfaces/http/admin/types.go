package admin

import "time"

// contestRequest は作成・更新で共通の入力。日時は RFC3339 か "2006-01-02T15:04"（運営タイムゾーン）。
type contestRequest struct {
	Title             string `json:"title"`
	Theme             string `json:"theme"`
	Description       string `json:"description"`
	CoverImageURL     string `json:"coverImageUrl"`
	StartAt           string `json:"startAt"`
	SubmissionCloseAt string `json:"submissionCloseAt"`
	VotingCloseAt     string `json:"votingCloseAt"`
}

type adminContestResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Theme             string     `json:"theme"`
	Description       string     `json:"description"`
	CoverImageURL     string     `json:"coverImageUrl,omitempty"`
	StartAt           *time.Time `json:"startAt,omitempty"`
	SubmissionCloseAt *time.Time `json:"submissionCloseAt,omitempty"`
	VotingCloseAt     *time.Time `json:"votingCloseAt,omitempty"`
	Phase             string     `json:"phase"`
	CreatedBy         string     `json:"createdBy,omitempty"`
	Subscribers       []string   `json:"subscribers"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type moderationRequest struct {
	State string `json:"state"`
}

type transitionResponse struct {
	ContestID string `json:"contestId"`
	From      string `json:"from"`
	To        string `json:"to"`
}

type advanceResponse struct {
	Transitions []transitionResponse `json:"transitions"`
	Error       string               `json:"error,omitempty"`
}
