package public

import (
	"time"

	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
	"github.com/sngm3741/photo-contest/api/internal/interfaces/http/common"
)

type contestResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Theme             string     `json:"theme"`
	Description       string     `json:"description"`
	DescriptionHTML   string     `json:"descriptionHtml,omitempty"`
	CoverImageURL     string     `json:"coverImageUrl,omitempty"`
	StartAt           *time.Time `json:"startAt,omitempty"`
	SubmissionCloseAt *time.Time `json:"submissionCloseAt,omitempty"`
	VotingCloseAt     *time.Time `json:"votingCloseAt,omitempty"`
	Phase             string     `json:"phase"`
	SubscriberCount   int        `json:"subscriberCount"`
	Subscribed        bool       `json:"subscribed"`
}

type contestListResponse struct {
	Items []contestResponse `json:"items"`
	Total int               `json:"total"`
}

type countdownResponse struct {
	Phase     string     `json:"phase"`
	Label     string     `json:"label"`
	Target    *time.Time `json:"target,omitempty"`
	Running   bool       `json:"running"`
	Remaining int64      `json:"remainingSeconds"`
	Days      int        `json:"days"`
	Hours     int        `json:"hours"`
	Minutes   int        `json:"minutes"`
	Seconds   int        `json:"seconds"`
}

type galleryItemResponse struct {
	PhotoRef  string `json:"photoRef"`
	Slot      int    `json:"slot"`
	ImageURL  string `json:"imageUrl"`
	OwnerName string `json:"ownerName,omitempty"`
	State     string `json:"state"`
	VoteCount *int   `json:"voteCount,omitempty"`
	MyScore   *int   `json:"myScore,omitempty"`
	IsOwn     bool   `json:"isOwn"`
}

type rankingEntryResponse struct {
	Position   int     `json:"position"`
	PhotoRef   string  `json:"photoRef"`
	ImageURL   string  `json:"imageUrl"`
	OwnerName  string  `json:"ownerName,omitempty"`
	MeanScore  float64 `json:"meanScore"`
	VoteCount  int     `json:"voteCount"`
	TotalScore int     `json:"totalScore"`
}

type slotResponse struct {
	Slot       int        `json:"slot"`
	PhotoRef   string     `json:"photoRef,omitempty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	State      string     `json:"state,omitempty"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
	Empty      bool       `json:"empty"`
}

type submissionResponse struct {
	ID        string         `json:"id,omitempty"`
	ContestID string         `json:"contestId"`
	Slots     []slotResponse `json:"slots"`
}

type voteRequest struct {
	Score *float64 `json:"score"`
}

type voteResponse struct {
	PhotoRef         string `json:"photoRef"`
	Score            int    `json:"score"`
	PreviousScore    *int   `json:"previousScore,omitempty"`
	FirstVote        bool   `json:"firstVote"`
	DistinctCount    int    `json:"distinctCount"`
	Remaining        int    `json:"remaining"`
	ThresholdReached bool   `json:"thresholdReached"`
}

type progressResponse struct {
	DistinctCount    int      `json:"distinctCount"`
	Minimum          int      `json:"minimum"`
	Remaining        int      `json:"remaining"`
	ThresholdReached bool     `json:"thresholdReached"`
	VotedPhotos      []string `json:"votedPhotos"`
}

// toContestResponse は日時を表示用タイムゾーンに変換する。Markdown はサニタイズ済み HTML も併せて返す。
func toContestResponse(c domain.Contest, actor domain.Actor, loc *time.Location, withHTML bool) contestResponse {
	resp := contestResponse{
		ID:                c.ID,
		Title:             c.Title,
		Theme:             c.Theme,
		Description:       c.Description,
		CoverImageURL:     c.CoverImageURL,
		StartAt:           inLocation(c.StartAt, loc),
		SubmissionCloseAt: inLocation(c.SubmissionCloseAt, loc),
		VotingCloseAt:     inLocation(c.VotingCloseAt, loc),
		Phase:             string(c.Phase),
		SubscriberCount:   len(c.Subscribers),
		Subscribed:        actor.ID != "" && c.IsSubscribed(actor.ID),
	}
	if withHTML {
		resp.DescriptionHTML = common.RenderMarkdown(c.Description)
	}
	return resp
}

func toCountdownResponse(cd domain.Countdown, loc *time.Location) countdownResponse {
	return countdownResponse{
		Phase:     string(cd.Phase),
		Label:     cd.Label,
		Target:    inLocation(cd.Target, loc),
		Running:   cd.Running,
		Remaining: int64(cd.Remaining / time.Second),
		Days:      cd.Days,
		Hours:     cd.Hours,
		Minutes:   cd.Minutes,
		Seconds:   cd.Seconds,
	}
}

func toGalleryItemResponse(item contestapp.GalleryItem) galleryItemResponse {
	return galleryItemResponse{
		PhotoRef:  item.Photo.String(),
		Slot:      item.Photo.Slot,
		ImageURL:  item.ImageURL,
		OwnerName: item.OwnerName,
		State:     string(item.State),
		VoteCount: item.VoteCount,
		MyScore:   item.MyScore,
		IsOwn:     item.IsOwn,
	}
}

func toRankingEntryResponse(entry domain.RankingEntry) rankingEntryResponse {
	return rankingEntryResponse{
		Position:   entry.Position,
		PhotoRef:   entry.Photo.String(),
		ImageURL:   entry.ImageURL,
		OwnerName:  entry.OwnerName,
		MeanScore:  entry.MeanScore,
		VoteCount:  entry.VoteCount,
		TotalScore: entry.TotalScore,
	}
}

// toSubmissionResponse は空きスロットも含めて 1..SlotCount を順に並べる。
func toSubmissionResponse(contestID string, submission *domain.Submission) submissionResponse {
	resp := submissionResponse{ContestID: contestID, Slots: make([]slotResponse, 0, domain.SlotCount)}
	if submission != nil {
		resp.ID = submission.ID
	}
	for slot := 1; slot <= domain.SlotCount; slot++ {
		if submission == nil {
			resp.Slots = append(resp.Slots, slotResponse{Slot: slot, Empty: true})
			continue
		}
		photo, ok := submission.Photo(slot)
		if !ok {
			resp.Slots = append(resp.Slots, slotResponse{Slot: slot, Empty: true})
			continue
		}
		resp.Slots = append(resp.Slots, slotResponse{
			Slot:       slot,
			PhotoRef:   domain.PhotoRef{SubmissionID: submission.ID, Slot: slot}.String(),
			ImageURL:   photo.ImageURL,
			State:      string(photo.ModerationState),
			UploadedAt: inLocation(&photo.UploadedAt, time.UTC),
		})
	}
	return resp
}

func toVoteResponse(result domain.VoteResult) voteResponse {
	return voteResponse{
		PhotoRef:         result.Photo.String(),
		Score:            result.Score,
		PreviousScore:    result.PreviousScore,
		FirstVote:        result.FirstVote,
		DistinctCount:    result.DistinctCount,
		Remaining:        result.Remaining,
		ThresholdReached: result.ThresholdReached,
	}
}

func toProgressResponse(stats domain.VotingStats) progressResponse {
	voted := stats.VotedPhotos
	if voted == nil {
		voted = []string{}
	}
	return progressResponse{
		DistinctCount:    stats.DistinctCount,
		Minimum:          domain.MinDistinctVotes,
		Remaining:        stats.Remaining(),
		ThresholdReached: stats.DistinctCount >= domain.MinDistinctVotes,
		VotedPhotos:      voted,
	}
}

func inLocation(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}
