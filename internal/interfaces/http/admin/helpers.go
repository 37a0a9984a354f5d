package admin

import (
	"fmt"
	"strings"
	"time"

	contestapp "github.com/sngm3741/photo-contest/api/internal/contest/application"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

var localLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// parseContestTime は RFC3339 を優先し、オフセットなしの入力は loc の壁時計として読む。
func parseContestTime(field, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s has an unsupported time format %q", domain.ErrValidation, field, value)
}

func (req contestRequest) toCommand(loc *time.Location) (contestapp.UpsertContestCommand, error) {
	startAt, err := parseContestTime("startAt", req.StartAt, loc)
	if err != nil {
		return contestapp.UpsertContestCommand{}, err
	}
	submissionCloseAt, err := parseContestTime("submissionCloseAt", req.SubmissionCloseAt, loc)
	if err != nil {
		return contestapp.UpsertContestCommand{}, err
	}
	votingCloseAt, err := parseContestTime("votingCloseAt", req.VotingCloseAt, loc)
	if err != nil {
		return contestapp.UpsertContestCommand{}, err
	}
	return contestapp.UpsertContestCommand{
		Title:             req.Title,
		Theme:             req.Theme,
		Description:       req.Description,
		CoverImageURL:     req.CoverImageURL,
		StartAt:           startAt,
		SubmissionCloseAt: submissionCloseAt,
		VotingCloseAt:     votingCloseAt,
	}, nil
}

func toAdminContestResponse(c domain.Contest, loc *time.Location) adminContestResponse {
	subscribers := c.Subscribers
	if subscribers == nil {
		subscribers = []string{}
	}
	return adminContestResponse{
		ID:                c.ID,
		Title:             c.Title,
		Theme:             c.Theme,
		Description:       c.Description,
		CoverImageURL:     c.CoverImageURL,
		StartAt:           inLocation(c.StartAt, loc),
		SubmissionCloseAt: inLocation(c.SubmissionCloseAt, loc),
		VotingCloseAt:     inLocation(c.VotingCloseAt, loc),
		Phase:             string(c.Phase),
		CreatedBy:         c.CreatedBy,
		Subscribers:       subscribers,
		CreatedAt:         c.CreatedAt.In(loc),
		UpdatedAt:         c.UpdatedAt.In(loc),
	}
}

func inLocation(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}
