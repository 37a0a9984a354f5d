package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sngm3741/photo-contest/api/internal/contest/domain"
)

var validate = validator.New()

// normalize は前後の空白を落としてから検証する。
func (cmd UpsertContestCommand) normalize() UpsertContestCommand {
	cmd.Title = strings.TrimSpace(cmd.Title)
	cmd.Theme = strings.TrimSpace(cmd.Theme)
	cmd.Description = strings.TrimSpace(cmd.Description)
	cmd.CoverImageURL = strings.TrimSpace(cmd.CoverImageURL)
	cmd.StartAt = cmd.StartAt.UTC()
	cmd.SubmissionCloseAt = cmd.SubmissionCloseAt.UTC()
	cmd.VotingCloseAt = cmd.VotingCloseAt.UTC()
	return cmd
}

func validateContestCommand(cmd UpsertContestCommand) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "url":
		return fe.Field() + " must be a valid URL"
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
