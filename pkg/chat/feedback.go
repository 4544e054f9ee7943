package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/scout/pkg/logger"
)

const feedbackErrorPrefix = "Failed to submit feedback"

// FeedbackError is returned when the backend rejects feedback. Its message is
// meant to be shown to the user as-is.
type FeedbackError struct {
	Detail string
	Err    error
}

func (e *FeedbackError) Error() string {
	return fmt.Sprintf("%s - %s", feedbackErrorPrefix, e.Detail)
}

func (e *FeedbackError) Unwrap() error {
	return e.Err
}

// ParseFeedbackKind maps user input onto a FeedbackKind
func ParseFeedbackKind(s string) (FeedbackKind, error) {
	switch FeedbackKind(s) {
	case FeedbackLike, FeedbackDislike:
		return FeedbackKind(s), nil
	default:
		return "", fmt.Errorf("unknown feedback kind %q (want %q or %q)", s, FeedbackLike, FeedbackDislike)
	}
}

// SubmitFeedback records a rating for an answer. It never touches the
// transcript.
func (e *Engine) SubmitFeedback(ctx context.Context, messageID int, kind FeedbackKind, details string) error {
	if e.SessionID() == nil {
		return ErrNoSession
	}
	if _, err := ParseFeedbackKind(string(kind)); err != nil {
		return err
	}

	err := e.backend.CreateChatMessageFeedback(ctx, FeedbackRequest{
		MessageID: messageID,
		Kind:      kind,
		Details:   details,
	})
	if err != nil {
		detail := err.Error()
		var detailed DetailedError
		if errors.As(err, &detailed) && detailed.ErrorDetail() != "" {
			detail = detailed.ErrorDetail()
		}
		logger.Warn("Feedback for message %d rejected: %s", messageID, detail)
		return &FeedbackError{Detail: detail, Err: err}
	}

	logger.Debug("Recorded %s feedback for message %d", kind, messageID)
	return nil
}
