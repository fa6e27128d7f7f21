package screen

import (
	"context"
	"errors"

	"pneumoscan/internal/service/predictor"
)

const (
	requestFailedMessage = "Analysis failed. Please try again."
	unexpectedMessage    = "An unexpected error occurred"
)

// ErrorMessage maps an error to the text shown inline on the upload screen.
func ErrorMessage(err error) string {
	var analysisErr *predictor.AnalysisError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &analysisErr):
		return analysisErr.Error()
	case errors.Is(err, ErrInvalidImage), errors.Is(err, ErrNoFile), errors.Is(err, ErrBusy):
		return err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return requestFailedMessage
	case errors.Is(err, ErrInvalidTransition):
		return unexpectedMessage
	default:
		return requestFailedMessage
	}
}
