// Package screen holds the landing -> upload -> results state machine and the
// upload screen's validation rules. Every function mutates the session it is
// given synchronously; persistence and the network call live elsewhere.
package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pneumoscan/internal/models"
)

// Errors returned by the screen transitions. The first three carry the text
// shown to the user.
var (
	ErrInvalidImage      = errors.New("Please select a valid image file")
	ErrNoFile            = errors.New("No image selected")
	ErrBusy              = errors.New("Analysis already in progress")
	ErrInvalidTransition = errors.New("invalid screen transition")
)

// Analyzer sends an image to the classifier.
type Analyzer interface {
	Predict(ctx context.Context, upload *models.Upload) (*models.PredictionResult, error)
}

// Start moves any session to the upload screen.
func Start(s *models.Session) {
	s.Screen = models.ScreenUpload
	s.Error = ""
	touch(s)
}

// AnalyzeSucceeded moves an upload-screen session to results with result.
func AnalyzeSucceeded(s *models.Session, result *models.PredictionResult) error {
	if s.Screen != models.ScreenUpload {
		return fmt.Errorf("%w: analyze result on %s screen", ErrInvalidTransition, s.Screen)
	}
	if result == nil {
		return fmt.Errorf("%w: nil result", ErrInvalidTransition)
	}
	s.Result = result
	s.Screen = models.ScreenResults
	s.Error = ""
	touch(s)
	return nil
}

// AnalyzeFailed keeps the session on the upload screen and records the
// user-facing message for err.
func AnalyzeFailed(s *models.Session, err error) {
	s.Error = ErrorMessage(err)
	touch(s)
}

// StartOver returns to the landing screen and drops the result and the
// selected image.
func StartOver(s *models.Session) {
	s.Screen = models.ScreenLanding
	s.Result = nil
	s.Upload = nil
	s.Error = ""
	touch(s)
}

// Back goes from results to upload. On the upload screen it behaves like
// StartOver; on the landing screen it does nothing.
func Back(s *models.Session) {
	switch s.Screen {
	case models.ScreenResults:
		s.Screen = models.ScreenUpload
		s.Error = ""
		touch(s)
	case models.ScreenUpload:
		StartOver(s)
	}
}

// SelectFile validates and stores the user's file. A rejected file leaves the
// previous selection in place and sets the inline error.
func SelectFile(s *models.Session, upload *models.Upload) error {
	if err := ValidateUpload(upload); err != nil {
		s.Error = ErrorMessage(err)
		touch(s)
		return err
	}
	s.Upload = upload
	s.Error = ""
	touch(s)
	return nil
}

// ValidateUpload accepts non-empty files whose media type starts with "image/".
func ValidateUpload(upload *models.Upload) error {
	if upload == nil || len(upload.Data) == 0 {
		return ErrInvalidImage
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(upload.ContentType)), "image/") {
		return ErrInvalidImage
	}
	return nil
}

// CanAnalyze reports why an analysis cannot start, or nil.
func CanAnalyze(s *models.Session) error {
	if s.Screen != models.ScreenUpload {
		return fmt.Errorf("%w: analyze on %s screen", ErrInvalidTransition, s.Screen)
	}
	if s.Upload == nil {
		return ErrNoFile
	}
	return nil
}

func touch(s *models.Session) {
	s.UpdatedAt = time.Now()
}
