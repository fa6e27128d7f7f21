package report

import (
	"errors"
	"fmt"

	"pneumoscan/internal/models"
)

// ContentType is the media type of downloaded reports.
const ContentType = "text/markdown; charset=utf-8"

var ErrNoResult = errors.New("no result to report")

// Download is a report file offered to the browser.
type Download struct {
	FileName    string
	ContentType string
	Body        []byte
}

// FileName returns "pneumonia_report_<prediction>.md" in lower case.
func FileName(result *models.PredictionResult) string {
	return fmt.Sprintf("pneumonia_report_%s.md", result.Prediction.Lower())
}

// New packages the result's report text. A missing report yields an empty
// file, never an error.
func New(result *models.PredictionResult) (*Download, error) {
	if result == nil {
		return nil, ErrNoResult
	}
	return &Download{
		FileName:    FileName(result),
		ContentType: ContentType,
		Body:        []byte(result.Report),
	}, nil
}
