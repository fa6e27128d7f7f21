package dto

import (
	"fmt"

	"pneumoscan/internal/models"
)

// ResultsView holds the formatted values the results screen displays.
type ResultsView struct {
	Prediction       string
	IsNormal         bool
	Probability      string // "87.00%"
	Threshold        string // "50.0%"
	ConfidenceLevel  string // max of the two class scores, "87.3%"
	NormalPercent    string
	PneumoniaPercent string
	AboveThreshold   bool
	Report           string
	HasDiagnosed     bool
	OriginalFileName string
}

// NewResultsView derives display values from a prediction result. Class
// confidences are shown as supplied, never renormalized.
func NewResultsView(result *models.PredictionResult, upload *models.Upload) ResultsView {
	probability := result.Probability * 100
	threshold := result.ThresholdUsed * 100

	view := ResultsView{
		Prediction:       string(result.Prediction),
		IsNormal:         result.IsNormal(),
		Probability:      fmt.Sprintf("%.2f%%", probability),
		Threshold:        fmt.Sprintf("%.1f%%", threshold),
		ConfidenceLevel:  fmt.Sprintf("%.1f%%", result.Confidence.Max()),
		NormalPercent:    fmt.Sprintf("%.1f%%", result.Confidence.Normal),
		PneumoniaPercent: fmt.Sprintf("%.1f%%", result.Confidence.Pneumonia),
		AboveThreshold:   probability >= threshold,
		Report:           result.Report,
		HasDiagnosed:     result.DiagnosedImageURL != "",
	}
	if upload != nil {
		view.OriginalFileName = upload.FileName
	}
	return view
}
