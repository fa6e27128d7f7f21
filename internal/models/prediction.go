package models

import "strings"

// Label is the class the remote classifier assigns to an X-ray.
type Label string

const (
	LabelNormal    Label = "NORMAL"
	LabelPneumonia Label = "PNEUMONIA"
)

// Lower returns the label in lower case, as used in report file names.
func (l Label) Lower() string {
	return strings.ToLower(string(l))
}

// Confidence holds the per-class scores (0-100) returned by the classifier.
type Confidence struct {
	Normal    float64 `json:"NORMAL"`
	Pneumonia float64 `json:"PNEUMONIA"`
}

// Max returns the larger of the two class scores.
func (c Confidence) Max() float64 {
	if c.Normal > c.Pneumonia {
		return c.Normal
	}
	return c.Pneumonia
}

// PredictionResult is the structured output of the classifier for one image.
type PredictionResult struct {
	Prediction        Label      `json:"prediction"`
	Probability       float64    `json:"probability"`    // 0..1
	ThresholdUsed     float64    `json:"threshold_used"` // 0..1
	Confidence        Confidence `json:"confidence"`
	DiagnosedImageURL string     `json:"diagnosed_image_url"` // server-relative path
	Report            string     `json:"report"`
}

// IsNormal reports whether the classifier found no pneumonia.
func (r *PredictionResult) IsNormal() bool {
	return r.Prediction == LabelNormal
}
