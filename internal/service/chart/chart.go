// Package chart renders the results screen's confidence charts as SVG.
package chart

import (
	"errors"
	"fmt"
	"io"

	"pneumoscan/internal/models"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Kind selects one of the results charts.
type Kind string

const (
	KindConfidence Kind = "confidence" // per-class bar chart
	KindPie        Kind = "pie"        // per-class share
	KindThreshold  Kind = "threshold"  // probability against the cutoff
)

var ErrUnknownKind = errors.New("unknown chart kind")

var (
	colorNormal    = drawing.ColorFromHex("10b981")
	colorPneumonia = drawing.ColorFromHex("ef4444")
	colorThreshold = drawing.ColorFromHex("94a3b8")
	colorProb      = drawing.ColorFromHex("6366f1")
)

const (
	width  = 480
	height = 320
)

// ParseKind maps a URL segment ("pie.svg" or "pie") to a Kind.
func ParseKind(s string) (Kind, error) {
	if len(s) > 4 && s[len(s)-4:] == ".svg" {
		s = s[:len(s)-4]
	}
	switch Kind(s) {
	case KindConfidence, KindPie, KindThreshold:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ConfidenceValues returns the two class scores exactly as the classifier
// reported them.
func ConfidenceValues(c models.Confidence) []chart.Value {
	return []chart.Value{
		{Label: fmt.Sprintf("NORMAL %.1f%%", c.Normal), Value: c.Normal, Style: fill(colorNormal)},
		{Label: fmt.Sprintf("PNEUMONIA %.1f%%", c.Pneumonia), Value: c.Pneumonia, Style: fill(colorPneumonia)},
	}
}

// ThresholdValues returns the threshold and probability in percent.
func ThresholdValues(result *models.PredictionResult) []chart.Value {
	threshold := result.ThresholdUsed * 100
	probability := result.Probability * 100
	return []chart.Value{
		{Label: fmt.Sprintf("Threshold %.1f%%", threshold), Value: threshold, Style: fill(colorThreshold)},
		{Label: fmt.Sprintf("Probability %.1f%%", probability), Value: probability, Style: fill(colorProb)},
	}
}

// Render writes the requested chart for result to w as SVG.
func Render(kind Kind, result *models.PredictionResult, w io.Writer) error {
	if result == nil {
		return errors.New("no result to chart")
	}

	switch kind {
	case KindConfidence:
		return percentBars("Confidence", ConfidenceValues(result.Confidence)).Render(chart.SVG, w)
	case KindThreshold:
		return percentBars("Probability vs Threshold", ThresholdValues(result)).Render(chart.SVG, w)
	case KindPie:
		values := ConfidenceValues(result.Confidence)
		if values[0].Value+values[1].Value <= 0 {
			return errors.New("confidence values are all zero")
		}
		pie := chart.PieChart{
			Width:  height,
			Height: height,
			Values: values,
		}
		return pie.Render(chart.SVG, w)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// percentBars builds a bar chart on a fixed 0-100 axis so bars are never
// rescaled relative to each other.
func percentBars(title string, values []chart.Value) chart.BarChart {
	return chart.BarChart{
		Title:    title,
		Width:    width,
		Height:   height,
		BarWidth: 80,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: values,
	}
}

func fill(c drawing.Color) chart.Style {
	return chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1}
}
