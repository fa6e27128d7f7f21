package report

import (
	"errors"
	"testing"

	"pneumoscan/internal/models"
)

func TestNew(t *testing.T) {
	d, err := New(&models.PredictionResult{Prediction: models.LabelPneumonia, Report: "## Findings"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if d.FileName != "pneumonia_report_pneumonia.md" {
		t.Errorf("Unexpected file name %s", d.FileName)
	}
	if d.ContentType != "text/markdown; charset=utf-8" {
		t.Errorf("Unexpected content type %s", d.ContentType)
	}
	if string(d.Body) != "## Findings" {
		t.Errorf("Unexpected body %q", d.Body)
	}
}

func TestNew_EmptyReport(t *testing.T) {
	d, err := New(&models.PredictionResult{Prediction: models.LabelNormal})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if d.FileName != "pneumonia_report_normal.md" || len(d.Body) != 0 {
		t.Errorf("Expected empty normal report, got %s %q", d.FileName, d.Body)
	}
}

func TestNew_NoResult(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoResult) {
		t.Errorf("Expected ErrNoResult, got %v", err)
	}
}
