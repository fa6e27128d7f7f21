package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pneumoscan/internal/logger"
	"pneumoscan/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithHTTP(server.URL+"/", server.Client(), logger.Discard())
}

func testUpload() *models.Upload {
	return &models.Upload{FileName: "chest.png", ContentType: "image/png", Data: []byte("\x89PNG fake")}
}

func TestPredict_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Expected multipart field 'file': %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "\x89PNG fake" {
			t.Errorf("Unexpected file body %q", data)
		}
		if header.Filename != "chest.png" {
			t.Errorf("Expected filename chest.png, got %s", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("Expected part content type image/png, got %s", ct)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"prediction": "PNEUMONIA",
			"probability": 0.87,
			"threshold_used": 0.5,
			"confidence": {"PNEUMONIA": 87.0, "NORMAL": 13.0},
			"diagnosed_image_url": "/outputs/abc_diagnosed.jpg",
			"report": "# Report"
		}`))
	})

	result, err := client.Predict(context.Background(), testUpload())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	want := models.PredictionResult{
		Prediction:        models.LabelPneumonia,
		Probability:       0.87,
		ThresholdUsed:     0.5,
		Confidence:        models.Confidence{Pneumonia: 87, Normal: 13},
		DiagnosedImageURL: "/outputs/abc_diagnosed.jpg",
		Report:            "# Report",
	}
	if *result != want {
		t.Errorf("Expected %+v, got %+v", want, *result)
	}
}

func TestPredict_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	})

	_, err := client.Predict(context.Background(), testUpload())
	if err == nil {
		t.Fatal("Expected error for HTTP 500")
	}

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("Expected *AnalysisError, got %T", err)
	}
	if analysisErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", analysisErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected message to contain 500, got %q", err.Error())
	}
}

func TestPredict_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	if _, err := client.Predict(context.Background(), testUpload()); err == nil {
		t.Fatal("Expected decode error")
	}
}

func TestPredict_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClientWithHTTP(url, http.DefaultClient, logger.Discard())
	_, err := client.Predict(context.Background(), testUpload())
	if err == nil {
		t.Fatal("Expected network error")
	}
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		t.Error("Network failures should not be reported as AnalysisError")
	}
}

func TestPredict_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Predict(ctx, testUpload()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFetchDiagnosedImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/outputs/x_diagnosed.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes"))
	})

	data, ct, err := client.FetchDiagnosedImage(context.Background(), "/outputs/x_diagnosed.jpg")
	if err != nil {
		t.Fatalf("FetchDiagnosedImage failed: %v", err)
	}
	if string(data) != "jpegbytes" || ct != "image/jpeg" {
		t.Errorf("Unexpected image %q (%s)", data, ct)
	}

	_, _, err = client.FetchDiagnosedImage(context.Background(), "/outputs/missing.jpg")
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) || analysisErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 AnalysisError, got %v", err)
	}
}

func TestFetchDiagnosedImage_RejectsAbsoluteURL(t *testing.T) {
	client := NewClientWithHTTP("http://api.local", http.DefaultClient, logger.Discard())

	for _, path := range []string{"", "http://evil.example/x.jpg", "//evil.example/x.jpg"} {
		if _, _, err := client.FetchDiagnosedImage(context.Background(), path); !errors.Is(err, ErrInvalidImagePath) {
			t.Errorf("Expected ErrInvalidImagePath for %q, got %v", path, err)
		}
	}
}

func TestDiagnosedImageURL(t *testing.T) {
	client := NewClientWithHTTP("http://api.local/", http.DefaultClient, logger.Discard())

	if got := client.DiagnosedImageURL("/outputs/a.jpg"); got != "http://api.local/outputs/a.jpg" {
		t.Errorf("Unexpected URL %s", got)
	}
	if got := client.DiagnosedImageURL("outputs/a.jpg"); got != "http://api.local/outputs/a.jpg" {
		t.Errorf("Unexpected URL %s", got)
	}
}
