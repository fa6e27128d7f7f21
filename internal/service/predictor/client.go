package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"pneumoscan/internal/config"
	"pneumoscan/internal/logger"
	"pneumoscan/internal/models"
)

const (
	// PredictPath is the inference endpoint relative to the API base URL.
	PredictPath = "/predict"
	// FileField is the multipart field the inference API reads the image from.
	FileField = "file"

	maxImageBytes = 32 << 20
)

// ErrInvalidImagePath is returned for diagnosed image references that are not
// server-relative paths.
var ErrInvalidImagePath = errors.New("diagnosed image url must be a server-relative path")

// AnalysisError reports a non-success HTTP status from the inference API.
type AnalysisError struct {
	StatusCode int
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("Analysis failed (%d). Please try again.", e.StatusCode)
}

// Client talks to the remote pneumonia inference API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a client for cfg.APIBaseURL. A zero APITimeout leaves
// requests bounded only by their context.
func NewClient(cfg *config.Config, logger *logger.Logger) *Client {
	return NewClientWithHTTP(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout}, logger)
}

// NewClientWithHTTP creates a client with a caller-supplied http.Client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Predict uploads one image and decodes the classifier's answer. There are
// no retries; cancellation follows ctx.
func (c *Client) Predict(ctx context.Context, upload *models.Upload) (*models.PredictionResult, error) {
	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PredictPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.logger.Info("Sending %s (%d bytes) to %s", upload.FileName, len(upload.Data), req.URL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		c.logger.Warning("Inference API returned %d for %s", resp.StatusCode, upload.FileName)
		return nil, &AnalysisError{StatusCode: resp.StatusCode}
	}

	var result models.PredictionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}

	c.logger.Info("Prediction for %s: %s (p=%.4f, threshold=%.4f)",
		upload.FileName, result.Prediction, result.Probability, result.ThresholdUsed)
	return &result, nil
}

// DiagnosedImageURL resolves a server-relative image path against the API.
func (c *Client) DiagnosedImageURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// FetchDiagnosedImage downloads the annotated image the API produced.
func (c *Client) FetchDiagnosedImage(ctx context.Context, path string) ([]byte, string, error) {
	if path == "" || strings.Contains(path, "://") || strings.HasPrefix(path, "//") {
		return nil, "", ErrInvalidImagePath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DiagnosedImageURL(path), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("diagnosed image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &AnalysisError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read diagnosed image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeUpload builds the multipart body. The part keeps the upload's media
// type instead of multipart's application/octet-stream default.
func encodeUpload(upload *models.Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileName := upload.FileName
	if fileName == "" {
		fileName = "upload"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, quoteEscaper.Replace(fileName)))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}
