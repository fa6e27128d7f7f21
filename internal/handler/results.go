package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"pneumoscan/internal/logger"
	"pneumoscan/internal/models"
	"pneumoscan/internal/service/chart"
	"pneumoscan/internal/service/preview"
	"pneumoscan/internal/service/report"
	"pneumoscan/internal/service/session"
)

// DiagnosedImageFetcher downloads the annotated X-ray the API produced.
type DiagnosedImageFetcher interface {
	FetchDiagnosedImage(ctx context.Context, path string) ([]byte, string, error)
}

// loadResult returns the session holding a result, or answers 404.
func loadResult(w http.ResponseWriter, r *http.Request, sessions *session.Service, logger *logger.Logger) (*models.Session, bool) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	sess, ok := loadSession(w, r, sessions, logger)
	if !ok {
		return nil, false
	}
	if sess.Result == nil {
		http.Error(w, "No analysis result", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// ReportHandler serves GET /results/report as a markdown attachment.
func ReportHandler(sessions *session.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadResult(w, r, sessions, logger)
		if !ok {
			return
		}

		download, err := report.New(sess.Result)
		if err != nil {
			logger.Error("Failed to build report for session %s: %v", sess.ID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", download.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(download.Body); err != nil {
			logger.Warning("Report download for session %s interrupted: %v", sess.ID, err)
		}
	}
}

// DiagnosedImageHandler serves GET /results/diagnosed. The annotated image
// is proxied from the API; when that fails the uploaded image is shown
// instead.
func DiagnosedImageHandler(sessions *session.Service, fetcher DiagnosedImageFetcher, previews *preview.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadResult(w, r, sessions, logger)
		if !ok {
			return
		}

		if path := sess.Result.DiagnosedImageURL; path != "" {
			data, contentType, err := fetcher.FetchDiagnosedImage(r.Context(), path)
			switch {
			case err != nil:
				logger.Warning("Diagnosed image %s unavailable for session %s: %v", path, sess.ID, err)
			case !isImageType(contentType):
				logger.Warning("Diagnosed image %s for session %s has content type %q", path, sess.ID, contentType)
			default:
				writeImage(w, contentType, data)
				return
			}
		}

		img, err := previews.Thumbnail(sess.Upload)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		writeImage(w, img.ContentType, img.Data)
	}
}

// ChartHandler serves GET /results/chart/{kind}.svg.
func ChartHandler(sessions *session.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := chart.ParseKind(strings.TrimPrefix(r.URL.Path, "/results/chart/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		sess, ok := loadResult(w, r, sessions, logger)
		if !ok {
			return
		}

		var buf bytes.Buffer
		if err := chart.Render(kind, sess.Result, &buf); err != nil {
			logger.Error("Failed to render %s chart for session %s: %v", kind, sess.ID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-store")
		buf.WriteTo(w)
	}
}

// ResultAPIHandler serves GET /api/result, the current result as JSON.
func ResultAPIHandler(sessions *session.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadResult(w, r, sessions, logger)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sess.Result); err != nil {
			logger.Warning("Failed to write result for session %s: %v", sess.ID, err)
		}
	}
}

func isImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.HasPrefix(mediaType, "image/")
}
