package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pneumoscan/internal/config"
	"pneumoscan/internal/logger"
	"pneumoscan/internal/middleware"
	"pneumoscan/internal/models"
	"pneumoscan/internal/service/preview"
	"pneumoscan/internal/service/screen"
	"pneumoscan/internal/service/session"
	"pneumoscan/internal/web"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 1 << 20

// UploadHandler serves GET /upload (the screen) and POST /upload (file
// selection from the multipart field "file").
func UploadHandler(cfg *config.Config, sessions *session.Service, renderer *web.Renderer, logger *logger.Logger) http.HandlerFunc {
	page := UploadPageHandler(cfg, sessions, renderer, logger)

	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			page(w, r)
			return
		case http.MethodPost:
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := middleware.SessionID(r.Context())

		upload, err := readUpload(w, r, cfg.MaxUploadSize)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || errors.Is(err, errFileTooLarge) {
				sess, ok := loadSession(w, r, sessions, logger)
				if !ok {
					return
				}
				view := uploadView(cfg, sessions, sess)
				view.Error = fmt.Sprintf("Image is too large (max %d MB)", cfg.MaxUploadSize>>20)
				logger.Info("Rejected oversized upload for session %s", id)
				render(w, renderer, logger, http.StatusRequestEntityTooLarge, web.PageUpload, view)
				return
			}
			// A form without a file is handled like a non-image selection.
			logger.Debug("No usable file in upload form: %v", err)
			upload = nil
		}

		sess, err := sessions.SelectFile(id, upload)
		switch {
		case err == nil:
			http.Redirect(w, r, "/upload", http.StatusSeeOther)
		case errors.Is(err, screen.ErrBusy):
			view := uploadView(cfg, sessions, sess)
			view.Error = screen.ErrorMessage(err)
			render(w, renderer, logger, http.StatusConflict, web.PageUpload, view)
		case errors.Is(err, screen.ErrInvalidImage):
			render(w, renderer, logger, http.StatusUnprocessableEntity, web.PageUpload, uploadView(cfg, sessions, sess))
		default:
			logger.Error("Failed to store upload for session %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

var errFileTooLarge = errors.New("uploaded file exceeds the size limit")

// readUpload pulls the "file" part out of a multipart request. The media type
// comes from the part header, falling back to content sniffing.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (*models.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, errFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, errFileTooLarge
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &models.Upload{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// PreviewHandler serves GET /upload/preview, a thumbnail of the selected image.
func PreviewHandler(sessions *session.Service, previews *preview.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sess, ok := loadSession(w, r, sessions, logger)
		if !ok {
			return
		}

		img, err := previews.Thumbnail(sess.Upload)
		if errors.Is(err, preview.ErrNoImage) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			logger.Error("Failed to build preview for session %s: %v", sess.ID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeImage(w, img.ContentType, img.Data)
	}
}

// AnalyzeHandler serves POST /analyze.
func AnalyzeHandler(cfg *config.Config, sessions *session.Service, analyzer screen.Analyzer, renderer *web.Renderer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := middleware.SessionID(r.Context())
		sess, err := sessions.Analyze(r.Context(), id, analyzer)
		if sess == nil {
			logger.Error("Analyze failed for session %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		var status int
		switch {
		case err == nil, errors.Is(err, screen.ErrInvalidTransition):
			http.Redirect(w, r, screenPath(sess.Screen), http.StatusSeeOther)
			return
		case errors.Is(err, screen.ErrBusy):
			status = http.StatusConflict
		case errors.Is(err, screen.ErrNoFile):
			status = http.StatusUnprocessableEntity
		default:
			status = http.StatusBadGateway
		}

		if sess.Screen != models.ScreenUpload {
			http.Redirect(w, r, screenPath(sess.Screen), http.StatusSeeOther)
			return
		}

		view := uploadView(cfg, sessions, sess)
		view.Error = screen.ErrorMessage(err)
		render(w, renderer, logger, status, web.PageUpload, view)
	}
}

func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}
