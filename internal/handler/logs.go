package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"pneumoscan/internal/logger"
)

var logFiles = map[string]string{
	"info":    logger.InfoFile,
	"warning": logger.WarningFile,
	"error":   logger.ErrorFile,
}

// LogsHandler serves GET /logs/{level} as text/plain and truncates the file
// on POST /logs/{level}/clear.
func LogsHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/logs/")
		level, action, _ := strings.Cut(rest, "/")

		fileName, ok := logFiles[level]
		if !ok || (action != "" && action != "clear") {
			http.NotFound(w, r)
			return
		}

		if action == "clear" {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			if err := log.CleanLogs(fileName); err != nil {
				http.Error(w, "Failed to clear "+fileName, http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		serveLogFile(w, r, log.Dir(), fileName)
	}
}

// serveLogFile is a helper that sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, filename string) {
	if logDir == "" {
		http.Error(w, "Log file not found: "+filename, http.StatusNotFound)
		return
	}
	filePath := filepath.Join(logDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "Log file not found: "+filename, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filePath)
}
