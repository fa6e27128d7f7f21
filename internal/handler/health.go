package handler

import (
	"encoding/json"
	"net/http"

	"pneumoscan/internal/service/websocket"
)

// HealthHandler serves GET /healthz.
func HealthHandler(apiBaseURL string, hub *websocket.HubService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "ok",
			"api_base_url":   apiBaseURL,
			"status_clients": hub.GetClientCount(),
		})
	}
}
