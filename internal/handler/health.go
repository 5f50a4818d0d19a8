package handler

import (
	"net/http"

	"github.com/BlackMission/graphprofile/internal/session"
)

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// Health handles GET /health.
func Health(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Sessions: sessions.Len()})
	}
}
