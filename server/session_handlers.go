package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-lawfirm-console/guard"
	"github.com/jrsteele09/go-lawfirm-console/internal/utils"
	"github.com/jrsteele09/go-lawfirm-console/metrics"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// SessionResponse is the JSON body of GET /session.
type SessionResponse struct {
	session.Snapshot
	Views       []guard.View `json:"views"`
	TokenExpiry *time.Time   `json:"tokenExpiry,omitempty"`
}

// SessionHandler reports the current session and the views it may open.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.session.Snapshot()
		resp := SessionResponse{Snapshot: snap, Views: []guard.View{}}
		if snap.User != nil {
			resp.Views = s.guard.Visible(snap.User)
			if exp, ok := tokens.ExpiryOf(s.store.Read().AccessToken); ok {
				resp.TokenExpiry = utils.Ptr(exp)
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"session": s.session.Snapshot().Status.String(),
		})
	}
}

func metricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return metrics.Handler(gatherer)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
	}
}
