package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ppiankov/podtriage/internal/triage"
	"go.uber.org/zap"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": ServiceName,
		"status":  "running",
		"version": s.cfg.Version,
	})
}

// handleHealth is a liveness check. A disconnected monitor is reported
// but does not fail it, since triage requests are still served.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "healthy"}
	if s.cfg.Monitor != nil {
		status, lastErr := s.cfg.Monitor.Status()
		body["monitor"] = status.String()
		if lastErr != "" {
			body["monitor_error"] = lastErr
		}
	}
	respondJSON(w, http.StatusOK, body)
}

func (s *Server) handleSummarizePod(w http.ResponseWriter, r *http.Request) {
	var req triage.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	logger := s.logger.With(
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("namespace", req.Namespace),
		zap.String("pod_name", req.PodName),
		zap.String("reason", req.Reason),
	)

	resp, err := s.triager.Handle(r.Context(), req)
	if err != nil {
		if errors.Is(err, triage.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("triage failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
