package api

import (
	"net/http"
	"strings"

	"github.com/Veraticus/finbuddy/internal/common"
)

type finBotRequest struct {
	Message string `json:"message"`
}

// handleFinBot answers one chat message. Assistant failures still produce a 200 with
// the apology envelope; only bad input and storage failures are errors.
func (s *Server) handleFinBot(w http.ResponseWriter, r *http.Request) {
	var req finBotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, msgValidation, "message: Message is required")
		return
	}

	txns, goals, err := s.snapshot(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	env := s.assistant.Query(r.Context(), req.Message, txns, goals)
	if env.IsDegraded() {
		common.LoggerFrom(r.Context()).Warn("FinBot answered with degraded response")
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	txns, _, err := s.snapshot(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": s.insights.Generate(r.Context(), txns)})
}
