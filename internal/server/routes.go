package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sporefield/mycelium/internal/engine"
	"github.com/sporefield/mycelium/internal/transcript"
)

type inputRequest struct {
	Text string `json:"text"`
}

type toggleRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	messages := s.engine.Messages()
	if messages == nil {
		messages = []engine.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs := s.engine.State().Logs
	if logs == nil {
		logs = []engine.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	html, err := transcript.Render(s.engine.Messages())
	if err != nil {
		s.logger.Error("rendering transcript", zap.Error(err))
		http.Error(w, `{"error":"rendering transcript failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	suggestions, err := s.engine.SubmitInput(r.Context(), req.Text)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	// An inactive engine executes a standard reply and surfaces no paths.
	if suggestions == nil {
		suggestions = []engine.Suggestion{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	msg, err := s.engine.SelectSuggestion(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	// Empty body flips the engine; {"active": bool} sets it explicitly.
	var req toggleRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if req.Active != nil {
		s.engine.SetActive(*req.Active)
	} else {
		s.engine.SetActive(!s.engine.State().Active)
	}

	writeJSON(w, http.StatusOK, s.engine.State())
}

// writeEngineError maps engine errors to HTTP statuses. A busy pipeline is a
// conflict the client should retry after the phase completes.
func writeEngineError(w http.ResponseWriter, err error) {
	var analysisErr *engine.AnalysisError

	switch {
	case errors.Is(err, engine.ErrEmptyInput):
		http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
	case errors.Is(err, engine.ErrBusy):
		http.Error(w, `{"error":"a pipeline phase is already active"}`, http.StatusConflict)
	case errors.Is(err, engine.ErrUnknownSuggestion):
		http.Error(w, `{"error":"no such suggestion"}`, http.StatusNotFound)
	case errors.As(err, &analysisErr):
		http.Error(w, `{"error":"analysis failed: `+analysisErr.Reason+`"}`, http.StatusBadGateway)
	default:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
