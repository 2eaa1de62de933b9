package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/casegen/internal/jira"
	"github.com/dgallion1/casegen/internal/resolver"
	"github.com/go-chi/chi/v5"
)

const maxMessagesBody = 4 << 20

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	info, err := s.resolver.GetIssueInfo(r.Context(), chi.URLParam(r, "issueKey"))
	if err != nil {
		writeIssueError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.resolver.GetStoredMessages(r.Context(), chi.URLParam(r, "issueKey"))
	if err != nil {
		s.log.Error("get messages", "error", err)
		jsonError(w, "failed to read messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleStoreMessages(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessagesBody))
	if err != nil {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	err = s.resolver.StoreMessages(r.Context(), chi.URLParam(r, "issueKey"), body)
	switch {
	case errors.Is(err, resolver.ErrInvalidMessages):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.log.Error("store messages", "error", err)
		jsonError(w, "failed to store messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.resolver.ClearMessages(r.Context(), chi.URLParam(r, "issueKey")); err != nil {
		s.log.Error("clear messages", "error", err)
		jsonError(w, "failed to clear messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeIssueError answers Jira failures with the generic fetch message.
func writeIssueError(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	if errors.Is(err, jira.ErrIssueNotFound) {
		code = http.StatusNotFound
	}
	jsonError(w, resolver.ErrIssueFetch.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
