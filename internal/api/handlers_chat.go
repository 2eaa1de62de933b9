package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/casegen/internal/chat"
	"github.com/dgallion1/casegen/internal/resolver"
	"github.com/go-chi/chi/v5"
)

type chatRequest struct {
	Input string `json:"input"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msgs, err := s.chat.Send(r.Context(), chi.URLParam(r, "issueKey"), req.Input)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	case errors.Is(err, chat.ErrInputTooLong), errors.Is(err, chat.ErrMissingStory):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, chat.ErrAlreadyGenerated):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, chat.ErrNetwork):
		jsonError(w, chat.ErrNetwork.Error(), http.StatusBadGateway)
	case errors.Is(err, resolver.ErrIssueFetch):
		writeIssueError(w, err)
	default:
		s.log.Error("chat send", "error", err)
		jsonError(w, "failed to process message", http.StatusInternalServerError)
	}
}

func (s *Server) handleLatestTestCases(w http.ResponseWriter, r *http.Request) {
	msg, found, err := s.chat.LatestAIMessage(r.Context(), chi.URLParam(r, "issueKey"))
	if err != nil {
		s.log.Error("latest ai message", "error", err)
		jsonError(w, "failed to read messages", http.StatusInternalServerError)
		return
	}
	if !found {
		jsonError(w, "no test cases yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
