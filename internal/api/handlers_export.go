package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dgallion1/casegen/internal/export"
	"github.com/go-chi/chi/v5"
)

// latestTestCases parses the newest ai message of the issue. It writes the
// error response itself and returns ok=false when there is nothing to export.
func (s *Server) latestTestCases(w http.ResponseWriter, r *http.Request) ([]export.TestCase, []string, bool) {
	msg, found, err := s.chat.LatestAIMessage(r.Context(), chi.URLParam(r, "issueKey"))
	if err != nil {
		s.log.Error("latest ai message", "error", err)
		jsonError(w, "failed to read messages", http.StatusInternalServerError)
		return nil, nil, false
	}
	if !found {
		jsonError(w, export.ErrNoTestCases.Error(), http.StatusNotFound)
		return nil, nil, false
	}
	rows, cols, err := export.ParseTestCases(msg.Text)
	switch {
	case errors.Is(err, export.ErrInvalidJSON):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, nil, false
	case err != nil:
		jsonError(w, err.Error(), http.StatusNotFound)
		return nil, nil, false
	}
	return rows, cols, true
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, cols, ok := s.latestTestCases(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, cols, rows); err != nil {
		jsonError(w, "failed to write csv", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, export.CSVContentType, export.CSVFilename, buf.Bytes())
}

func (s *Server) handleExportDOCX(w http.ResponseWriter, r *http.Request) {
	rows, cols, ok := s.latestTestCases(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteDOCX(&buf, cols, rows); err != nil {
		s.log.Error("write docx", "error", err)
		jsonError(w, "failed to write docx", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, export.DOCXContentType, export.DOCXFilename, buf.Bytes())
}

func (s *Server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	msg, found, err := s.chat.LatestAIMessage(r.Context(), chi.URLParam(r, "issueKey"))
	if err != nil {
		s.log.Error("latest ai message", "error", err)
		jsonError(w, "failed to read messages", http.StatusInternalServerError)
		return
	}
	text := "[]"
	if found {
		text = msg.Text
	}
	writeHTML(w, export.RenderHTMLTable(text))
}

func (s *Server) handleStoryHTML(w http.ResponseWriter, r *http.Request) {
	info, err := s.resolver.GetIssueInfo(r.Context(), chi.URLParam(r, "issueKey"))
	if err != nil {
		writeIssueError(w, err)
		return
	}
	out, err := export.RenderStoryHTML(info.UserStory)
	if err != nil {
		s.log.Error("render story", "error", err)
		jsonError(w, "failed to render story", http.StatusInternalServerError)
		return
	}
	writeHTML(w, out)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
