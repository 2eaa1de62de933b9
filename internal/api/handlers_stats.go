package api

import (
	"net/http"
)

func (s *Server) handleGeneratorStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "generator stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generator": s.cfg.GeneratorURL,
		"window":    s.cfg.StatsWindow.String(),
		"stats":     s.stats.Snapshot(),
	})
}
