package http

import (
	"net/http"

	applog "gembala/internal/log"
)

// handleDashboard serves the cached dashboard snapshot. The snapshot is a
// single shared object; a store failure fails the whole response.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.GetSnapshot(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard snapshot unavailable",
			applog.FieldError, err)
		writeError(w, http.StatusServiceUnavailable, "statistik tidak tersedia")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// handleLaporan serves the filtered report. Failures come back as a tagged
// result with success=false, never as a transport error, so the client can
// render the message inline.
func (s *Server) handleLaporan(w http.ResponseWriter, r *http.Request) {
	filter := parseReportFilter(r)
	report := s.stats.GetReport(r.Context(), filter)
	writeJSON(w, http.StatusOK, report)
}
