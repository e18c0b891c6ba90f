package http

import (
	"net/http"
	"time"

	applog "gembala/internal/log"
	"gembala/internal/middleware/ratelimit"
	"gembala/internal/middleware/security"
	"gembala/internal/services"
	"gembala/internal/stats"
)

// Server wires the JSON API over the jemaat service and the statistics
// engine. Authentication and TLS termination live in front of it.
type Server struct {
	*http.Server

	jemaat  *services.JemaatService
	stats   *stats.Service
	logger  *applog.Logger
	httpLog *applog.HTTPLogger
	limiter *ratelimit.Limiter
}

func NewServer(addr string, jemaat *services.JemaatService, statsSvc *stats.Service, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	s := &Server{
		jemaat:  jemaat,
		stats:   statsSvc,
		logger:  logger,
		httpLog: applog.NewHTTPLogger(logger),
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/laporan", s.handleLaporan)

	mux.HandleFunc("POST /api/jemaat", s.handleCreateJemaat)
	mux.HandleFunc("GET /api/jemaat", s.handleListJemaat)
	mux.HandleFunc("GET /api/jemaat/{id}", s.handleGetJemaat)
	mux.HandleFunc("PUT /api/jemaat/{id}", s.handleUpdateJemaat)
	mux.HandleFunc("DELETE /api/jemaat/{id}", s.handleDeleteJemaat)

	mux.HandleFunc("POST /api/keluarga", s.handleCreateKeluarga)
	mux.HandleFunc("GET /api/keluarga", s.handleListKeluarga)
	mux.HandleFunc("GET /api/keluarga/{id}", s.handleGetKeluarga)
	mux.HandleFunc("DELETE /api/keluarga/{id}", s.handleDeleteKeluarga)

	mux.HandleFunc("POST /api/rayon", s.handleCreateRayon)
	mux.HandleFunc("GET /api/rayon", s.handleListRayon)
	mux.HandleFunc("DELETE /api/rayon/{id}", s.handleDeleteRayon)

	// Mutations consume rate limit budget, reads do not.
	limited := s.limiter.Middleware(clientIP, func(r *http.Request) bool {
		return r.Method != http.MethodGet
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	handler := headers.Middleware(
		applog.Middleware(logger)(
			applog.RequestIDMiddleware(requestID)(
				limited(s.logRequests(mux)))))

	s.Server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// Close stops the rate limiter's background cleanup. The HTTP listener
// itself is shut down via Shutdown.
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.Server.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		s.httpLog.LogStart(r.Context(), r, ip)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.httpLog.LogEnd(r.Context(), r, rec.status, time.Since(start).Milliseconds(), ip)
	})
}
