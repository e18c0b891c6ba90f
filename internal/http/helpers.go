package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gembala/internal/core"
	"gembala/internal/stats"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parsePagination reads limit/offset query parameters with sane bounds.
func parsePagination(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// parseReportFilter builds the report filter from query parameters.
// Unparseable values are ignored rather than rejected; the engine treats
// absent fields as unfiltered.
func parseReportFilter(r *http.Request) stats.Filter {
	var f stats.Filter
	q := r.URL.Query()

	if v := q.Get("rayon_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.RayonID = &id
		}
	}
	if v := q.Get("jenis_kelamin"); v != "" {
		jk := strings.EqualFold(v, "l") || v == "1" || strings.EqualFold(v, "true")
		f.JenisKelamin = &jk
	}
	if v := q.Get("umur_min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.UmurMin = &n
		}
	}
	if v := q.Get("umur_max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.UmurMax = &n
		}
	}
	if v := q.Get("golongan_darah"); v != "" {
		goldar := strings.ToUpper(strings.TrimSpace(v))
		f.GolonganDarah = &goldar
	}
	if v := q.Get("status_keluarga"); v != "" {
		status := core.StatusKeluarga(v)
		if status.IsValid() {
			f.StatusKeluarga = &status
		}
	}
	return f
}

func parseDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestID creates a unique request ID for tracing.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
