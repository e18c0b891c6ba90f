package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	applog "gembala/internal/log"
	"gembala/internal/services"
	"gembala/internal/stats"
	"gembala/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	quiet := applog.New(applog.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})

	statsSvc := stats.NewService(repo, stats.WithLogger(quiet))
	jemaatSvc := services.NewJemaatService(repo, nil, statsSvc, quiet)

	srv := NewServer(":0", jemaatSvc, statsSvc, quiet)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createID(t *testing.T, ts *httptest.Server, path string, body any) int64 {
	t.Helper()
	resp := postJSON(t, ts, path, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST %s status = %d, want 201", path, resp.StatusCode)
	}
	var created map[string]int64
	decodeBody(t, resp, &created)
	return created["id"]
}

func TestJemaatEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rayonID := createID(t, ts, "/api/rayon", map[string]string{"nama": "Rayon Timur"})
	keluargaID := createID(t, ts, "/api/keluarga", map[string]any{
		"rayon_id": rayonID,
		"alamat":   "Jl. Melati 3",
	})

	jemaatID := createID(t, ts, "/api/jemaat", map[string]any{
		"nama":            "Yohanes",
		"jenis_kelamin":   true,
		"tanggal_lahir":   "1990-04-12",
		"golongan_darah":  "O",
		"keluarga_id":     keluargaID,
		"status_keluarga": "kepala_keluarga",
	})

	resp, err := http.Get(fmt.Sprintf("%s/api/jemaat/%d", ts.URL, jemaatID))
	if err != nil {
		t.Fatalf("GET jemaat: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET jemaat status = %d, want 200", resp.StatusCode)
	}
	var view jemaatView
	decodeBody(t, resp, &view)

	if view.Nama != "Yohanes" {
		t.Errorf("nama = %q, want Yohanes", view.Nama)
	}
	if view.TanggalLahir != "1990-04-12" {
		t.Errorf("tanggal_lahir = %q, want 1990-04-12", view.TanggalLahir)
	}
	if view.GolonganDarah == nil || *view.GolonganDarah != "O" {
		t.Errorf("golongan_darah = %v, want O", view.GolonganDarah)
	}
	if view.KeluargaID == nil || *view.KeluargaID != keluargaID {
		t.Errorf("keluarga_id = %v, want %d", view.KeluargaID, keluargaID)
	}

	resp, err = http.Get(ts.URL + "/api/jemaat")
	if err != nil {
		t.Fatalf("GET jemaat list: %v", err)
	}
	var list []jemaatView
	decodeBody(t, resp, &list)
	if len(list) != 1 {
		t.Fatalf("list length = %d, want 1", len(list))
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/jemaat/%d", ts.URL, jemaatID), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE jemaat: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Get(fmt.Sprintf("%s/api/jemaat/%d", ts.URL, jemaatID))
	if err != nil {
		t.Fatalf("GET deleted jemaat: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted status = %d, want 404", resp.StatusCode)
	}
}

func TestJemaatValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing nama", map[string]any{"tanggal_lahir": "1990-01-01"}},
		{"bad tanggal", map[string]any{"nama": "X", "tanggal_lahir": "12-04-1990"}},
		{"future tanggal", map[string]any{
			"nama":          "X",
			"tanggal_lahir": time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts, "/api/jemaat", tt.body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestDashboardReflectsMutations(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/dashboard")
	if err != nil {
		t.Fatalf("GET dashboard: %v", err)
	}
	var snap stats.Snapshot
	decodeBody(t, resp, &snap)
	if snap.TotalJemaat != 0 {
		t.Fatalf("empty db total jemaat = %d, want 0", snap.TotalJemaat)
	}

	createID(t, ts, "/api/jemaat", map[string]any{
		"nama":          "Maria",
		"jenis_kelamin": false,
		"tanggal_lahir": "1991-07-20",
	})

	resp, err = http.Get(ts.URL + "/api/dashboard")
	if err != nil {
		t.Fatalf("GET dashboard after create: %v", err)
	}
	decodeBody(t, resp, &snap)
	if snap.TotalJemaat != 1 {
		t.Errorf("total jemaat after create = %d, want 1", snap.TotalJemaat)
	}
}

func TestLaporanEndpoint(t *testing.T) {
	ts := newTestServer(t)

	createID(t, ts, "/api/jemaat", map[string]any{
		"nama":           "Yohanes",
		"jenis_kelamin":  true,
		"tanggal_lahir":  "1990-04-12",
		"golongan_darah": "O",
	})
	createID(t, ts, "/api/jemaat", map[string]any{
		"nama":          "Maria",
		"jenis_kelamin": false,
		"tanggal_lahir": "1991-07-20",
	})

	resp, err := http.Get(ts.URL + "/api/laporan?jenis_kelamin=l")
	if err != nil {
		t.Fatalf("GET laporan: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("laporan status = %d, want 200", resp.StatusCode)
	}
	var report stats.Report
	decodeBody(t, resp, &report)

	if !report.Success {
		t.Fatalf("report success = false, error = %q", report.Error)
	}
	if report.Total != 1 {
		t.Errorf("filtered total = %d, want 1", report.Total)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
