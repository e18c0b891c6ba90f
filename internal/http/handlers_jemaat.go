package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gembala/internal/core"
	applog "gembala/internal/log"
)

// jemaatRequest is the JSON write shape. Dates travel as "YYYY-MM-DD";
// jenis_kelamin is true for laki-laki.
type jemaatRequest struct {
	Nama               string  `json:"nama"`
	JenisKelamin       bool    `json:"jenis_kelamin"`
	TanggalLahir       string  `json:"tanggal_lahir"`
	GolonganDarah      *string `json:"golongan_darah,omitempty"`
	KeluargaID         *int64  `json:"keluarga_id,omitempty"`
	StatusKeluarga     string  `json:"status_keluarga,omitempty"`
	PendidikanID       *int64  `json:"pendidikan_id,omitempty"`
	PekerjaanID        *int64  `json:"pekerjaan_id,omitempty"`
	PenghasilanID      *int64  `json:"penghasilan_id,omitempty"`
	JaminanKesehatanID *int64  `json:"jaminan_kesehatan_id,omitempty"`
	BaptisID           *int64  `json:"baptis_id,omitempty"`
	SidiID             *int64  `json:"sidi_id,omitempty"`
	NikahID            *int64  `json:"nikah_id,omitempty"`
}

type jemaatView struct {
	ID                 int64   `json:"id"`
	Nama               string  `json:"nama"`
	JenisKelamin       bool    `json:"jenis_kelamin"`
	TanggalLahir       string  `json:"tanggal_lahir"`
	GolonganDarah      *string `json:"golongan_darah,omitempty"`
	KeluargaID         *int64  `json:"keluarga_id,omitempty"`
	StatusKeluarga     string  `json:"status_keluarga,omitempty"`
	PendidikanID       *int64  `json:"pendidikan_id,omitempty"`
	PekerjaanID        *int64  `json:"pekerjaan_id,omitempty"`
	PenghasilanID      *int64  `json:"penghasilan_id,omitempty"`
	JaminanKesehatanID *int64  `json:"jaminan_kesehatan_id,omitempty"`
	BaptisID           *int64  `json:"baptis_id,omitempty"`
	SidiID             *int64  `json:"sidi_id,omitempty"`
	NikahID            *int64  `json:"nikah_id,omitempty"`
}

func (req *jemaatRequest) toDomain() (core.Jemaat, error) {
	lahir, err := parseDate(req.TanggalLahir)
	if err != nil {
		return core.Jemaat{}, core.ErrInvalidTanggal
	}
	return core.Jemaat{
		Nama:               req.Nama,
		JenisKelamin:       req.JenisKelamin,
		TanggalLahir:       lahir,
		GolonganDarah:      req.GolonganDarah,
		KeluargaID:         req.KeluargaID,
		StatusKeluarga:     core.StatusKeluarga(req.StatusKeluarga),
		PendidikanID:       req.PendidikanID,
		PekerjaanID:        req.PekerjaanID,
		PenghasilanID:      req.PenghasilanID,
		JaminanKesehatanID: req.JaminanKesehatanID,
		BaptisID:           req.BaptisID,
		SidiID:             req.SidiID,
		NikahID:            req.NikahID,
	}, nil
}

func toJemaatView(j core.Jemaat) jemaatView {
	return jemaatView{
		ID:                 j.ID,
		Nama:               j.Nama,
		JenisKelamin:       j.JenisKelamin,
		TanggalLahir:       j.TanggalLahir.Format("2006-01-02"),
		GolonganDarah:      j.GolonganDarah,
		KeluargaID:         j.KeluargaID,
		StatusKeluarga:     string(j.StatusKeluarga),
		PendidikanID:       j.PendidikanID,
		PekerjaanID:        j.PekerjaanID,
		PenghasilanID:      j.PenghasilanID,
		JaminanKesehatanID: j.JaminanKesehatanID,
		BaptisID:           j.BaptisID,
		SidiID:             j.SidiID,
		NikahID:            j.NikahID,
	}
}

func (s *Server) handleCreateJemaat(w http.ResponseWriter, r *http.Request) {
	var req jemaatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	j, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.jemaat.CreateJemaat(r.Context(), j)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create jemaat")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListJemaat(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	list, err := s.jemaat.ListJemaat(r.Context(), limit, offset)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to list jemaat")
		return
	}

	views := make([]jemaatView, 0, len(list))
	for _, j := range list {
		views = append(views, toJemaatView(j))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetJemaat(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	j, err := s.jemaat.GetJemaat(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to get jemaat")
		return
	}

	writeJSON(w, http.StatusOK, toJemaatView(*j))
}

func (s *Server) handleUpdateJemaat(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req jemaatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	j, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	j.ID = id

	if err := s.jemaat.UpdateJemaat(r.Context(), j); err != nil {
		s.writeServiceError(w, r, err, "Failed to update jemaat")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleDeleteJemaat(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.jemaat.DeleteJemaat(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete jemaat")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service failures onto HTTP codes: validation
// errors to 400, missing records to 404, everything else to 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, core.ErrEmptyNama), errors.Is(err, core.ErrInvalidTanggal):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), msg, applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
