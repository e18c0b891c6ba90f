package http

import (
	"encoding/json"
	"net/http"

	"gembala/internal/core"
)

type keluargaRequest struct {
	RayonID *int64 `json:"rayon_id,omitempty"`
	Alamat  string `json:"alamat"`
}

type keluargaView struct {
	ID      int64  `json:"id"`
	RayonID *int64 `json:"rayon_id,omitempty"`
	Alamat  string `json:"alamat"`
}

type rayonRequest struct {
	Nama string `json:"nama"`
}

type rayonView struct {
	ID   int64  `json:"id"`
	Nama string `json:"nama"`
}

func (s *Server) handleCreateKeluarga(w http.ResponseWriter, r *http.Request) {
	var req keluargaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.jemaat.CreateKeluarga(r.Context(), core.Keluarga{
		RayonID: req.RayonID,
		Alamat:  req.Alamat,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create keluarga")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListKeluarga(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	list, err := s.jemaat.ListKeluarga(r.Context(), limit, offset)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to list keluarga")
		return
	}

	views := make([]keluargaView, 0, len(list))
	for _, k := range list {
		views = append(views, keluargaView{ID: k.ID, RayonID: k.RayonID, Alamat: k.Alamat})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetKeluarga(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	k, err := s.jemaat.GetKeluarga(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to get keluarga")
		return
	}

	writeJSON(w, http.StatusOK, keluargaView{ID: k.ID, RayonID: k.RayonID, Alamat: k.Alamat})
}

func (s *Server) handleDeleteKeluarga(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.jemaat.DeleteKeluarga(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete keluarga")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateRayon(w http.ResponseWriter, r *http.Request) {
	var req rayonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.jemaat.CreateRayon(r.Context(), req.Nama)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create rayon")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListRayon(w http.ResponseWriter, r *http.Request) {
	list, err := s.jemaat.ListRayon(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to list rayon")
		return
	}

	views := make([]rayonView, 0, len(list))
	for _, ry := range list {
		views = append(views, rayonView{ID: ry.ID, Nama: ry.Nama})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeleteRayon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.jemaat.DeleteRayon(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete rayon")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
