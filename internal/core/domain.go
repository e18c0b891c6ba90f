package core

import (
	"errors"
	"time"
)

// Status dalam keluarga (role within the family record).
const (
	StatusKepalaKeluarga StatusKeluarga = "kepala_keluarga"
	StatusPasangan       StatusKeluarga = "pasangan"
	StatusAnak           StatusKeluarga = "anak"
)

type (
	StatusKeluarga string

	// Jemaat is a congregant record. Sacrament links and coded lookups are
	// nullable; TanggalLahir is always present and in the past.
	Jemaat struct {
		ID                 int64
		Nama               string
		JenisKelamin       bool // true = laki-laki
		TanggalLahir       time.Time
		GolonganDarah      *string
		KeluargaID         *int64
		StatusKeluarga     StatusKeluarga
		PendidikanID       *int64
		PekerjaanID        *int64
		PenghasilanID      *int64
		JaminanKesehatanID *int64
		BaptisID           *int64
		SidiID             *int64
		NikahID            *int64
	}

	Keluarga struct {
		ID      int64
		RayonID *int64
		Alamat  string
	}

	Rayon struct {
		ID   int64
		Nama string
	}

	// StatsRow is the roster projection the dashboard scan works on:
	// one row per congregant with the rayon name already joined in.
	StatsRow struct {
		ID           int64
		Nama         string
		JenisKelamin bool
		TanggalLahir time.Time
		Rayon        *string
	}
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrEmptyNama      = errors.New("empty nama")
	ErrInvalidTanggal = errors.New("invalid tanggal lahir")
)

// Validate checks the invariants a jemaat record must satisfy before it is
// written to the store.
func (j Jemaat) Validate(now time.Time) error {
	if j.Nama == "" {
		return ErrEmptyNama
	}
	if j.TanggalLahir.IsZero() || j.TanggalLahir.After(now) {
		return ErrInvalidTanggal
	}
	return nil
}

func (s StatusKeluarga) IsValid() bool {
	switch s {
	case StatusKepalaKeluarga, StatusPasangan, StatusAnak, "":
		return true
	default:
		return false
	}
}
