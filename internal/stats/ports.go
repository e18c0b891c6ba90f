package stats

import (
	"context"
	"time"

	"gembala/internal/core"
)

// Dimension is the closed set of group-by aggregations the store supports.
// Label resolution and null handling are decided per dimension by the
// engine, not by the store.
type Dimension string

const (
	DimensionJenisKelamin  Dimension = "jenis_kelamin"
	DimensionPendidikan    Dimension = "pendidikan"
	DimensionPekerjaan     Dimension = "pekerjaan"
	DimensionGolonganDarah Dimension = "golongan_darah"
	DimensionRayon         Dimension = "rayon"
)

// GroupCount is one (value, count) row of a grouped query. A missing value
// (NULL in the store) comes back as the empty string.
type GroupCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SakramenCounts holds the matching congregants with a non-null link to
// each sacrament record.
type SakramenCounts struct {
	Baptis int
	Sidi   int
	Nikah  int
}

// Query is the store-level filter. Age ranges have already been translated
// to birth-date bounds by the report engine: MinTanggalLahir is exclusive,
// MaxTanggalLahir inclusive.
type Query struct {
	RayonID         *int64
	JenisKelamin    *bool
	MinTanggalLahir *time.Time
	MaxTanggalLahir *time.Time
	GolonganDarah   *string
	StatusKeluarga  *core.StatusKeluarga
}

// Store is the read-only data access facade both engines run against.
type Store interface {
	CountJemaat(ctx context.Context, q *Query) (int, error)
	CountKeluarga(ctx context.Context) (int, error)
	CountBaptis(ctx context.Context) (int, error)
	CountNikah(ctx context.Context) (int, error)
	CountSidi(ctx context.Context) (int, error)

	// ListJemaatForStats returns the full roster joined keluarga->rayon,
	// one row per congregant, for the dashboard scan.
	ListJemaatForStats(ctx context.Context) ([]core.StatsRow, error)

	GroupJemaatBy(ctx context.Context, dim Dimension, q *Query) ([]GroupCount, error)
	AggregateSakramen(ctx context.Context, q *Query) (SakramenCounts, error)
}
