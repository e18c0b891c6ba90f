package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gembala/internal/core"
	"gembala/internal/stats"
)

// The statistics facade: counting and grouping primitives with the filter
// pushed down into SQL instead of scanned in memory. All queries run over
// jemaat aliased j with keluarga k joined in, so the rayon filter works
// uniformly.

func (r *SQLiteRepository) CountJemaat(ctx context.Context, q *stats.Query) (int, error) {
	where, args := buildFilter(q)
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jemaat j LEFT JOIN keluarga k ON j.keluarga_id = k.id`+where,
		args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count jemaat: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountKeluarga(ctx context.Context) (int, error) {
	return r.countTable(ctx, "keluarga")
}

func (r *SQLiteRepository) CountBaptis(ctx context.Context) (int, error) {
	return r.countTable(ctx, "baptis")
}

func (r *SQLiteRepository) CountNikah(ctx context.Context) (int, error) {
	return r.countTable(ctx, "nikah")
}

func (r *SQLiteRepository) CountSidi(ctx context.Context) (int, error) {
	return r.countTable(ctx, "sidi")
}

func (r *SQLiteRepository) countTable(ctx context.Context, table string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListJemaatForStats(ctx context.Context) ([]core.StatsRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT j.id, j.nama, j.jenis_kelamin, j.tanggal_lahir, r.nama
		FROM jemaat j
		LEFT JOIN keluarga k ON j.keluarga_id = k.id
		LEFT JOIN rayon r ON k.rayon_id = r.id
		ORDER BY j.id`)
	if err != nil {
		return nil, fmt.Errorf("list jemaat for stats: %w", err)
	}
	defer rows.Close()

	var out []core.StatsRow
	for rows.Next() {
		var row core.StatsRow
		var jenisKelamin int
		var tanggalLahir string
		var rayon *string
		if err := rows.Scan(&row.ID, &row.Nama, &jenisKelamin, &tanggalLahir, &rayon); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		row.JenisKelamin = jenisKelamin == 1
		t, err := time.Parse(dateLayout, tanggalLahir)
		if err != nil {
			return nil, fmt.Errorf("parse tanggal lahir %q: %w", tanggalLahir, err)
		}
		row.TanggalLahir = t
		row.Rayon = rayon
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GroupJemaatBy(ctx context.Context, dim stats.Dimension, q *stats.Query) ([]stats.GroupCount, error) {
	expr, join, err := dimensionExpr(dim)
	if err != nil {
		return nil, err
	}
	where, args := buildFilter(q)

	query := `SELECT ` + expr + ` AS v, COUNT(*) AS n FROM jemaat j
		LEFT JOIN keluarga k ON j.keluarga_id = k.id` + join + where + ` GROUP BY v ORDER BY v`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("group jemaat by %s: %w", dim, err)
	}
	defer rows.Close()

	var out []stats.GroupCount
	for rows.Next() {
		var gc stats.GroupCount
		if err := rows.Scan(&gc.Value, &gc.Count); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AggregateSakramen(ctx context.Context, q *stats.Query) (stats.SakramenCounts, error) {
	where, args := buildFilter(q)

	// COUNT(col) counts only rows where the link is non-null.
	var c stats.SakramenCounts
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(j.baptis_id), COUNT(j.sidi_id), COUNT(j.nikah_id)
		FROM jemaat j LEFT JOIN keluarga k ON j.keluarga_id = k.id`+where,
		args...).Scan(&c.Baptis, &c.Sidi, &c.Nikah)
	if err != nil {
		return stats.SakramenCounts{}, fmt.Errorf("aggregate sakramen: %w", err)
	}
	return c, nil
}

// dimensionExpr maps a tagged dimension onto its SQL value expression and
// any extra join it needs. Missing values become the empty string; the
// engine applies the per-dimension sentinel label.
func dimensionExpr(dim stats.Dimension) (expr, join string, err error) {
	switch dim {
	case stats.DimensionJenisKelamin:
		return `CASE WHEN j.jenis_kelamin = 1 THEN 'L' ELSE 'P' END`, "", nil
	case stats.DimensionPendidikan:
		return `COALESCE(CAST(j.pendidikan_id AS TEXT), '')`, "", nil
	case stats.DimensionPekerjaan:
		return `COALESCE(CAST(j.pekerjaan_id AS TEXT), '')`, "", nil
	case stats.DimensionGolonganDarah:
		return `COALESCE(j.golongan_darah, '')`, "", nil
	case stats.DimensionRayon:
		return `COALESCE(r.nama, '')`, ` LEFT JOIN rayon r ON k.rayon_id = r.id`, nil
	default:
		return "", "", fmt.Errorf("unknown dimension %q", dim)
	}
}

// buildFilter renders the store-level query as a WHERE clause. Birth-date
// bounds compare lexically, which is correct for YYYY-MM-DD text dates.
func buildFilter(q *stats.Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var conds []string
	var args []any

	if q.RayonID != nil {
		conds = append(conds, "k.rayon_id = ?")
		args = append(args, *q.RayonID)
	}
	if q.JenisKelamin != nil {
		conds = append(conds, "j.jenis_kelamin = ?")
		args = append(args, boolToInt(*q.JenisKelamin))
	}
	if q.MinTanggalLahir != nil {
		conds = append(conds, "j.tanggal_lahir > ?")
		args = append(args, q.MinTanggalLahir.Format(dateLayout))
	}
	if q.MaxTanggalLahir != nil {
		conds = append(conds, "j.tanggal_lahir <= ?")
		args = append(args, q.MaxTanggalLahir.Format(dateLayout))
	}
	if q.GolonganDarah != nil {
		conds = append(conds, "j.golongan_darah = ?")
		args = append(args, *q.GolonganDarah)
	}
	if q.StatusKeluarga != nil {
		conds = append(conds, "j.status_keluarga = ?")
		args = append(args, string(*q.StatusKeluarga))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
