package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gembala/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRepository is the relational store behind both the admin CRUD
// endpoints and the statistics facade.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- jemaat ---

const jemaatColumns = `nama, jenis_kelamin, tanggal_lahir, golongan_darah, keluarga_id,
	status_keluarga, pendidikan_id, pekerjaan_id, penghasilan_id, jaminan_kesehatan_id,
	baptis_id, sidi_id, nikah_id`

func (r *SQLiteRepository) CreateJemaat(ctx context.Context, j core.Jemaat) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO jemaat (`+jemaatColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Nama, boolToInt(j.JenisKelamin), j.TanggalLahir.Format(dateLayout), j.GolonganDarah,
		j.KeluargaID, string(j.StatusKeluarga), j.PendidikanID, j.PekerjaanID,
		j.PenghasilanID, j.JaminanKesehatanID, j.BaptisID, j.SidiID, j.NikahID)
	if err != nil {
		return 0, fmt.Errorf("insert jemaat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetJemaat(ctx context.Context, id int64) (*core.Jemaat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, `+jemaatColumns+` FROM jemaat WHERE id = ?`, id)

	j, err := scanJemaat(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get jemaat %d: %w", id, err)
	}
	return j, nil
}

func (r *SQLiteRepository) ListJemaat(ctx context.Context, limit, offset int) ([]core.Jemaat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, `+jemaatColumns+` FROM jemaat ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list jemaat: %w", err)
	}
	defer rows.Close()

	var out []core.Jemaat
	for rows.Next() {
		j, err := scanJemaat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan jemaat: %w", err)
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateJemaat(ctx context.Context, j core.Jemaat) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jemaat SET nama = ?, jenis_kelamin = ?, tanggal_lahir = ?, golongan_darah = ?,
			keluarga_id = ?, status_keluarga = ?, pendidikan_id = ?, pekerjaan_id = ?,
			penghasilan_id = ?, jaminan_kesehatan_id = ?, baptis_id = ?, sidi_id = ?, nikah_id = ?
		WHERE id = ?`,
		j.Nama, boolToInt(j.JenisKelamin), j.TanggalLahir.Format(dateLayout), j.GolonganDarah,
		j.KeluargaID, string(j.StatusKeluarga), j.PendidikanID, j.PekerjaanID,
		j.PenghasilanID, j.JaminanKesehatanID, j.BaptisID, j.SidiID, j.NikahID, j.ID)
	if err != nil {
		return fmt.Errorf("update jemaat %d: %w", j.ID, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteJemaat(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jemaat WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete jemaat %d: %w", id, err)
	}
	return requireRow(res)
}

// --- keluarga ---

func (r *SQLiteRepository) CreateKeluarga(ctx context.Context, k core.Keluarga) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO keluarga (rayon_id, alamat) VALUES (?, ?)`, k.RayonID, k.Alamat)
	if err != nil {
		return 0, fmt.Errorf("insert keluarga: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetKeluarga(ctx context.Context, id int64) (*core.Keluarga, error) {
	var k core.Keluarga
	var rayonID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, rayon_id, alamat FROM keluarga WHERE id = ?`, id).
		Scan(&k.ID, &rayonID, &k.Alamat)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get keluarga %d: %w", id, err)
	}
	if rayonID.Valid {
		k.RayonID = &rayonID.Int64
	}
	return &k, nil
}

func (r *SQLiteRepository) ListKeluarga(ctx context.Context, limit, offset int) ([]core.Keluarga, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, rayon_id, alamat FROM keluarga ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list keluarga: %w", err)
	}
	defer rows.Close()

	var out []core.Keluarga
	for rows.Next() {
		var k core.Keluarga
		var rayonID sql.NullInt64
		if err := rows.Scan(&k.ID, &rayonID, &k.Alamat); err != nil {
			return nil, fmt.Errorf("scan keluarga: %w", err)
		}
		if rayonID.Valid {
			k.RayonID = &rayonID.Int64
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteKeluarga(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM keluarga WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete keluarga %d: %w", id, err)
	}
	return requireRow(res)
}

// --- rayon ---

func (r *SQLiteRepository) CreateRayon(ctx context.Context, nama string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO rayon (nama) VALUES (?)`, nama)
	if err != nil {
		return 0, fmt.Errorf("insert rayon: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListRayon(ctx context.Context) ([]core.Rayon, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, nama FROM rayon ORDER BY nama`)
	if err != nil {
		return nil, fmt.Errorf("list rayon: %w", err)
	}
	defer rows.Close()

	var out []core.Rayon
	for rows.Next() {
		var ry core.Rayon
		if err := rows.Scan(&ry.ID, &ry.Nama); err != nil {
			return nil, fmt.Errorf("scan rayon: %w", err)
		}
		out = append(out, ry)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteRayon(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rayon WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rayon %d: %w", id, err)
	}
	return requireRow(res)
}

// --- sacrament records ---

func (r *SQLiteRepository) CreateBaptis(ctx context.Context, tanggal time.Time, tempat string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO baptis (tanggal, tempat) VALUES (?, ?)`, tanggal.Format(dateLayout), tempat)
	if err != nil {
		return 0, fmt.Errorf("insert baptis: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateSidi(ctx context.Context, tanggal time.Time, tempat string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sidi (tanggal, tempat) VALUES (?, ?)`, tanggal.Format(dateLayout), tempat)
	if err != nil {
		return 0, fmt.Errorf("insert sidi: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateNikah(ctx context.Context, tanggal time.Time, tempat string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO nikah (tanggal, tempat) VALUES (?, ?)`, tanggal.Format(dateLayout), tempat)
	if err != nil {
		return 0, fmt.Errorf("insert nikah: %w", err)
	}
	return res.LastInsertId()
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJemaat(row rowScanner) (*core.Jemaat, error) {
	var j core.Jemaat
	var jenisKelamin int
	var tanggalLahir string
	var goldar sql.NullString
	var status string
	ptrs := []*sql.NullInt64{{}, {}, {}, {}, {}, {}, {}, {}}

	if err := row.Scan(&j.ID, &j.Nama, &jenisKelamin, &tanggalLahir, &goldar,
		ptrs[0], &status, ptrs[1], ptrs[2], ptrs[3], ptrs[4], ptrs[5], ptrs[6], ptrs[7]); err != nil {
		return nil, err
	}

	j.JenisKelamin = jenisKelamin == 1
	t, err := time.Parse(dateLayout, tanggalLahir)
	if err != nil {
		return nil, fmt.Errorf("parse tanggal lahir %q: %w", tanggalLahir, err)
	}
	j.TanggalLahir = t
	if goldar.Valid {
		j.GolonganDarah = &goldar.String
	}
	j.StatusKeluarga = core.StatusKeluarga(status)

	for i, dst := range []**int64{&j.KeluargaID, &j.PendidikanID, &j.PekerjaanID,
		&j.PenghasilanID, &j.JaminanKesehatanID, &j.BaptisID, &j.SidiID, &j.NikahID} {
		if ptrs[i].Valid {
			v := ptrs[i].Int64
			*dst = &v
		}
	}
	return &j, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
