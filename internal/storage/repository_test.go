package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gembala/internal/core"
	"gembala/internal/stats"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seed(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	ctx := context.Background()

	rayonID, err := repo.CreateRayon(ctx, "Rayon Timur")
	if err != nil {
		t.Fatalf("create rayon: %v", err)
	}
	kelID, err := repo.CreateKeluarga(ctx, core.Keluarga{RayonID: &rayonID, Alamat: "Jl. Melati 1"})
	if err != nil {
		t.Fatalf("create keluarga: %v", err)
	}
	kelTanpaRayon, err := repo.CreateKeluarga(ctx, core.Keluarga{Alamat: "Jl. Anggrek 2"})
	if err != nil {
		t.Fatalf("create keluarga: %v", err)
	}

	baptisID, err := repo.CreateBaptis(ctx, time.Date(2001, 3, 1, 0, 0, 0, 0, time.UTC), "GKI Timur")
	if err != nil {
		t.Fatalf("create baptis: %v", err)
	}

	goldarA := "A"
	pendidikan := int64(3)
	members := []core.Jemaat{
		{
			Nama: "Andreas", JenisKelamin: true,
			TanggalLahir: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			KeluargaID:   &kelID, StatusKeluarga: core.StatusKepalaKeluarga,
			GolonganDarah: &goldarA, PendidikanID: &pendidikan, BaptisID: &baptisID,
		},
		{
			Nama: "Maria", JenisKelamin: false,
			TanggalLahir: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
			KeluargaID:   &kelID, StatusKeluarga: core.StatusPasangan,
		},
		{
			Nama: "Yohanes", JenisKelamin: true,
			TanggalLahir: time.Date(1950, 3, 10, 0, 0, 0, 0, time.UTC),
			KeluargaID:   &kelTanpaRayon, StatusKeluarga: core.StatusKepalaKeluarga,
		},
	}
	for _, m := range members {
		if _, err := repo.CreateJemaat(ctx, m); err != nil {
			t.Fatalf("create jemaat %s: %v", m.Nama, err)
		}
	}
}

func TestJemaatCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateJemaat(ctx, core.Jemaat{
		Nama:         "Petrus",
		JenisKelamin: true,
		TanggalLahir: time.Date(1985, 4, 20, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	j, err := repo.GetJemaat(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if j.Nama != "Petrus" || !j.JenisKelamin {
		t.Errorf("got %+v", j)
	}
	if !j.TanggalLahir.Equal(time.Date(1985, 4, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("tanggal lahir = %v", j.TanggalLahir)
	}
	if j.GolonganDarah != nil || j.BaptisID != nil {
		t.Errorf("nullable fields should be nil: %+v", j)
	}

	j.Nama = "Simon Petrus"
	if err := repo.UpdateJemaat(ctx, *j); err != nil {
		t.Fatalf("update: %v", err)
	}
	j, err = repo.GetJemaat(ctx, id)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if j.Nama != "Simon Petrus" {
		t.Errorf("nama = %q", j.Nama)
	}

	if err := repo.DeleteJemaat(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetJemaat(ctx, id); err != core.ErrNotFound {
		t.Errorf("get deleted = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteJemaat(ctx, id); err != core.ErrNotFound {
		t.Errorf("delete missing = %v, want ErrNotFound", err)
	}
}

func TestStatsFacade(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)
	ctx := context.Background()

	t.Run("unfiltered counts", func(t *testing.T) {
		n, err := repo.CountJemaat(ctx, nil)
		if err != nil {
			t.Fatalf("count jemaat: %v", err)
		}
		if n != 3 {
			t.Errorf("jemaat = %d, want 3", n)
		}

		k, err := repo.CountKeluarga(ctx)
		if err != nil {
			t.Fatalf("count keluarga: %v", err)
		}
		if k != 2 {
			t.Errorf("keluarga = %d, want 2", k)
		}
	})

	t.Run("age range pushdown", func(t *testing.T) {
		// 30..40 year olds at 2024-01-01 per the date translation.
		min := time.Date(1983, 1, 1, 0, 0, 0, 0, time.UTC)
		max := time.Date(1994, 1, 1, 0, 0, 0, 0, time.UTC)
		n, err := repo.CountJemaat(ctx, &stats.Query{MinTanggalLahir: &min, MaxTanggalLahir: &max})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 1 {
			t.Errorf("matching jemaat = %d, want 1 (Maria)", n)
		}
	})

	t.Run("rayon and status filters", func(t *testing.T) {
		rayonID := int64(1)
		status := core.StatusKepalaKeluarga
		n, err := repo.CountJemaat(ctx, &stats.Query{RayonID: &rayonID, StatusKeluarga: &status})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 1 {
			t.Errorf("matching jemaat = %d, want 1 (Andreas)", n)
		}
	})

	t.Run("roster scan joins rayon", func(t *testing.T) {
		rows, err := repo.ListJemaatForStats(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("rows = %d, want 3", len(rows))
		}
		if rows[0].Rayon == nil || *rows[0].Rayon != "Rayon Timur" {
			t.Errorf("row 0 rayon = %v", rows[0].Rayon)
		}
		if rows[2].Rayon != nil {
			t.Errorf("row 2 rayon should be nil, got %v", *rows[2].Rayon)
		}
	})

	t.Run("group by gender", func(t *testing.T) {
		groups, err := repo.GroupJemaatBy(ctx, stats.DimensionJenisKelamin, nil)
		if err != nil {
			t.Fatalf("group: %v", err)
		}
		counts := map[string]int{}
		for _, g := range groups {
			counts[g.Value] = g.Count
		}
		if counts["L"] != 2 || counts["P"] != 1 {
			t.Errorf("gender groups = %v", counts)
		}
	})

	t.Run("group by golongan darah keeps nulls", func(t *testing.T) {
		groups, err := repo.GroupJemaatBy(ctx, stats.DimensionGolonganDarah, nil)
		if err != nil {
			t.Fatalf("group: %v", err)
		}
		counts := map[string]int{}
		for _, g := range groups {
			counts[g.Value] = g.Count
		}
		if counts["A"] != 1 || counts[""] != 2 {
			t.Errorf("goldar groups = %v", counts)
		}
	})

	t.Run("sacrament aggregate", func(t *testing.T) {
		c, err := repo.AggregateSakramen(ctx, nil)
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if c.Baptis != 1 || c.Sidi != 0 || c.Nikah != 0 {
			t.Errorf("sakramen = %+v", c)
		}
	})

	t.Run("unknown dimension", func(t *testing.T) {
		if _, err := repo.GroupJemaatBy(ctx, stats.Dimension("umur"), nil); err == nil {
			t.Error("want error for unknown dimension")
		}
	})
}
