package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"gembala/internal/core"
)

type fakeStore struct {
	rows     []core.StatsRow
	keluarga int
	baptis   int
	nikah    int
	sidi     int

	groups   map[Dimension][]GroupCount
	sakramen SakramenCounts

	failScan   bool
	failCounts bool

	listCalls  int
	countCalls int
	lastQuery  *Query
}

func (f *fakeStore) CountJemaat(ctx context.Context, q *Query) (int, error) {
	if f.failCounts {
		return 0, errors.New("boom")
	}
	f.countCalls++
	f.lastQuery = q
	if q == nil {
		return len(f.rows), nil
	}
	// Filtered counts are driven by the birth-date bounds only; that is
	// all the report tests exercise through this fake.
	n := 0
	for _, r := range f.rows {
		if q.MinTanggalLahir != nil && !r.TanggalLahir.After(*q.MinTanggalLahir) {
			continue
		}
		if q.MaxTanggalLahir != nil && r.TanggalLahir.After(*q.MaxTanggalLahir) {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeStore) CountKeluarga(ctx context.Context) (int, error) {
	if f.failCounts {
		return 0, errors.New("boom")
	}
	return f.keluarga, nil
}

func (f *fakeStore) CountBaptis(ctx context.Context) (int, error) { return f.baptis, nil }
func (f *fakeStore) CountNikah(ctx context.Context) (int, error)  { return f.nikah, nil }
func (f *fakeStore) CountSidi(ctx context.Context) (int, error)   { return f.sidi, nil }

func (f *fakeStore) ListJemaatForStats(ctx context.Context) ([]core.StatsRow, error) {
	if f.failScan {
		return nil, errors.New("scan failed")
	}
	f.listCalls++
	return f.rows, nil
}

func (f *fakeStore) GroupJemaatBy(ctx context.Context, dim Dimension, q *Query) ([]GroupCount, error) {
	if f.groups == nil {
		return nil, nil
	}
	return f.groups[dim], nil
}

func (f *fakeStore) AggregateSakramen(ctx context.Context, q *Query) (SakramenCounts, error) {
	return f.sakramen, nil
}

func strPtr(s string) *string { return &s }

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func rosterStore() *fakeStore {
	rayonA := strPtr("Rayon Timur")
	return &fakeStore{
		rows: []core.StatsRow{
			{ID: 1, Nama: "Andreas", JenisKelamin: true, TanggalLahir: date(2000, 1, 1), Rayon: rayonA},
			{ID: 2, Nama: "Maria", JenisKelamin: false, TanggalLahir: date(1990, 6, 15), Rayon: rayonA},
			{ID: 3, Nama: "Yohanes", JenisKelamin: true, TanggalLahir: date(1950, 3, 10)},
		},
		keluarga: 2,
		baptis:   3,
		nikah:    1,
		sidi:     2,
	}
}

func TestBuildSnapshot(t *testing.T) {
	store := rosterStore()
	now := date(2024, 1, 1)

	snap, err := BuildSnapshot(context.Background(), store, now)
	if err != nil {
		t.Fatalf("BuildSnapshot failed: %v", err)
	}

	if snap.TotalJemaat != 3 || snap.TotalKeluarga != 2 || snap.TotalBaptis != 3 ||
		snap.TotalNikah != 1 || snap.TotalSidi != 2 {
		t.Errorf("unexpected totals: %+v", snap)
	}

	if snap.JenisKelamin[0].Label != LabelLakiLaki || snap.JenisKelamin[0].Count != 2 {
		t.Errorf("laki-laki = %+v, want 2", snap.JenisKelamin[0])
	}
	if snap.JenisKelamin[1].Label != LabelPerempuan || snap.JenisKelamin[1].Count != 1 {
		t.Errorf("perempuan = %+v, want 1", snap.JenisKelamin[1])
	}

	// Ages at 2024-01-01: 24, 33, 73.
	wantBuckets := map[core.AgeBucket]int{
		core.BucketAnak:   0,
		core.BucketRemaja: 0,
		core.BucketPemuda: 2,
		core.BucketDewasa: 0,
		core.BucketLansia: 1,
	}
	if len(snap.KelompokUmur) != 5 {
		t.Fatalf("want 5 age buckets, got %d", len(snap.KelompokUmur))
	}
	for i, bc := range snap.KelompokUmur {
		if bc.Kelompok != core.AgeBuckets[i] {
			t.Errorf("bucket %d out of band order: %q", i, bc.Kelompok)
		}
		if bc.Count != wantBuckets[bc.Kelompok] {
			t.Errorf("bucket %q = %d, want %d", bc.Kelompok, bc.Count, wantBuckets[bc.Kelompok])
		}
	}

	if len(snap.PerRayon) != 2 {
		t.Fatalf("want 2 rayon entries, got %d", len(snap.PerRayon))
	}
	if snap.PerRayon[0].Rayon != "Rayon Timur" || snap.PerRayon[0].Count != 2 {
		t.Errorf("top rayon = %+v", snap.PerRayon[0])
	}
	if snap.PerRayon[1].Rayon != RayonTanpa || snap.PerRayon[1].Count != 1 {
		t.Errorf("sentinel rayon = %+v", snap.PerRayon[1])
	}

	// Birthday on today itself is included, reported with the age being
	// turned plus one (per the reporting convention of the dashboard).
	if len(snap.UlangTahun) != 1 {
		t.Fatalf("want 1 birthday reminder, got %d", len(snap.UlangTahun))
	}
	rem := snap.UlangTahun[0]
	if rem.JemaatID != 1 || !rem.Tanggal.Equal(date(2024, 1, 1)) || rem.Umur != 25 {
		t.Errorf("reminder = %+v", rem)
	}
}

func TestBuildSnapshotRayonTop10(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 12; i++ {
		nama := string(rune('A' + i))
		// Rayon i gets i+1 members.
		for j := 0; j <= i; j++ {
			r := "Rayon " + nama
			store.rows = append(store.rows, core.StatsRow{
				ID:           int64(i*100 + j),
				Nama:         nama,
				TanggalLahir: date(1980, 6, 1),
				Rayon:        &r,
			})
		}
	}

	snap, err := BuildSnapshot(context.Background(), store, date(2024, 1, 1))
	if err != nil {
		t.Fatalf("BuildSnapshot failed: %v", err)
	}

	if len(snap.PerRayon) != 10 {
		t.Fatalf("want 10 rayon entries, got %d", len(snap.PerRayon))
	}
	for i := 1; i < len(snap.PerRayon); i++ {
		if snap.PerRayon[i].Count > snap.PerRayon[i-1].Count {
			t.Errorf("rayon histogram not descending at %d: %+v", i, snap.PerRayon)
		}
	}
	if snap.PerRayon[0].Rayon != "Rayon L" || snap.PerRayon[0].Count != 12 {
		t.Errorf("top rayon = %+v", snap.PerRayon[0])
	}
}

func TestBuildSnapshotRemindersSorted(t *testing.T) {
	today := date(2024, 12, 28)
	store := &fakeStore{
		rows: []core.StatsRow{
			{ID: 1, Nama: "Januari", TanggalLahir: date(1990, 1, 2)},
			{ID: 2, Nama: "Silvester", TanggalLahir: date(1985, 12, 31)},
			{ID: 3, Nama: "TerlaluJauh", TanggalLahir: date(1985, 1, 7)},
			{ID: 4, Nama: "Kemarin", TanggalLahir: date(1985, 12, 27)},
		},
	}

	snap, err := BuildSnapshot(context.Background(), store, today)
	if err != nil {
		t.Fatalf("BuildSnapshot failed: %v", err)
	}

	if len(snap.UlangTahun) != 2 {
		t.Fatalf("want 2 reminders, got %+v", snap.UlangTahun)
	}
	if snap.UlangTahun[0].JemaatID != 2 || snap.UlangTahun[1].JemaatID != 1 {
		t.Errorf("reminders out of order: %+v", snap.UlangTahun)
	}
	if !snap.UlangTahun[1].Tanggal.Equal(date(2025, 1, 2)) {
		t.Errorf("year-wrapped occurrence = %v", snap.UlangTahun[1].Tanggal)
	}
}

func TestBuildSnapshotScanFailure(t *testing.T) {
	store := rosterStore()
	store.failScan = true

	if _, err := BuildSnapshot(context.Background(), store, date(2024, 1, 1)); err == nil {
		t.Fatal("want error when the roster scan fails")
	}
}

func TestBuildSnapshotIdempotent(t *testing.T) {
	store := rosterStore()
	now := date(2024, 1, 1)

	a, err := BuildSnapshot(context.Background(), store, now)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	b, err := BuildSnapshot(context.Background(), store, now)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}

	if a.TotalJemaat != b.TotalJemaat || a.TotalKeluarga != b.TotalKeluarga ||
		a.TotalBaptis != b.TotalBaptis || a.TotalNikah != b.TotalNikah || a.TotalSidi != b.TotalSidi {
		t.Errorf("totals differ between runs: %+v vs %+v", a, b)
	}
	if len(a.UlangTahun) != len(b.UlangTahun) {
		t.Fatalf("reminder counts differ: %d vs %d", len(a.UlangTahun), len(b.UlangTahun))
	}
	for i := range a.UlangTahun {
		if !a.UlangTahun[i].Tanggal.Equal(b.UlangTahun[i].Tanggal) {
			t.Errorf("reminder %d dates differ", i)
		}
	}
}
