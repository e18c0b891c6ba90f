package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gembala/internal/core"
)

const (
	// RayonTanpa labels congregants whose family has no assigned rayon.
	RayonTanpa = "Tanpa Rayon"

	// LabelLakiLaki and LabelPerempuan are the fixed localized gender labels.
	LabelLakiLaki  = "Laki-laki"
	LabelPerempuan = "Perempuan"

	birthdayWindowDays = 7
	topRayonEntries    = 10
)

// Chart color tags the dashboard attaches to the gender histogram.
const (
	colorLakiLaki  = "#36A2EB"
	colorPerempuan = "#FF6384"
)

type (
	// GenderCount is one entry of the two-entry gender histogram.
	GenderCount struct {
		Label string `json:"label"`
		Color string `json:"color,omitempty"`
		Count int    `json:"count"`
	}

	BucketCount struct {
		Kelompok core.AgeBucket `json:"kelompok"`
		Count    int            `json:"count"`
	}

	RayonCount struct {
		Rayon string `json:"rayon"`
		Count int    `json:"count"`
	}

	// BirthdayReminder is an upcoming birthday inside the lookahead window.
	// Umur is the age the congregant turns on that occurrence.
	BirthdayReminder struct {
		JemaatID int64     `json:"jemaat_id"`
		Nama     string    `json:"nama"`
		Tanggal  time.Time `json:"tanggal"`
		Umur     int       `json:"umur"`
	}

	// Snapshot is the full dashboard summary, computed in one roster scan
	// plus five independent counts. It is never mutated after construction;
	// recomputation replaces it wholesale.
	Snapshot struct {
		TotalJemaat   int `json:"total_jemaat"`
		TotalKeluarga int `json:"total_keluarga"`
		TotalBaptis   int `json:"total_baptis"`
		TotalNikah    int `json:"total_nikah"`
		TotalSidi     int `json:"total_sidi"`

		JenisKelamin []GenderCount      `json:"jenis_kelamin"`
		KelompokUmur []BucketCount      `json:"kelompok_umur"`
		PerRayon     []RayonCount       `json:"per_rayon"`
		UlangTahun   []BirthdayReminder `json:"ulang_tahun"`

		DibuatPada time.Time `json:"dibuat_pada"`
	}
)

// BuildSnapshot computes the dashboard snapshot as of now. It is pure with
// respect to the clock; callers inject now so the computation is testable.
// Any store error fails the whole snapshot.
func BuildSnapshot(ctx context.Context, store Store, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{DibuatPada: now}

	var err error
	if snap.TotalJemaat, err = store.CountJemaat(ctx, nil); err != nil {
		return nil, fmt.Errorf("count jemaat: %w", err)
	}
	if snap.TotalKeluarga, err = store.CountKeluarga(ctx); err != nil {
		return nil, fmt.Errorf("count keluarga: %w", err)
	}
	if snap.TotalBaptis, err = store.CountBaptis(ctx); err != nil {
		return nil, fmt.Errorf("count baptis: %w", err)
	}
	if snap.TotalNikah, err = store.CountNikah(ctx); err != nil {
		return nil, fmt.Errorf("count nikah: %w", err)
	}
	if snap.TotalSidi, err = store.CountSidi(ctx); err != nil {
		return nil, fmt.Errorf("count sidi: %w", err)
	}

	rows, err := store.ListJemaatForStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jemaat for stats: %w", err)
	}

	var lakiLaki, perempuan int
	buckets := make(map[core.AgeBucket]int, len(core.AgeBuckets))
	rayonCounts := make(map[string]int)
	var rayonOrder []string
	var reminders []BirthdayReminder

	for _, row := range rows {
		if row.JenisKelamin {
			lakiLaki++
		} else {
			perempuan++
		}

		buckets[core.BucketFor(core.AgeAt(row.TanggalLahir, now))]++

		rayon := RayonTanpa
		if row.Rayon != nil {
			rayon = *row.Rayon
		}
		if _, seen := rayonCounts[rayon]; !seen {
			rayonOrder = append(rayonOrder, rayon)
		}
		rayonCounts[rayon]++

		if occ, ok := core.BirthdayInWindow(row.TanggalLahir, now, birthdayWindowDays); ok {
			reminders = append(reminders, BirthdayReminder{
				JemaatID: row.ID,
				Nama:     row.Nama,
				Tanggal:  occ,
				Umur:     core.AgeAt(row.TanggalLahir, now) + 1,
			})
		}
	}

	snap.JenisKelamin = []GenderCount{
		{Label: LabelLakiLaki, Color: colorLakiLaki, Count: lakiLaki},
		{Label: LabelPerempuan, Color: colorPerempuan, Count: perempuan},
	}

	snap.KelompokUmur = make([]BucketCount, 0, len(core.AgeBuckets))
	for _, b := range core.AgeBuckets {
		snap.KelompokUmur = append(snap.KelompokUmur, BucketCount{Kelompok: b, Count: buckets[b]})
	}

	perRayon := make([]RayonCount, 0, len(rayonOrder))
	for _, nama := range rayonOrder {
		perRayon = append(perRayon, RayonCount{Rayon: nama, Count: rayonCounts[nama]})
	}
	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(perRayon, func(i, j int) bool { return perRayon[i].Count > perRayon[j].Count })
	if len(perRayon) > topRayonEntries {
		perRayon = perRayon[:topRayonEntries]
	}
	snap.PerRayon = perRayon

	sort.SliceStable(reminders, func(i, j int) bool { return reminders[i].Tanggal.Before(reminders[j].Tanggal) })
	snap.UlangTahun = reminders

	return snap, nil
}
