package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gembala/internal/core"
)

// GoldarTidakDiketahui buckets congregants without a recorded blood type.
const GoldarTidakDiketahui = "Tidak Diketahui"

const topPekerjaanEntries = 10

// Filter is the user-supplied report filter. All fields are optional and
// combine with AND. Age bounds are inclusive and relative to today.
// StatusKeluarga filters on the role within the family record
// (kepala_keluarga / pasangan / anak), not on marital state.
type Filter struct {
	RayonID        *int64
	JenisKelamin   *bool
	UmurMin        *int
	UmurMax        *int
	GolonganDarah  *string
	StatusKeluarga *core.StatusKeluarga
}

// Query translates the filter to store-level terms as of now. The age
// range becomes a birth-date range:
//
//	maxTanggalLahir = (now.year-umurMin, now.month, now.day)  inclusive
//	minTanggalLahir = (now.year-umurMax-1, now.month, now.day) exclusive
//
// Only bounds that were supplied are applied. An inverted range is not an
// error; it simply matches nothing.
func (f Filter) Query(now time.Time) *Query {
	q := &Query{
		RayonID:        f.RayonID,
		JenisKelamin:   f.JenisKelamin,
		GolonganDarah:  f.GolonganDarah,
		StatusKeluarga: f.StatusKeluarga,
	}
	if f.UmurMin != nil {
		max := time.Date(now.Year()-*f.UmurMin, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		q.MaxTanggalLahir = &max
	}
	if f.UmurMax != nil {
		min := time.Date(now.Year()-*f.UmurMax-1, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		q.MinTanggalLahir = &min
	}
	return q
}

// CacheKey renders the filter in a canonical form usable as a cache key.
func (f Filter) CacheKey() string {
	var parts []string
	if f.RayonID != nil {
		parts = append(parts, "rayon="+strconv.FormatInt(*f.RayonID, 10))
	}
	if f.JenisKelamin != nil {
		parts = append(parts, "jk="+strconv.FormatBool(*f.JenisKelamin))
	}
	if f.UmurMin != nil {
		parts = append(parts, "umin="+strconv.Itoa(*f.UmurMin))
	}
	if f.UmurMax != nil {
		parts = append(parts, "umax="+strconv.Itoa(*f.UmurMax))
	}
	if f.GolonganDarah != nil {
		parts = append(parts, "goldar="+*f.GolonganDarah)
	}
	if f.StatusKeluarga != nil {
		parts = append(parts, "status="+string(*f.StatusKeluarga))
	}
	if len(parts) == 0 {
		return "semua"
	}
	return strings.Join(parts, "&")
}

// Report is the filtered aggregation result. When Success is false only
// Error is meaningful; a failed report never carries partial statistics.
type Report struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Total        int           `json:"total"`
	JenisKelamin []GenderCount `json:"jenis_kelamin"`
	// Pendidikan is grouped by coded pendidikan ID; the presentation layer
	// resolves codes to display labels.
	Pendidikan    []GroupCount `json:"pendidikan"`
	Pekerjaan     []GroupCount `json:"pekerjaan"`
	GolonganDarah []GroupCount `json:"golongan_darah"`

	Baptis      int `json:"baptis"`
	Sidi        int `json:"sidi"`
	Nikah       int `json:"nikah"`
	BelumBaptis int `json:"belum_baptis"`
	BelumSidi   int `json:"belum_sidi"`
}

// BuildReport runs the filtered aggregation against the store, pushing the
// filter down to its counting and grouping primitives.
func BuildReport(ctx context.Context, store Store, f Filter, now time.Time) (*Report, error) {
	q := f.Query(now)

	total, err := store.CountJemaat(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count jemaat: %w", err)
	}

	gender, err := store.GroupJemaatBy(ctx, DimensionJenisKelamin, q)
	if err != nil {
		return nil, fmt.Errorf("group by jenis kelamin: %w", err)
	}

	pendidikan, err := store.GroupJemaatBy(ctx, DimensionPendidikan, q)
	if err != nil {
		return nil, fmt.Errorf("group by pendidikan: %w", err)
	}

	pekerjaan, err := store.GroupJemaatBy(ctx, DimensionPekerjaan, q)
	if err != nil {
		return nil, fmt.Errorf("group by pekerjaan: %w", err)
	}

	goldar, err := store.GroupJemaatBy(ctx, DimensionGolonganDarah, q)
	if err != nil {
		return nil, fmt.Errorf("group by golongan darah: %w", err)
	}

	sakramen, err := store.AggregateSakramen(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("aggregate sakramen: %w", err)
	}

	rep := &Report{
		Success:       true,
		Total:         total,
		JenisKelamin:  genderHistogram(gender),
		Pendidikan:    pendidikan,
		Pekerjaan:     topN(pekerjaan, topPekerjaanEntries),
		GolonganDarah: withSentinel(goldar, GoldarTidakDiketahui),
		Baptis:        sakramen.Baptis,
		Sidi:          sakramen.Sidi,
		Nikah:         sakramen.Nikah,
	}
	// Complements are derived, not queried, so they stay consistent with
	// the total by construction.
	rep.BelumBaptis = total - sakramen.Baptis
	rep.BelumSidi = total - sakramen.Sidi
	return rep, nil
}

// genderHistogram maps the grouped store values ("L"/"P") onto the fixed
// two-entry localized histogram, zero-filling an absent side.
func genderHistogram(rows []GroupCount) []GenderCount {
	var lakiLaki, perempuan int
	for _, r := range rows {
		switch r.Value {
		case "L":
			lakiLaki = r.Count
		case "P":
			perempuan = r.Count
		}
	}
	return []GenderCount{
		{Label: LabelLakiLaki, Count: lakiLaki},
		{Label: LabelPerempuan, Count: perempuan},
	}
}

// topN sorts descending by count, keeping first-seen order among ties, and
// truncates to the first n entries.
func topN(rows []GroupCount, n int) []GroupCount {
	out := make([]GroupCount, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// withSentinel replaces empty group values with the given sentinel label,
// merging counts if the sentinel already occurs as a value.
func withSentinel(rows []GroupCount, sentinel string) []GroupCount {
	out := make([]GroupCount, 0, len(rows))
	idx := make(map[string]int, len(rows))
	for _, r := range rows {
		v := r.Value
		if v == "" {
			v = sentinel
		}
		if i, ok := idx[v]; ok {
			out[i].Count += r.Count
			continue
		}
		idx[v] = len(out)
		out = append(out, GroupCount{Value: v, Count: r.Count})
	}
	return out
}
