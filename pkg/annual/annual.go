// Package annual orchestrates multi-year runs of the interpolation
// pipeline: it validates the requested year range, fetches each year's
// dataset, reduces it against a shared mesh index and concatenates the
// per-year outputs back in year order.
package annual

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"meshpoint/pkg/dataset"
	"meshpoint/pkg/interp"
	"meshpoint/pkg/mesh"
)

// Supported reanalysis years, inclusive.
const (
	MinYear = 1979
	MaxYear = 2022
)

// Years sorts and validates an inclusive year range. Both bounds must
// fall within [MinYear, MaxYear].
func Years(start, end int) (int, int, error) {
	if start > end {
		start, end = end, start
	}
	if start < MinYear || end > MaxYear {
		return 0, 0, fmt.Errorf("annual: years %d-%d outside supported range %d-%d", start, end, MinYear, MaxYear)
	}
	return start, end, nil
}

// URL expands a printf-style directory template with the year and
// appends the dataset filename.
func URL(template string, year int, filename string) string {
	return fmt.Sprintf(template, year) + "/" + filename
}

// Fetcher retrieves the dataset for one year.
type Fetcher func(ctx context.Context, year int) (*dataset.Dataset, error)

// Series is the concatenated multi-year output: per-year reduced tables
// stacked row-wise in ascending year order.
type Series struct {
	Times     []time.Time
	Reduced   *mat.Dense
	Columns   []string
	Meta      []interp.PointMeta
	Excluded  []interp.ExcludedPoint
	Ambiguous []int
}

// Run fetches and reduces every year in [start, end]. Years are
// processed concurrently: each year's fetch and reduction is
// independent once the shared index exists, so no ordering is needed
// until the outputs are stitched back together. The point assignments
// are identical across years since the mesh is unchanged, so the
// metadata and excluded set are taken from the first year.
func Run(ctx context.Context, m *mesh.Mesh, points []mesh.Point, start, end int, fetch Fetcher, opts interp.Options) (*Series, error) {
	start, end, err := Years(start, end)
	if err != nil {
		return nil, err
	}

	// Build the index before fanning out so every year shares one build.
	m.SpatialIndex()

	n := end - start + 1
	results := make([]*interp.Result, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			year := start + i
			ds, err := fetch(ctx, year)
			if err != nil {
				errs[i] = fmt.Errorf("annual: year %d: %w", year, err)
				return
			}
			res, err := interp.Run(m, ds, points, opts)
			if err != nil {
				errs[i] = fmt.Errorf("annual: year %d: %w", year, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return concat(results, len(points)), nil
}

// concat stacks per-year results row-wise, preserving year order.
func concat(results []*interp.Result, npoints int) *Series {
	total := 0
	for _, r := range results {
		nt, _ := r.Reduced.Dims()
		total += nt
	}

	out := &Series{
		Reduced:   mat.NewDense(total, npoints, nil),
		Columns:   results[0].Columns,
		Meta:      results[0].Meta,
		Excluded:  results[0].Excluded,
		Ambiguous: results[0].Ambiguous,
	}
	row := 0
	for _, r := range results {
		nt, _ := r.Reduced.Dims()
		for t := 0; t < nt; t++ {
			out.Reduced.SetRow(row, r.Reduced.RawRowView(t))
			row++
		}
		out.Times = append(out.Times, r.Times...)
	}
	return out
}
