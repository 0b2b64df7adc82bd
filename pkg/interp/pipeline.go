package interp

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"meshpoint/pkg/basis"
	"meshpoint/pkg/dataset"
	"meshpoint/pkg/mesh"
)

// DefaultNeighbors is the number of nearest candidate elements examined
// per query point when Options.Neighbors is unset. Points near concave
// mesh boundaries or thin peninsulas may need a larger value to
// resolve.
const DefaultNeighbors = 10

// Options control one pipeline run.
type Options struct {
	// Variable names the scalar field to reduce. Required.
	Variable string

	// Neighbors is the candidate count k. Defaults to DefaultNeighbors.
	Neighbors int

	// Tolerance is the containment tolerance. Defaults to
	// basis.Tolerance.
	Tolerance float64
}

// PointMeta describes one query point in the output metadata: the input
// coordinates and the 1-based id of the selected element, or
// SentinelElementID when unresolved.
type PointMeta struct {
	Lon     float64
	Lat     float64
	Element int
}

// ExcludedPoint identifies a query point that could not be assigned to
// any element. Index is the 1-based position in the input batch.
type ExcludedPoint struct {
	Index int
	Lon   float64
	Lat   float64
}

// Result is the output of one pipeline run.
type Result struct {
	// Times is the dataset's native time index, when the reduced
	// variable carries one.
	Times []time.Time

	// Reduced has one row per timestep and one column per query point,
	// in input order.
	Reduced *mat.Dense

	// Columns are the positional point names P1, P2, ...
	Columns []string

	// Meta has one entry per query point, in input order.
	Meta []PointMeta

	// Excluded lists the points that ended up unresolved.
	Excluded []ExcludedPoint

	// Ambiguous lists points contained by more than one candidate
	// element; see Resolution.Ambiguous.
	Ambiguous []int
}

// Run executes the interpolation pipeline for one mesh/dataset pair:
// build-or-reuse the spatial index, find the k nearest candidate
// elements per point, evaluate basis weights, resolve containment and
// reduce the named variable's nodal series to one series per point.
func Run(m *mesh.Mesh, ds *dataset.Dataset, points []mesh.Point, opts Options) (*Result, error) {
	if opts.Variable == "" {
		return nil, errors.New("interp: a variable name is required")
	}
	if opts.Neighbors == 0 {
		opts.Neighbors = DefaultNeighbors
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = basis.Tolerance
	}

	series, err := ds.Series(opts.Variable)
	if err != nil {
		return nil, err
	}
	nt, nn := series.Dims()
	if nn != m.NumNodes() {
		return nil, fmt.Errorf("interp: variable %q covers %d nodes, mesh has %d", opts.Variable, nn, m.NumNodes())
	}

	candidates, err := m.SpatialIndex().Query(points, opts.Neighbors)
	if err != nil {
		return nil, err
	}
	res := Resolve(m, points, candidates, opts.Tolerance)

	out := &Result{
		Reduced:   Reduce(m, series, res),
		Columns:   make([]string, len(points)),
		Meta:      make([]PointMeta, len(points)),
		Ambiguous: res.Ambiguous,
	}
	if len(ds.Times()) == nt {
		out.Times = ds.Times()
	}
	for i, p := range points {
		out.Columns[i] = fmt.Sprintf("P%d", i+1)
		meta := PointMeta{Lon: p.Lon, Lat: p.Lat, Element: SentinelElementID}
		if a := res.Assignments[i]; a.Element != Unresolved {
			meta.Element = a.Element + 1
		}
		out.Meta[i] = meta
	}
	for _, i := range res.Outside {
		out.Excluded = append(out.Excluded, ExcludedPoint{
			Index: i + 1,
			Lon:   points[i].Lon,
			Lat:   points[i].Lat,
		})
	}
	return out, nil
}
