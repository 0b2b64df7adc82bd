// Package interp turns query points and a mesh into reduced time
// series: it resolves which element contains each point, evaluates the
// interpolation weights and applies them to the nodal data.
package interp

import (
	"math"

	"meshpoint/pkg/basis"
	"meshpoint/pkg/mesh"
)

// Unresolved marks a query point for which no containing element was
// found among its candidates.
const Unresolved = -1

// SentinelElementID is the element id reported in output metadata for
// unresolved points.
const SentinelElementID = -99999

// Assignment is the resolved element for one query point.
type Assignment struct {
	// Element is the selected 0-based element index, or Unresolved.
	Element int

	// Weights are the interpolation weights for the element's three
	// vertices. All NaN when unresolved.
	Weights basis.Weights

	// Within reports whether a containing element was found.
	Within bool
}

// Resolution holds the per-point assignments for one query batch.
type Resolution struct {
	Assignments []Assignment

	// Outside lists, in input order, the indices of points for which no
	// containing element was found among the k nearest candidates.
	Outside []int

	// Ambiguous lists points flagged as contained by more than one
	// candidate (exact node coincidence, shared edges, or overlapping
	// elements). The nearest candidate still wins; this is diagnostic
	// only.
	Ambiguous []int
}

// Resolve evaluates basis weights for every candidate of every point
// and selects, per point, the candidate with the smallest centroid
// distance among those that contain the point. Candidates at equal
// distance resolve by their order in the candidate list, which Query
// keeps stable, so repeated runs give identical assignments.
func Resolve(m *mesh.Mesh, points []mesh.Point, candidates [][]mesh.Candidate, tol float64) Resolution {
	res := Resolution{Assignments: make([]Assignment, len(points))}
	nan := math.NaN()

	for i, p := range points {
		best := Unresolved
		bestDist := math.Inf(1)
		var bestW basis.Weights
		contained := 0

		for _, c := range candidates[i] {
			w := basis.Evaluate(m, c.Element, p.Lon, p.Lat)
			if !w.Within(tol) {
				continue
			}
			contained++
			if c.Distance < bestDist {
				best = c.Element
				bestDist = c.Distance
				bestW = w
			}
		}

		if best == Unresolved {
			res.Assignments[i] = Assignment{
				Element: Unresolved,
				Weights: basis.Weights{nan, nan, nan},
			}
			res.Outside = append(res.Outside, i)
			continue
		}
		if contained > 1 {
			res.Ambiguous = append(res.Ambiguous, i)
		}
		res.Assignments[i] = Assignment{Element: best, Weights: bestW, Within: true}
	}
	return res
}
