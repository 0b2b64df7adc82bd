// Package basis evaluates linear triangular basis functions: the
// barycentric coordinates of a point with respect to a mesh element's
// three vertices.
package basis

import (
	"meshpoint/pkg/mesh"
)

// Tolerance is the default containment tolerance. A point counts as
// inside an element when every barycentric coordinate lies in
// [0-Tolerance, 1+Tolerance], which absorbs floating-point error for
// points on triangle boundaries.
const Tolerance = 1e-4

// Weights are the barycentric coordinates (phi0, phi1, phi2) of a point
// with respect to an element's three vertices, in vertex order. For any
// point, inside the element or not, the three weights sum to 1.
type Weights [3]float64

// Within reports whether all three weights lie in [0-tol, 1+tol].
// NaN weights (degenerate elements) are never within.
func (w Weights) Within(tol float64) bool {
	for _, phi := range w {
		if !(phi >= -tol && phi <= 1+tol) {
			return false
		}
	}
	return true
}

// Evaluate computes the barycentric coordinates of (x, y) with respect
// to element elem of m. For vertices (x1,y1), (x2,y2), (x3,y3) and
// signed area A:
//
//	phi0 = (a0 + b0*x + c0*y) / (2A)
//
// with a0 = x2*y3 - x3*y2, b0 = y2 - y3, c0 = -(x2 - x3), and cyclic
// permutations for phi1 and phi2.
func Evaluate(m *mesh.Mesh, elem int, x, y float64) Weights {
	e := m.Elements[elem]
	x1, y1 := m.Lon[e[0]], m.Lat[e[0]]
	x2, y2 := m.Lon[e[1]], m.Lat[e[1]]
	x3, y3 := m.Lon[e[2]], m.Lat[e[2]]
	twoA := 2 * m.Areas[elem]

	return Weights{
		((x2*y3 - x3*y2) + (y2-y3)*x - (x2-x3)*y) / twoA,
		((x3*y1 - x1*y3) + (y3-y1)*x - (x3-x1)*y) / twoA,
		((x1*y2 - x2*y1) + (y1-y2)*x - (x1-x2)*y) / twoA,
	}
}
