package interp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"meshpoint/pkg/mesh"
)

// Reduce combines the per-node raw series with the resolved weights
// into one reduced series per query point. series must be time-leading
// (one row per timestep, one column per node). The reduced value at
// each timestep is the matrix product of the element's three nodal
// series with the point's weight vector. The result has one column per
// point in input order; unresolved points get all-NaN columns.
func Reduce(m *mesh.Mesh, series *mat.Dense, res Resolution) *mat.Dense {
	nt, _ := series.Dims()
	out := mat.NewDense(nt, len(res.Assignments), nil)

	nodal := mat.NewDense(nt, 3, nil)
	w := mat.NewVecDense(3, nil)
	var reduced mat.VecDense

	for j, a := range res.Assignments {
		if a.Element == Unresolved {
			for t := 0; t < nt; t++ {
				out.Set(t, j, math.NaN())
			}
			continue
		}

		e := m.Elements[a.Element]
		for t := 0; t < nt; t++ {
			nodal.Set(t, 0, series.At(t, e[0]))
			nodal.Set(t, 1, series.At(t, e[1]))
			nodal.Set(t, 2, series.At(t, e[2]))
		}
		for v := 0; v < 3; v++ {
			w.SetVec(v, a.Weights[v])
		}

		reduced.MulVec(nodal, w)
		out.SetCol(j, reduced.RawVector().Data)
	}
	return out
}
