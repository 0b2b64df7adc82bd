package mesh

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// centroid is an element centroid carrying its element index, stored in
// the KD-tree.
type centroid struct {
	x, y float64
	elem int
}

// Compare implements the kdtree.Comparable interface.
func (p centroid) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(centroid)
	switch d {
	case 0:
		return p.x - q.x
	case 1:
		return p.y - q.y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree.
func (p centroid) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two centroids.
func (p centroid) Distance(c kdtree.Comparable) float64 {
	q := c.(centroid)
	dx := p.x - q.x
	dy := p.y - q.y
	return dx*dx + dy*dy
}

// centroids is a collection of centroid that satisfies kdtree.Interface.
type centroids []centroid

func (c centroids) Index(i int) kdtree.Comparable         { return c[i] }
func (c centroids) Len() int                              { return len(c) }
func (c centroids) Slice(start, end int) kdtree.Interface { return c[start:end] }

// Pivot implements the kdtree.Interface method.
func (c centroids) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(centroidPlane{centroids: c, Dim: d}, kdtree.MedianOfRandoms(centroidPlane{centroids: c, Dim: d}, 100))
}

// centroidPlane implements sort.Interface and kdtree.SortSlicer for centroids.
type centroidPlane struct {
	centroids
	kdtree.Dim
}

func (p centroidPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.centroids[i].x < p.centroids[j].x
	case 1:
		return p.centroids[i].y < p.centroids[j].y
	default:
		panic("illegal dimension")
	}
}

func (p centroidPlane) Slice(start, end int) kdtree.SortSlicer {
	return centroidPlane{centroids: p.centroids[start:end], Dim: p.Dim}
}

func (p centroidPlane) Swap(i, j int) {
	p.centroids[i], p.centroids[j] = p.centroids[j], p.centroids[i]
}

// Candidate pairs an element index with the Euclidean distance from a
// query point to that element's centroid.
type Candidate struct {
	Element  int
	Distance float64
}

// Index is an immutable nearest-neighbor index over element centroids.
// Build one with Mesh.SpatialIndex and reuse it for every query against
// the same mesh.
type Index struct {
	tree *kdtree.Tree
}

func newIndex(m *Mesh) *Index {
	pts := make(centroids, m.NumElements())
	for i := range m.Elements {
		x, y := m.Centroid(i)
		pts[i] = centroid{x: x, y: y, elem: i}
	}
	return &Index{tree: kdtree.New(pts, true)}
}

// Query returns, for each query point, the k nearest element centroids
// sorted ascending by distance. Equal distances are ordered by element
// index so results are stable across runs. When fewer than k elements
// exist, each candidate list holds every element.
func (ix *Index) Query(points []Point, k int) ([][]Candidate, error) {
	if k < 1 {
		return nil, fmt.Errorf("mesh: neighbor count must be at least 1, got %d", k)
	}
	out := make([][]Candidate, len(points))
	for i, p := range points {
		keeper := kdtree.NewNKeeper(k)
		ix.tree.NearestSet(keeper, centroid{x: p.Lon, y: p.Lat})

		cands := make([]Candidate, 0, k)
		for _, item := range keeper.Heap {
			if item.Comparable == nil {
				continue
			}
			c := item.Comparable.(centroid)
			cands = append(cands, Candidate{Element: c.elem, Distance: math.Sqrt(item.Dist)})
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].Distance != cands[b].Distance {
				return cands[a].Distance < cands[b].Distance
			}
			return cands[a].Element < cands[b].Element
		})
		out[i] = cands
	}
	return out, nil
}
