// Package mesh models an unstructured triangular surface mesh (an
// ocean-circulation model grid) together with the static per-element
// geometry derived from it: signed areas, edge lengths and centroids.
package mesh

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
)

// Element is a triangle given by three 0-based node indices.
type Element [3]int

// Point is a geographic query point.
type Point struct {
	Lon float64
	Lat float64
}

// Mesh holds node coordinates, triangular connectivity and the derived
// per-element quantities. All fields are computed once by New and are
// immutable afterward; a Mesh may be shared freely between goroutines.
type Mesh struct {
	Lon      []float64
	Lat      []float64
	Depth    []float64
	Elements []Element

	// Areas holds the signed area of each element.
	Areas []float64

	// EdgeLengths holds the side lengths of each element for the vertex
	// pairs 1-2, 3-1 and 2-3, in that order.
	EdgeLengths [][3]float64

	// Scale is the mean edge length of each element, a representative
	// element size.
	Scale []float64

	indexOnce sync.Once
	index     *Index
}

// New builds a Mesh from raw node coordinate arrays, a per-node depth
// array and 1-based triangular connectivity. Connectivity is converted
// to 0-based indices and validated against the node count, and the
// per-element geometry is derived immediately.
func New(lon, lat, depth []float64, conn [][3]int) (*Mesh, error) {
	if len(lon) == 0 || len(lat) == 0 {
		return nil, errors.New("mesh: missing node coordinate arrays")
	}
	if len(lat) != len(lon) {
		return nil, fmt.Errorf("mesh: %d longitudes but %d latitudes", len(lon), len(lat))
	}
	if len(depth) != len(lon) {
		return nil, fmt.Errorf("mesh: %d nodes but %d depth values", len(lon), len(depth))
	}
	if len(conn) == 0 {
		return nil, errors.New("mesh: missing element connectivity")
	}

	m := &Mesh{
		Lon:      lon,
		Lat:      lat,
		Depth:    depth,
		Elements: make([]Element, len(conn)),
	}
	for i, c := range conn {
		var e Element
		for v := 0; v < 3; v++ {
			n := c[v] - 1
			if n < 0 || n >= len(lon) {
				return nil, fmt.Errorf("mesh: element %d references node %d of %d", i+1, c[v], len(lon))
			}
			e[v] = n
		}
		m.Elements[i] = e
	}

	m.attachGeometry()
	return m, nil
}

// attachGeometry derives the signed areas, edge lengths and element
// scales for every element.
func (m *Mesh) attachGeometry() {
	m.Areas = make([]float64, len(m.Elements))
	m.EdgeLengths = make([][3]float64, len(m.Elements))
	m.Scale = make([]float64, len(m.Elements))

	for i, e := range m.Elements {
		x1, y1 := m.Lon[e[0]], m.Lat[e[0]]
		x2, y2 := m.Lon[e[1]], m.Lat[e[1]]
		x3, y3 := m.Lon[e[2]], m.Lat[e[2]]

		m.Areas[i] = (x1*(y2-y3) + x2*(y3-y1) + x3*(y1-y2)) / 2

		a := math.Hypot(x1-x2, y1-y2)
		b := math.Hypot(x3-x1, y3-y1)
		c := math.Hypot(x2-x3, y2-y3)
		m.EdgeLengths[i] = [3]float64{a, b, c}
		m.Scale[i] = (a + b + c) / 3
	}
}

// NumNodes returns the number of mesh nodes.
func (m *Mesh) NumNodes() int { return len(m.Lon) }

// NumElements returns the number of mesh elements.
func (m *Mesh) NumElements() int { return len(m.Elements) }

// Centroid returns the mean coordinate of element i's three vertices.
func (m *Mesh) Centroid(i int) (x, y float64) {
	e := m.Elements[i]
	x = (m.Lon[e[0]] + m.Lon[e[1]] + m.Lon[e[2]]) / 3
	y = (m.Lat[e[0]] + m.Lat[e[1]] + m.Lat[e[2]]) / 3
	return x, y
}

// SpatialIndex returns the nearest-centroid index for this mesh,
// building it on first use. The build happens at most once per Mesh;
// concurrent callers wait for the single build and share the resulting
// immutable index. The mesh geometry is assumed unchanged for the life
// of the Mesh, so the index is never rebuilt, even when the mesh is
// queried against different datasets.
func (m *Mesh) SpatialIndex() *Index {
	m.indexOnce.Do(func() { m.index = newIndex(m) })
	return m.index
}

// meshFile is the on-disk JSON representation of a mesh.
type meshFile struct {
	Lon      []float64 `json:"lon"`
	Lat      []float64 `json:"lat"`
	Depth    []float64 `json:"depth"`
	Elements [][3]int  `json:"elements"` // 1-based connectivity
}

// LoadFile reads a mesh from a JSON file holding node longitude,
// latitude and depth arrays plus 1-based triangular connectivity.
func LoadFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: reading %s: %w", path, err)
	}
	var f meshFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("mesh: parsing %s: %w", path, err)
	}
	m, err := New(f.Lon, f.Lat, f.Depth, f.Elements)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return m, nil
}
