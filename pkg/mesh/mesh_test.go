package mesh

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// unitTriangle builds a single-element mesh from the unit right
// triangle with vertices (0,0), (1,0), (0,1).
func unitTriangle(t *testing.T) *Mesh {
	t.Helper()
	m, err := New(
		[]float64{0, 1, 0},
		[]float64{0, 0, 1},
		[]float64{10, 10, 10},
		[][3]int{{1, 2, 3}},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestNewDerivesGeometry(t *testing.T) {
	m := unitTriangle(t)

	if m.NumNodes() != 3 {
		t.Errorf("Expected 3 nodes, got %d", m.NumNodes())
	}
	if m.NumElements() != 1 {
		t.Errorf("Expected 1 element, got %d", m.NumElements())
	}
	if m.Elements[0] != (Element{0, 1, 2}) {
		t.Errorf("Expected 0-based connectivity {0 1 2}, got %v", m.Elements[0])
	}

	if got := m.Areas[0]; math.Abs(got-0.5) > 1e-15 {
		t.Errorf("Expected signed area 0.5, got %g", got)
	}

	want := [3]float64{1, 1, math.Sqrt2}
	for i, w := range want {
		if got := m.EdgeLengths[0][i]; math.Abs(got-w) > 1e-15 {
			t.Errorf("Edge %d: expected length %g, got %g", i, w, got)
		}
	}
	if got, want := m.Scale[0], (2+math.Sqrt2)/3; math.Abs(got-want) > 1e-15 {
		t.Errorf("Expected element scale %g, got %g", want, got)
	}

	x, y := m.Centroid(0)
	if math.Abs(x-1.0/3) > 1e-15 || math.Abs(y-1.0/3) > 1e-15 {
		t.Errorf("Expected centroid (1/3, 1/3), got (%g, %g)", x, y)
	}
}

func TestNewClockwiseAreaIsNegative(t *testing.T) {
	m, err := New(
		[]float64{0, 0, 1},
		[]float64{0, 1, 0},
		[]float64{0, 0, 0},
		[][3]int{{1, 2, 3}},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if m.Areas[0] >= 0 {
		t.Errorf("Expected negative signed area for clockwise vertices, got %g", m.Areas[0])
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name  string
		lon   []float64
		lat   []float64
		depth []float64
		conn  [][3]int
	}{
		{"missing coordinates", nil, nil, nil, [][3]int{{1, 2, 3}}},
		{"latitude mismatch", []float64{0, 1, 0}, []float64{0, 0}, []float64{0, 0, 0}, [][3]int{{1, 2, 3}}},
		{"depth mismatch", []float64{0, 1, 0}, []float64{0, 0, 1}, []float64{0}, [][3]int{{1, 2, 3}}},
		{"missing connectivity", []float64{0, 1, 0}, []float64{0, 0, 1}, []float64{0, 0, 0}, nil},
		{"node index too small", []float64{0, 1, 0}, []float64{0, 0, 1}, []float64{0, 0, 0}, [][3]int{{0, 1, 2}}},
		{"node index too large", []float64{0, 1, 0}, []float64{0, 0, 1}, []float64{0, 0, 0}, [][3]int{{1, 2, 4}}},
	}
	for _, tc := range cases {
		if _, err := New(tc.lon, tc.lat, tc.depth, tc.conn); err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.json")
	content := `{
		"lon": [0, 1, 0],
		"lat": [0, 0, 1],
		"depth": [5, 5, 5],
		"elements": [[1, 2, 3]]
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if m.NumNodes() != 3 || m.NumElements() != 1 {
		t.Errorf("Expected 3 nodes and 1 element, got %d and %d", m.NumNodes(), m.NumElements())
	}
}

func TestLoadFileMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.json")
	if err := os.WriteFile(path, []byte(`{"lat": [0, 0, 1], "elements": [[1, 2, 3]]}`), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("Expected error for mesh file without coordinates, got nil")
	}
	if _, err := LoadFile(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("Expected error for absent mesh file, got nil")
	}
}
