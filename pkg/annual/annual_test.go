package annual

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"meshpoint/pkg/dataset"
	"meshpoint/pkg/interp"
	"meshpoint/pkg/mesh"
)

func TestYears(t *testing.T) {
	start, end, err := Years(2018, 2015)
	if err != nil {
		t.Fatalf("Years failed: %v", err)
	}
	if start != 2015 || end != 2018 {
		t.Errorf("Expected sorted range (2015, 2018), got (%d, %d)", start, end)
	}

	if _, _, err := Years(MinYear, MaxYear); err != nil {
		t.Errorf("Full supported range should validate, got %v", err)
	}
	if _, _, err := Years(1950, 1990); err == nil {
		t.Error("Expected error for start year before the supported range")
	}
	if _, _, err := Years(2000, 2030); err == nil {
		t.Error("Expected error for end year after the supported range")
	}
}

func TestURL(t *testing.T) {
	got := URL("https://example.org/reanalysis/%d", 1999, "fort.63.json")
	want := "https://example.org/reanalysis/1999/fort.63.json"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func unitTriangle(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(
		[]float64{0, 1, 0},
		[]float64{0, 0, 1},
		[]float64{0, 0, 0},
		[][3]int{{1, 2, 3}},
	)
	if err != nil {
		t.Fatalf("mesh.New failed: %v", err)
	}
	return m
}

// yearDataset builds a two-timestep dataset whose nodal values all
// equal the year, so the reduced series identifies its source year.
func yearDataset(year int) *dataset.Dataset {
	v := float64(year)
	return dataset.New(
		[]time.Time{
			time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, 1, 1, 1, 0, 0, 0, time.UTC),
		},
		map[string]dataset.Variable{
			"zeta": {Dims: []string{"time", "node"}, Data: [][]float64{{v, v, v}, {v, v, v}}},
		},
	)
}

func TestRunConcatenatesInYearOrder(t *testing.T) {
	m := unitTriangle(t)
	points := []mesh.Point{{Lon: 0.25, Lat: 0.25}, {Lon: 5, Lat: 5}}

	fetch := func(ctx context.Context, year int) (*dataset.Dataset, error) {
		return yearDataset(year), nil
	}

	s, err := Run(context.Background(), m, points, 1982, 1980, fetch, interp.Options{Variable: "zeta"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rows, cols := s.Reduced.Dims()
	if rows != 6 || cols != 2 {
		t.Fatalf("Expected 6x2 concatenated table, got %dx%d", rows, cols)
	}
	if len(s.Times) != 6 {
		t.Fatalf("Expected 6 timestamps, got %d", len(s.Times))
	}

	for i := 0; i < 3; i++ {
		year := 1980 + i
		for tick := 0; tick < 2; tick++ {
			row := i*2 + tick
			if got := s.Reduced.At(row, 0); math.Abs(got-float64(year)) > 1e-12 {
				t.Errorf("Row %d: expected year value %d, got %g", row, year, got)
			}
			if got := s.Reduced.At(row, 1); !math.IsNaN(got) {
				t.Errorf("Row %d: expected NaN for the exterior point, got %g", row, got)
			}
			if got := s.Times[row].Year(); got != year {
				t.Errorf("Row %d: expected timestamp year %d, got %d", row, year, got)
			}
		}
	}

	if len(s.Excluded) != 1 || s.Excluded[0].Index != 2 {
		t.Errorf("Expected excluded point with 1-based index 2, got %v", s.Excluded)
	}
	if s.Meta[0].Element != 1 {
		t.Errorf("Expected element id 1 for the interior point, got %d", s.Meta[0].Element)
	}
}

func TestRunFetchError(t *testing.T) {
	m := unitTriangle(t)
	points := []mesh.Point{{Lon: 0.25, Lat: 0.25}}
	boom := errors.New("server unreachable")

	fetch := func(ctx context.Context, year int) (*dataset.Dataset, error) {
		if year == 1981 {
			return nil, boom
		}
		return yearDataset(year), nil
	}

	_, err := Run(context.Background(), m, points, 1980, 1982, fetch, interp.Options{Variable: "zeta"})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the fetch error to propagate, got %v", err)
	}
	if want := fmt.Sprintf("year %d", 1981); err != nil && !strings.Contains(err.Error(), want) {
		t.Errorf("Expected error to name the failing year, got %q", err.Error())
	}
}

func TestRunOutOfRangeYears(t *testing.T) {
	m := unitTriangle(t)
	fetch := func(ctx context.Context, year int) (*dataset.Dataset, error) {
		t.Error("fetch should not be called for an invalid year range")
		return nil, nil
	}
	_, err := Run(context.Background(), m, []mesh.Point{{Lon: 0.25, Lat: 0.25}}, 1900, 1950, fetch, interp.Options{Variable: "zeta"})
	if err == nil {
		t.Error("Expected error for out-of-range years, got nil")
	}
}
