package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"meshpoint/pkg/annual"
	"meshpoint/pkg/config"
	"meshpoint/pkg/dataset"
	"meshpoint/pkg/interp"
	"meshpoint/pkg/mesh"
)

func main() {
	// Environment-file defaults; absence is not an error.
	_ = godotenv.Load()

	meshPath := flag.String("mesh", "", "Mesh geometry JSON file")
	pointsPath := flag.String("points", "", "CSV file of query points (lon,lat per line)")
	configPath := flag.String("config", "meshpoint.yaml", "Configuration YAML file")
	variable := flag.String("var", "", "Scalar field variable name (overrides config)")
	neighbors := flag.Int("k", 0, "Nearest candidate elements per point (overrides config)")
	startYear := flag.Int("start", 0, "First year of the range to extract")
	endYear := flag.Int("end", 0, "Last year of the range to extract")
	urlTemplate := flag.String("url", os.Getenv("MESHPOINT_URL"), "Annual dataset directory URL template with a %d year slot")
	datasetPath := flag.String("dataset", "", "Local dataset JSON file (single-dataset mode, ignores years)")
	outDir := flag.String("out", "", "Output directory (overrides config)")
	flag.Parse()

	if *meshPath == "" || *pointsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *variable != "" {
		cfg.Query.Variable = *variable
	}
	if *neighbors > 0 {
		cfg.Query.Neighbors = *neighbors
	}
	if *urlTemplate != "" {
		cfg.Source.URLTemplate = *urlTemplate
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	m, err := mesh.LoadFile(*meshPath)
	if err != nil {
		log.Fatalf("Failed to load mesh: %v", err)
	}
	points, err := loadPoints(*pointsPath)
	if err != nil {
		log.Fatalf("Failed to load query points: %v", err)
	}

	fmt.Printf("Mesh: %d nodes, %d elements\n", m.NumNodes(), m.NumElements())
	fmt.Printf("Query points: %d, variable: %s, k: %d\n", len(points), cfg.Query.Variable, cfg.Query.Neighbors)

	opts := interp.Options{
		Variable:  cfg.Query.Variable,
		Neighbors: cfg.Query.Neighbors,
		Tolerance: cfg.Query.Tolerance,
	}

	start := time.Now()
	series, err := run(m, points, cfg, opts, *datasetPath, *startYear, *endYear)
	if err != nil {
		log.Fatalf("Interpolation failed: %v", err)
	}
	fmt.Printf("Reduced %d points in %.2f seconds\n", len(points), time.Since(start).Seconds())

	if len(series.Excluded) > 0 {
		fmt.Printf("%d points were not assigned to any element\n", len(series.Excluded))
	}
	if len(series.Ambiguous) > 0 {
		fmt.Printf("%d points were contained by more than one candidate element\n", len(series.Ambiguous))
	}

	if err := writeOutputs(cfg.Output.Dir, series); err != nil {
		log.Fatalf("Failed to write outputs: %v", err)
	}
	fmt.Printf("Output tables written to: %s\n", cfg.Output.Dir)
}

// run dispatches between single-dataset mode and the annual pipeline.
func run(m *mesh.Mesh, points []mesh.Point, cfg *config.Config, opts interp.Options, datasetPath string, startYear, endYear int) (*annual.Series, error) {
	if datasetPath != "" {
		ds, err := dataset.LoadFile(datasetPath)
		if err != nil {
			return nil, err
		}
		res, err := interp.Run(m, ds, points, opts)
		if err != nil {
			return nil, err
		}
		return &annual.Series{
			Times:     res.Times,
			Reduced:   res.Reduced,
			Columns:   res.Columns,
			Meta:      res.Meta,
			Excluded:  res.Excluded,
			Ambiguous: res.Ambiguous,
		}, nil
	}

	if cfg.Source.URLTemplate == "" {
		return nil, fmt.Errorf("no dataset source: set -dataset, -url or source.urlTemplate")
	}
	client := &http.Client{Timeout: 5 * time.Minute}
	fetch := func(ctx context.Context, year int) (*dataset.Dataset, error) {
		return dataset.Fetch(ctx, client, annual.URL(cfg.Source.URLTemplate, year, cfg.Source.Filename))
	}
	return annual.Run(context.Background(), m, points, startYear, endYear, fetch, opts)
}

// loadPoints reads a CSV of lon,lat pairs. A single non-numeric header
// row is tolerated.
func loadPoints(path string) ([]mesh.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	points := make([]mesh.Point, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("%s line %d: want lon,lat", path, i+1)
		}
		lon, errLon := strconv.ParseFloat(rec[0], 64)
		lat, errLat := strconv.ParseFloat(rec[1], 64)
		if errLon != nil || errLat != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("%s line %d: invalid coordinates %q,%q", path, i+1, rec[0], rec[1])
		}
		points = append(points, mesh.Point{Lon: lon, Lat: lat})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: no query points", path)
	}
	return points, nil
}

func writeOutputs(dir string, s *annual.Series) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := writeReduced(filepath.Join(dir, "reduced.csv"), s); err != nil {
		return err
	}
	if err := writeMeta(filepath.Join(dir, "metadata.csv"), s); err != nil {
		return err
	}
	return writeExcluded(filepath.Join(dir, "excluded.csv"), s)
}

// writeReduced writes the point-by-time table: rows indexed by
// timestamp, one column per query point.
func writeReduced(path string, s *annual.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"time"}, s.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}

	nt, np := s.Reduced.Dims()
	row := make([]string, np+1)
	for t := 0; t < nt; t++ {
		if t < len(s.Times) {
			row[0] = s.Times[t].UTC().Format(time.RFC3339)
		} else {
			row[0] = strconv.Itoa(t)
		}
		for j := 0; j < np; j++ {
			row[j+1] = strconv.FormatFloat(s.Reduced.At(t, j), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeMeta(path string, s *annual.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"point", "lon", "lat", "element"}); err != nil {
		return err
	}
	for i, meta := range s.Meta {
		row := []string{
			fmt.Sprintf("P%d", i+1),
			strconv.FormatFloat(meta.Lon, 'g', -1, 64),
			strconv.FormatFloat(meta.Lat, 'g', -1, 64),
			strconv.Itoa(meta.Element),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeExcluded(path string, s *annual.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"point", "lon", "lat"}); err != nil {
		return err
	}
	for _, ex := range s.Excluded {
		row := []string{
			strconv.Itoa(ex.Index),
			strconv.FormatFloat(ex.Lon, 'g', -1, 64),
			strconv.FormatFloat(ex.Lat, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
