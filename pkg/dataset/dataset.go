// Package dataset provides access to the time-varying nodal fields of a
// simulation output: named variables carrying their dimension order,
// normalized to a time-leading matrix before use.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Variable is a named field of the dataset. Dims names the axes of Data
// in storage order; Data is indexed [dim0][dim1]. Static variables
// (depth, per-node maxima) carry a single row.
type Variable struct {
	Dims []string    `json:"dims"`
	Data [][]float64 `json:"data"`
}

// Dataset holds the variables of one simulation output sharing a time
// index.
type Dataset struct {
	times []time.Time
	vars  map[string]Variable
}

// New builds a Dataset from a time index and named variables.
func New(times []time.Time, vars map[string]Variable) *Dataset {
	return &Dataset{times: times, vars: vars}
}

// Times returns the dataset's native time index.
func (ds *Dataset) Times() []time.Time { return ds.times }

// static reports whether the named variable has no time axis. Variables
// whose name mentions "max" or "depth" are per-node constants.
func static(name string) bool {
	return strings.Contains(name, "max") || strings.Contains(name, "depth")
}

// Series returns the named variable as a time-leading matrix: one row
// per timestep, one column per node. A node-leading variable is
// transposed; a time-leading variable is used directly; any other
// leading axis is an error since silently misreading the orientation
// would corrupt every downstream result. Static variables are returned
// whole, as a single row.
func (ds *Dataset) Series(name string) (*mat.Dense, error) {
	v, ok := ds.vars[name]
	if !ok {
		return nil, fmt.Errorf("dataset: variable %q not found", name)
	}
	if len(v.Data) == 0 || len(v.Data[0]) == 0 {
		return nil, fmt.Errorf("dataset: variable %q is empty", name)
	}

	rows, cols := len(v.Data), len(v.Data[0])
	if static(name) {
		out := mat.NewDense(rows, cols, nil)
		for i, row := range v.Data {
			out.SetRow(i, row)
		}
		return out, nil
	}

	if len(v.Dims) == 0 {
		return nil, fmt.Errorf("dataset: variable %q has no dimension names", name)
	}
	switch v.Dims[0] {
	case "time":
		out := mat.NewDense(rows, cols, nil)
		for i, row := range v.Data {
			out.SetRow(i, row)
		}
		return out, nil
	case "node":
		out := mat.NewDense(cols, rows, nil)
		for i, row := range v.Data {
			out.SetCol(i, row)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("dataset: variable %q has unexpected leading dimension %q", name, v.Dims[0])
	}
}

// fileDataset is the on-disk JSON representation of a dataset.
type fileDataset struct {
	Times     []time.Time         `json:"times"`
	Variables map[string]Variable `json:"variables"`
}

// LoadFile reads a dataset from a JSON file.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", path, err)
	}
	var f fileDataset
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dataset: parsing %s: %w", path, err)
	}
	return New(f.Times, f.Variables), nil
}
