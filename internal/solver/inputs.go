package solver

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/topotools/topoplan/internal/kspace"
)

// WriteParams writes solver parameters in INCAR form, one "KEY = VALUE" line
// per parameter in sorted key order. Booleans render as .TRUE. and .FALSE.,
// floats in the shortest form the solver accepts.
func WriteParams(w io.Writer, params map[string]any) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bw := bufio.NewWriter(w)
	for _, k := range keys {
		if _, err := fmt.Fprintf(bw, "%s = %s\n", k, formatParam(params[k])); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteParamsFile writes params to an INCAR file at path.
func WriteParamsFile(path string, params map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create params file: %w", err)
	}
	if err := WriteParams(f, params); err != nil {
		f.Close()
		return fmt.Errorf("failed to write params file: %w", err)
	}
	return f.Close()
}

func formatParam(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return ".TRUE."
		}
		return ".FALSE."
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case int:
		return strconv.Itoa(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// WriteKpoints writes an explicit reciprocal-coordinate k-point list with
// unit weights and labels, the layout expected for time-reversal invariant
// momentum sampling.
func WriteKpoints(w io.Writer, comment string, points []kspace.TRIMPoint) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n%d\nReciprocal\n", comment, len(points))
	for _, p := range points {
		fmt.Fprintf(bw, "%.6f %.6f %.6f 1 %s\n", p.Coords[0], p.Coords[1], p.Coords[2], p.Label)
	}
	return bw.Flush()
}

// WriteKpointsFile writes a KPOINTS file at path.
func WriteKpointsFile(path, comment string, points []kspace.TRIMPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create kpoints file: %w", err)
	}
	if err := WriteKpoints(f, comment, points); err != nil {
		f.Close()
		return fmt.Errorf("failed to write kpoints file: %w", err)
	}
	return f.Close()
}
