package solver

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Names of the result files jobs are parsed from.
const (
	InvariantOutName = "invariant.out"
	TraceOutName     = "trace.txt"
)

// ParseTable reads whitespace-separated key/value lines. The first field of
// each line is the key, the remaining fields its values. Blank lines and
// lines starting with '#' are skipped; a duplicated key keeps the last
// occurrence.
func ParseTable(r io.Reader) (map[string][]string, error) {
	table := make(map[string][]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		table[fields[0]] = fields[1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read output table: %w", err)
	}
	return table, nil
}

// InvariantResult is the parsed outcome of one surface invariant job.
type InvariantResult struct {
	Z2    int     `json:"z2"`
	Chern float64 `json:"chern"`
}

// ReadInvariantResult parses the invariant.out table a surface job leaves in
// its working directory.
func ReadInvariantResult(path string) (*InvariantResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open invariant output: %w", err)
	}
	defer f.Close()

	table, err := ParseTable(f)
	if err != nil {
		return nil, err
	}

	z2Fields, ok := table["z2"]
	if !ok || len(z2Fields) == 0 {
		return nil, fmt.Errorf("invariant output %s is missing the z2 field", path)
	}
	z2, err := strconv.Atoi(z2Fields[0])
	if err != nil {
		return nil, fmt.Errorf("invariant output %s has malformed z2 value %q", path, z2Fields[0])
	}

	res := &InvariantResult{Z2: z2}
	if chernFields, ok := table["chern"]; ok && len(chernFields) > 0 {
		chern, err := strconv.ParseFloat(chernFields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invariant output %s has malformed chern value %q", path, chernFields[0])
		}
		res.Chern = chern
	}
	return res, nil
}

// TraceSummary captures the header of a symmetry-trace output file: the
// number of occupied bands, whether spin-orbit coupling was on, and how many
// symmetry operations were traced.
type TraceSummary struct {
	OccupiedBands int  `json:"occupied_bands"`
	SpinOrbit     bool `json:"spin_orbit"`
	SymmetryOps   int  `json:"symmetry_ops"`
}

// ReadTraceSummary parses the three-integer header of a trace.txt file. The
// body (operator matrices and per-k-point traces) is passed through to the
// classification service untouched, so only the header is decoded.
func ReadTraceSummary(path string) (*TraceSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	defer f.Close()

	header := make([]int, 0, 3)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(header) < 3 {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("trace output %s has malformed header value %q", path, fields[0])
		}
		header = append(header, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace output: %w", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("trace output %s has a truncated header", path)
	}

	return &TraceSummary{
		OccupiedBands: header[0],
		SpinOrbit:     header[1] != 0,
		SymmetryOps:   header[2],
	}, nil
}
