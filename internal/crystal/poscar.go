package crystal

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/topotools/topoplan/internal/lin"
)

// ReadPOSCAR loads a structure from a VASP POSCAR/CONTCAR file.
func ReadPOSCAR(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open structure file: %w", err)
	}
	defer f.Close()

	s, err := ParsePOSCAR(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// ParsePOSCAR decodes the VASP 5 POSCAR format: comment, scale factor,
// three lattice rows, element symbols, per-element counts, an optional
// selective-dynamics marker, a Direct/Cartesian mode line, and one
// coordinate line per site. A negative scale factor is interpreted as the
// desired cell volume, following VASP.
func ParsePOSCAR(r io.Reader) (*Structure, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 9 {
		return nil, fmt.Errorf("truncated POSCAR: %d lines", len(lines))
	}

	scale, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("bad scale factor %q: %w", strings.TrimSpace(lines[1]), err)
	}

	var rows lin.Mat3
	for i := 0; i < 3; i++ {
		v, err := parseVec3(lines[2+i])
		if err != nil {
			return nil, fmt.Errorf("lattice row %d: %w", i+1, err)
		}
		rows[i] = v
	}

	if scale < 0 {
		vol := math.Abs(rows.Det())
		scale = math.Cbrt(-scale / vol)
	}
	rows = rows.Scale(scale)
	lattice := Lattice(rows)

	symbols := strings.Fields(lines[5])
	if len(symbols) == 0 {
		return nil, fmt.Errorf("missing element symbols on line 6 (VASP 4 format is not supported)")
	}
	if _, err := strconv.Atoi(symbols[0]); err == nil {
		return nil, fmt.Errorf("line 6 holds counts, not element symbols (VASP 4 format is not supported)")
	}

	countFields := strings.Fields(lines[6])
	if len(countFields) != len(symbols) {
		return nil, fmt.Errorf("%d element symbols but %d counts", len(symbols), len(countFields))
	}
	counts := make([]int, len(countFields))
	total := 0
	for i, f := range countFields {
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad site count %q", f)
		}
		counts[i] = n
		total += n
	}

	idx := 7
	if first := firstRune(lines[idx]); first == 's' || first == 'S' {
		idx++ // selective dynamics marker, per-site flags are ignored
	}
	cartesian := false
	switch firstRune(lines[idx]) {
	case 'c', 'C', 'k', 'K':
		cartesian = true
	case 'd', 'D':
		cartesian = false
	default:
		return nil, fmt.Errorf("unrecognized coordinate mode %q", strings.TrimSpace(lines[idx]))
	}
	idx++

	if len(lines) < idx+total {
		return nil, fmt.Errorf("expected %d coordinate lines, found %d", total, len(lines)-idx)
	}

	var cartToFrac lin.Mat3
	if cartesian {
		cartToFrac, err = lattice.FracToCart().Inverse()
		if err != nil {
			return nil, fmt.Errorf("degenerate lattice: %w", err)
		}
	}

	sites := make([]Site, 0, total)
	for i, sym := range symbols {
		z, err := AtomicNumber(sym)
		if err != nil {
			return nil, err
		}
		for j := 0; j < counts[i]; j++ {
			coords, err := parseVec3(lines[idx])
			if err != nil {
				return nil, fmt.Errorf("coordinate line %d: %w", idx+1, err)
			}
			idx++
			if cartesian {
				coords = cartToFrac.MulVec(lin.Vec3{
					coords[0] * scale, coords[1] * scale, coords[2] * scale,
				})
			}
			sites = append(sites, Site{Coords: coords, Element: sym, Electrons: z})
		}
	}

	return &Structure{Lattice: lattice, Sites: sites}, nil
}

// WritePOSCAR renders the structure in VASP 5 POSCAR format with direct
// coordinates, grouping sites by element in order of first appearance.
func WritePOSCAR(w io.Writer, s *Structure, comment string) error {
	if comment == "" {
		comment = s.ReducedFormula()
	}

	var order []string
	counts := make(map[string]int)
	for _, site := range s.Sites {
		if counts[site.Element] == 0 {
			order = append(order, site.Element)
		}
		counts[site.Element]++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n1.0\n", comment)
	m := s.Lattice.Matrix()
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&sb, " %18.12f %18.12f %18.12f\n", m[i][0], m[i][1], m[i][2])
	}
	fmt.Fprintln(&sb, strings.Join(order, " "))
	countStrs := make([]string, len(order))
	for i, el := range order {
		countStrs[i] = strconv.Itoa(counts[el])
	}
	fmt.Fprintln(&sb, strings.Join(countStrs, " "))
	fmt.Fprintln(&sb, "Direct")
	for _, el := range order {
		for _, site := range s.Sites {
			if site.Element != el {
				continue
			}
			fmt.Fprintf(&sb, " %18.12f %18.12f %18.12f\n",
				site.Coords[0], site.Coords[1], site.Coords[2])
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func parseVec3(line string) (lin.Vec3, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return lin.Vec3{}, fmt.Errorf("expected 3 numbers, got %q", strings.TrimSpace(line))
	}
	var v lin.Vec3
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return lin.Vec3{}, fmt.Errorf("bad number %q", fields[i])
		}
		v[i] = x
	}
	return v, nil
}

func firstRune(line string) rune {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return 0
	}
	return rune(trimmed[0])
}
