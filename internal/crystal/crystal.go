// Package crystal holds the structure data model consumed by the planners:
// a lattice, a list of sites, and the derived quantities (composition,
// electron counts, reciprocal basis) the workflow assembly needs. Structures
// are treated as immutable once constructed.
package crystal

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/topotools/topoplan/internal/lin"
)

// Lattice is a real-space cell basis. Rows are the basis vectors a, b, c in
// cartesian coordinates (the VASP/POSCAR row convention).
type Lattice lin.Mat3

// Matrix returns the lattice as a plain matrix with basis vectors as rows.
func (l Lattice) Matrix() lin.Mat3 {
	return lin.Mat3(l)
}

// FracToCart returns the matrix that maps fractional column vectors to
// cartesian column vectors (columns are the basis vectors).
func (l Lattice) FracToCart() lin.Mat3 {
	return lin.Mat3(l).Transpose()
}

// MetricTensor returns G = L·Lᵀ. Candidate symmetry rotations in the
// fractional basis must preserve G.
func (l Lattice) MetricTensor() lin.Mat3 {
	m := lin.Mat3(l)
	return m.Mul(m.Transpose())
}

// Volume returns the cell volume.
func (l Lattice) Volume() float64 {
	return math.Abs(lin.Mat3(l).Det())
}

// Reciprocal returns the crystallographic reciprocal lattice (rows are the
// reciprocal basis vectors, no 2π factor — the factor is a scalar and cancels
// in every similarity transform this package's consumers perform).
func (l Lattice) Reciprocal() (Lattice, error) {
	inv, err := lin.Mat3(l).Inverse()
	if err != nil {
		return Lattice{}, fmt.Errorf("degenerate lattice: %w", err)
	}
	return Lattice(inv.Transpose()), nil
}

// Site is one atom of the structure: fractional coordinates, the element
// symbol, and the site's electron count (its atomic number).
type Site struct {
	Coords    lin.Vec3
	Element   string
	Electrons int
	// Magmom is the site's collinear magnetic moment; zero when unknown.
	// POSCAR files carry no moments, so it is only set programmatically.
	Magmom float64
}

// Structure is an immutable crystal: a lattice plus its sites.
type Structure struct {
	Lattice Lattice
	Sites   []Site
}

// NumSites returns the number of sites in the structure.
func (s *Structure) NumSites() int {
	return len(s.Sites)
}

// TotalElectrons sums the electron counts over all sites.
func (s *Structure) TotalElectrons() int {
	total := 0
	for _, site := range s.Sites {
		total += site.Electrons
	}
	return total
}

// NCLMagmoms renders the site moments in the noncollinear layout solver
// inputs expect: three space-separated components per site, collinear
// moments aligned with the z axis.
func (s *Structure) NCLMagmoms() string {
	parts := make([]string, 0, 3*len(s.Sites))
	for _, site := range s.Sites {
		parts = append(parts, "0.0", "0.0", formatMoment(site.Magmom))
	}
	return strings.Join(parts, " ")
}

func formatMoment(m float64) string {
	if m == math.Trunc(m) {
		return strconv.FormatFloat(m, 'f', 1, 64)
	}
	return strconv.FormatFloat(m, 'f', -1, 64)
}

// Composition returns the element→count map of the structure.
func (s *Structure) Composition() map[string]int {
	comp := make(map[string]int)
	for _, site := range s.Sites {
		comp[site.Element]++
	}
	return comp
}

// ReducedFormula renders the composition with counts divided by their GCD,
// elements in alphabetical order and singleton counts omitted, e.g. "Bi2Se3"
// or "NaCl". Used as the workflow graph name.
func (s *Structure) ReducedFormula() string {
	comp := s.Composition()
	if len(comp) == 0 {
		return ""
	}

	elems := make([]string, 0, len(comp))
	for el := range comp {
		elems = append(elems, el)
	}
	sort.Strings(elems)

	divisor := 0
	for _, el := range elems {
		divisor = gcd(divisor, comp[el])
	}

	var sb strings.Builder
	for _, el := range elems {
		sb.WriteString(el)
		if n := comp[el] / divisor; n > 1 {
			fmt.Fprintf(&sb, "%d", n)
		}
	}
	return sb.String()
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
