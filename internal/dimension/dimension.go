// Package dimension estimates how many directions a crystal is periodically
// bonded in. Layered (two-dimensional) structures need van-der-Waals
// corrections during relaxation; everything downstream only cares about
// that distinction.
package dimension

import (
	"math"
	"sort"

	"github.com/topotools/topoplan/internal/crystal"
)

// Method names the algorithm that produced a dimensionality estimate.
// Estimates can come from the built-in gap heuristic or be supplied
// externally by a full bonding analysis.
type Method string

const (
	MethodLarsen Method = "larsen"
	MethodCheon  Method = "cheon"
	MethodGorai  Method = "gorai"
	MethodGap    Method = "gap"
)

// Hint records the dimensionality estimated by each method that ran.
type Hint map[Method]int

// AnyLayered reports whether any method classified the structure as
// two-dimensional. Methods disagree on borderline cases, so a single vote
// is enough to enable the van-der-Waals treatment.
func (h Hint) AnyLayered() bool {
	for _, d := range h {
		if d == 2 {
			return true
		}
	}
	return false
}

// DefaultVacuumCutoff is the minimum empty slab, in the lattice length
// unit, treated as a broken bonding direction.
const DefaultVacuumCutoff = 5.0

// GapClassifier estimates dimensionality from interlayer vacuum: an axis
// whose widest empty slab exceeds the cutoff cannot host periodic bonding.
type GapClassifier struct {
	Cutoff float64 // zero means DefaultVacuumCutoff
}

// Classify returns a single-entry Hint under MethodGap.
func (c GapClassifier) Classify(s *crystal.Structure) Hint {
	cutoff := c.Cutoff
	if cutoff == 0 {
		cutoff = DefaultVacuumCutoff
	}

	open := 0
	for axis := 0; axis < 3; axis++ {
		if widestGap(s, axis)*perpendicularHeight(s.Lattice, axis) >= cutoff {
			open++
		}
	}
	return Hint{MethodGap: 3 - open}
}

// widestGap returns the largest fraction of the axis with no sites,
// accounting for periodic wrap-around.
func widestGap(s *crystal.Structure, axis int) float64 {
	coords := make([]float64, 0, len(s.Sites))
	for _, site := range s.Sites {
		c := site.Coords[axis] - math.Floor(site.Coords[axis])
		coords = append(coords, c)
	}
	sort.Float64s(coords)

	max := coords[0] + 1 - coords[len(coords)-1]
	for i := 1; i < len(coords); i++ {
		if gap := coords[i] - coords[i-1]; gap > max {
			max = gap
		}
	}
	return max
}

// perpendicularHeight is the spacing between the lattice planes spanned by
// the other two axes: cell volume over their cross-sectional area.
func perpendicularHeight(l crystal.Lattice, axis int) float64 {
	m := l.Matrix()
	u := m[(axis+1)%3]
	v := m[(axis+2)%3]

	cross := [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	area := math.Sqrt(cross[0]*cross[0] + cross[1]*cross[1] + cross[2]*cross[2])
	if area == 0 {
		return 0
	}
	return l.Volume() / area
}
