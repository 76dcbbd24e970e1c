// Package symmetry detects the crystallographic point group of a structure.
package symmetry

import (
	"fmt"
	"math"

	"github.com/topotools/topoplan/internal/crystal"
	"github.com/topotools/topoplan/internal/lin"
)

// symprec is the tolerance, in fractional coordinates, for deciding that a
// transformed site lands on an existing one. The same value bounds the
// relative distortion allowed in the metric-tensor check.
const symprec = 1e-2

// DetectionError reports that point-group detection could not run on the
// given structure.
type DetectionError struct {
	Reason string
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("symmetry detection failed: %s", e.Reason)
}

// PointGroupOps returns the point-group operations of the structure as
// rotation matrices acting on real-space fractional coordinates. The
// identity is always included.
//
// Candidates are enumerated as integer matrices over {-1, 0, 1} (every
// crystallographic rotation takes this form in a primitive basis), filtered
// to the ones preserving the lattice metric tensor, then filtered again to
// the ones mapping the site set onto itself modulo a lattice translation.
func PointGroupOps(s *crystal.Structure) ([]lin.Mat3, error) {
	if s == nil || len(s.Sites) == 0 {
		return nil, &DetectionError{Reason: "structure has no sites"}
	}
	if math.Abs(s.Lattice.Matrix().Det()) < 1e-9 {
		return nil, &DetectionError{Reason: "degenerate lattice"}
	}

	anchors := anchorSites(s)

	var ops []lin.Mat3
	for _, w := range latticePointGroup(s.Lattice.MetricTensor()) {
		if mapsSites(s, w, anchors) {
			ops = append(ops, w)
		}
	}
	return ops, nil
}

// latticePointGroup returns every unimodular integer matrix W with entries
// in {-1, 0, 1} satisfying Wᵀ·G·W = G, i.e. the rotations preserving all
// lattice lengths and angles.
func latticePointGroup(g lin.Mat3) []lin.Mat3 {
	tol := symprec * maxAbs(g)
	var ops []lin.Mat3
	for idx := 0; idx < 19683; idx++ { // 3^9 candidates
		var w lin.Mat3
		n := idx
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				w[i][j] = float64(n%3 - 1)
				n /= 3
			}
		}
		if det := math.Round(w.Det()); det != 1 && det != -1 {
			continue
		}
		if w.Transpose().Mul(g).Mul(w).ApproxEqual(g, tol) {
			ops = append(ops, w)
		}
	}
	return ops
}

// anchorSites returns the sites of the least common species. A valid
// operation must permute these among themselves, so they bound the search
// for the translation part.
func anchorSites(s *crystal.Structure) []crystal.Site {
	counts := s.Composition()
	best := ""
	for el, n := range counts {
		if best == "" || n < counts[best] || (n == counts[best] && el < best) {
			best = el
		}
	}

	var sites []crystal.Site
	for _, site := range s.Sites {
		if site.Element == best {
			sites = append(sites, site)
		}
	}
	return sites
}

// mapsSites reports whether some translation t makes x ↦ W·x + t a
// permutation of the site set that preserves chemical identity.
func mapsSites(s *crystal.Structure, w lin.Mat3, anchors []crystal.Site) bool {
	origin := w.MulVec(anchors[0].Coords)
	for _, target := range anchors {
		t := target.Coords.Sub(origin)
		if mapsAll(s, w, t) {
			return true
		}
	}
	return false
}

func mapsAll(s *crystal.Structure, w lin.Mat3, t lin.Vec3) bool {
	for _, site := range s.Sites {
		image := w.MulVec(site.Coords).Add(t)
		if !hasSiteAt(s, image, site.Element) {
			return false
		}
	}
	return true
}

func hasSiteAt(s *crystal.Structure, frac lin.Vec3, element string) bool {
	for _, site := range s.Sites {
		if site.Element != element {
			continue
		}
		if congruent(frac, site.Coords, symprec) {
			return true
		}
	}
	return false
}

// congruent reports whether two fractional coordinates differ by a lattice
// vector, component-wise within eps.
func congruent(a, b lin.Vec3, eps float64) bool {
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		d -= math.Round(d)
		if math.Abs(d) > eps {
			return false
		}
	}
	return true
}

func maxAbs(m lin.Mat3) float64 {
	max := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if v := math.Abs(m[i][j]); v > max {
				max = v
			}
		}
	}
	return max
}
