package kspace

import "github.com/topotools/topoplan/internal/lin"

// Equivalences maps each surface to the surfaces whose special-point set
// some operation of the reciprocal point group carries it onto. The map is
// computed directionally and not pre-symmetrized: consumers must treat
// membership in either direction as establishing equivalence.
type Equivalences map[Surface][]Surface

// EquivalentPlanes transforms every surface's special points by every
// operation, wraps the images into the reciprocal unit cell, and records a
// match whenever the image set equals another surface's special points as
// a multiset. A surface is never compared against itself.
func EquivalentPlanes(g *PointGroup) Equivalences {
	eq := make(Equivalences, 6)
	for _, s := range Surfaces() {
		eq[s] = nil
	}

	for _, src := range Surfaces() {
		pts := src.SpecialPoints()
		for _, op := range g.Ops() {
			var moved [4]lin.Vec3
			for i, p := range pts {
				moved[i] = op.MulVec(p).Wrap(eps)
			}
			for _, dst := range Surfaces() {
				if dst == src || containsSurface(eq[src], dst) {
					continue
				}
				if sameSet(moved, dst.SpecialPoints()) {
					eq[src] = append(eq[src], dst)
				}
			}
		}
	}
	return eq
}

// sameSet is a permutation-invariant equality test: every point of got must
// match exactly one point of want.
func sameSet(got, want [4]lin.Vec3) bool {
	var used [4]bool
	for _, p := range got {
		matched := false
		for i, q := range want {
			if used[i] || !p.ApproxEqual(q, eps) {
				continue
			}
			used[i] = true
			matched = true
			break
		}
		if !matched {
			return false
		}
	}
	return true
}

func containsSurface(list []Surface, s Surface) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}
