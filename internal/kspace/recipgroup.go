package kspace

import (
	"github.com/topotools/topoplan/internal/crystal"
	"github.com/topotools/topoplan/internal/lin"
	"github.com/topotools/topoplan/internal/symmetry"
)

// eps is the tolerance for operation deduplication and for matching
// transformed special points. Entries of valid operations are integers and
// point coordinates are exact halves, so any residue is floating-point
// noise from the basis change.
const eps = 5e-3

// PointGroup is a deduplicated set of symmetry operations expressed in the
// fractional reciprocal basis, closed under the inversion generator.
type PointGroup struct {
	ops []lin.Mat3
}

// Ops returns the operations in insertion order.
func (g *PointGroup) Ops() []lin.Mat3 {
	return g.ops
}

// Size returns the number of distinct operations.
func (g *PointGroup) Size() int {
	return len(g.ops)
}

// Contains reports set membership within the dedup tolerance.
func (g *PointGroup) Contains(op lin.Mat3) bool {
	for _, have := range g.ops {
		if have.ApproxEqual(op, eps) {
			return true
		}
	}
	return false
}

func (g *PointGroup) add(op lin.Mat3) {
	if g.Contains(op) {
		return
	}
	g.ops = append(g.ops, op)
}

// ReciprocalPointGroup detects the structure's point group and maps every
// operation into the fractional reciprocal basis via the similarity
// transform A·R·A⁻¹, where A converts real-fractional to
// reciprocal-fractional coordinates. The set is seeded with the transformed
// inversion generator (time reversal acts as -1 on crystal momentum) and
// closed under multiplication by it, so every operation's antisymmetric
// partner is present.
//
// Detection failures propagate as *symmetry.DetectionError.
func ReciprocalPointGroup(s *crystal.Structure) (*PointGroup, error) {
	ops, err := symmetry.PointGroupOps(s)
	if err != nil {
		return nil, err
	}

	recip, err := s.Lattice.Reciprocal()
	if err != nil {
		return nil, &symmetry.DetectionError{Reason: err.Error()}
	}
	recipToCart := recip.FracToCart()
	cartToRecip, err := recipToCart.Inverse()
	if err != nil {
		return nil, &symmetry.DetectionError{Reason: err.Error()}
	}

	a := cartToRecip.Mul(s.Lattice.FracToCart())
	aInv, err := a.Inverse()
	if err != nil {
		return nil, &symmetry.DetectionError{Reason: err.Error()}
	}

	g := &PointGroup{}
	inversion := a.Mul(lin.Identity().Neg()).Mul(aInv)
	g.add(inversion)
	for _, op := range ops {
		r := a.Mul(op).Mul(aInv)
		g.add(r)
		g.add(r.Mul(inversion))
	}
	return g, nil
}
