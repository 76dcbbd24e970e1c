// Package kspace models the reciprocal-space cell: its six boundary
// surfaces, the time-reversal-invariant momenta they contain, and the
// action of the crystal point group on both.
package kspace

import "github.com/topotools/topoplan/internal/lin"

// Surface labels one of the six boundary planes of the reciprocal cell,
// two per axis at fractional coordinate 0 and 1/2.
type Surface string

const (
	SurfaceKx0 Surface = "kx_0"
	SurfaceKx1 Surface = "kx_1"
	SurfaceKy0 Surface = "ky_0"
	SurfaceKy1 Surface = "ky_1"
	SurfaceKz0 Surface = "kz_0"
	SurfaceKz1 Surface = "kz_1"
)

var surfaceDefs = map[Surface]struct {
	axis  int
	value float64
}{
	SurfaceKx0: {0, 0},
	SurfaceKx1: {0, 0.5},
	SurfaceKy0: {1, 0},
	SurfaceKy1: {1, 0.5},
	SurfaceKz0: {2, 0},
	SurfaceKz1: {2, 0.5},
}

// Surfaces returns the six surfaces in canonical enumeration order. The
// order is load-bearing: it fixes selection tie-breaks and node ordering.
func Surfaces() []Surface {
	return []Surface{
		SurfaceKx0, SurfaceKx1,
		SurfaceKy0, SurfaceKy1,
		SurfaceKz0, SurfaceKz1,
	}
}

// Valid reports whether s is one of the six canonical labels.
func (s Surface) Valid() bool {
	_, ok := surfaceDefs[s]
	return ok
}

// SpecialPoints returns the four time-reversal-invariant momenta lying in
// the surface: all {0, 1/2} combinations of the two free axes, with the
// surface's own axis pinned to its fractional coordinate.
func (s Surface) SpecialPoints() [4]lin.Vec3 {
	def := surfaceDefs[s]
	free := [2]int{(def.axis + 1) % 3, (def.axis + 2) % 3}

	var pts [4]lin.Vec3
	i := 0
	for _, u := range []float64{0, 0.5} {
		for _, v := range []float64{0, 0.5} {
			var p lin.Vec3
			p[def.axis] = def.value
			p[free[0]] = u
			p[free[1]] = v
			pts[i] = p
			i++
		}
	}
	return pts
}

// TRIMPoint is a labelled time-reversal-invariant momentum of the full
// reciprocal cell.
type TRIMPoint struct {
	Label  string
	Coords lin.Vec3
}

// TRIMPoints returns the eight TRIM of the reciprocal cell with their
// conventional labels, gamma first.
func TRIMPoints() []TRIMPoint {
	return []TRIMPoint{
		{Label: "gamma", Coords: lin.Vec3{0, 0, 0}},
		{Label: "x", Coords: lin.Vec3{0.5, 0, 0}},
		{Label: "y", Coords: lin.Vec3{0, 0.5, 0}},
		{Label: "z", Coords: lin.Vec3{0, 0, 0.5}},
		{Label: "s", Coords: lin.Vec3{0.5, 0.5, 0}},
		{Label: "t", Coords: lin.Vec3{0, 0.5, 0.5}},
		{Label: "u", Coords: lin.Vec3{0.5, 0, 0.5}},
		{Label: "r", Coords: lin.Vec3{0.5, 0.5, 0.5}},
	}
}
