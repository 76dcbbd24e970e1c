package kspace

// SelectPlanes picks the surfaces that actually need a calculation. With
// reduction disabled (magnetic or otherwise low-symmetry cases where time
// reversal cannot be assumed) it returns all six surfaces. Otherwise it
// seeds the result with the mandatory kx pair, then walks the remaining
// surfaces in canonical order and keeps each one only if no already
// selected surface is equivalent to it in either direction.
func SelectPlanes(eq Equivalences, reduction bool) []Surface {
	if !reduction {
		return Surfaces()
	}

	selected := []Surface{SurfaceKx0, SurfaceKx1}
	for _, cand := range Surfaces() {
		if cand == SurfaceKx0 || cand == SurfaceKx1 {
			continue
		}
		if !equivalentToAny(eq, cand, selected) {
			selected = append(selected, cand)
		}
	}
	return selected
}

func equivalentToAny(eq Equivalences, cand Surface, selected []Surface) bool {
	for _, have := range selected {
		if containsSurface(eq[cand], have) || containsSurface(eq[have], cand) {
			return true
		}
	}
	return false
}
