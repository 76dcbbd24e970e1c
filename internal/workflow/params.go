package workflow

import (
	"fmt"

	"github.com/topotools/topoplan/internal/crystal"
)

// Solver parameter layers. The assemblers apply them in a fixed order so
// that later layers win on key collisions: relaxation convergence, the
// always-on common layer, job-specific layers, then user overrides.

// relaxConvergenceParams tightens the geometry relaxation. Layered
// structures additionally get the van-der-Waals correction, without which
// the interlayer spacing collapses or drifts.
func relaxConvergenceParams(layered bool) map[string]any {
	p := map[string]any{
		"EDIFFG": 0.005,
		"IBRION": 2,
		"NSW":    100,
	}
	if layered {
		p["IVDW"] = 11
	}
	return p
}

func vdwParams() map[string]any {
	return map[string]any{"IVDW": 11}
}

// commonParams are applied to every solver job regardless of workflow.
func commonParams() map[string]any {
	return map[string]any{
		"ADDGRID": true,
		"LASPH":   true,
		"GGA":     "PS",
	}
}

// precisionParams prepare the single-point run that seeds the surface jobs.
func precisionParams() map[string]any {
	return map[string]any{"PREC": "Accurate"}
}

// nscfParams configure the non-self-consistent band run: spin-orbit coupling
// on, symmetry fixed, zeroed noncollinear moments (three components per
// site), and one band per electron so every occupied band is traced.
func nscfParams(s *crystal.Structure) map[string]any {
	return map[string]any{
		"ISYM":    2,
		"LSORBIT": true,
		"MAGMOM":  fmt.Sprintf("%d*0.0", 3*s.NumSites()),
		"ISPIN":   1,
		"LWAVE":   true,
		"NBANDS":  s.TotalElectrons(),
	}
}
