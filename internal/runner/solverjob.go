package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/topotools/topoplan/internal/crystal"
	"github.com/topotools/topoplan/internal/ctxlog"
	"github.com/topotools/topoplan/internal/kspace"
	"github.com/topotools/topoplan/internal/solver"
	"github.com/topotools/topoplan/internal/staging"
	"github.com/topotools/topoplan/internal/workflow"
)

// Input file names the solver stages consume.
const (
	paramsFileName    = "INCAR"
	kpointsFileName   = "KPOINTS"
	structureFileName = "POSCAR"
)

// CalcLocation is the output of a plain solver stage: the directory its
// files landed in, which downstream jobs stage from.
type CalcLocation struct {
	Dir string `json:"dir"`
}

// SolverModule wires the runner for the plain solver stages: relaxation,
// single point, and the non-self-consistent band run.
type SolverModule struct {
	Exec      solver.Runner
	Structure *crystal.Structure
}

// Register binds the three solver stages to a shared runner.
func (m *SolverModule) Register(r *Registry) {
	rn := &solverRunner{exec: m.Exec, structure: m.Structure}
	r.Register(workflow.KindRelax, rn)
	r.Register(workflow.KindStatic, rn)
	r.Register(workflow.KindNSCF, rn)
}

// solverRunner prepares a job directory and runs the solver in it. Root jobs
// start from the caller's structure; all later stages start from their
// parent's relaxed outputs.
type solverRunner struct {
	exec      solver.Runner
	structure *crystal.Structure
}

func (r *solverRunner) Run(ctx context.Context, job *Job) (any, error) {
	logger := ctxlog.FromContext(ctx)
	dir, err := job.prepareDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	if parent := job.PrimaryParent(); parent != nil {
		files := staging.DefaultFiles()
		if job.Node.Kind == workflow.KindNSCF {
			// The band run is non-self-consistent: it needs the converged
			// charge density from the single-point stage.
			files = append(files, "CHGCAR")
		}
		if err := staging.Stage(job.ParentDir(parent), dir, files); err != nil {
			return nil, err
		}
	} else {
		if err := writeStructure(dir, r.structure); err != nil {
			return nil, err
		}
	}

	if err := solver.WriteParamsFile(filepath.Join(dir, paramsFileName), job.Node.Params); err != nil {
		return nil, err
	}
	if job.Node.Kind == workflow.KindNSCF {
		points := kspace.TRIMPoints()
		if err := solver.WriteKpointsFile(filepath.Join(dir, kpointsFileName), "TRIM points", points); err != nil {
			return nil, err
		}
	}

	logger.Debug("Launching solver.", "job", job.Node.ID, "dir", dir)
	if err := r.exec.Run(ctx, dir); err != nil {
		return nil, err
	}
	return &CalcLocation{Dir: dir}, nil
}

func writeStructure(dir string, s *crystal.Structure) error {
	f, err := os.Create(filepath.Join(dir, structureFileName))
	if err != nil {
		return fmt.Errorf("failed to create structure file: %w", err)
	}
	if err := crystal.WritePOSCAR(f, s, ""); err != nil {
		f.Close()
		return fmt.Errorf("failed to write structure file: %w", err)
	}
	return f.Close()
}
