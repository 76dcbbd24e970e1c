// Package solver drives the external electronic-structure binaries that job
// graphs schedule, and reads and writes their input and output files.
package solver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Names of the log files a solver invocation leaves in its job directory.
const (
	StdoutName = "solver.out"
	StderrName = "solver.err"
)

// Runner launches one solver invocation and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) error
}

// ExecRunner shells out to a configured solver command line, for example
// "mpirun -np 64 vasp_ncl". Extra args are appended to the command line.
type ExecRunner struct {
	Command string
}

// Run executes the solver in dir with stdout and stderr captured next to the
// job's input files. Cancelling the context kills the process.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) error {
	argv := strings.Fields(r.Command)
	if len(argv) == 0 {
		return fmt.Errorf("solver command is empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], args...)...)
	cmd.Dir = dir

	stdout, err := os.Create(filepath.Join(dir, StdoutName))
	if err != nil {
		return fmt.Errorf("failed to create solver stdout log: %w", err)
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(dir, StderrName))
	if err != nil {
		return fmt.Errorf("failed to create solver stderr log: %w", err)
	}
	defer stderr.Close()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("solver cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("solver %q failed: %w", argv[0], err)
	}
	return nil
}
