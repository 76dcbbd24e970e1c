package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/topotools/topoplan/internal/fsutil"
)

// fileRoot decodes the top-level blocks of any configuration file.
type fileRoot struct {
	Settings *settingsBlock `hcl:"settings,block"`
	Runs     []*runBlock    `hcl:"run,block"`
	Remain   hcl.Body       `hcl:",remain"`
}

// settingsBlock uses pointer fields so that only the attributes a file
// actually sets override the defaults (and earlier files).
type settingsBlock struct {
	SolverCommand     *string `hcl:"solver_command,optional"`
	TraceCommand      *string `hcl:"trace_command,optional"`
	PersistenceTarget *string `hcl:"persistence_target,optional"`
	WorkDir           *string `hcl:"work_dir,optional"`
	StabilityCheck    *bool   `hcl:"stability_check,optional"`
	AddMetadata       *bool   `hcl:"add_metadata,optional"`
}

type runBlock struct {
	Name              string    `hcl:"name,label"`
	Structure         string    `hcl:"structure"`
	Workflow          *string   `hcl:"workflow,optional"`
	SymmetryReduction *bool     `hcl:"symmetry_reduction,optional"`
	Overrides         cty.Value `hcl:"overrides,optional"`
}

// Load reads every .hcl file under path (a single file or a directory),
// merges the settings blocks over the process defaults, and collects the
// run blocks in file order.
func Load(path string) (*Model, error) {
	files, err := findHCLFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl configuration found at %s", path)
	}

	model := &Model{Settings: Defaults()}
	seen := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", file, diags)
		}

		model.Settings.apply(root.Settings)
		for _, rb := range root.Runs {
			if prev, dup := seen[rb.Name]; dup {
				return nil, fmt.Errorf("run %q in %s already defined in %s", rb.Name, file, prev)
			}
			seen[rb.Name] = file

			run, err := translateRun(rb)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Runs = append(model.Runs, run)
		}
	}
	return model, nil
}

func (s *Settings) apply(b *settingsBlock) {
	if b == nil {
		return
	}
	if b.SolverCommand != nil {
		s.SolverCommand = *b.SolverCommand
	}
	if b.TraceCommand != nil {
		s.TraceCommand = *b.TraceCommand
	}
	if b.PersistenceTarget != nil {
		s.PersistenceTarget = *b.PersistenceTarget
	}
	if b.WorkDir != nil {
		s.WorkDir = *b.WorkDir
	}
	if b.StabilityCheck != nil {
		s.StabilityCheck = *b.StabilityCheck
	}
	if b.AddMetadata != nil {
		s.AddMetadata = *b.AddMetadata
	}
}

func translateRun(rb *runBlock) (*Run, error) {
	run := &Run{
		Name:              rb.Name,
		StructurePath:     rb.Structure,
		Workflow:          WorkflowInvariants,
		SymmetryReduction: true,
	}
	if rb.Workflow != nil {
		run.Workflow = *rb.Workflow
	}
	if run.Workflow != WorkflowInvariants && run.Workflow != WorkflowTrace {
		return nil, fmt.Errorf("run %q: unknown workflow %q", rb.Name, run.Workflow)
	}
	if rb.SymmetryReduction != nil {
		run.SymmetryReduction = *rb.SymmetryReduction
	}

	if !rb.Overrides.IsNull() {
		converted, err := ctyToGo(rb.Overrides)
		if err != nil {
			return nil, fmt.Errorf("run %q: overrides: %w", rb.Name, err)
		}
		m, ok := converted.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("run %q: overrides must be a map", rb.Name)
		}
		run.Overrides = m
	}
	return run, nil
}

// findHCLFiles accepts a single .hcl file or a directory to walk.
func findHCLFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("accessing configuration path: %w", err)
	}

	if !info.IsDir() {
		if filepath.Ext(path) != ".hcl" {
			return nil, fmt.Errorf("configuration file %s is not .hcl", path)
		}
		return []string{path}, nil
	}
	return fsutil.FindFilesByExtension(path, ".hcl")
}
