package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// Load reads workflow specs from path. A directory is loaded as one CUE
// package; a file is decoded by extension (.cue, .yaml or .yml).
func Load(path string) ([]ir.WorkflowSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return loadCUE(path, ".")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return loadCUE(filepath.Dir(path), filepath.Base(path))
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseYAML(data)
	default:
		return nil, &CompileError{
			Field:   "file",
			Message: fmt.Sprintf("unsupported definition file %q: expected .cue, .yaml or .yml", path),
		}
	}
}

// LoadWorkflow loads the specs at path and returns the one named name.
// An empty name selects the only spec of a single-workflow file.
func LoadWorkflow(path, name string) (ir.WorkflowSpec, error) {
	specs, err := Load(path)
	if err != nil {
		return ir.WorkflowSpec{}, err
	}
	return SelectWorkflow(specs, name)
}

// SelectWorkflow picks the spec named name. An empty name is accepted only
// when there is exactly one spec.
func SelectWorkflow(specs []ir.WorkflowSpec, name string) (ir.WorkflowSpec, error) {
	if name == "" {
		if len(specs) == 1 {
			return specs[0], nil
		}
		names := make([]string, len(specs))
		for i, s := range specs {
			names[i] = s.Name
		}
		return ir.WorkflowSpec{}, &CompileError{
			Field:   "workflow",
			Message: fmt.Sprintf("%d workflows defined (%s), pick one by name", len(specs), strings.Join(names, ", ")),
		}
	}

	for _, s := range specs {
		if s.Name == name {
			return s, nil
		}
	}
	return ir.WorkflowSpec{}, &CompileError{
		Field:   "workflow",
		Message: fmt.Sprintf("workflow %q is not defined", name),
	}
}

func loadCUE(dir, arg string) ([]ir.WorkflowSpec, error) {
	instances := load.Instances([]string{arg}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Field: "cue", Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileWorkflows(value)
}
