// Package graphdef loads module graph definitions from CUE files and
// assembles them into builder inputs.
//
// A definition directory holds plain CUE data files declaring modules,
// their dependencies and async boundaries, and the entrypoints to build
// from. The embedded schema closes the accepted shape, so a typo surfaces
// as a load error with a source position instead of a silently dropped
// field.
package graphdef

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/bento/internal/depgraph"
)

//go:embed schema.cue
var schemaSource string

// LoadMode controls how errors are handled during definition loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Definition is the parsed form of a definition directory, before any
// graph is assembled.
type Definition struct {
	Modules []ModuleDef
	Entries []EntryDef
	// FileCount is the number of CUE files the definition was read from.
	FileCount int
}

// ModuleDef declares one module with its direct dependencies and async
// boundaries.
type ModuleDef struct {
	ID     string
	Deps   []DepDef
	Blocks []BlockDef
}

// DepDef declares one dependency edge.
type DepDef struct {
	Target string
	Weak   bool
	// ActiveInRuntimes restricts the edge to the named runtimes. Empty
	// means always active.
	ActiveInRuntimes []string
	Loc              depgraph.Loc
}

// BlockDef declares an async boundary, optionally nested.
type BlockDef struct {
	Name   string
	Entry  *EntryOptionsDef
	Deps   []DepDef
	Blocks []BlockDef
	Loc    depgraph.Loc
}

// EntryOptionsDef carries the entry options of an async entry boundary.
type EntryOptionsDef struct {
	Name        string
	Runtime     string
	AsyncChunks *bool
}

// EntryDef declares one entrypoint.
type EntryDef struct {
	Name        string
	Modules     []string
	Runtime     string
	DependOn    []string
	AsyncChunks *bool
}

// Load reads every CUE file under dir, validates the unified result
// against the embedded schema and parses it into a Definition.
func Load(dir string, mode LoadMode) (*Definition, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{fmt.Errorf("definitions directory not found: %s", dir)}
	}
	if err != nil {
		return nil, []error{fmt.Errorf("accessing definitions directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scanning definitions directory: %w", err)}
	}
	if len(cueFiles) == 0 {
		return nil, []error{fmt.Errorf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	insts := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(insts) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", dir)}
	}
	inst := insts[0]
	if inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", inst.Err)}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueErrorList(err, mode)
	}

	schema := ctx.CompileString(schemaSource, cue.Filename("graphdef/schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, []error{fmt.Errorf("compiling embedded schema: %w", err)}
	}
	unified := schema.LookupPath(cue.ParsePath("#Definition")).Unify(value)
	if err := unified.Validate(); err != nil {
		return nil, cueErrorList(err, mode)
	}

	def, errs := compileDefinition(value, mode)
	def.FileCount = len(cueFiles)
	if len(def.Modules) == 0 && len(def.Entries) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no modules or entries found in %s", dir))
	}
	return def, errs
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
