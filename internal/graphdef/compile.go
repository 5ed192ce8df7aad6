package graphdef

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/bento/internal/depgraph"
)

// CompileError is a definition error with a source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// compileDefinition parses the raw CUE value into a Definition. Schema
// conformance has already been checked, so errors here are about
// non-concrete or missing values.
func compileDefinition(v cue.Value, mode LoadMode) (*Definition, []error) {
	def := &Definition{}
	var errs []error

	if modsVal := v.LookupPath(cue.ParsePath("modules")); modsVal.Exists() {
		iter, err := modsVal.List()
		if err != nil {
			errs = append(errs, formatCUEError(err))
			if mode == LoadModeFailFast {
				return def, errs
			}
		} else {
			for iter.Next() {
				md, err := compileModule(iter.Value())
				if err != nil {
					errs = append(errs, err)
					if mode == LoadModeFailFast {
						return def, errs
					}
					continue
				}
				def.Modules = append(def.Modules, md)
			}
		}
	}

	if entriesVal := v.LookupPath(cue.ParsePath("entries")); entriesVal.Exists() {
		iter, err := entriesVal.List()
		if err != nil {
			errs = append(errs, formatCUEError(err))
			if mode == LoadModeFailFast {
				return def, errs
			}
		} else {
			for iter.Next() {
				ed, err := compileEntry(iter.Value())
				if err != nil {
					errs = append(errs, err)
					if mode == LoadModeFailFast {
						return def, errs
					}
					continue
				}
				def.Entries = append(def.Entries, ed)
			}
		}
	}

	return def, errs
}

func compileModule(v cue.Value) (ModuleDef, error) {
	var md ModuleDef
	id, err := v.LookupPath(cue.ParsePath("id")).String()
	if err != nil {
		return md, formatCUEError(err)
	}
	md.ID = id
	if md.Deps, err = compileDeps(v); err != nil {
		return md, err
	}
	md.Blocks, err = compileBlocks(v)
	return md, err
}

func compileDeps(v cue.Value) ([]DepDef, error) {
	depsVal := v.LookupPath(cue.ParsePath("deps"))
	if !depsVal.Exists() {
		return nil, nil
	}
	iter, err := depsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var deps []DepDef
	for iter.Next() {
		dd, err := compileDep(iter.Value())
		if err != nil {
			return nil, err
		}
		deps = append(deps, dd)
	}
	return deps, nil
}

func compileDep(v cue.Value) (DepDef, error) {
	var dd DepDef
	target, err := v.LookupPath(cue.ParsePath("target")).String()
	if err != nil {
		return dd, formatCUEError(err)
	}
	dd.Target = target

	if weakVal := v.LookupPath(cue.ParsePath("weak")); weakVal.Exists() {
		if dd.Weak, err = weakVal.Bool(); err != nil {
			return dd, formatCUEError(err)
		}
	}

	if rtsVal := v.LookupPath(cue.ParsePath("activeInRuntimes")); rtsVal.Exists() {
		iter, err := rtsVal.List()
		if err != nil {
			return dd, formatCUEError(err)
		}
		for iter.Next() {
			rt, err := iter.Value().String()
			if err != nil {
				return dd, formatCUEError(err)
			}
			dd.ActiveInRuntimes = append(dd.ActiveInRuntimes, rt)
		}
	}

	dd.Loc, err = compileLoc(v)
	return dd, err
}

func compileBlocks(v cue.Value) ([]BlockDef, error) {
	blocksVal := v.LookupPath(cue.ParsePath("blocks"))
	if !blocksVal.Exists() {
		return nil, nil
	}
	iter, err := blocksVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var blocks []BlockDef
	for iter.Next() {
		bd, err := compileBlock(iter.Value())
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, bd)
	}
	return blocks, nil
}

func compileBlock(v cue.Value) (BlockDef, error) {
	var bd BlockDef
	var err error

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		if bd.Name, err = nameVal.String(); err != nil {
			return bd, formatCUEError(err)
		}
	}
	if entryVal := v.LookupPath(cue.ParsePath("entry")); entryVal.Exists() {
		opts, err := compileEntryOptions(entryVal)
		if err != nil {
			return bd, err
		}
		bd.Entry = &opts
	}
	if bd.Deps, err = compileDeps(v); err != nil {
		return bd, err
	}
	if bd.Blocks, err = compileBlocks(v); err != nil {
		return bd, err
	}
	bd.Loc, err = compileLoc(v)
	return bd, err
}

func compileEntryOptions(v cue.Value) (EntryOptionsDef, error) {
	var opts EntryOptionsDef
	var err error

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		if opts.Name, err = nameVal.String(); err != nil {
			return opts, formatCUEError(err)
		}
	}
	if rtVal := v.LookupPath(cue.ParsePath("runtime")); rtVal.Exists() {
		if opts.Runtime, err = rtVal.String(); err != nil {
			return opts, formatCUEError(err)
		}
	}
	if acVal := v.LookupPath(cue.ParsePath("asyncChunks")); acVal.Exists() {
		ac, err := acVal.Bool()
		if err != nil {
			return opts, formatCUEError(err)
		}
		opts.AsyncChunks = &ac
	}
	return opts, nil
}

func compileEntry(v cue.Value) (EntryDef, error) {
	var ed EntryDef
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return ed, formatCUEError(err)
	}
	ed.Name = name

	modsVal := v.LookupPath(cue.ParsePath("modules"))
	if modsVal.Exists() {
		iter, err := modsVal.List()
		if err != nil {
			return ed, formatCUEError(err)
		}
		for iter.Next() {
			m, err := iter.Value().String()
			if err != nil {
				return ed, formatCUEError(err)
			}
			ed.Modules = append(ed.Modules, m)
		}
	}
	if len(ed.Modules) == 0 {
		return ed, &CompileError{
			Field:   fmt.Sprintf("entries.%s.modules", name),
			Message: "at least one module is required",
			Pos:     v.Pos(),
		}
	}

	if rtVal := v.LookupPath(cue.ParsePath("runtime")); rtVal.Exists() {
		if ed.Runtime, err = rtVal.String(); err != nil {
			return ed, formatCUEError(err)
		}
	}
	if depVal := v.LookupPath(cue.ParsePath("dependOn")); depVal.Exists() {
		iter, err := depVal.List()
		if err != nil {
			return ed, formatCUEError(err)
		}
		for iter.Next() {
			d, err := iter.Value().String()
			if err != nil {
				return ed, formatCUEError(err)
			}
			ed.DependOn = append(ed.DependOn, d)
		}
	}
	if acVal := v.LookupPath(cue.ParsePath("asyncChunks")); acVal.Exists() {
		ac, err := acVal.Bool()
		if err != nil {
			return ed, formatCUEError(err)
		}
		ed.AsyncChunks = &ac
	}
	return ed, nil
}

func compileLoc(v cue.Value) (depgraph.Loc, error) {
	var loc depgraph.Loc
	locVal := v.LookupPath(cue.ParsePath("loc"))
	if !locVal.Exists() {
		return loc, nil
	}
	if fileVal := locVal.LookupPath(cue.ParsePath("file")); fileVal.Exists() {
		s, err := fileVal.String()
		if err != nil {
			return loc, formatCUEError(err)
		}
		loc.File = s
	}
	if lineVal := locVal.LookupPath(cue.ParsePath("line")); lineVal.Exists() {
		n, err := lineVal.Int64()
		if err != nil {
			return loc, formatCUEError(err)
		}
		loc.Line = int(n)
	}
	if colVal := locVal.LookupPath(cue.ParsePath("col")); colVal.Exists() {
		n, err := colVal.Int64()
		if err != nil {
			return loc, formatCUEError(err)
		}
		loc.Col = int(n)
	}
	return loc, nil
}

// formatCUEError extracts position info from a CUE error.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}

// cueErrorList expands a CUE error according to mode. CUE bundles every
// problem into one error value; collect-all unwraps them individually.
func cueErrorList(err error, mode LoadMode) []error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return []error{err}
	}
	if mode == LoadModeFailFast {
		return []error{formatCUEError(err)}
	}
	out := make([]error, 0, len(list))
	for _, e := range list {
		var pos token.Pos
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			pos = positions[0]
		}
		out = append(out, &CompileError{Field: "cue", Message: e.Error(), Pos: pos})
	}
	return out
}
