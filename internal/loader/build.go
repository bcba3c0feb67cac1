package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"

	"typeload/internal/engine"
	"typeload/internal/runtime"
	"typeload/internal/scan"
)

// LinkFunc is the linker callback injected into every built module at
// construction time. Static imports and the dynamic-import hook both
// re-enter the linker through it.
type LinkFunc func(specifier, referrerURL string) (*BuiltModule, error)

// Builder wraps compiled text (or a native exports object) into an
// executable module unit bound to the shared execution context.
type Builder struct {
	Compiler *Compiler
	Ctx      *runtime.Context

	link LinkFunc
}

// BuiltModule is an in-memory executable unit: its canonical URL, the export
// names it will populate, a link step resolving its static imports and an
// evaluate step running its body.
type BuiltModule struct {
	URL         string
	Format      Format
	ExportNames []string

	deps []scan.Import
	prog *goja.Program
	flat []flatEntry

	rt         *goja.Runtime
	link       LinkFunc
	exportsObj *goja.Object

	linked     bool
	evaluating bool
	evaluated  bool
}

type flatEntry struct {
	name  string
	value goja.Value
}

// Build constructs a module unit for url in the given format.
func (b *Builder) Build(url string, format Format) (*BuiltModule, error) {
	switch format {
	case FormatTS:
		return b.buildTyped(url)
	case FormatJS, FormatBuiltin:
		return b.buildNative(url, format)
	default:
		return nil, &InvalidImportTypeError{Format: format}
	}
}

func (b *Builder) buildTyped(url string) (*BuiltModule, error) {
	absPath, err := FileURLToPath(url)
	if err != nil {
		return nil, err
	}
	code, err := b.Compiler.Compile(absPath)
	if err != nil {
		return nil, err
	}

	// The module shape comes from the original source, not the transpiled
	// text: the transform lowers static imports into require calls, but
	// the link step needs them before evaluation.
	f, ok := b.Compiler.Files.Lookup(absPath)
	if !ok {
		return nil, fmt.Errorf("source for %s vanished from the file set", absPath)
	}
	shape := scan.File(f.ID, f.Content)

	wrapped := "(function(exports, require, module, __filename, __dirname, " +
		engine.MetaURLBinding + ") {\n" + code + "\n})"
	prog, err := goja.Compile(absPath, wrapped, false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile transpiled output of %s: %w", absPath, err)
	}

	rt := b.Ctx.Runtime()
	m := &BuiltModule{
		// forced to the lookup URL: relative imports inside the module
		// resolve against this exact value
		URL:         url,
		Format:      FormatTS,
		ExportNames: shape.Exports,
		deps:        shape.Imports,
		prog:        prog,
		rt:          rt,
		link:        b.link,
		exportsObj:  rt.NewObject(),
	}
	return m, nil
}

// buildNative imports url through the host path and captures a flattened
// property bag eagerly: default-export properties first, named exports on
// top (named wins on collision).
func (b *Builder) buildNative(url string, format Format) (*BuiltModule, error) {
	var obj *goja.Object
	var err error
	if format == FormatBuiltin {
		obj, err = b.Ctx.Builtin(url)
	} else {
		path := url
		if strings.HasPrefix(url, "file:") {
			path, err = FileURLToPath(url)
			if err != nil {
				return nil, err
			}
		}
		obj, err = b.Ctx.RequireNative(path)
	}
	if err != nil {
		return nil, err
	}

	rt := b.Ctx.Runtime()
	flat, names := flattenExports(rt, obj)
	return &BuiltModule{
		URL:         url,
		Format:      format,
		ExportNames: names,
		flat:        flat,
		rt:          rt,
		link:        b.link,
		exportsObj:  rt.NewObject(),
	}, nil
}

func flattenExports(rt *goja.Runtime, obj *goja.Object) ([]flatEntry, []string) {
	index := map[string]int{}
	var entries []flatEntry

	put := func(name string, value goja.Value) {
		if i, ok := index[name]; ok {
			entries[i].value = value
			return
		}
		index[name] = len(entries)
		entries = append(entries, flatEntry{name: name, value: value})
	}

	if def := obj.Get("default"); def != nil {
		if defObj, ok := def.(*goja.Object); ok {
			for _, key := range defObj.Keys() {
				put(key, defObj.Get(key))
			}
		}
	}
	for _, key := range obj.Keys() {
		put(key, obj.Get(key))
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return entries, names
}

// Link resolves every static import through the linker, transitively.
// Native modules resolve their own imports through the host loader, so only
// typed-source modules recurse here. Cycles terminate because a module marks
// itself linked before walking its dependencies.
func (m *BuiltModule) Link() error {
	if m.linked || m.Format != FormatTS {
		return nil
	}
	m.linked = true
	for _, imp := range m.deps {
		dep, err := m.link(imp.Specifier, m.URL)
		if err != nil {
			m.linked = false
			return err
		}
		if err := dep.Link(); err != nil {
			m.linked = false
			return err
		}
	}
	return nil
}

// Evaluate runs the module body once. Re-entrant calls (cycles) and repeat
// calls are no-ops.
func (m *BuiltModule) Evaluate() error {
	if m.evaluated || m.evaluating {
		return nil
	}
	m.evaluating = true
	defer func() { m.evaluating = false }()

	if m.Format != FormatTS {
		for _, e := range m.flat {
			if err := m.exportsObj.Set(e.name, e.value); err != nil {
				return err
			}
		}
		m.evaluated = true
		return nil
	}

	v, err := m.rt.RunProgram(m.prog)
	if err != nil {
		return err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return fmt.Errorf("module wrapper for %s did not produce a function", m.URL)
	}

	moduleObj := m.rt.NewObject()
	if err := moduleObj.Set("exports", m.exportsObj); err != nil {
		return err
	}

	filename, ferr := FileURLToPath(m.URL)
	if ferr != nil {
		filename = m.URL
	}

	_, err = fn(goja.Undefined(),
		m.exportsObj,
		m.rt.ToValue(m.require()),
		moduleObj,
		m.rt.ToValue(filename),
		m.rt.ToValue(filepath.Dir(filename)),
		m.rt.ToValue(m.URL),
	)
	if err != nil {
		return err
	}

	// module.exports may have been reassigned
	if final := moduleObj.Get("exports"); final != nil && !final.StrictEquals(m.exportsObj) {
		m.exportsObj = final.ToObject(m.rt)
	}
	m.evaluated = true
	return nil
}

// Execute runs evaluation and hands control back to the caller; exceptions
// raised by the module body propagate instead of being swallowed here.
func (m *BuiltModule) Execute() error {
	return m.Evaluate()
}

// ExportsObject returns the module's exports. During a cycle this is the
// partially populated object.
func (m *BuiltModule) ExportsObject() *goja.Object {
	return m.exportsObj
}

// require re-enters the linker. It serves both static imports (the
// transform lowers them to require calls) and dynamic imports (lowered to a
// promise-wrapped require), which makes it the dynamic-import hook of the
// built module.
func (m *BuiltModule) require() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		dep, err := m.link(spec, m.URL)
		if err != nil {
			panic(m.rt.NewGoError(err))
		}
		if err := dep.Link(); err != nil {
			panic(m.rt.NewGoError(err))
		}
		if err := dep.Evaluate(); err != nil {
			panic(m.rt.NewGoError(err))
		}
		return dep.ExportsObject()
	}
}
