// Package runtime owns the shared execution context every module is loaded
// into: one goja runtime created at process start and kept until exit, a
// registry of Go-implemented builtin modules, and the host-native loader
// for plain JavaScript files.
package runtime

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"
)

// BuiltinLoader constructs the exports object of a builtin module on first
// import.
type BuiltinLoader func(rt *goja.Runtime) (*goja.Object, error)

// Context is the single realm all modules share. It is created once and
// never torn down; modules can rely on seeing each other's globals.
type Context struct {
	rt     *goja.Runtime
	logger *log.Logger
	stdout io.Writer

	builtins map[string]BuiltinLoader
	// instantiated builtin exports, by name
	builtinCache map[string]*goja.Object
	// host-native loader cache for plain JS files, by absolute path
	nativeCache map[string]*goja.Object
}

// NewContext creates the execution context and installs the console global.
func NewContext(logger *log.Logger, stdout io.Writer) *Context {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	c := &Context{
		rt:           goja.New(),
		logger:       logger,
		stdout:       stdout,
		builtins:     map[string]BuiltinLoader{},
		builtinCache: map[string]*goja.Object{},
		nativeCache:  map[string]*goja.Object{},
	}
	for name, loader := range builtinModules() {
		c.builtins[name] = loader
	}
	c.installConsole()
	return c
}

// Runtime exposes the underlying goja runtime.
func (c *Context) Runtime() *goja.Runtime {
	return c.rt
}

// RegisterBuiltin adds (or replaces) a builtin module reachable through a
// bare specifier.
func (c *Context) RegisterBuiltin(name string, loader BuiltinLoader) {
	c.builtins[name] = loader
	delete(c.builtinCache, name)
}

// HasBuiltin reports whether name is a registered builtin module.
func (c *Context) HasBuiltin(name string) bool {
	_, ok := c.builtins[name]
	return ok
}

// Builtin returns the exports object of a builtin module, instantiating it
// on first use.
func (c *Context) Builtin(name string) (*goja.Object, error) {
	if obj, ok := c.builtinCache[name]; ok {
		return obj, nil
	}
	loader, ok := c.builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin module %q", name)
	}
	obj, err := loader(c.rt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize builtin %q: %w", name, err)
	}
	c.builtinCache[name] = obj
	return obj, nil
}

// RequireNative is the host's own loader for plain JavaScript files. It
// caches by absolute path, so the core rebuilding its lightweight wrappers
// never re-executes a native module body.
func (c *Context) RequireNative(path string) (*goja.Object, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	abs = filepath.Clean(abs)
	if obj, ok := c.nativeCache[abs]; ok {
		return obj, nil
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to load native module %s: %w", abs, err)
	}

	prog, err := goja.Compile(abs, "(function(exports, require, module, __filename, __dirname) {\n"+string(content)+"\n})", false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile native module %s: %w", abs, err)
	}
	v, err := c.rt.RunProgram(prog)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("native module wrapper for %s did not produce a function", abs)
	}

	moduleObj := c.rt.NewObject()
	exportsObj := c.rt.NewObject()
	if err := moduleObj.Set("exports", exportsObj); err != nil {
		return nil, err
	}
	// Insert before evaluation so require cycles between native modules
	// observe the partial exports instead of recursing forever.
	c.nativeCache[abs] = exportsObj

	require := c.nativeRequire(filepath.Dir(abs))
	_, err = fn(goja.Undefined(),
		exportsObj,
		c.rt.ToValue(require),
		moduleObj,
		c.rt.ToValue(abs),
		c.rt.ToValue(filepath.Dir(abs)),
	)
	if err != nil {
		delete(c.nativeCache, abs)
		return nil, err
	}

	final := moduleObj.Get("exports").ToObject(c.rt)
	c.nativeCache[abs] = final
	return final, nil
}

// nativeRequire resolves imports of native modules: builtins by bare name,
// sibling JavaScript files by relative path. Typed-source files are not
// reachable from here; that direction goes through the core loader only.
func (c *Context) nativeRequire(baseDir string) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") && !filepath.IsAbs(spec) {
			obj, err := c.Builtin(spec)
			if err != nil {
				panic(c.rt.NewGoError(err))
			}
			return obj
		}
		target := filepath.Join(baseDir, spec)
		if filepath.Ext(target) == "" {
			target += ".js"
		}
		obj, err := c.RequireNative(target)
		if err != nil {
			panic(c.rt.NewGoError(err))
		}
		return obj
	}
}

func (c *Context) installConsole() {
	console := c.rt.NewObject()
	print := func(call goja.FunctionCall) goja.Value {
		fmt.Fprintln(c.stdout, formatArgs(call.Arguments))
		return goja.Undefined()
	}
	_ = console.Set("log", print)
	_ = console.Set("info", print)
	_ = console.Set("debug", print)
	_ = console.Set("warn", func(call goja.FunctionCall) goja.Value {
		c.logger.Warn(formatArgs(call.Arguments))
		return goja.Undefined()
	})
	_ = console.Set("error", func(call goja.FunctionCall) goja.Value {
		c.logger.Error(formatArgs(call.Arguments))
		return goja.Undefined()
	})
	_ = c.rt.Set("console", console)
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
