package loader

import (
	"fmt"
	"path/filepath"

	"typeload/internal/checker"
	"typeload/internal/diag"
	"typeload/internal/engine"
	"typeload/internal/project"
	"typeload/internal/source"
)

// TranspileCache avoids re-running the transform for content the loader has
// already compiled cleanly. Only successful compiles are ever stored, so a
// hit implies the diagnostic pass was clean for this exact content+options.
type TranspileCache interface {
	Get(key project.Digest) (string, bool)
	Put(key project.Digest, path, code string)
}

// Compiler loads a typed-source file, merges project configuration with the
// fixed output settings, runs the diagnostic pass and the transform, and
// returns executable text.
type Compiler struct {
	Files   *source.FileSet
	Engine  engine.Engine
	Tracker *project.Tracker
	// Cache is optional.
	Cache          TranspileCache
	MaxDiagnostics int
}

// Compile transpiles the file at absPath. When the diagnostic pass reports
// any error-level diagnostic the result is a *CompilationError carrying the
// full bag; the transform still runs first (a wasted transform on a doomed
// compile keeps the control flow simple).
func (c *Compiler) Compile(absPath string) (string, error) {
	opts, f, err := c.prepare(absPath)
	if err != nil {
		return "", err
	}

	key := cacheKey(f.Content, opts)
	if c.Cache != nil {
		if code, ok := c.Cache.Get(key); ok {
			return code, nil
		}
	}

	code, bag := c.run(f, opts)
	if bag.HasErrors() {
		bag.Sort()
		return "", &CompilationError{Path: absPath, Diagnostics: bag}
	}

	if c.Cache != nil {
		c.Cache.Put(key, absPath, code)
	}
	return code, nil
}

// Diagnose runs the diagnostic pass and the transform for absPath without
// caching or failing; every diagnostic collected ends up in the bag.
func (c *Compiler) Diagnose(absPath string) (*diag.Bag, error) {
	opts, f, err := c.prepare(absPath)
	if err != nil {
		return nil, err
	}
	_, bag := c.run(f, opts)
	bag.Sort()
	return bag, nil
}

// prepare records the active project root, loads merged compiler options and
// brings the file into the set.
func (c *Compiler) prepare(absPath string) (project.CompilerOptions, *source.File, error) {
	dir := filepath.Dir(absPath)
	c.Tracker.SetActiveRoot(dir)

	opts, err := project.LoadConfig(dir)
	if err != nil {
		return project.CompilerOptions{}, nil, err
	}
	opts = project.MergeOverrides(opts)

	fileID, err := c.Files.Load(absPath)
	if err != nil {
		return project.CompilerOptions{}, nil, err
	}
	return opts, c.Files.Get(fileID), nil
}

func (c *Compiler) run(f *source.File, opts project.CompilerOptions) (string, *diag.Bag) {
	bag := diag.NewBag(c.maxDiagnostics())
	checker.Check(f.ID, f.Content, checker.Options{Strict: opts.Strict}, diag.BagReporter{Bag: bag})

	res := c.Engine.Transpile(engine.Request{File: f, Options: opts})
	for _, d := range res.Diagnostics {
		bag.Add(d)
	}
	return res.Code, bag
}

func (c *Compiler) maxDiagnostics() int {
	if c.MaxDiagnostics <= 0 {
		return 100
	}
	return c.MaxDiagnostics
}

func cacheKey(content string, opts project.CompilerOptions) project.Digest {
	fp := fmt.Sprintf("target=%s;jsx=%s;jsxFactory=%s;strict=%t", opts.Target, opts.JSX, opts.JSXFactory, opts.Strict)
	return project.Combine(project.HashBytes([]byte(content)), project.HashBytes([]byte(fp)))
}
