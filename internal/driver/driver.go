// Package driver wires the loader pipeline together for the CLI: project
// tracking, the transpile engine, the shared execution context, the disk
// cache and the module cache all live for exactly one process.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"typeload/internal/engine"
	"typeload/internal/loader"
	"typeload/internal/project"
	"typeload/internal/runtime"
	"typeload/internal/source"
)

// Options configures a Driver.
type Options struct {
	// MaxDiagnostics caps diagnostics per file.
	MaxDiagnostics int
	// NoDiskCache disables the transpile-output cache.
	NoDiskCache bool
	// CacheDir overrides the disk cache location (tests).
	CacheDir string
	Logger   *log.Logger
	Stdout   io.Writer
}

// Driver owns the long-lived pipeline state.
type Driver struct {
	opts    Options
	log     *log.Logger
	files   *source.FileSet
	tracker *project.Tracker
	ctx     *runtime.Context
	loader  *loader.Loader
	dcache  *DiskCache
}

func New(opts Options) (*Driver, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}

	d := &Driver{
		opts:    opts,
		log:     opts.Logger,
		files:   source.NewFileSet(),
		tracker: &project.Tracker{},
		ctx:     runtime.NewContext(opts.Logger, opts.Stdout),
	}

	var cache loader.TranspileCache
	if !opts.NoDiskCache {
		var (
			dc  *DiskCache
			err error
		)
		if opts.CacheDir != "" {
			dc, err = OpenDiskCacheAt(opts.CacheDir)
		} else {
			dc, err = OpenDiskCache("typeload")
		}
		if err != nil {
			// degraded but functional: compile everything every time
			d.log.Debug("disk cache unavailable", "error", err)
		} else {
			d.dcache = dc
			cache = &transpileCache{disk: dc, log: d.log}
		}
	}

	d.loader = loader.New(loader.Options{
		Engine:         engine.NewESBuild(),
		Context:        d.ctx,
		Files:          d.files,
		Tracker:        d.tracker,
		Cache:          cache,
		MaxDiagnostics: opts.MaxDiagnostics,
	})
	return d, nil
}

// Loader exposes the orchestration core.
func (d *Driver) Loader() *loader.Loader {
	return d.loader
}

// Files returns the file set diagnostics render against.
func (d *Driver) Files() *source.FileSet {
	return d.files
}

// DiskCache returns the transpile-output cache, or nil when disabled.
func (d *Driver) DiskCache() *DiskCache {
	return d.dcache
}

// Run instantiates and executes the entry module. It is the single recovery
// boundary for resolution, build and link failures; evaluation errors also
// surface here because there is nobody above us.
func (d *Driver) Run(ctx context.Context, entryPath string) error {
	abs, err := filepath.Abs(entryPath)
	if err != nil {
		return fmt.Errorf("failed to resolve entry path: %w", err)
	}
	if !isTypedSourcePath(abs) {
		return fmt.Errorf("%s: entry file must be one of %v", entryPath, loader.TypedExtensions)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	url := loader.PathToFileURL(abs)
	d.log.Debug("instantiating entry module", "url", url)
	mod, err := d.loader.Instantiate(url)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.log.Debug("executing entry module", "url", url, "exports", len(mod.ExportNames))
	return mod.Execute()
}

func isTypedSourcePath(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range loader.TypedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
