package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"typeload/internal/diag"
	"typeload/internal/loader"
)

// CheckStatus describes a file's place in the check pipeline.
type CheckStatus uint8

const (
	StatusQueued CheckStatus = iota
	StatusChecking
	StatusDone
	StatusError
)

// CheckEvent reports per-file progress while a check runs.
type CheckEvent struct {
	File   string
	Status CheckStatus
}

// CheckResult holds every diagnostic collected for one file.
type CheckResult struct {
	Path string
	Bag  *diag.Bag
}

// ListTypedFiles returns the sorted typed-source files under dir.
func ListTypedFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range loader.TypedExtensions {
			if strings.HasSuffix(path, ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CheckDir diagnoses every typed-source file under dir in parallel, without
// linking or executing anything. Events, when non-nil, receives per-file
// progress and is closed before returning. Results come back in the same
// sorted order files were discovered in.
func (d *Driver) CheckDir(ctx context.Context, dir string, jobs int, events chan<- CheckEvent) ([]CheckResult, error) {
	if events != nil {
		defer close(events)
	}

	files, err := ListTypedFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	// Preload sequentially: the file set is not safe for concurrent
	// inserts, and read failures become diagnostics rather than aborts.
	// After this loop the workers only hit the already-registered paths.
	loadErrors := make(map[string]error, len(files))
	absPaths := make([]string, len(files))
	for i, path := range files {
		abs, err := filepath.Abs(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		absPaths[i] = abs
		if _, err := d.files.Load(abs); err != nil {
			loadErrors[path] = err
		}
		if events != nil {
			events <- CheckEvent{File: path, Status: StatusQueued}
		}
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	compiler := d.loader.Compiler()
	results := make([]CheckResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if events != nil {
				events <- CheckEvent{File: path, Status: StatusChecking}
			}

			bag := d.diagnoseOne(compiler, absPaths[i], loadErrors[path])
			// each worker owns a unique index, no mutex needed
			results[i] = CheckResult{Path: path, Bag: bag}

			status := StatusDone
			if bag.HasErrors() {
				status = StatusError
			}
			if events != nil {
				events <- CheckEvent{File: path, Status: status}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Driver) diagnoseOne(compiler *loader.Compiler, absPath string, loadErr error) *diag.Bag {
	if loadErr == nil {
		bag, err := compiler.Diagnose(absPath)
		if err == nil {
			return bag
		}
		loadErr = err
	}
	bag := diag.NewBag(d.opts.MaxDiagnostics)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.IOReadFileError,
		Message:  loadErr.Error(),
	})
	return bag
}
