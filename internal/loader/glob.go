package loader

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobOptions scopes a glob pattern to a base directory.
type GlobOptions struct {
	BaseDir  string
	Absolute bool
}

// GlobFunc is the filesystem globbing collaborator used for extension-less
// specifier resolution.
type GlobFunc func(pattern string, opts GlobOptions) ([]string, error)

// Glob is the default GlobFunc, backed by doublestar (brace sets in
// patterns are required for the extension candidate search).
func Glob(pattern string, opts GlobOptions) ([]string, error) {
	full := pattern
	if opts.BaseDir != "" {
		full = filepath.Join(opts.BaseDir, pattern)
	}
	matches, err := doublestar.FilepathGlob(full)
	if err != nil {
		return nil, err
	}
	if !opts.Absolute {
		return matches, nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}
