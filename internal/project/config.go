package project

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// CompilerOptions is the [compiler] section of typeload.toml.
type CompilerOptions struct {
	// Target is the language level requested by the project. The merge
	// step clamps it to what the engine supports.
	Target string `toml:"target"`
	// JSX selects how component-flavored (.tsx) files are lowered:
	// "transform" (default) or "preserve".
	JSX string `toml:"jsx"`
	// JSXFactory overrides the call target for lowered JSX elements.
	JSXFactory string `toml:"jsx_factory"`
	// Strict enables the pre-transpile diagnostic pass.
	Strict bool `toml:"strict"`
	// TypesDirs lists ambient type declaration directories. The merge
	// step always clears this: per-file compilation stays hermetic.
	TypesDirs []string `toml:"types_dirs"`
}

type manifest struct {
	Compiler CompilerOptions `toml:"compiler"`
}

// DefaultOptions is what a project without a manifest compiles with.
func DefaultOptions() CompilerOptions {
	return CompilerOptions{
		Target: "es2020",
		JSX:    "transform",
		Strict: true,
	}
}

// LoadConfig reads compiler options for the project rooted at dir. A missing
// manifest yields the defaults; a malformed one is an error.
func LoadConfig(dir string) (CompilerOptions, error) {
	manifestPath, ok, err := FindManifest(dir)
	if err != nil {
		return CompilerOptions{}, err
	}
	if !ok {
		return DefaultOptions(), nil
	}
	var m manifest
	meta, err := toml.DecodeFile(manifestPath, &m)
	if err != nil {
		return CompilerOptions{}, fmt.Errorf("%s: failed to parse TOML: %w", manifestPath, err)
	}
	opts := m.Compiler
	if !meta.IsDefined("compiler", "target") || strings.TrimSpace(opts.Target) == "" {
		opts.Target = DefaultOptions().Target
	}
	if !meta.IsDefined("compiler", "jsx") || strings.TrimSpace(opts.JSX) == "" {
		opts.JSX = DefaultOptions().JSX
	}
	if !meta.IsDefined("compiler", "strict") {
		opts.Strict = DefaultOptions().Strict
	}
	return opts, nil
}

// engine-supported language levels, newest last
var supportedTargets = []string{"es2015", "es2016", "es2017", "es2018", "es2019", "es2020"}

// MergeOverrides applies the fixed output settings the runtime requires:
// the newest supported language target wins over anything newer, output is
// always CommonJS shaped (implied, not configurable), and ambient type-root
// discovery is disabled.
func MergeOverrides(opts CompilerOptions) CompilerOptions {
	opts.Target = clampTarget(opts.Target)
	opts.TypesDirs = nil
	return opts
}

func clampTarget(target string) string {
	target = strings.ToLower(strings.TrimSpace(target))
	newest := supportedTargets[len(supportedTargets)-1]
	i := sort.SearchStrings(supportedTargets, target)
	if i >= len(supportedTargets) || supportedTargets[i] != target {
		return newest
	}
	return target
}
