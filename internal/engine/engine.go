// Package engine defines the contract between the loader and the
// type-check/transpile engine. The loader treats the engine as a black box:
// text goes in, executable text and diagnostics come out.
package engine

import (
	"typeload/internal/diag"
	"typeload/internal/project"
	"typeload/internal/source"
)

// MetaURLBinding is the wrapper parameter the engine rewrites
// `import.meta.url` into. The module builder stamps the module's canonical
// URL onto it at evaluation time.
const MetaURLBinding = "__tl_meta_url"

// Request is a single-file transform request.
type Request struct {
	File    *source.File
	Options project.CompilerOptions
}

// Result carries transpiled executable text plus any engine messages,
// already converted into loader diagnostics.
type Result struct {
	Code        string
	Diagnostics []diag.Diagnostic
}

// Engine turns typed-source text into executable text. A failed transform
// is reported through error-level diagnostics, not a Go error: the caller
// owns the failure policy.
type Engine interface {
	Transpile(req Request) Result
}
