// Package loader implements the resolution + transpilation + linking
// pipeline: given a module specifier and a referring module it decides the
// target's format, transpiles typed source in memory when needed, builds an
// in-memory module bound to the shared execution context, caches it, and
// links its dependencies before anything executes.
package loader

// Format classifies a resolved module reference.
type Format uint8

const (
	FormatUnknown Format = iota
	// FormatBuiltin is a Go-implemented native module reached through a
	// bare specifier.
	FormatBuiltin
	// FormatJS is a plain JavaScript module executed by the host's own
	// loader.
	FormatJS
	// FormatTS is a typed-source module that needs transpilation before
	// it can execute.
	FormatTS
)

func (f Format) String() string {
	switch f {
	case FormatBuiltin:
		return "builtin"
	case FormatJS:
		return "js"
	case FormatTS:
		return "typed-source"
	}
	return "unknown"
}

// TypedExtensions is the fixed ordered set of typed-source file extensions:
// plain and component-flavored.
var TypedExtensions = []string{".ts", ".tsx"}

// Ref is a resolved module reference.
type Ref struct {
	URL    string
	Format Format
}

// FallbackResolver is the host's default algorithm for bare specifiers.
type FallbackResolver func(specifier, referrerURL string) (Ref, error)
