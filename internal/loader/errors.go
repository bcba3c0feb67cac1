package loader

import (
	"fmt"

	"typeload/internal/diag"
)

// CompilationError reports error-level diagnostics from the diagnostic
// pass or the transpile engine. It carries the full diagnostic bag.
type CompilationError struct {
	Path        string
	Diagnostics *diag.Bag
}

func (e *CompilationError) Error() string {
	n := 0
	first := ""
	for _, d := range e.Diagnostics.Items() {
		if d.Severity >= diag.SevError {
			if n == 0 {
				first = d.Message
			}
			n++
		}
	}
	if n == 1 {
		return fmt.Sprintf("%s: %s", e.Path, first)
	}
	return fmt.Sprintf("%s: %d errors, first: %s", e.Path, n, first)
}

// InvalidImportTypeError reports a module format the linker does not
// recognize. It is fatal and never retried.
type InvalidImportTypeError struct {
	Format Format
}

func (e *InvalidImportTypeError) Error() string {
	return fmt.Sprintf("invalid import type %q", e.Format)
}
