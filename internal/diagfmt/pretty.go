// Package diagfmt renders diagnostics for humans and formats them into
// error values for the loader's failure path.
package diagfmt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"typeload/internal/diag"
	"typeload/internal/source"
)

// PrettyOpts controls rendering.
type PrettyOpts struct {
	Color bool
	// Context prints the offending source line with a caret underline.
	Context bool
}

type styles struct {
	path    lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
	caret   lipgloss.Style
	noteTag lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		return styles{}
	}
	return styles{
		path:    lipgloss.NewStyle().Bold(true),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		caret:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		noteTag: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

// Pretty renders every diagnostic in the bag as
//
//	<path>:<line>:<col>: SEV CODE: message
//
// followed by the source line and a caret underline when Context is on.
// The bag is expected to be sorted already.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	st := newStyles(opts.Color)
	for _, d := range bag.Items() {
		writeDiagnostic(w, d, fs, opts, st)
	}
}

func writeDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, st styles) {
	fmt.Fprintf(w, "%s %s %s: %s\n",
		st.path.Render(position(fs, d.Primary)+":"),
		sevStyle(st, d.Severity).Render(d.Severity.String()),
		d.Code.String(),
		d.Message,
	)
	if opts.Context {
		writeContext(w, fs, d.Primary, st)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(w, "  %s %s: %s\n", st.noteTag.Render("note:"), position(fs, n.Span), n.Msg)
	}
}

func writeContext(w io.Writer, fs *source.FileSet, span source.Span, st styles) {
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	line, col := f.LineCol(span.Start)
	text := f.Line(line)
	if text == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", text)

	prefix := text
	if int(col-1) <= len(text) {
		prefix = text[:col-1]
	}
	pad := strings.Repeat(" ", runewidth.StringWidth(prefix))
	width := int(span.Len())
	if width < 1 {
		width = 1
	}
	if max := len(text) - len(prefix); width > max && max > 0 {
		width = max
	}
	caret := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "  %s\n", st.caret.Render(pad+caret))
}

func position(fs *source.FileSet, span source.Span) string {
	f := fs.Get(span.File)
	if f == nil {
		return "<unknown>"
	}
	line, col := f.LineCol(span.Start)
	return fmt.Sprintf("%s:%d:%d", f.Path, line, col)
}

func sevStyle(st styles, sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SevError:
		return st.err
	case diag.SevWarning:
		return st.warn
	}
	return st.info
}

// Error folds a diagnostic bag into a single error value, one line per
// diagnostic. Returns nil when the bag holds no errors.
func Error(bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil || !bag.HasErrors() {
		return nil
	}
	var b strings.Builder
	Pretty(&b, bag, fs, PrettyOpts{Context: false})
	return errors.New(strings.TrimRight(b.String(), "\n"))
}
