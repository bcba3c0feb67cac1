// Package checker implements the diagnostic pass that runs before
// transpilation. It is a token-level pass: deep enough to catch literal
// initializers that contradict a primitive type annotation, shallow enough
// to stay off the hot path of module loading.
package checker

import (
	"fmt"

	"typeload/internal/diag"
	"typeload/internal/scan"
	"typeload/internal/source"
)

// Options controls which checks run.
type Options struct {
	// Strict enables the literal/annotation check. Off means the pass
	// reports nothing.
	Strict bool
}

// Check scans src for declarations of the form
//
//	let name: primitive = literal
//
// and reports an error when the literal's type contradicts the annotation.
// Diagnostics are emitted through r.
func Check(file source.FileID, src string, opts Options, r diag.Reporter) {
	if !opts.Strict {
		return
	}
	toks := scan.New(file, src).All()
	for i := 0; i+4 < len(toks); i++ {
		if !isDeclKeyword(toks[i]) {
			continue
		}
		name := toks[i+1]
		if name.Kind != scan.Ident {
			continue
		}
		j := i + 2
		// definite assignment assertion: let x!: number
		if toks[j].Kind == scan.Punct && toks[j].Text == "!" {
			j++
		}
		if j+2 >= len(toks) || toks[j].Kind != scan.Punct || toks[j].Text != ":" {
			continue
		}
		annot := toks[j+1]
		want, ok := primitiveType(annot)
		if !ok {
			continue
		}
		eq := toks[j+2]
		if eq.Kind != scan.Punct || eq.Text != "=" {
			// complex annotation or no initializer; out of scope
			continue
		}
		got, span, ok := literalType(toks, j+3)
		if !ok {
			continue
		}
		if got != want {
			r.Report(diag.CheckTypeMismatch, diag.SevError, span,
				fmt.Sprintf("type '%s' is not assignable to type '%s' in initializer of '%s'", got, want, name.Text),
				[]diag.Note{{Span: annot.Span, Msg: fmt.Sprintf("'%s' declared as '%s' here", name.Text, want)}})
		}
	}
}

func isDeclKeyword(t scan.Token) bool {
	if t.Kind != scan.Ident {
		return false
	}
	return t.Text == "let" || t.Text == "const" || t.Text == "var"
}

func primitiveType(t scan.Token) (string, bool) {
	if t.Kind != scan.Ident {
		return "", false
	}
	switch t.Text {
	case "number", "string", "boolean":
		return t.Text, true
	}
	return "", false
}

// literalType classifies the token(s) starting at i as a literal initializer.
// Anything that is not a plain literal (calls, identifiers, expressions with
// operators) is skipped rather than guessed at.
func literalType(toks []scan.Token, i int) (string, source.Span, bool) {
	t := at(toks, i)
	switch t.Kind {
	case scan.String, scan.Template:
		// `"x" + y` is an expression, not a string literal
		if isExprContinuation(at(toks, i+1)) {
			return "", source.Span{}, false
		}
		return "string", t.Span, true
	case scan.Number:
		if isExprContinuation(at(toks, i+1)) {
			return "", source.Span{}, false
		}
		return "number", t.Span, true
	case scan.Ident:
		if t.Text == "true" || t.Text == "false" {
			if isExprContinuation(at(toks, i+1)) {
				return "", source.Span{}, false
			}
			return "boolean", t.Span, true
		}
	case scan.Punct:
		if t.Text == "-" || t.Text == "+" {
			if num := at(toks, i+1); num.Kind == scan.Number && !isExprContinuation(at(toks, i+2)) {
				return "number", t.Span.Cover(num.Span), true
			}
		}
	}
	return "", source.Span{}, false
}

func isExprContinuation(t scan.Token) bool {
	if t.Kind != scan.Punct {
		return false
	}
	switch t.Text {
	case ";", ",", ")", "}", "]":
		return false
	}
	return true
}

func at(toks []scan.Token, i int) scan.Token {
	if i < 0 || i >= len(toks) {
		return scan.Token{Kind: scan.EOF}
	}
	return toks[i]
}
