package scan

import (
	"typeload/internal/source"
)

// Import is one static dependency of a module.
type Import struct {
	Specifier string
	Span      source.Span
}

// Result describes the module shape of a typed-source file: its static
// import specifiers and the export names its body will populate.
type Result struct {
	Imports []Import
	Exports []string
}

// File extracts the module shape from src. Dynamic import() calls and
// type-only imports/exports are intentionally excluded: the former are
// resolved on demand at evaluation time, the latter are erased by the
// transpiler and never reach the runtime.
func File(file source.FileID, src string) Result {
	toks := New(file, src).All()
	var res Result
	depth := 0
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.Kind == Punct {
			switch tok.Text {
			case "{", "(", "[":
				depth++
			case "}", ")", "]":
				if depth > 0 {
					depth--
				}
			}
			continue
		}
		if depth != 0 || tok.Kind != Ident {
			continue
		}
		switch tok.Text {
		case "import":
			i = parseImport(toks, i, &res)
		case "export":
			i = parseExport(toks, i, &res)
		}
	}
	return res
}

// parseImport handles `import "x"`, `import d from "x"`,
// `import {a, b as c} from "x"` and `import * as ns from "x"`.
// Returns the index of the last consumed token.
func parseImport(toks []Token, i int, res *Result) int {
	next := at(toks, i+1)
	switch {
	case next.Kind == String:
		res.Imports = append(res.Imports, Import{Specifier: next.Value, Span: next.Span})
		return i + 1
	case next.Kind == Punct && next.Text == "(":
		// dynamic import, not a static edge
		return i
	case next.Kind == Ident && next.Text == "type":
		// type-only import, erased by the transpiler
		return skipToFrom(toks, i+1)
	}
	end := i
	for j := i + 1; j < len(toks); j++ {
		t := toks[j]
		if t.Kind == Ident && t.Text == "from" {
			spec := at(toks, j+1)
			if spec.Kind == String {
				res.Imports = append(res.Imports, Import{Specifier: spec.Value, Span: spec.Span})
				return j + 1
			}
			return j
		}
		if isStatementBreak(t) {
			return end
		}
		end = j
	}
	return end
}

// parseExport records export names and re-export dependencies.
func parseExport(toks []Token, i int, res *Result) int {
	next := at(toks, i+1)
	if next.Kind == Punct {
		switch next.Text {
		case "{":
			return parseExportClause(toks, i+1, res)
		case "*":
			return parseExportStar(toks, i+1, res)
		}
		return i
	}
	if next.Kind != Ident {
		return i
	}
	switch next.Text {
	case "default":
		res.Exports = append(res.Exports, "default")
		return i + 1
	case "type", "interface":
		// erased declarations export nothing at runtime
		return skipToFrom(toks, i+1)
	case "async":
		if at(toks, i+2).Text == "function" {
			if name := at(toks, i+3); name.Kind == Ident {
				res.Exports = append(res.Exports, name.Text)
			}
			return i + 3
		}
		return i + 1
	case "function", "class", "enum":
		if name := at(toks, i+2); name.Kind == Ident {
			res.Exports = append(res.Exports, name.Text)
		}
		return i + 2
	case "const", "let", "var":
		name := at(toks, i+2)
		if name.Kind == Ident && name.Text == "enum" {
			name = at(toks, i+3)
			if name.Kind == Ident {
				res.Exports = append(res.Exports, name.Text)
			}
			return i + 3
		}
		if name.Kind == Ident {
			res.Exports = append(res.Exports, name.Text)
		}
		return i + 2
	}
	return i
}

// parseExportClause handles `export {a, b as c}` optionally followed by
// `from "x"` (a re-export, which is also a static dependency).
func parseExportClause(toks []Token, i int, res *Result) int {
	var names []string
	j := i + 1
	for ; j < len(toks); j++ {
		t := toks[j]
		if t.Kind == Punct && t.Text == "}" {
			break
		}
		if t.Kind != Ident {
			continue
		}
		if t.Text == "as" {
			if alias := at(toks, j+1); alias.Kind == Ident {
				if len(names) > 0 {
					names[len(names)-1] = alias.Text
				}
				j++
			}
			continue
		}
		if at(toks, j-1).Text == "," || at(toks, j-1).Text == "{" {
			names = append(names, t.Text)
		}
	}
	res.Exports = append(res.Exports, names...)
	if at(toks, j+1).Text == "from" {
		if spec := at(toks, j+2); spec.Kind == String {
			res.Imports = append(res.Imports, Import{Specifier: spec.Value, Span: spec.Span})
			return j + 2
		}
	}
	return j
}

// parseExportStar handles `export * from "x"` and `export * as ns from "x"`.
func parseExportStar(toks []Token, i int, res *Result) int {
	j := i + 1
	if at(toks, j).Text == "as" {
		if alias := at(toks, j+1); alias.Kind == Ident {
			res.Exports = append(res.Exports, alias.Text)
		}
		j += 2
	}
	if at(toks, j).Text == "from" {
		if spec := at(toks, j+1); spec.Kind == String {
			res.Imports = append(res.Imports, Import{Specifier: spec.Value, Span: spec.Span})
			return j + 1
		}
	}
	return j - 1
}

// skipToFrom advances past a type-only statement without recording anything.
func skipToFrom(toks []Token, i int) int {
	for j := i; j < len(toks); j++ {
		t := toks[j]
		if t.Kind == Ident && t.Text == "from" {
			if at(toks, j+1).Kind == String {
				return j + 1
			}
			return j
		}
		if isStatementBreak(t) {
			return j - 1
		}
	}
	return len(toks) - 1
}

func isStatementBreak(t Token) bool {
	if t.Kind == EOF {
		return true
	}
	if t.Kind == Punct && t.Text == ";" {
		return true
	}
	if t.Kind == Ident && (t.Text == "import" || t.Text == "export") {
		return true
	}
	return false
}

func at(toks []Token, i int) Token {
	if i < 0 || i >= len(toks) {
		return Token{Kind: EOF}
	}
	return toks[i]
}
