package scan

import (
	"typeload/internal/source"
)

// Kind classifies a scanned token. The scanner is deliberately coarse: it
// only distinguishes what the import extractor and the literal checker need.
type Kind uint8

const (
	EOF Kind = iota
	Ident
	String
	Number
	Template
	Regex
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "eof"
	case Ident:
		return "ident"
	case String:
		return "string"
	case Number:
		return "number"
	case Template:
		return "template"
	case Regex:
		return "regex"
	case Punct:
		return "punct"
	}
	return "unknown"
}

// Token is one lexical unit of a typed-source file.
type Token struct {
	Kind Kind
	// Text is the raw token text. For String tokens Value holds the
	// unquoted contents instead.
	Text  string
	Value string
	Span  source.Span
}
