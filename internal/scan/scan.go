package scan

import (
	"typeload/internal/source"
)

// Scanner walks typed-source text skipping comments, strings and regex
// literals so that downstream passes only ever see structural tokens.
type Scanner struct {
	file     source.FileID
	src      string
	pos      int
	prev     Kind
	prevText string
}

func New(file source.FileID, src string) *Scanner {
	return &Scanner{file: file, src: src}
}

// All tokenizes the remaining input.
func (s *Scanner) All() []Token {
	var toks []Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

// Next returns the next token, or an EOF token at the end of input.
func (s *Scanner) Next() Token {
	s.skipTrivia()
	start := s.pos
	if s.pos >= len(s.src) {
		return s.emit(EOF, start)
	}

	c := s.src[s.pos]
	switch {
	case isIdentStart(c):
		s.pos++
		for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
			s.pos++
		}
		return s.emit(Ident, start)
	case c >= '0' && c <= '9':
		s.scanNumber()
		return s.emit(Number, start)
	case c == '"' || c == '\'':
		s.scanString(c)
		tok := s.emit(String, start)
		tok.Value = unquote(tok.Text)
		return tok
	case c == '`':
		s.scanTemplate()
		return s.emit(Template, start)
	case c == '/' && s.regexAllowed():
		s.scanRegex()
		return s.emit(Regex, start)
	default:
		s.pos++
		return s.emit(Punct, start)
	}
}

func (s *Scanner) emit(kind Kind, start int) Token {
	text := s.src[start:s.pos]
	tok := Token{
		Kind: kind,
		Text: text,
		Span: source.Span{File: s.file, Start: uint32(start), End: uint32(s.pos)},
	}
	s.prev = kind
	s.prevText = text
	return tok
}

func (s *Scanner) skipTrivia() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
			s.pos += 2
			for s.pos < len(s.src) {
				if s.src[s.pos] == '*' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/' {
					s.pos += 2
					break
				}
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *Scanner) scanNumber() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if isIdentPart(c) || c == '.' {
			s.pos++
			// exponent sign
			if (c == 'e' || c == 'E') && s.pos < len(s.src) && (s.src[s.pos] == '+' || s.src[s.pos] == '-') {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *Scanner) scanString(quote byte) {
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '\\' {
			s.pos += 2
			continue
		}
		s.pos++
		if c == quote || c == '\n' {
			return
		}
	}
}

// scanTemplate consumes a whole template literal including nested ${...}
// substitutions, so template braces never leak into depth tracking.
func (s *Scanner) scanTemplate() {
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			s.pos += 2
		case c == '`':
			s.pos++
			return
		case c == '$' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '{':
			s.pos += 2
			s.skipSubstitution()
		default:
			s.pos++
		}
	}
}

func (s *Scanner) skipSubstitution() {
	depth := 1
	for s.pos < len(s.src) && depth > 0 {
		c := s.src[s.pos]
		switch c {
		case '{':
			depth++
			s.pos++
		case '}':
			depth--
			s.pos++
		case '"', '\'':
			s.scanString(c)
		case '`':
			s.scanTemplate()
		default:
			s.pos++
		}
	}
}

func (s *Scanner) scanRegex() {
	s.pos++
	inClass := false
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			s.pos += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			s.pos++
			// flags
			for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
				s.pos++
			}
			return
		case c == '\n':
			return
		}
		s.pos++
	}
}

// regexAllowed decides whether a '/' starts a regex literal based on the
// previous token: after a value it is a division operator.
func (s *Scanner) regexAllowed() bool {
	switch s.prev {
	case Ident:
		// keywords like return/typeof still allow a regex
		switch s.prevText {
		case "return", "typeof", "instanceof", "in", "of", "new", "delete", "void", "do", "else", "case", "yield", "await":
			return true
		}
		return false
	case Number, String, Template, Regex:
		return false
	case Punct:
		switch s.prevText {
		case ")", "]", "}":
			return false
		}
		return true
	}
	return true
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func unquote(text string) string {
	if len(text) < 2 {
		return text
	}
	quote := text[0]
	body := text[1:]
	if body[len(body)-1] == quote {
		body = body[:len(body)-1]
	}
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			default:
				out = append(out, body[i])
			}
			continue
		}
		out = append(out, body[i])
	}
	return string(out)
}
