// AngelaMos | 2026
// lexer.go

package importer

import (
	"fmt"
	"strings"
)

type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokQuotedIdent
	TokString
	TokNumber
	TokNull
	TokPunct
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "end of input"
	case TokIdent:
		return "identifier"
	case TokQuotedIdent:
		return "quoted identifier"
	case TokString:
		return "string"
	case TokNumber:
		return "number"
	case TokNull:
		return "NULL"
	case TokPunct:
		return "punctuation"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is one lexeme. For strings and quoted identifiers Text holds the
// unescaped contents.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Pos
}

func (t Token) Is(kind TokenKind, text string) bool {
	return t.Kind == kind && strings.EqualFold(t.Text, text)
}

// IsKeyword matches a bare identifier case-insensitively.
func (t Token) IsKeyword(word string) bool {
	return t.Is(TokIdent, word)
}

type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sql %s: %s", e.Pos, e.Msg)
}

type lexer struct {
	src  []rune
	i    int
	line int
	col  int
}

// Tokenize splits a SQL dump into tokens. Comments and whitespace are
// dropped. The last token is always TokEOF.
func Tokenize(src string) ([]Token, error) {
	lx := &lexer{src: []rune(src), line: 1, col: 1}
	var out []Token

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == TokEOF {
			return out, nil
		}
	}
}

func (lx *lexer) peek(off int) rune {
	if lx.i+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.i+off]
}

func (lx *lexer) advance() rune {
	r := lx.src[lx.i]
	lx.i++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) pos() Pos {
	return Pos{Line: lx.line, Col: lx.col}
}

func (lx *lexer) errorf(p Pos, format string, args ...any) error {
	return &SyntaxError{Pos: p, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) next() (Token, error) {
	if err := lx.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}

	start := lx.pos()
	if lx.i >= len(lx.src) {
		return Token{Kind: TokEOF, Pos: start}, nil
	}

	r := lx.peek(0)
	switch {
	case isIdentStart(r):
		return lx.ident(start), nil
	case isDigit(r) || (r == '.' && isDigit(lx.peek(1))):
		return lx.number(start), nil
	case r == '\'':
		text, err := lx.quoted('\'', true)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokString, Text: text, Pos: start}, nil
	case r == '"' || r == '`':
		text, err := lx.quoted(r, false)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokQuotedIdent, Text: text, Pos: start}, nil
	default:
		lx.advance()
		return Token{Kind: TokPunct, Text: string(r), Pos: start}, nil
	}
}

func (lx *lexer) skipSpaceAndComments() error {
	for lx.i < len(lx.src) {
		r := lx.peek(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f':
			lx.advance()
		case r == '-' && lx.peek(1) == '-', r == '#':
			for lx.i < len(lx.src) && lx.peek(0) != '\n' {
				lx.advance()
			}
		case r == '/' && lx.peek(1) == '*':
			start := lx.pos()
			lx.advance()
			lx.advance()
			for {
				if lx.i >= len(lx.src) {
					return lx.errorf(start, "unterminated block comment")
				}
				if lx.peek(0) == '*' && lx.peek(1) == '/' {
					lx.advance()
					lx.advance()
					break
				}
				lx.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (lx *lexer) ident(start Pos) Token {
	var b strings.Builder
	for lx.i < len(lx.src) && isIdentPart(lx.peek(0)) {
		b.WriteRune(lx.advance())
	}
	text := b.String()
	if strings.EqualFold(text, "null") {
		return Token{Kind: TokNull, Text: "NULL", Pos: start}
	}
	return Token{Kind: TokIdent, Text: text, Pos: start}
}

func (lx *lexer) number(start Pos) Token {
	var b strings.Builder
	seenDot := false
	for lx.i < len(lx.src) {
		r := lx.peek(0)
		switch {
		case isDigit(r):
			b.WriteRune(lx.advance())
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(lx.advance())
		case (r == 'e' || r == 'E') && (isDigit(lx.peek(1)) ||
			((lx.peek(1) == '+' || lx.peek(1) == '-') && isDigit(lx.peek(2)))):
			b.WriteRune(lx.advance())
			b.WriteRune(lx.advance())
		default:
			return Token{Kind: TokNumber, Text: b.String(), Pos: start}
		}
	}
	return Token{Kind: TokNumber, Text: b.String(), Pos: start}
}

// quoted reads a quoted run. A doubled quote is a literal quote; string
// literals also accept backslash escapes.
func (lx *lexer) quoted(q rune, backslash bool) (string, error) {
	start := lx.pos()
	lx.advance()

	var b strings.Builder
	for {
		if lx.i >= len(lx.src) {
			return "", lx.errorf(start, "unterminated %c quote", q)
		}
		r := lx.advance()

		switch {
		case r == q && lx.peek(0) == q && lx.i < len(lx.src):
			lx.advance()
			b.WriteRune(q)
		case r == q:
			return b.String(), nil
		case r == '\\' && backslash && lx.i < len(lx.src):
			b.WriteRune(unescape(lx.advance()))
		default:
			b.WriteRune(r)
		}
	}
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return r
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r) || r == '$'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
