// AngelaMos | 2026
// parser.go

package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carterperez-dev/streamflix/internal/core"
)

type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueWord
)

// Value is one literal from a VALUES tuple.
type Value struct {
	Kind ValueKind
	Text string
	Pos  Pos
}

func (v Value) IsNull() bool {
	return v.Kind == ValueNull
}

func (v Value) String() string {
	return v.Text
}

// OptString is nil for NULL and for an empty string.
func (v Value) OptString() *string {
	if v.IsNull() || strings.TrimSpace(v.Text) == "" {
		return nil
	}
	s := v.Text
	return &s
}

func (v Value) Int() (int, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("%s: expected integer, got NULL", v.Pos)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.Text))
	if err != nil {
		return 0, fmt.Errorf("%s: expected integer, got %q", v.Pos, v.Text)
	}
	return n, nil
}

func (v Value) OptInt() (*int, error) {
	if v.IsNull() {
		return nil, nil
	}
	n, err := v.Int()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (v Value) Float() (float64, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("%s: expected number, got NULL", v.Pos)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: expected number, got %q", v.Pos, v.Text)
	}
	return f, nil
}

func (v Value) Date() (core.Date, error) {
	if v.IsNull() {
		return core.Date{}, fmt.Errorf("%s: expected date, got NULL", v.Pos)
	}
	d, err := core.ParseDate(v.Text)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: expected date, got %q", v.Pos, v.Text)
	}
	return d, nil
}

func (v Value) OptDate() (*core.Date, error) {
	if v.IsNull() || v.Text == "" {
		return nil, nil
	}
	d, err := v.Date()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Insert is one INSERT statement. Columns is empty when the statement
// relies on table column order.
type Insert struct {
	Table   string
	Columns []string
	Rows    [][]Value
	Pos     Pos
}

type parser struct {
	toks []Token
	i    int
}

// ParseStatements collects the INSERT ... VALUES statements from a token
// stream. Any other statement is skipped up to its terminating semicolon.
func ParseStatements(toks []Token) ([]Insert, error) {
	p := &parser{toks: toks}
	var out []Insert

	for !p.at(TokEOF) {
		if p.cur().IsKeyword("insert") {
			ins, err := p.insert()
			if err != nil {
				return nil, err
			}
			out = append(out, ins)
			continue
		}
		p.skipStatement()
	}
	return out, nil
}

func (p *parser) cur() Token {
	if p.i >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[p.i]
}

func (p *parser) at(kind TokenKind) bool {
	return p.cur().Kind == kind
}

func (p *parser) atPunct(s string) bool {
	return p.cur().Is(TokPunct, s)
}

func (p *parser) advance() Token {
	t := p.cur()
	if p.i < len(p.toks) {
		p.i++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.cur().Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expectPunct(s string) error {
	if !p.atPunct(s) {
		return p.errorf("expected %q, found %s %q", s, p.cur().Kind, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *parser) expectKeyword(word string) error {
	if !p.cur().IsKeyword(word) {
		return p.errorf("expected %s, found %s %q", strings.ToUpper(word), p.cur().Kind, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *parser) skipStatement() {
	for !p.at(TokEOF) {
		if p.advance().Is(TokPunct, ";") {
			return
		}
	}
}

func (p *parser) name() (string, error) {
	t := p.cur()
	if t.Kind != TokIdent && t.Kind != TokQuotedIdent {
		return "", p.errorf("expected name, found %s %q", t.Kind, t.Text)
	}
	p.advance()
	return t.Text, nil
}

func (p *parser) insert() (Insert, error) {
	ins := Insert{Pos: p.cur().Pos}
	p.advance()

	for p.cur().IsKeyword("ignore") || p.cur().IsKeyword("low_priority") ||
		p.cur().IsKeyword("delayed") || p.cur().IsKeyword("high_priority") {
		p.advance()
	}

	if err := p.expectKeyword("into"); err != nil {
		return Insert{}, err
	}

	table, err := p.name()
	if err != nil {
		return Insert{}, err
	}
	for p.atPunct(".") {
		p.advance()
		if table, err = p.name(); err != nil {
			return Insert{}, err
		}
	}
	ins.Table = table

	if p.atPunct("(") {
		p.advance()
		for {
			col, err := p.name()
			if err != nil {
				return Insert{}, err
			}
			ins.Columns = append(ins.Columns, strings.ToLower(col))
			if p.atPunct(",") {
				p.advance()
				continue
			}
			if err := p.expectPunct(")"); err != nil {
				return Insert{}, err
			}
			break
		}
	}

	if !p.cur().IsKeyword("values") && !p.cur().IsKeyword("value") {
		return Insert{}, p.errorf("expected VALUES, found %s %q", p.cur().Kind, p.cur().Text)
	}
	p.advance()

	for {
		row, err := p.tuple()
		if err != nil {
			return Insert{}, err
		}
		if len(ins.Columns) > 0 && len(row) != len(ins.Columns) {
			return Insert{}, &SyntaxError{
				Pos: row[0].Pos,
				Msg: fmt.Sprintf("row has %d values, %s declares %d columns",
					len(row), ins.Table, len(ins.Columns)),
			}
		}
		ins.Rows = append(ins.Rows, row)

		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}

	// ON CONFLICT / ON DUPLICATE KEY clauses are accepted and ignored.
	if !p.atPunct(";") && !p.at(TokEOF) && !p.cur().IsKeyword("on") {
		return Insert{}, p.errorf("expected ; after VALUES, found %s %q", p.cur().Kind, p.cur().Text)
	}
	p.skipStatement()
	return ins, nil
}

func (p *parser) tuple() ([]Value, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var row []Value
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		row = append(row, v)

		if p.atPunct(",") {
			p.advance()
			continue
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return row, nil
	}
}

func (p *parser) value() (Value, error) {
	t := p.cur()
	switch {
	case t.Kind == TokString:
		p.advance()
		return Value{Kind: ValueString, Text: t.Text, Pos: t.Pos}, nil
	case t.Kind == TokNumber:
		p.advance()
		return Value{Kind: ValueNumber, Text: t.Text, Pos: t.Pos}, nil
	case t.Kind == TokNull:
		p.advance()
		return Value{Kind: ValueNull, Pos: t.Pos}, nil
	case t.Is(TokPunct, "-") || t.Is(TokPunct, "+"):
		p.advance()
		n := p.cur()
		if n.Kind != TokNumber {
			return Value{}, p.errorf("expected number after %q", t.Text)
		}
		p.advance()
		text := n.Text
		if t.Text == "-" {
			text = "-" + text
		}
		return Value{Kind: ValueNumber, Text: text, Pos: t.Pos}, nil
	case t.Kind == TokIdent:
		p.advance()
		return Value{Kind: ValueWord, Text: t.Text, Pos: t.Pos}, nil
	default:
		return Value{}, p.errorf("unexpected %s %q in VALUES", t.Kind, t.Text)
	}
}
