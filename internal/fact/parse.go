package fact

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SyntaxError reports a malformed symbol.
type SyntaxError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("fact syntax error at offset %d in %q: %s", e.Offset, e.Input, e.Msg)
}

// Parse reads a single fact. A trailing period and surrounding whitespace are
// accepted, so both solver output symbols and program statements parse.
func Parse(text string) (Fact, error) {
	p := &parser{src: text}
	p.skipSpace()
	t, err := p.term()
	if err != nil {
		return Fact{}, err
	}
	p.skipSpace()
	if p.peek() == '.' {
		p.pos++
		p.skipSpace()
	}
	if !p.eof() {
		return Fact{}, p.errorf("unexpected trailing input")
	}
	f, ok := FromTerm(t)
	if !ok {
		return Fact{}, p.errorf("%s term is not an atom", t.kind)
	}
	return f, nil
}

// MustParse is Parse for literals in tests and fixed program text.
func MustParse(text string) Fact {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseTerm reads a single term.
func ParseTerm(text string) (Term, error) {
	p := &parser{src: text}
	p.skipSpace()
	t, err := p.term()
	if err != nil {
		return Term{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Term{}, p.errorf("unexpected trailing input")
	}
	return t, nil
}

// ParseModel reads a whitespace separated list of symbols, the format clingo
// prints after an "Answer:" line.
func ParseModel(line string) ([]Fact, error) {
	p := &parser{src: line}
	var out []Fact
	for {
		p.skipSpace()
		if p.eof() {
			return out, nil
		}
		start := p.pos
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		f, ok := FromTerm(t)
		if !ok {
			return nil, &SyntaxError{Input: line, Offset: start, Msg: "model symbol is not an atom"}
		}
		out = append(out, f)
		if !p.eof() && !unicode.IsSpace(rune(p.peek())) {
			return nil, p.errorf("expected whitespace between symbols")
		}
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Input: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) term() (Term, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return Term{}, p.errorf("unexpected end of input")
	case c == '"':
		return p.str()
	case c == '#':
		return p.special()
	case c == '(':
		return p.tuple()
	case c == '-':
		p.pos++
		if isDigit(p.peek()) {
			n, err := p.number()
			return Number(-n), err
		}
		t, err := p.function()
		if err != nil {
			return Term{}, err
		}
		t.negative = true
		return t, nil
	case isDigit(c):
		n, err := p.number()
		return Number(n), err
	case isIdentStart(c):
		return p.function()
	default:
		return Term{}, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) number() (int, error) {
	start := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return 0, &SyntaxError{Input: p.src, Offset: start, Msg: err.Error()}
	}
	return n, nil
}

func (p *parser) str() (Term, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for {
		if p.eof() {
			return Term{}, p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '"':
			return String(sb.String()), nil
		case '\\':
			if p.eof() {
				return Term{}, p.errorf("unterminated escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case '\\', '"':
				sb.WriteByte(e)
			default:
				return Term{}, p.errorf("unknown escape \\%c", e)
			}
		default:
			sb.WriteByte(c)
		}
	}
}

func (p *parser) special() (Term, error) {
	switch {
	case strings.HasPrefix(p.src[p.pos:], "#inf"):
		p.pos += 4
		return Infimum(), nil
	case strings.HasPrefix(p.src[p.pos:], "#sup"):
		p.pos += 4
		return Supremum(), nil
	}
	return Term{}, p.errorf("unknown special symbol")
}

func (p *parser) tuple() (Term, error) {
	p.pos++ // (
	args, err := p.list(true)
	if err != nil {
		return Term{}, err
	}
	return Tuple(args...), nil
}

func (p *parser) function() (Term, error) {
	if !isIdentStart(p.peek()) {
		return Term{}, p.errorf("expected identifier")
	}
	start := p.pos
	for !p.eof() && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if p.peek() != '(' {
		return Function(name), nil
	}
	p.pos++
	args, err := p.list(false)
	if err != nil {
		return Term{}, err
	}
	return Function(name, args...), nil
}

// list parses comma separated terms up to the closing parenthesis, which has
// already been opened. Tuples may carry a trailing comma.
func (p *parser) list(tuple bool) ([]Term, error) {
	var args []Term
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if tuple && p.peek() == ')' {
				p.pos++
				return args, nil
			}
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') }

func isIdentPart(c byte) bool {
	return c == '_' || c == '\'' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
