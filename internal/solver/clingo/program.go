package clingo

import (
	"fmt"
	"path/filepath"
	"strings"

	"seqplan/internal/fact"
)

// block is the text between two #program directives.
type block struct {
	name   string
	params []string
	body   string
}

// program is one loaded source split into blocks. includes holds the
// absolute paths of the files it #includes, in order.
type program struct {
	path     string
	blocks   []block
	consts   []constant
	includes []string
}

type constant struct {
	name  string
	value fact.Term
}

// parseProgram splits src at #program directives. Text before the first
// directive belongs to base. #const directives are collected and removed (they
// are passed to the binary with -c instead, so repeated instantiation cannot
// redefine them) and #include <incmode> is dropped because the step loop runs
// here. Quoted #include directives are removed from the text and recorded in
// includes, made absolute against the directory of path.
func parseProgram(path, src string) (program, error) {
	prog := program{path: path}
	cur := block{name: "base"}
	dir := filepath.Dir(path)

	var body strings.Builder
	flush := func() {
		cur.body = body.String()
		if strings.TrimSpace(cur.body) != "" || len(cur.params) > 0 || cur.name != "base" {
			prog.blocks = append(prog.blocks, cur)
		}
		body.Reset()
	}

	s := scanner{src: src}
	for !s.eof() {
		start := s.pos
		if !s.atDirective() {
			s.skipToken()
			body.WriteString(src[start:s.pos])
			continue
		}

		text, err := s.directive()
		if err != nil {
			return program{}, fmt.Errorf("%s: %w", path, err)
		}
		switch {
		case strings.HasPrefix(text, "#program"):
			name, params, err := parseProgramDirective(text)
			if err != nil {
				return program{}, fmt.Errorf("%s: %w", path, err)
			}
			flush()
			cur = block{name: name, params: params}
		case strings.HasPrefix(text, "#const"):
			c, err := parseConstDirective(text)
			if err != nil {
				return program{}, fmt.Errorf("%s: %w", path, err)
			}
			prog.consts = append(prog.consts, c)
		case strings.HasPrefix(text, "#include"):
			target := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "#include"), "."))
			switch {
			case target == "<incmode>":
			case strings.HasPrefix(target, `"`) && strings.HasSuffix(target, `"`):
				file := strings.Trim(target, `"`)
				if !filepath.IsAbs(file) {
					file = filepath.Join(dir, file)
				}
				prog.includes = append(prog.includes, filepath.Clean(file))
			default:
				body.WriteString(text)
			}
		default:
			body.WriteString(text)
		}
	}
	flush()
	return prog, nil
}

// parseProgramDirective reads "#program step(t)." into its name and params.
func parseProgramDirective(text string) (string, []string, error) {
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "#program"), "."))
	open := strings.IndexByte(inner, '(')
	if open < 0 {
		if !isIdent(inner) {
			return "", nil, fmt.Errorf("malformed directive %q", text)
		}
		return inner, nil, nil
	}
	if !strings.HasSuffix(inner, ")") {
		return "", nil, fmt.Errorf("malformed directive %q", text)
	}
	name := strings.TrimSpace(inner[:open])
	if !isIdent(name) {
		return "", nil, fmt.Errorf("malformed directive %q", text)
	}
	var params []string
	for _, p := range strings.Split(inner[open+1:len(inner)-1], ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !isIdent(p) {
			return "", nil, fmt.Errorf("malformed parameter %q in %q", p, text)
		}
		params = append(params, p)
	}
	return name, params, nil
}

// parseConstDirective reads "#const imax=20." or "#const istop=\"SAT\". [default]".
func parseConstDirective(text string) (constant, error) {
	inner := strings.TrimSpace(strings.TrimPrefix(text, "#const"))
	inner = strings.TrimSuffix(inner, ".")
	eq := strings.IndexByte(inner, '=')
	if eq < 0 {
		return constant{}, fmt.Errorf("malformed directive %q", text)
	}
	name := strings.TrimSpace(inner[:eq])
	if !isIdent(name) {
		return constant{}, fmt.Errorf("malformed constant name in %q", text)
	}
	value, err := fact.ParseTerm(strings.TrimSpace(inner[eq+1:]))
	if err != nil {
		return constant{}, fmt.Errorf("constant %s: %w", name, err)
	}
	return constant{name: name, value: value}, nil
}

// instantiate substitutes args for the block's parameters.
func (b block) instantiate(args []int) string {
	if len(b.params) == 0 {
		return b.body
	}
	subst := make(map[string]string, len(b.params))
	for i, p := range b.params {
		subst[p] = fmt.Sprint(args[i])
	}

	var out strings.Builder
	s := scanner{src: b.body}
	for !s.eof() {
		start := s.pos
		if isIdentStart(s.peek()) && (start == 0 || !isIdentPart(b.body[start-1]) && b.body[start-1] != '#') {
			for !s.eof() && isIdentPart(s.peek()) {
				s.pos++
			}
			tok := b.body[start:s.pos]
			if v, ok := subst[tok]; ok && !s.followedBy('(') {
				out.WriteString(v)
				continue
			}
			out.WriteString(tok)
			continue
		}
		s.skipToken()
		out.WriteString(b.body[start:s.pos])
	}
	return out.String()
}

// scanner walks program text, treating strings and comments as opaque tokens.
type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

// skipToken advances past one string, comment, identifier or single byte.
func (s *scanner) skipToken() {
	switch {
	case s.peek() == '"':
		s.pos++
		for !s.eof() {
			c := s.src[s.pos]
			s.pos++
			if c == '\\' && !s.eof() {
				s.pos++
				continue
			}
			if c == '"' {
				return
			}
		}
	case strings.HasPrefix(s.src[s.pos:], "%*"):
		end := strings.Index(s.src[s.pos+2:], "*%")
		if end < 0 {
			s.pos = len(s.src)
			return
		}
		s.pos += end + 4
	case s.peek() == '%':
		end := strings.IndexByte(s.src[s.pos:], '\n')
		if end < 0 {
			s.pos = len(s.src)
			return
		}
		s.pos += end
	case isIdentPart(s.peek()):
		for !s.eof() && isIdentPart(s.peek()) {
			s.pos++
		}
	default:
		s.pos++
	}
}

func (s *scanner) atDirective() bool {
	rest := s.src[s.pos:]
	return strings.HasPrefix(rest, "#program") || strings.HasPrefix(rest, "#const") || strings.HasPrefix(rest, "#include")
}

// directive consumes a directive up to its terminating period, plus an
// optional [default]/[override] annotation.
func (s *scanner) directive() (string, error) {
	start := s.pos
	for !s.eof() {
		switch c := s.peek(); {
		case c == '"' || c == '%':
			s.skipToken()
		case c == '.' && !s.followedByAt(s.pos+1, '.') && (s.pos == start || s.src[s.pos-1] != '.'):
			s.pos++
			text := s.src[start:s.pos]
			s.skipAnnotation()
			return text, nil
		default:
			s.pos++
		}
	}
	return "", fmt.Errorf("unterminated directive %q", strings.TrimSpace(s.src[start:]))
}

func (s *scanner) skipAnnotation() {
	i := s.pos
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t') {
		i++
	}
	for _, a := range []string{"[default]", "[override]"} {
		if strings.HasPrefix(s.src[i:], a) {
			s.pos = i + len(a)
			return
		}
	}
}

func (s *scanner) followedBy(c byte) bool {
	i := s.pos
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t') {
		i++
	}
	return i < len(s.src) && s.src[i] == c
}

func (s *scanner) followedByAt(i int, c byte) bool {
	return i < len(s.src) && s.src[i] == c
}

func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') }

func isIdentPart(c byte) bool {
	return c == '_' || c == '\'' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
