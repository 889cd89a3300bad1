// Package fact models the ground atoms exchanged with the solving engine.
// Printing follows clingo's symbol syntax exactly: facts re-injected into a
// later session must match what the solver itself would print, otherwise the
// encoding's pattern matching silently misses them.
package fact

import (
	"strconv"
	"strings"
)

// Kind discriminates the term variants.
type Kind uint8

const (
	KindNumber Kind = iota
	KindString
	KindFunction
	KindInfimum
	KindSupremum
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindInfimum:
		return "infimum"
	case KindSupremum:
		return "supremum"
	default:
		return "unknown"
	}
}

// Term is an immutable ground term. Tuples are functions with an empty name.
type Term struct {
	kind     Kind
	num      int
	name     string
	args     []Term
	negative bool
}

// Number returns an integer term.
func Number(n int) Term { return Term{kind: KindNumber, num: n} }

// String returns a string term.
func String(s string) Term { return Term{kind: KindString, name: s} }

// Function returns a function term name(args...).
func Function(name string, args ...Term) Term {
	return Term{kind: KindFunction, name: name, args: cloneTerms(args)}
}

// Negated returns the classically negated function term -name(args...).
func Negated(name string, args ...Term) Term {
	t := Function(name, args...)
	t.negative = true
	return t
}

// Tuple returns a tuple term (args...).
func Tuple(args ...Term) Term { return Function("", args...) }

// Infimum returns #inf.
func Infimum() Term { return Term{kind: KindInfimum} }

// Supremum returns #sup.
func Supremum() Term { return Term{kind: KindSupremum} }

func (t Term) Kind() Kind { return t.kind }

// Int returns the value of a number term and false for every other kind.
func (t Term) Int() (int, bool) {
	if t.kind != KindNumber {
		return 0, false
	}
	return t.num, true
}

// Str returns the unquoted value of a string term.
func (t Term) Str() (string, bool) {
	if t.kind != KindString {
		return "", false
	}
	return t.name, true
}

// Name returns the function name ("" for tuples and non-functions).
func (t Term) Name() string {
	if t.kind != KindFunction {
		return ""
	}
	return t.name
}

// Args returns a copy of the function arguments.
func (t Term) Args() []Term { return cloneTerms(t.args) }

func (t Term) Negative() bool { return t.negative }

// Equal compares two terms structurally.
func (t Term) Equal(o Term) bool {
	if t.kind != o.kind || t.num != o.num || t.name != o.name || t.negative != o.negative || len(t.args) != len(o.args) {
		return false
	}
	for i := range t.args {
		if !t.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// String prints the term the way clingo does.
func (t Term) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Term) write(sb *strings.Builder) {
	switch t.kind {
	case KindNumber:
		sb.WriteString(strconv.Itoa(t.num))
	case KindString:
		sb.WriteByte('"')
		sb.WriteString(quote(t.name))
		sb.WriteByte('"')
	case KindInfimum:
		sb.WriteString("#inf")
	case KindSupremum:
		sb.WriteString("#sup")
	case KindFunction:
		if t.negative {
			sb.WriteByte('-')
		}
		sb.WriteString(t.name)
		if len(t.args) == 0 && t.name != "" {
			return
		}
		sb.WriteByte('(')
		for i, a := range t.args {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.write(sb)
		}
		if t.name == "" && len(t.args) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	}
}

func quote(s string) string {
	if !strings.ContainsAny(s, "\\\"\n") {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func cloneTerms(ts []Term) []Term {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Term, len(ts))
	copy(out, ts)
	return out
}

// Fact is a named atom with ordered arguments, e.g. move(robot(1),(0,1),3).
type Fact struct {
	term Term
}

// New builds a fact. The name must be a valid clingo identifier.
func New(name string, args ...Term) Fact {
	return Fact{term: Function(name, args...)}
}

// FromTerm wraps a function term as a fact. Tuples and non-function terms are rejected.
func FromTerm(t Term) (Fact, bool) {
	if t.kind != KindFunction || t.name == "" {
		return Fact{}, false
	}
	return Fact{term: t}, true
}

func (f Fact) Name() string   { return f.term.name }
func (f Fact) Args() []Term   { return f.term.Args() }
func (f Fact) Arity() int     { return len(f.term.args) }
func (f Fact) Negative() bool { return f.term.negative }
func (f Fact) Term() Term     { return f.term }

// Arg returns the i-th argument.
func (f Fact) Arg(i int) (Term, bool) {
	if i < 0 || i >= len(f.term.args) {
		return Term{}, false
	}
	return f.term.args[i], true
}

func (f Fact) Equal(o Fact) bool { return f.term.Equal(o.term) }

// String prints the atom without a terminating period.
func (f Fact) String() string { return f.term.String() }

// Statement prints the atom as a program fact: "name(args).".
func (f Fact) Statement() string { return f.term.String() + "." }

// Names returns the fact names in order, mainly for logging.
func Names(facts []Fact) []string {
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = f.Name()
	}
	return out
}
