// Package verify checks an assembled plan for robot collisions.
//
// The position/3 facts of robots in the plan are loaded into a Mangle store
// (shelves and other objects may share a cell with a robot) and two rules
// derive conflicts: two robots on the same cell at the same time
// (vertex), and two robots trading cells between one time step and the next
// (swap). Repeated init facts are reported as well, since the initial state
// must be asserted once.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"seqplan/internal/fact"
	"seqplan/internal/logging"
	"seqplan/internal/plan"
)

const (
	positionFact = "position"
	robotTerm    = "robot"
)

const rules = `
# position(Robot, Cell, Time), robot and cell in clingo notation.
Decl position(Robot, Cell, Time).
Decl vertex_conflict(R1, R2, Cell, Time).
Decl swap_conflict(R1, R2, Time).

vertex_conflict(R1, R2, C, T) :-
    position(R1, C, T),
    position(R2, C, T),
    R1 != R2.

swap_conflict(R1, R2, T0) :-
    position(R1, C1, T0),
    T = fn:plus(T0, 1),
    position(R1, C2, T),
    position(R2, C2, T0),
    position(R2, C1, T),
    R1 != R2,
    C1 != C2.
`

// Kind names a conflict type.
type Kind string

const (
	Vertex Kind = "vertex"
	Swap   Kind = "swap"
)

// Conflict is one collision between two robots. Cell is empty for swaps;
// Time is the earlier of the two steps for swaps.
type Conflict struct {
	Kind   Kind
	Robots [2]string
	Cell   string
	Time   int64
}

func (c Conflict) String() string {
	if c.Kind == Swap {
		return fmt.Sprintf("swap conflict: %s and %s trade cells between %d and %d", c.Robots[0], c.Robots[1], c.Time, c.Time+1)
	}
	return fmt.Sprintf("vertex conflict: %s and %s both at %s at %d", c.Robots[0], c.Robots[1], c.Cell, c.Time)
}

// Report is the outcome of Check.
type Report struct {
	Positions     int
	Conflicts     []Conflict
	DuplicateInit []fact.Fact
}

// OK reports whether the plan is free of conflicts.
func (r Report) OK() bool {
	return len(r.Conflicts) == 0 && len(r.DuplicateInit) == 0
}

// Err summarizes a failed report, or returns nil when it is OK.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, 0, len(r.Conflicts)+len(r.DuplicateInit))
	for _, c := range r.Conflicts {
		lines = append(lines, c.String())
	}
	for _, f := range r.DuplicateInit {
		lines = append(lines, "duplicate init: "+f.String())
	}
	return fmt.Errorf("plan has %d problems:\n  %s", len(lines), strings.Join(lines, "\n  "))
}

// Check evaluates the conflict rules over facts.
func Check(facts []fact.Fact) (Report, error) {
	timer := logging.StartTimer(logging.CategoryVerify, "plan verification")
	defer timer.Stop()

	unit, err := parse.Unit(strings.NewReader(rules))
	if err != nil {
		return Report{}, fmt.Errorf("parse conflict rules: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return Report{}, fmt.Errorf("analyze conflict rules: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	positionSym := decl(programInfo, positionFact)
	var report Report
	for _, f := range facts {
		atom, ok := positionAtom(positionSym, f)
		if !ok {
			continue
		}
		if store.Add(atom) {
			report.Positions++
		}
	}

	if _, err := engine.EvalProgramWithStats(programInfo, store); err != nil {
		return Report{}, fmt.Errorf("evaluate conflict rules: %w", err)
	}

	err = store.GetFacts(ast.NewQuery(decl(programInfo, "vertex_conflict")), func(a ast.Atom) error {
		r1, r2 := constString(a.Args[0]), constString(a.Args[1])
		if r1 < r2 {
			report.Conflicts = append(report.Conflicts, Conflict{Kind: Vertex, Robots: [2]string{r1, r2}, Cell: constString(a.Args[2]), Time: constNumber(a.Args[3])})
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	err = store.GetFacts(ast.NewQuery(decl(programInfo, "swap_conflict")), func(a ast.Atom) error {
		r1, r2 := constString(a.Args[0]), constString(a.Args[1])
		if r1 < r2 {
			report.Conflicts = append(report.Conflicts, Conflict{Kind: Swap, Robots: [2]string{r1, r2}, Time: constNumber(a.Args[2])})
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	sort.Slice(report.Conflicts, func(i, j int) bool {
		a, b := report.Conflicts[i], report.Conflicts[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Kind != b.Kind {
			return a.Kind > b.Kind
		}
		if a.Robots[0] != b.Robots[0] {
			return a.Robots[0] < b.Robots[0]
		}
		return a.Robots[1] < b.Robots[1]
	})

	report.DuplicateInit = duplicateInits(facts)
	logging.VerifyDebug("checked %d positions: %d conflicts, %d duplicate inits", report.Positions, len(report.Conflicts), len(report.DuplicateInit))
	return report, nil
}

func decl(programInfo *analysis.ProgramInfo, name string) ast.PredicateSym {
	for sym := range programInfo.Decls {
		if sym.Symbol == name {
			return sym
		}
	}
	return ast.PredicateSym{Symbol: name}
}

// positionAtom converts position(robot(R), Cell, Time) with a numeric time.
// Robot and cell become strings holding their clingo printing.
func positionAtom(sym ast.PredicateSym, f fact.Fact) (ast.Atom, bool) {
	if f.Name() != positionFact || f.Arity() != 3 || f.Negative() {
		return ast.Atom{}, false
	}
	args := f.Args()
	if r := args[0]; r.Kind() != fact.KindFunction || r.Name() != robotTerm || r.Negative() {
		return ast.Atom{}, false
	}
	t, ok := args[2].Int()
	if !ok {
		return ast.Atom{}, false
	}
	return ast.Atom{Predicate: sym, Args: []ast.BaseTerm{
		ast.String(args[0].String()),
		ast.String(args[1].String()),
		ast.Number(int64(t)),
	}}, true
}

func constString(t ast.BaseTerm) string {
	if c, ok := t.(ast.Constant); ok && c.Type == ast.StringType {
		return c.Symbol
	}
	return t.String()
}

func constNumber(t ast.BaseTerm) int64 {
	if c, ok := t.(ast.Constant); ok && c.Type == ast.NumberType {
		return c.NumValue
	}
	return 0
}

// duplicateInits returns every init fact that occurs more than once, in
// first-occurrence order.
func duplicateInits(facts []fact.Fact) []fact.Fact {
	seen := make(map[string]int)
	var dups []fact.Fact
	for _, f := range facts {
		if f.Name() != plan.InitFact {
			continue
		}
		key := f.String()
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, f)
		}
	}
	return dups
}
