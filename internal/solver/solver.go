// Package solver defines the contract the planner needs from an incremental
// solving engine. Implementations live in sub-packages: clingo drives the
// clingo binary, solvertest provides a scripted session for tests.
package solver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"seqplan/internal/fact"
)

// Part names one program increment to ground, e.g. step(3).
type Part struct {
	Name string
	Args []int
}

func (p Part) String() string {
	if len(p.Args) == 0 {
		return p.Name
	}
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = strconv.Itoa(a)
	}
	return p.Name + "(" + strings.Join(args, ",") + ")"
}

// Result classifies a solve call.
type Result int

const (
	Unknown Result = iota
	Satisfiable
	Unsatisfiable
)

func (r Result) String() string {
	switch r {
	case Satisfiable:
		return "SAT"
	case Unsatisfiable:
		return "UNSAT"
	default:
		return "UNKNOWN"
	}
}

func (r Result) Satisfiable() bool   { return r == Satisfiable }
func (r Result) Unsatisfiable() bool { return r == Unsatisfiable }
func (r Result) Unknown() bool       { return r == Unknown }

// Model is one accepted solution.
type Model struct {
	Number int
	Facts  []fact.Fact
}

// Session is one incremental solving session. Calls block until the engine
// returns; a session is used by a single goroutine.
type Session interface {
	// Load registers program sources.
	Load(ctx context.Context, paths ...string) error
	// AddFact adds a ground fact to the base program before the first grounding.
	AddFact(text string) error
	// Ground materializes program increments.
	Ground(ctx context.Context, parts ...Part) error
	// AssignExternal fixes the truth value of an external atom.
	AssignExternal(atom fact.Fact, value bool) error
	// ReleaseExternal makes an external atom permanently false.
	ReleaseExternal(atom fact.Fact) error
	// Cleanup drops grounded material that can no longer matter.
	Cleanup(ctx context.Context) error
	// Solve searches the grounded program and streams every model to onModel.
	Solve(ctx context.Context, onModel func(Model) error) (Result, error)
	// Const returns a program constant such as imax.
	Const(name string) (fact.Term, bool)
	Close() error
}

// Factory opens a fresh session.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// Error is a fatal engine failure: a load, grounding or solve error. These
// indicate a malformed program/instance pairing and are never retried.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("solver %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error for op.
func Errorf(op, format string, args ...interface{}) *Error {
	return &Error{Op: op, Err: fmt.Errorf(format, args...)}
}
