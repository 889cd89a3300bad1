// Package solvertest provides a scripted solver.Session that records every
// call, for testing code that drives solver sessions.
package solvertest

import (
	"context"
	"fmt"
	"strings"

	"seqplan/internal/fact"
	"seqplan/internal/solver"
)

// Outcome scripts one Solve call.
type Outcome struct {
	Result solver.Result
	Models [][]fact.Fact
	Err    error
}

// Assignment records an AssignExternal call.
type Assignment struct {
	Atom  string
	Value bool
}

// Session is a fake solver.Session. Solve call i returns Script[i]; calls past
// the end of the script repeat the last entry, or return Unknown when the
// script is empty. SolveFunc, when set, takes precedence over Script.
type Session struct {
	Consts    map[string]fact.Term
	Script    []Outcome
	SolveFunc func(s *Session, call int) Outcome

	LoadErr   error
	AddErr    error
	GroundErr error

	Loaded   []string
	Facts    []string
	Grounded []solver.Part
	Assigned []Assignment
	Released []string
	Cleanups int
	Solves   int
	Closed   bool
}

var _ solver.Session = (*Session)(nil)

func (s *Session) Load(_ context.Context, paths ...string) error {
	if s.LoadErr != nil {
		return &solver.Error{Op: "load", Err: s.LoadErr}
	}
	s.Loaded = append(s.Loaded, paths...)
	return nil
}

func (s *Session) AddFact(text string) error {
	if s.AddErr != nil {
		return &solver.Error{Op: "add", Err: s.AddErr}
	}
	if len(s.Grounded) > 0 {
		return solver.Errorf("add", "fact %q added after grounding", text)
	}
	s.Facts = append(s.Facts, text)
	return nil
}

func (s *Session) Ground(_ context.Context, parts ...solver.Part) error {
	if s.GroundErr != nil {
		return &solver.Error{Op: "ground", Err: s.GroundErr}
	}
	s.Grounded = append(s.Grounded, parts...)
	return nil
}

func (s *Session) AssignExternal(atom fact.Fact, value bool) error {
	s.Assigned = append(s.Assigned, Assignment{Atom: atom.String(), Value: value})
	return nil
}

func (s *Session) ReleaseExternal(atom fact.Fact) error {
	s.Released = append(s.Released, atom.String())
	return nil
}

func (s *Session) Cleanup(context.Context) error {
	s.Cleanups++
	return nil
}

func (s *Session) Solve(ctx context.Context, onModel func(solver.Model) error) (solver.Result, error) {
	if err := ctx.Err(); err != nil {
		return solver.Unknown, err
	}
	call := s.Solves
	s.Solves++

	var out Outcome
	switch {
	case s.SolveFunc != nil:
		out = s.SolveFunc(s, call)
	case call < len(s.Script):
		out = s.Script[call]
	case len(s.Script) > 0:
		out = s.Script[len(s.Script)-1]
	default:
		out = Outcome{Result: solver.Unknown}
	}
	if out.Err != nil {
		return solver.Unknown, &solver.Error{Op: "solve", Err: out.Err}
	}
	for i, m := range out.Models {
		if err := onModel(solver.Model{Number: i + 1, Facts: m}); err != nil {
			return solver.Unknown, err
		}
	}
	return out.Result, nil
}

func (s *Session) Const(name string) (fact.Term, bool) {
	t, ok := s.Consts[name]
	return t, ok
}

func (s *Session) Close() error {
	s.Closed = true
	return nil
}

// HasFact reports whether text was added, ignoring a trailing period.
func (s *Session) HasFact(text string) bool {
	want := strings.TrimSuffix(text, ".")
	for _, f := range s.Facts {
		if strings.TrimSuffix(f, ".") == want {
			return true
		}
	}
	return false
}

// Factory hands out sessions built by New and keeps them for inspection.
type Factory struct {
	New      func(index int) *Session
	Sessions []*Session
	Err      error
}

var _ solver.Factory = (*Factory)(nil)

func (f *Factory) NewSession(context.Context) (solver.Session, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var s *Session
	if f.New != nil {
		s = f.New(len(f.Sessions))
	}
	if s == nil {
		s = &Session{}
	}
	f.Sessions = append(f.Sessions, s)
	return s, nil
}

// Facts parses fact literals, panicking on bad input.
func Facts(texts ...string) []fact.Fact {
	out := make([]fact.Fact, len(texts))
	for i, t := range texts {
		f, err := fact.Parse(t)
		if err != nil {
			panic(fmt.Sprintf("solvertest: %v", err))
		}
		out[i] = f
	}
	return out
}
