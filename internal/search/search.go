// Package search runs the incremental solving loop shared by sequential and
// parallel planning: ground one more time step, open its query window, solve,
// and repeat until the configured stop outcome is reached.
package search

import (
	"context"
	"fmt"

	"seqplan/internal/fact"
	"seqplan/internal/logging"
	"seqplan/internal/solver"
)

// Part and atom names used by the planning encodings.
const (
	PartBase  = "base"
	PartStep  = "step"
	PartCheck = "check"
	QueryAtom = "query"
)

// Bounds are the loop limits read from the program constants.
type Bounds struct {
	Min     int
	Max     int // only meaningful when HasMax
	HasMax  bool
	StopsOn solver.Result
}

// DefaultBounds apply when the program sets no constants: imin=0, no imax,
// istop="SAT".
func DefaultBounds() Bounds {
	return Bounds{StopsOn: solver.Satisfiable}
}

// ReadBounds reads imin, imax and istop from the session.
func ReadBounds(sess solver.Session) (Bounds, error) {
	b := DefaultBounds()
	if t, ok := sess.Const("imin"); ok {
		n, ok := t.Int()
		if !ok {
			return b, solver.Errorf("bounds", "imin must be a number, got %s", t)
		}
		b.Min = n
	}
	if t, ok := sess.Const("imax"); ok {
		n, ok := t.Int()
		if !ok {
			return b, solver.Errorf("bounds", "imax must be a number, got %s", t)
		}
		b.Max, b.HasMax = n, true
	}
	if t, ok := sess.Const("istop"); ok {
		s, ok := t.Str()
		if !ok {
			return b, solver.Errorf("bounds", "istop must be a string, got %s", t)
		}
		switch s {
		case "SAT":
			b.StopsOn = solver.Satisfiable
		case "UNSAT":
			b.StopsOn = solver.Unsatisfiable
		case "UNKNOWN":
			b.StopsOn = solver.Unknown
		default:
			return b, solver.Errorf("bounds", "istop must be SAT, UNSAT or UNKNOWN, got %q", s)
		}
	}
	return b, nil
}

// Outcome is where the loop stopped.
type Outcome struct {
	// Steps is the step counter after the last solve.
	Steps  int
	Result solver.Result
}

// Horizon is the index of the last solved step, i.e. the plan length.
func (o Outcome) Horizon() int { return o.Steps - 1 }

// ModelHandler receives every accepted model as the solver streams it.
type ModelHandler func(solver.Model) error

// Run drives sess until the stop condition holds. Step 0 always runs, so the
// stop check only ever looks at a result that exists.
func Run(ctx context.Context, sess solver.Session, onModel ModelHandler) (Outcome, error) {
	bounds, err := ReadBounds(sess)
	if err != nil {
		return Outcome{}, err
	}
	logging.SearchDebug("bounds: imin=%d imax=%v istop=%s", bounds.Min, maxString(bounds), bounds.StopsOn)

	var (
		step int
		ret  solver.Result
	)
	if bounds.HasMax && bounds.Max <= 0 {
		logging.Search("imax=%d leaves no step to solve", bounds.Max)
		return Outcome{Steps: step, Result: ret}, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{Steps: step, Result: ret}, err
		}

		parts := []solver.Part{{Name: PartCheck, Args: []int{step}}}
		if step > 0 {
			if err := sess.ReleaseExternal(Query(step - 1)); err != nil {
				return Outcome{Steps: step, Result: ret}, err
			}
			parts = append(parts, solver.Part{Name: PartStep, Args: []int{step}})
			if err := sess.Cleanup(ctx); err != nil {
				return Outcome{Steps: step, Result: ret}, err
			}
		} else {
			parts = append(parts, solver.Part{Name: PartBase})
		}
		if err := sess.Ground(ctx, parts...); err != nil {
			return Outcome{Steps: step, Result: ret}, err
		}
		if err := sess.AssignExternal(Query(step), true); err != nil {
			return Outcome{Steps: step, Result: ret}, err
		}

		ret, err = sess.Solve(ctx, onModel)
		if err != nil {
			return Outcome{Steps: step, Result: ret}, err
		}
		logging.SearchDebug("step %d: %s", step, ret)
		step++

		if bounds.done(step, ret) {
			return Outcome{Steps: step, Result: ret}, nil
		}
	}
}

// done is the negated loop condition, evaluated after at least one solve.
func (b Bounds) done(step int, ret solver.Result) bool {
	if b.HasMax && step >= b.Max {
		return true
	}
	return step >= b.Min && ret == b.StopsOn
}

// Query returns the step-control atom query(step).
func Query(step int) fact.Fact {
	return fact.New(QueryAtom, fact.Number(step))
}

func maxString(b Bounds) string {
	if !b.HasMax {
		return "none"
	}
	return fmt.Sprint(b.Max)
}
