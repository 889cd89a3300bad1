package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqplan/internal/fact"
	"seqplan/internal/solver"
	"seqplan/internal/solver/solvertest"
)

func script(results ...solver.Result) []solvertest.Outcome {
	out := make([]solvertest.Outcome, len(results))
	for i, r := range results {
		out[i] = solvertest.Outcome{Result: r}
	}
	return out
}

func TestRunStopsOnFirstSatisfiableStep(t *testing.T) {
	sess := &solvertest.Session{
		Consts: map[string]fact.Term{
			"imin":  fact.Number(0),
			"imax":  fact.Number(5),
			"istop": fact.String("SAT"),
		},
		Script: script(solver.Unsatisfiable, solver.Unsatisfiable, solver.Unsatisfiable, solver.Satisfiable),
	}

	out, err := Run(context.Background(), sess, func(solver.Model) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, 4, out.Steps)
	assert.Equal(t, solver.Satisfiable, out.Result)
	assert.Equal(t, 3, out.Horizon())
	assert.Equal(t, 4, sess.Solves)
}

func TestRunGroundsAndTogglesQueryWindow(t *testing.T) {
	sess := &solvertest.Session{
		Script: script(solver.Unsatisfiable, solver.Unsatisfiable, solver.Satisfiable),
	}

	_, err := Run(context.Background(), sess, func(solver.Model) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, []solver.Part{
		{Name: PartCheck, Args: []int{0}}, {Name: PartBase},
		{Name: PartCheck, Args: []int{1}}, {Name: PartStep, Args: []int{1}},
		{Name: PartCheck, Args: []int{2}}, {Name: PartStep, Args: []int{2}},
	}, sess.Grounded)
	assert.Equal(t, []solvertest.Assignment{
		{Atom: "query(0)", Value: true},
		{Atom: "query(1)", Value: true},
		{Atom: "query(2)", Value: true},
	}, sess.Assigned)
	assert.Equal(t, []string{"query(0)", "query(1)"}, sess.Released)
	assert.Equal(t, 2, sess.Cleanups)
}

func TestRunHonoursImax(t *testing.T) {
	sess := &solvertest.Session{
		Consts: map[string]fact.Term{"imax": fact.Number(3)},
		Script: script(solver.Unsatisfiable),
	}

	out, err := Run(context.Background(), sess, func(solver.Model) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 3, out.Steps)
	assert.Equal(t, solver.Unsatisfiable, out.Result)
}

func TestRunHonoursImin(t *testing.T) {
	sess := &solvertest.Session{
		Consts: map[string]fact.Term{"imin": fact.Number(3)},
		Script: script(solver.Satisfiable),
	}

	out, err := Run(context.Background(), sess, func(solver.Model) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 3, out.Steps, "a satisfiable step before imin does not stop the loop")
}

func TestRunStepZeroAlwaysExecutes(t *testing.T) {
	sess := &solvertest.Session{
		Consts: map[string]fact.Term{"istop": fact.String("UNSAT")},
		Script: script(solver.Unsatisfiable),
	}

	out, err := Run(context.Background(), sess, func(solver.Model) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, out.Steps)
	assert.Equal(t, 1, sess.Solves)
}

func TestRunStopsOnUnknown(t *testing.T) {
	sess := &solvertest.Session{
		Consts: map[string]fact.Term{"istop": fact.String("UNKNOWN")},
		Script: script(solver.Satisfiable, solver.Unknown),
	}

	out, err := Run(context.Background(), sess, func(solver.Model) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, out.Steps)
	assert.Equal(t, solver.Unknown, out.Result)
}

func TestRunZeroImaxSolvesNothing(t *testing.T) {
	sess := &solvertest.Session{Consts: map[string]fact.Term{"imax": fact.Number(0)}}

	out, err := Run(context.Background(), sess, func(solver.Model) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 0, out.Steps)
	assert.Equal(t, -1, out.Horizon())
	assert.Zero(t, sess.Solves)
}

func TestRunStreamsModels(t *testing.T) {
	sess := &solvertest.Session{
		Script: []solvertest.Outcome{
			{Result: solver.Unsatisfiable},
			{Result: solver.Satisfiable, Models: [][]fact.Fact{
				solvertest.Facts("move(robot(1),(0,1),1)"),
				solvertest.Facts("move(robot(1),(1,0),1)"),
			}},
		},
	}

	var got []string
	_, err := Run(context.Background(), sess, func(m solver.Model) error {
		for _, f := range m.Facts {
			got = append(got, f.String())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"move(robot(1),(0,1),1)", "move(robot(1),(1,0),1)"}, got)
}

func TestRunPropagatesErrors(t *testing.T) {
	t.Run("ground", func(t *testing.T) {
		sess := &solvertest.Session{GroundErr: errors.New("bad program")}
		_, err := Run(context.Background(), sess, func(solver.Model) error { return nil })

		var solverErr *solver.Error
		require.ErrorAs(t, err, &solverErr)
		assert.Equal(t, "ground", solverErr.Op)
	})

	t.Run("handler", func(t *testing.T) {
		boom := errors.New("boom")
		sess := &solvertest.Session{Script: []solvertest.Outcome{
			{Result: solver.Satisfiable, Models: [][]fact.Fact{solvertest.Facts("a")}},
		}}
		_, err := Run(context.Background(), sess, func(solver.Model) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, &solvertest.Session{}, func(solver.Model) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReadBounds(t *testing.T) {
	tests := []struct {
		name    string
		consts  map[string]fact.Term
		want    Bounds
		wantErr bool
	}{
		{name: "defaults", want: Bounds{StopsOn: solver.Satisfiable}},
		{
			name:   "all set",
			consts: map[string]fact.Term{"imin": fact.Number(2), "imax": fact.Number(9), "istop": fact.String("UNSAT")},
			want:   Bounds{Min: 2, Max: 9, HasMax: true, StopsOn: solver.Unsatisfiable},
		},
		{name: "bad istop", consts: map[string]fact.Term{"istop": fact.String("MAYBE")}, wantErr: true},
		{name: "istop not a string", consts: map[string]fact.Term{"istop": fact.Function("sat")}, wantErr: true},
		{name: "imax not a number", consts: map[string]fact.Term{"imax": fact.String("9")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadBounds(&solvertest.Session{Consts: tt.consts})
			if tt.wantErr {
				var solverErr *solver.Error
				assert.ErrorAs(t, err, &solverErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
