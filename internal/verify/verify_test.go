package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqplan/internal/fact"
)

func facts(texts ...string) []fact.Fact {
	out := make([]fact.Fact, len(texts))
	for i, t := range texts {
		out[i] = fact.MustParse(t)
	}
	return out
}

func TestCheckCleanPlan(t *testing.T) {
	report, err := Check(facts(
		"init(object(robot,1),value(at,(1,1)))",
		"position(robot(1),(1,1),0)",
		"position(robot(1),(1,2),1)",
		"position(robot(2),(3,3),0)",
		"position(robot(2),(3,2),1)",
		"move(robot(1),(0,1),1)",
	))
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Equal(t, 4, report.Positions)
}

func TestCheckVertexConflict(t *testing.T) {
	report, err := Check(facts(
		"position(robot(1),(1,1),0)",
		"position(robot(1),(2,1),1)",
		"position(robot(2),(3,1),0)",
		"position(robot(2),(2,1),1)",
	))
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Len(t, report.Conflicts, 1)

	c := report.Conflicts[0]
	assert.Equal(t, Vertex, c.Kind)
	assert.Equal(t, [2]string{"robot(1)", "robot(2)"}, c.Robots)
	assert.Equal(t, "(2,1)", c.Cell)
	assert.Equal(t, int64(1), c.Time)
	assert.Contains(t, report.Err().Error(), "vertex conflict")
}

func TestCheckSwapConflict(t *testing.T) {
	report, err := Check(facts(
		"position(robot(1),(1,1),2)",
		"position(robot(1),(2,1),3)",
		"position(robot(2),(2,1),2)",
		"position(robot(2),(1,1),3)",
	))
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, Swap, report.Conflicts[0].Kind)
	assert.Equal(t, int64(2), report.Conflicts[0].Time)
	assert.Equal(t, [2]string{"robot(1)", "robot(2)"}, report.Conflicts[0].Robots)
}

func TestCheckWaitingIsNotASwap(t *testing.T) {
	report, err := Check(facts(
		"position(robot(1),(1,1),0)",
		"position(robot(1),(1,1),1)",
		"position(robot(2),(2,1),0)",
		"position(robot(2),(2,1),1)",
	))
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
}

func TestCheckDuplicateInit(t *testing.T) {
	report, err := Check(facts(
		"init(object(robot,1),value(at,(1,1)))",
		"init(object(node,1),value(at,(1,1)))",
		"init(object(robot,1),value(at,(1,1)))",
		"init(object(robot,1),value(at,(1,1)))",
	))
	require.NoError(t, err)
	assert.False(t, report.OK())
	require.Len(t, report.DuplicateInit, 1)
	assert.Equal(t, "init(object(robot,1),value(at,(1,1)))", report.DuplicateInit[0].String())
}

func TestCheckIgnoresOtherShapes(t *testing.T) {
	report, err := Check(facts(
		"position(robot(1),(1,1))",
		"position(robot(1),(1,1),t)",
		"-position(robot(1),(1,1),0)",
	))
	require.NoError(t, err)
	assert.Zero(t, report.Positions)
	assert.True(t, report.OK())
}

func TestCheckRobotUnderShelf(t *testing.T) {
	report, err := Check(facts(
		"position(robot(1),(1,1),0)",
		"position(shelf(3),(1,1),0)",
		"carries(robot(1),shelf(3),0)",
		"position(robot(1),(1,2),1)",
		"position(shelf(3),(1,2),1)",
		"position(shelf(4),(1,1),1)",
	))
	require.NoError(t, err)
	assert.True(t, report.OK(), "shelves never collide with robots: %v", report.Err())
	assert.Equal(t, 2, report.Positions)
}
