package assignment

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	src := "assignOrder(robot(1),order(5)).\nassignOrder(robot(2),order(7)).\n"

	table, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 2, table.NumberRobots())
	assert.Equal(t, []int{1, 2}, table.Robots())
	assert.Equal(t, []int{5}, table.Orders(1))
	assert.Equal(t, []int{7}, table.Orders(2))
}

func TestParsePreservesSourceOrder(t *testing.T) {
	src := `assignment( robot(2), order(9) ).
assignment(robot(1),order(3))
assignment(robot(2), order(4)).
assignment(robot(2), order(9)).
assignment(robot(1), order(1)) .
`
	table, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 2, table.NumberRobots())
	assert.Equal(t, []int{3, 1}, table.Orders(1))
	assert.Equal(t, []int{9, 4, 9}, table.Orders(2), "orders are neither sorted nor deduplicated")
}

func TestParseNonContiguousRobots(t *testing.T) {
	src := "assignOrder(robot(7),order(1)).\nassignOrder(robot(3),order(2)).\n"

	table, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, table.Robots())
}

func TestParseSkipsBlankAndCommentLines(t *testing.T) {
	src := "\n% generated assignment\nassignOrder(robot(1),order(5)).\n   \n"

	table, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 1, table.NumberRobots())
}

func TestParseRejectsLineWithOneInteger(t *testing.T) {
	src := "assignOrder(robot(1),order(5)).\nassignOrder(robot(2),order(x)).\n"

	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 2, parseErr.Line)
}

func TestParseRejectsRobotZero(t *testing.T) {
	src := "assignOrder(robot(1),order(5)).\nassignOrder(robot(0),order(3)).\n"

	_, err := Parse(strings.NewReader(src))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
	assert.Contains(t, err.Error(), "robot ids start at 1")
}

func TestOrdersReturnsCopy(t *testing.T) {
	table, err := Parse(strings.NewReader("a(robot(1),order(5)).\n"))
	require.NoError(t, err)

	orders := table.Orders(1)
	orders[0] = 99
	assert.Equal(t, []int{5}, table.Orders(1))
	assert.Empty(t, table.Orders(42))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insto.lp")
	require.NoError(t, os.WriteFile(path, []byte("assignOrder(robot(1),order(2)).\n"), 0644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, table.Orders(1))

	_, err = Load(filepath.Join(dir, "missing.lp"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
