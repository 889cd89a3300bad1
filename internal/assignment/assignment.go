// Package assignment reads the order-to-robot assignment that drives
// sequential planning.
package assignment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	integers   = regexp.MustCompile(`\d+`)
)

// ParseError reports an assignment line without a robot and an order id, or
// with a robot id that is not positive.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "expected robot and order ids"
	}
	return fmt.Sprintf("assignment line %d: %s in %q", e.Line, reason, e.Text)
}

// Table maps robot ids to the orders they process, in source order.
type Table struct {
	orders map[int][]int
}

// Parse reads lines shaped like assignOrder(robot(R),order(O)). and appends O
// to R's orders. Orders are neither sorted nor deduplicated.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{orders: make(map[int][]int)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		atom := strings.Trim(whitespace.ReplaceAllString(scanner.Text(), ""), ".")
		if atom == "" || strings.HasPrefix(atom, "%") {
			continue
		}

		ids := integers.FindAllString(atom, 2)
		if len(ids) < 2 {
			return nil, &ParseError{Line: lineNo, Text: scanner.Text()}
		}
		robot, err := strconv.Atoi(ids[0])
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: scanner.Text()}
		}
		if robot <= 0 {
			return nil, &ParseError{Line: lineNo, Text: scanner.Text(), Reason: "robot ids start at 1"}
		}
		order, err := strconv.Atoi(ids[1])
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: scanner.Text()}
		}
		t.orders[robot] = append(t.orders[robot], order)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read assignment: %w", err)
	}
	return t, nil
}

// Load parses the assignment file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open assignment: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// NumberRobots is the number of distinct robot ids.
func (t *Table) NumberRobots() int { return len(t.orders) }

// Robots returns the robot ids in ascending order, the order robots are planned in.
func (t *Table) Robots() []int {
	ids := make([]int, 0, len(t.orders))
	for id := range t.orders {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Orders returns a copy of the robot's orders.
func (t *Table) Orders(robot int) []int {
	orders := t.orders[robot]
	out := make([]int, len(orders))
	copy(out, orders)
	return out
}
