// Package plan holds the assembled plan: one segment of action facts per
// robot and a shared pool of every other fact.
package plan

import (
	"sort"

	"seqplan/internal/fact"
	"seqplan/internal/logging"
)

// InitFact is the name of initial-state facts, kept only from the first robot.
const InitFact = "init"

var actionKinds = map[string]bool{
	"position": true,
	"move":     true,
	"pickup":   true,
	"putdown":  true,
	"carries":  true,
}

// IsAction reports whether a fact belongs in a robot's plan segment.
func IsAction(f fact.Fact) bool { return actionKinds[f.Name()] }

// Classify splits one model of robot's session into its segment and the
// facts bound for the global plan. Init facts survive only when first is set,
// so the initial state is asserted once per run.
func Classify(facts []fact.Fact, first bool) (segment, global []fact.Fact) {
	dropped := 0
	for _, f := range facts {
		switch {
		case IsAction(f):
			segment = append(segment, f)
		case f.Name() == InitFact && !first:
			dropped++
		default:
			global = append(global, f)
		}
	}
	logging.PlanDebug("classified %d facts: %d segment, %d global, %d init dropped", len(facts), len(segment), len(global), dropped)
	return segment, global
}

// Store is an immutable snapshot of the plan. The With* methods return a new
// Store and leave the receiver untouched.
type Store struct {
	global   []fact.Fact
	segments map[int][]fact.Fact
}

// NewStore returns an empty store.
func NewStore() Store {
	return Store{segments: map[int][]fact.Fact{}}
}

// WithGlobal returns a store with facts appended to the global plan.
func (s Store) WithGlobal(facts ...fact.Fact) Store {
	if len(facts) == 0 {
		return s
	}
	global := make([]fact.Fact, 0, len(s.global)+len(facts))
	global = append(global, s.global...)
	global = append(global, facts...)
	return Store{global: global, segments: s.segments}
}

// WithSegment returns a store where robot's segment is replaced by facts.
func (s Store) WithSegment(robot int, facts []fact.Fact) Store {
	segments := make(map[int][]fact.Fact, len(s.segments)+1)
	for id, seg := range s.segments {
		segments[id] = seg
	}
	seg := make([]fact.Fact, len(facts))
	copy(seg, facts)
	segments[robot] = seg
	return Store{global: s.global, segments: segments}
}

// Global returns a copy of the global plan.
func (s Store) Global() []fact.Fact {
	out := make([]fact.Fact, len(s.global))
	copy(out, s.global)
	return out
}

// Segment returns a copy of robot's segment.
func (s Store) Segment(robot int) ([]fact.Fact, bool) {
	seg, ok := s.segments[robot]
	if !ok {
		return nil, false
	}
	out := make([]fact.Fact, len(seg))
	copy(out, seg)
	return out, true
}

// Robots returns the robots that own a segment, ascending.
func (s Store) Robots() []int {
	ids := make([]int, 0, len(s.segments))
	for id := range s.segments {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SegmentsBefore returns the segments of every robot below robot, in robot
// order, concatenated.
func (s Store) SegmentsBefore(robot int) []fact.Fact {
	var out []fact.Fact
	for _, id := range s.Robots() {
		if id >= robot {
			break
		}
		out = append(out, s.segments[id]...)
	}
	return out
}

// Merged is the final plan: the global plan followed by every segment in
// robot order.
func (s Store) Merged() []fact.Fact {
	out := s.Global()
	for _, id := range s.Robots() {
		out = append(out, s.segments[id]...)
	}
	return out
}
