// Package coordinator plans a robot fleet with one solver session per robot.
//
// Robots are solved one after another in ascending id order. Each session sees
// the robot's own orders, the plan length reached so far and every action
// committed by the robots before it, so later robots plan around earlier ones.
// The parallel variant solves the whole fleet in a single session.
package coordinator

import (
	"context"
	"fmt"

	"seqplan/internal/assignment"
	"seqplan/internal/fact"
	"seqplan/internal/logging"
	"seqplan/internal/plan"
	"seqplan/internal/search"
	"seqplan/internal/solver"
)

// Names of the facts injected into each robot's session.
const (
	planningFact   = "planning"
	processFact    = "process"
	planLengthFact = "planLength"
)

// Mode selects sequential or parallel planning.
type Mode string

const (
	Sequential Mode = "sequential"
	Parallel   Mode = "parallel"
)

// Coordinator opens solver sessions and drives them through the search loop.
type Coordinator struct {
	factory  solver.Factory
	encoding string
	instance string
}

// New returns a Coordinator that loads encoding and instance into every
// session it opens.
func New(factory solver.Factory, encoding, instance string) *Coordinator {
	return &Coordinator{factory: factory, encoding: encoding, instance: instance}
}

// Run is the state threaded from one robot to the next. It is a value: Step
// returns a new Run and never modifies the one it was given.
type Run struct {
	table   *assignment.Table
	store   plan.Store
	horizon int
	first   int
	solved  []int
}

// NewRun returns the state before any robot has been planned.
func NewRun(table *assignment.Table) Run {
	r := Run{table: table, store: plan.NewStore()}
	if robots := table.Robots(); len(robots) > 0 {
		r.first = robots[0]
	}
	return r
}

// Store returns the plan accumulated so far.
func (r Run) Store() plan.Store { return r.store }

// Horizon returns the longest plan length reached so far.
func (r Run) Horizon() int { return r.horizon }

// Solved returns the robots planned so far, in planning order.
func (r Run) Solved() []int {
	return append([]int(nil), r.solved...)
}

// Result is a finished planning run.
type Result struct {
	Mode Mode
	// Plan is the merged plan in output order.
	Plan  []fact.Fact
	Store plan.Store
	// Horizon is the plan length reported for benchmarks.
	Horizon int
	Robots  int
}

// Step plans robot on top of run.
func (c *Coordinator) Step(ctx context.Context, run Run, robot int) (Run, error) {
	orders := run.table.Orders(robot)
	if len(orders) == 0 {
		return run, fmt.Errorf("robot %d has no assigned orders", robot)
	}
	first := robot == run.first
	logging.CoordinatorDebug("robot %d: planning %d orders, plan length so far %d", robot, len(orders), run.horizon)

	sess, err := c.factory.NewSession(ctx)
	if err != nil {
		return run, fmt.Errorf("robot %d: %w", robot, err)
	}
	defer sess.Close()

	if err := sess.Load(ctx, c.encoding, c.instance); err != nil {
		return run, fmt.Errorf("robot %d: %w", robot, err)
	}
	for _, f := range sessionFacts(run, robot, orders) {
		if err := sess.AddFact(f.Statement()); err != nil {
			return run, fmt.Errorf("robot %d: %w", robot, err)
		}
	}

	var (
		store   = run.store
		segment []fact.Fact
		models  int
	)
	outcome, err := search.Run(ctx, sess, func(m solver.Model) error {
		seg, global := plan.Classify(m.Facts, first)
		segment = seg
		store = store.WithGlobal(global...)
		models++
		return nil
	})
	if err != nil {
		return run, fmt.Errorf("robot %d: %w", robot, err)
	}
	if models == 0 {
		logging.Get(logging.CategoryCoordinator).Warn("robot %d: no model after %d steps (%s); its segment is empty", robot, outcome.Steps, outcome.Result)
	}

	next := run
	next.store = store.WithSegment(robot, segment)
	if h := outcome.Horizon(); h > next.horizon {
		next.horizon = h
	}
	next.solved = append(run.Solved(), robot)
	logging.CoordinatorDebug("robot %d: %d segment facts, horizon %d: %v", robot, len(segment), next.horizon, fact.Names(segment))
	return next, nil
}

// sessionFacts are the facts every robot session starts from: who plans,
// which orders, the plan length so far, and the earlier robots' actions.
func sessionFacts(run Run, robot int, orders []int) []fact.Fact {
	facts := []fact.Fact{fact.New(planningFact, fact.Function("robot", fact.Number(robot)))}
	for _, o := range orders {
		facts = append(facts, fact.New(processFact, fact.Function("order", fact.Number(o))))
	}
	facts = append(facts, fact.New(planLengthFact, fact.Number(run.horizon)))
	return append(facts, run.store.SegmentsBefore(robot)...)
}

// Sequential plans every robot in table in ascending id order.
func (c *Coordinator) Sequential(ctx context.Context, table *assignment.Table) (Result, error) {
	timer := logging.StartTimer(logging.CategoryCoordinator, "sequential planning")
	defer timer.StopWithInfo()

	run := NewRun(table)
	for _, robot := range table.Robots() {
		var err error
		if run, err = c.Step(ctx, run, robot); err != nil {
			return Result{}, err
		}
	}
	logging.Coordinator("planned %d robots, plan length %d", table.NumberRobots(), run.horizon)
	return Result{
		Mode:    Sequential,
		Plan:    run.store.Merged(),
		Store:   run.store,
		Horizon: run.horizon,
		Robots:  table.NumberRobots(),
	}, nil
}

// Parallel solves the whole fleet in one session. Every streamed fact goes to
// the global plan. table only supplies the robot count and may be nil.
func (c *Coordinator) Parallel(ctx context.Context, table *assignment.Table) (Result, error) {
	timer := logging.StartTimer(logging.CategoryCoordinator, "parallel planning")
	defer timer.StopWithInfo()

	sess, err := c.factory.NewSession(ctx)
	if err != nil {
		return Result{}, err
	}
	defer sess.Close()

	if err := sess.Load(ctx, c.encoding, c.instance); err != nil {
		return Result{}, err
	}
	store := plan.NewStore()
	outcome, err := search.Run(ctx, sess, func(m solver.Model) error {
		store = store.WithGlobal(m.Facts...)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	logging.Coordinator("parallel plan length %d (%s)", outcome.Horizon(), outcome.Result)
	res := Result{
		Mode:    Parallel,
		Plan:    store.Merged(),
		Store:   store,
		Horizon: outcome.Horizon(),
	}
	if table != nil {
		res.Robots = table.NumberRobots()
	}
	return res, nil
}

// Plan runs the coordinator in mode. In parallel mode table is optional and
// only counts robots.
func (c *Coordinator) Plan(ctx context.Context, mode Mode, table *assignment.Table) (Result, error) {
	if mode == Parallel {
		return c.Parallel(ctx, table)
	}
	if table == nil {
		return Result{}, fmt.Errorf("sequential planning needs an order assignment")
	}
	return c.Sequential(ctx, table)
}
