// Package clingo runs solver sessions against the clingo binary.
//
// The binary has no incremental interface on the command line, so a Session
// keeps the incremental state itself: the loaded programs split into
// #program blocks, the base facts, every increment grounded so far, and the
// external atoms assigned true. Each Solve renders that state into one flat
// program (parameterized blocks instantiated textually, true externals as
// facts, released externals left false) and runs clingo on it, streaming the
// models it prints.
package clingo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"seqplan/internal/fact"
	"seqplan/internal/logging"
	"seqplan/internal/solver"
)

// Exit codes clingo reports at or above this value are failures (memory,
// error, syntax).
const exitFailure = 33

// maxStderr caps how much diagnostic output is kept for error messages.
const maxStderr = 64 << 10

// Options configure the clingo process.
type Options struct {
	Binary    string
	Args      []string
	Constants map[string]string
	Dir       string
}

// Factory opens clingo sessions that share Options.
type Factory struct {
	opts Options
}

// NewFactory returns a Factory. An empty binary defaults to "clingo".
func NewFactory(opts Options) *Factory {
	if opts.Binary == "" {
		opts.Binary = "clingo"
	}
	return &Factory{opts: opts}
}

func (f *Factory) NewSession(context.Context) (solver.Session, error) {
	return NewSession(f.opts)
}

// Session is a solver.Session backed by the clingo binary.
type Session struct {
	opts      Options
	overrides map[string]fact.Term

	programs []program
	included map[string]bool
	consts   map[string]fact.Term
	facts    []string
	grounded []solver.Part
	seen     map[string]bool
	external map[string]bool
	released map[string]bool
	solves   int
	closed   bool
}

var _ solver.Session = (*Session)(nil)

// NewSession validates the constant overrides and returns an empty session.
func NewSession(opts Options) (*Session, error) {
	if opts.Binary == "" {
		opts.Binary = "clingo"
	}
	overrides := make(map[string]fact.Term, len(opts.Constants))
	for name, raw := range opts.Constants {
		t, err := fact.ParseTerm(raw)
		if err != nil {
			return nil, solver.Errorf("configure", "constant %s=%q: %v", name, raw, err)
		}
		overrides[name] = t
	}
	return &Session{
		opts:      opts,
		overrides: overrides,
		included:  make(map[string]bool),
		consts:    make(map[string]fact.Term),
		seen:      make(map[string]bool),
		external:  make(map[string]bool),
		released:  make(map[string]bool),
	}, nil
}

func (s *Session) Load(_ context.Context, paths ...string) error {
	if s.closed {
		return solver.Errorf("load", "session closed")
	}
	for _, path := range paths {
		if err := s.load(path); err != nil {
			return &solver.Error{Op: "load", Err: err}
		}
	}
	return nil
}

// load reads path and, depth first, every file it includes. A file is read
// at most once per session, so include cycles terminate.
func (s *Session) load(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if s.included[abs] {
		logging.SolverDebug("skipping %s: already loaded", abs)
		return nil
	}
	s.included[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	prog, err := parseProgram(abs, string(data))
	if err != nil {
		return err
	}
	for _, c := range prog.consts {
		if _, ok := s.consts[c.name]; !ok {
			s.consts[c.name] = c.value
		}
	}
	s.programs = append(s.programs, prog)
	logging.SolverDebug("loaded %s: %d blocks, %d constants, %d includes", abs, len(prog.blocks), len(prog.consts), len(prog.includes))

	for _, inc := range prog.includes {
		if err := s.load(inc); err != nil {
			return fmt.Errorf("%s: include: %w", abs, err)
		}
	}
	return nil
}

func (s *Session) AddFact(text string) error {
	if len(s.grounded) > 0 {
		return solver.Errorf("add", "fact %q added after grounding", text)
	}
	f, err := fact.Parse(text)
	if err != nil {
		return &solver.Error{Op: "add", Err: err}
	}
	s.facts = append(s.facts, f.Statement())
	return nil
}

func (s *Session) Ground(_ context.Context, parts ...solver.Part) error {
	for _, p := range parts {
		if !s.hasBlock(p) && p.Name != "base" {
			logging.SolverDebug("no #program %s block with %d parameters; grounding nothing", p.Name, len(p.Args))
		}
		key := p.String()
		if s.seen[key] {
			continue
		}
		s.seen[key] = true
		s.grounded = append(s.grounded, p)
	}
	return nil
}

func (s *Session) hasBlock(p solver.Part) bool {
	for _, prog := range s.programs {
		for _, b := range prog.blocks {
			if b.name == p.Name && len(b.params) == len(p.Args) {
				return true
			}
		}
	}
	return false
}

func (s *Session) AssignExternal(atom fact.Fact, value bool) error {
	key := atom.String()
	if s.released[key] {
		logging.SolverDebug("ignoring assignment to released external %s", key)
		return nil
	}
	s.external[key] = value
	return nil
}

func (s *Session) ReleaseExternal(atom fact.Fact) error {
	key := atom.String()
	delete(s.external, key)
	s.released[key] = true
	return nil
}

// Cleanup is a no-op: every solve grounds from scratch in a fresh process.
func (s *Session) Cleanup(context.Context) error { return nil }

func (s *Session) Const(name string) (fact.Term, bool) {
	if t, ok := s.overrides[name]; ok {
		return t, true
	}
	t, ok := s.consts[name]
	return t, ok
}

func (s *Session) Close() error {
	s.closed = true
	return nil
}

// Program renders the flat program the next Solve will hand to clingo.
func (s *Session) Program() string {
	var sb strings.Builder
	for _, p := range s.grounded {
		for _, prog := range s.programs {
			for _, b := range prog.blocks {
				if b.name != p.Name || len(b.params) != len(p.Args) {
					continue
				}
				fmt.Fprintf(&sb, "%% %s: %s\n", prog.path, p)
				sb.WriteString(b.instantiate(p.Args))
				sb.WriteByte('\n')
			}
		}
		if p.Name == "base" && len(p.Args) == 0 {
			for _, f := range s.facts {
				sb.WriteString(f)
				sb.WriteByte('\n')
			}
		}
	}

	atoms := make([]string, 0, len(s.external))
	for atom, value := range s.external {
		if value {
			atoms = append(atoms, atom)
		}
	}
	sort.Strings(atoms)
	for _, atom := range atoms {
		sb.WriteString(atom)
		sb.WriteString(".\n")
	}
	return sb.String()
}

// arguments returns the command line: configured args, then every constant as
// -c name=value, then "-" to read the program from stdin.
func (s *Session) arguments() []string {
	args := append([]string(nil), s.opts.Args...)

	merged := make(map[string]fact.Term, len(s.consts)+len(s.overrides))
	for name, t := range s.consts {
		merged[name] = t
	}
	for name, t := range s.overrides {
		merged[name] = t
	}
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args = append(args, "-c", name+"="+merged[name].String())
	}
	return append(args, "-")
}

func (s *Session) Solve(ctx context.Context, onModel func(solver.Model) error) (solver.Result, error) {
	if s.closed {
		return solver.Unknown, solver.Errorf("solve", "session closed")
	}
	s.solves++
	timer := logging.StartTimer(logging.CategorySolver, fmt.Sprintf("clingo solve #%d", s.solves))
	defer timer.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.opts.Binary, s.arguments()...)
	cmd.Dir = s.opts.Dir
	cmd.Stdin = strings.NewReader(s.Program())

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return solver.Unknown, &solver.Error{Op: "solve", Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return solver.Unknown, &solver.Error{Op: "solve", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return solver.Unknown, &solver.Error{Op: "solve", Err: fmt.Errorf("start %s: %w", s.opts.Binary, err)}
	}

	var (
		out    output
		stderr bytes.Buffer
		g      errgroup.Group
	)
	g.Go(func() error {
		err := out.read(stdout, onModel)
		if err != nil {
			cancel()
			_, _ = io.Copy(io.Discard, stdout)
		}
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&limitedWriter{w: &stderr, n: maxStderr}, stderrPipe)
		return err
	})
	readErr := g.Wait()
	waitErr := cmd.Wait()

	if err := ctx.Err(); err != nil {
		return solver.Unknown, err
	}
	if readErr != nil {
		return solver.Unknown, readErr
	}

	code := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return solver.Unknown, &solver.Error{Op: "solve", Err: waitErr}
		}
		code = exitErr.ExitCode()
	}
	if code >= exitFailure || code < 0 {
		return solver.Unknown, solver.Errorf("solve", "clingo exited with code %d: %s", code, strings.TrimSpace(stderr.String()))
	}
	if !out.done {
		return solver.Unknown, solver.Errorf("solve", "clingo reported no result (exit code %d): %s", code, strings.TrimSpace(stderr.String()))
	}

	logging.SolverDebug("clingo solve #%d: %s after %d models (exit code %d)", s.solves, out.result, out.models, code)
	return out.result, nil
}

// output parses clingo's text output. Errors returned by onModel are passed
// through unchanged.
type output struct {
	result solver.Result
	done   bool
	models int
}

func (o *output) read(r io.Reader, onModel func(solver.Model) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64<<20)

	expectModel := false
	for sc.Scan() {
		line := sc.Text()
		if expectModel {
			expectModel = false
			facts, err := fact.ParseModel(line)
			if err != nil {
				return &solver.Error{Op: "solve", Err: fmt.Errorf("parse model %d: %w", o.models+1, err)}
			}
			o.models++
			if err := onModel(solver.Model{Number: o.models, Facts: facts}); err != nil {
				return err
			}
			continue
		}
		switch trimmed := strings.TrimSpace(line); {
		case strings.HasPrefix(trimmed, "Answer:"):
			expectModel = true
		case trimmed == "SATISFIABLE" || trimmed == "OPTIMUM FOUND":
			o.result, o.done = solver.Satisfiable, true
		case trimmed == "UNSATISFIABLE":
			o.result, o.done = solver.Unsatisfiable, true
		case trimmed == "UNKNOWN":
			o.result, o.done = solver.Unknown, true
		}
	}
	if err := sc.Err(); err != nil {
		return &solver.Error{Op: "solve", Err: err}
	}
	return nil
}

// limitedWriter keeps the first n bytes and discards the rest.
type limitedWriter struct {
	w io.Writer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n > 0 {
		keep := p
		if len(keep) > l.n {
			keep = keep[:l.n]
		}
		written, err := l.w.Write(keep)
		l.n -= written
		if err != nil {
			return written, err
		}
	}
	return len(p), nil
}
