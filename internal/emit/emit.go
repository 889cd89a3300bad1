// Package emit writes the assembled plan as clingo facts, one per line, and
// reads such files back.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"seqplan/internal/fact"
	"seqplan/internal/logging"
)

// Output file suffixes, appended to the instance path without its extension.
const (
	SequentialSuffix = "_plan.lp"
	ParallelSuffix   = "_plan_p.lp"
)

// OutputPath derives the plan file for instance: foo.lp -> foo_plan.lp, or
// foo_plan_p.lp for parallel plans.
func OutputPath(instance string, parallel bool) string {
	base := strings.TrimSuffix(instance, filepath.Ext(instance))
	if parallel {
		return base + ParallelSuffix
	}
	return base + SequentialSuffix
}

// Write prints every fact as a statement on its own line.
func Write(w io.Writer, facts []fact.Fact) error {
	bw := bufio.NewWriter(w)
	for _, f := range facts {
		if _, err := bw.WriteString(f.Statement()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile creates or truncates path and writes facts to it.
func WriteFile(path string, facts []fact.Fact) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plan file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close plan file: %w", cerr)
		}
	}()

	if err := Write(f, facts); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}
	logging.Emit("wrote %d facts to %s", len(facts), path)
	return nil
}

// Read parses a plan written by Write. Blank lines and % comments are skipped;
// any other line must hold exactly one fact.
func Read(r io.Reader) ([]fact.Fact, error) {
	var facts []fact.Fact
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		f, err := fact.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		facts = append(facts, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return facts, nil
}

// ReadFile reads the plan file at path.
func ReadFile(path string) ([]fact.Fact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan file: %w", err)
	}
	defer f.Close()

	facts, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return facts, nil
}
