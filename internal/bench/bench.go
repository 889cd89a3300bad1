// Package bench records benchmark results: wall-clock seconds and plan
// length appended to two text files, one value per line, and optionally a
// row per run in a sqlite history database.
package bench

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"seqplan/internal/logging"
)

// Sample is one measured planning run.
type Sample struct {
	Instance   string
	Mode       string
	Robots     int
	Elapsed    time.Duration
	PlanLength int
}

// Seconds formats the elapsed time the way the time file stores it.
func (s Sample) Seconds() string {
	return strconv.FormatFloat(s.Elapsed.Seconds(), 'f', -1, 64)
}

// Recorder appends samples to the time and length files.
type Recorder struct {
	TimeFile   string
	LengthFile string
	// History is optional.
	History *History
}

// Record appends s. Both files are created when missing.
func (r *Recorder) Record(s Sample) error {
	if err := appendLine(r.TimeFile, s.Seconds()); err != nil {
		return fmt.Errorf("record time: %w", err)
	}
	if err := appendLine(r.LengthFile, strconv.Itoa(s.PlanLength)); err != nil {
		return fmt.Errorf("record plan length: %w", err)
	}
	if r.History != nil {
		if _, err := r.History.Add(s); err != nil {
			return err
		}
	}
	logging.Bench("%s %s: %ss, plan length %d", s.Mode, s.Instance, s.Seconds(), s.PlanLength)
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
