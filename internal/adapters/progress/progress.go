// Package progress renders per-stage progress for interactive runs
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker receives one tick per finished item of a stage
type Tracker interface {
	Tick(ok bool)
	Close()
}

// Reporter starts a tracker per stage
type Reporter interface {
	Begin(stage string, total int) Tracker
}

// Nop discards progress
type Nop struct{}

// Begin implements Reporter
func (Nop) Begin(string, int) Tracker { return nopTracker{} }

type nopTracker struct{}

func (nopTracker) Tick(bool) {}
func (nopTracker) Close()    {}

// Bar draws a terminal progress bar per stage
type Bar struct {
	W io.Writer
}

// NewBar creates a bar reporter writing to w, or stderr when w is nil
func NewBar(w io.Writer) *Bar {
	if w == nil {
		w = os.Stderr
	}
	return &Bar{W: w}
}

// Begin implements Reporter
func (b *Bar) Begin(stage string, total int) Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.W),
		progressbar.OptionSetDescription(stage),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(b.W) }),
	)
	return &barTracker{bar: bar, stage: stage}
}

type barTracker struct {
	bar    *progressbar.ProgressBar
	stage  string
	failed int
}

func (t *barTracker) Tick(ok bool) {
	if !ok {
		t.failed++
		t.bar.Describe(fmt.Sprintf("%s (%d failed)", t.stage, t.failed))
	}
	_ = t.bar.Add(1)
}

func (t *barTracker) Close() { _ = t.bar.Finish() }

// For picks the bar reporter when enabled and Nop otherwise
func For(enabled bool, w io.Writer) Reporter {
	if enabled {
		return NewBar(w)
	}
	return Nop{}
}
