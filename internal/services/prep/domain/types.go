// Package domain holds the types and ports of the ligand prep pipeline
package domain

import (
	"strings"
	"time"

	perr "ligprep/internal/platform/errors"
)

// Stage selects which part of the pipeline runs
type Stage string

// Stages
const (
	StageAll     Stage = "all"
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageSplit   Stage = "split"
)

// Stages lists every accepted stage name
var Stages = []string{string(StageAll), string(StageFetch), string(StageExtract), string(StageSplit)}

// ParseStage accepts a stage name case-insensitively; "" means all
func ParseStage(s string) (Stage, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StageAll, nil
	}
	for _, v := range Stages {
		if s == v {
			return Stage(s), nil
		}
	}
	return "", perr.WithField(perr.InvalidArgf("unknown stage %q (want one of %s)", s, strings.Join(Stages, "|")), "stage")
}

// Paths are the on-disk locations the pipeline reads and writes
type Paths struct {
	Manifest string // list of archive urls
	RawDir   string // downloaded archives
	BatchDir string // decompressed multi-record files
	SplitDir string // tranche/<molecule>.pdbqt tree
}

// Workers sizes the per-stage pools
type Workers struct {
	Fetch   int
	Extract int
	Split   int
}

// FetchResult tallies one fetch stage
type FetchResult struct {
	Succeeded int
	Failed    int
	Failures  []string // manifest lines that failed
	Bytes     int64
}

// ExtractResult tallies one extract stage
type ExtractResult struct {
	Succeeded int
	Failed    int
	Failures  []string // archive names that failed
	Bytes     int64
}

// SplitResult tallies one split stage
type SplitResult struct {
	Molecules   int
	FailedFiles int
	Tranches    int
	Failures    []string // batch names that failed
}

// TreeState describes what an existing split tree already holds
type TreeState struct {
	Exists    bool // the split dir has at least one entry
	Molecules int  // .pdbqt files inside tranche dirs
	Tranches  int  // tranche dirs holding at least one .pdbqt
}

// StageTiming is the wall time spent in one stage
type StageTiming struct {
	Stage    Stage
	Duration time.Duration
}

// Outcome of a run, as recorded in the ledger
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusHalted  = "halted"
	StatusError   = "error"
)

// RunSummary is everything one pipeline run did
type RunSummary struct {
	RunID    string
	Stage    Stage
	Started  time.Time
	Finished time.Time
	Status   string

	Skipped  bool      // split tree already populated
	Existing TreeState // filled when Skipped
	HaltedAt Stage     // stage that produced nothing usable, "" otherwise
	Err      error     // why the run halted or failed

	Fetch   *FetchResult
	Extract *ExtractResult
	Split   *SplitResult
	Timings []StageTiming
}

// Elapsed is Finished minus Started
func (s RunSummary) Elapsed() time.Duration { return s.Finished.Sub(s.Started) }

// Molecules is the number of molecule files the run wrote, or found when it skipped
func (s RunSummary) Molecules() int {
	if s.Skipped {
		return s.Existing.Molecules
	}
	if s.Split != nil {
		return s.Split.Molecules
	}
	return 0
}

// Tranches is the number of tranche dirs written, or found when it skipped
func (s RunSummary) Tranches() int {
	if s.Skipped {
		return s.Existing.Tranches
	}
	if s.Split != nil {
		return s.Split.Tranches
	}
	return 0
}

// ItemOutcome is one attempted work item
type ItemOutcome struct {
	Stage Stage
	Item  string
	Err   error
}

// RunFinish is the final row state for a run
type RunFinish struct {
	Status    string
	Molecules int
	Tranches  int
	ErrText   string
}
