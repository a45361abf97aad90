package service

import (
	"encoding/json"
	"math"
	"path/filepath"
	"time"

	perr "ligprep/internal/platform/errors"
	ptime "ligprep/internal/platform/time"
	"ligprep/internal/services/prep/domain"

	"github.com/spf13/afero"
)

// Report is the timing report written after a run
type Report struct {
	RunID        string                 `json:"run_id"`
	Stage        string                 `json:"stage"`
	Status       string                 `json:"status"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at"`
	TotalSeconds float64                `json:"total_seconds"`
	TotalHuman   string                 `json:"total_human"`
	Skipped      bool                   `json:"skipped,omitempty"`
	HaltedAt     string                 `json:"halted_at,omitempty"`
	Molecules    int                    `json:"molecules"`
	Tranches     int                    `json:"tranches"`
	Stages       []StageReport          `json:"stages"`
	Counts       map[string]StageCounts `json:"counts,omitempty"`
	Rate         *Rate                  `json:"rate,omitempty"`
	Error        *perr.Wire             `json:"error,omitempty"`
}

// StageReport is one stage's share of the run
type StageReport struct {
	Stage   string  `json:"stage"`
	Seconds float64 `json:"seconds"`
	Human   string  `json:"human"`
	Percent float64 `json:"percent_of_total"`
}

// StageCounts are the per-item outcomes of one stage
type StageCounts struct {
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

// Rate projects throughput from this run
type Rate struct {
	MoleculesPerMinute float64 `json:"molecules_per_minute"`
	Projected1M        string  `json:"estimated_time_for_1M_molecules"`
	Projected10M       string  `json:"estimated_time_for_10M_molecules"`
}

// BuildReport derives the report for sum
func BuildReport(sum domain.RunSummary) Report {
	total := sum.Elapsed()
	r := Report{
		RunID:        sum.RunID,
		Stage:        string(sum.Stage),
		Status:       sum.Status,
		StartedAt:    sum.Started.UTC(),
		FinishedAt:   sum.Finished.UTC(),
		TotalSeconds: round2(total.Seconds()),
		TotalHuman:   ptime.Human(total),
		Skipped:      sum.Skipped,
		HaltedAt:     string(sum.HaltedAt),
		Molecules:    sum.Molecules(),
		Tranches:     sum.Tranches(),
		Stages:       make([]StageReport, 0, len(sum.Timings)),
		Counts:       map[string]StageCounts{},
	}
	if sum.Err != nil {
		w := perr.WireFrom(sum.Err)
		r.Error = &w
	}
	for _, t := range sum.Timings {
		sr := StageReport{Stage: string(t.Stage), Seconds: round2(t.Duration.Seconds()), Human: ptime.Human(t.Duration)}
		if total > 0 {
			sr.Percent = round2(100 * float64(t.Duration) / float64(total))
		}
		r.Stages = append(r.Stages, sr)
	}
	if sum.Fetch != nil {
		r.Counts[string(domain.StageFetch)] = StageCounts{OK: sum.Fetch.Succeeded, Failed: sum.Fetch.Failed}
	}
	if sum.Extract != nil {
		r.Counts[string(domain.StageExtract)] = StageCounts{OK: sum.Extract.Succeeded, Failed: sum.Extract.Failed}
	}
	if sum.Split != nil {
		r.Counts[string(domain.StageSplit)] = StageCounts{OK: sum.Split.Molecules, Failed: sum.Split.FailedFiles}
	}
	if !sum.Skipped && sum.Split != nil && sum.Split.Molecules > 0 && total > 0 {
		perMin := float64(sum.Split.Molecules) / total.Minutes()
		r.Rate = &Rate{
			MoleculesPerMinute: round2(perMin),
			Projected1M:        ptime.Human(project(1_000_000, perMin)),
			Projected10M:       ptime.Human(project(10_000_000, perMin)),
		}
	}
	return r
}

// WriteReport writes BuildReport(sum) as dir/ligprep_<UTC start>.json and returns the path
func WriteReport(fsys afero.Fs, dir string, sum domain.RunSummary) (string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeIO, "report: mkdir %s", dir)
	}
	b, err := json.MarshalIndent(BuildReport(sum), "", "  ")
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "report: encode")
	}
	p := filepath.Join(dir, "ligprep_"+sum.Started.UTC().Format("20060102_150405")+".json")
	if err := afero.WriteFile(fsys, p, append(b, '\n'), 0o644); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeIO, "report: write %s", p)
	}
	return p, nil
}

func project(n int, perMin float64) time.Duration {
	ns := float64(n) / perMin * float64(time.Minute)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
