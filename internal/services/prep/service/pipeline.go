package service

import (
	"context"

	perr "ligprep/internal/platform/errors"
	"ligprep/internal/platform/logger"
	ptime "ligprep/internal/platform/time"
	"ligprep/internal/services/prep/domain"
)

// Run executes the configured stage, or fetch, extract and split in order.
//
// With the "all" stage a non-empty split dir means the work is done: the run
// reports what is there and does nothing else. A stage that yields nothing
// usable halts the chain; Run then returns a StageEmpty error along with the
// summary so far. Per-item failures are never errors
func (s *Service) Run(ctx context.Context) (domain.RunSummary, error) {
	stage := s.Cfg.Stage
	if stage == "" {
		stage = domain.StageAll
	}
	sum := domain.RunSummary{RunID: s.newID(), Stage: stage, Started: s.now()}
	ctx = logger.WithRun(ctx, sum.RunID)
	log := logger.C(ctx)
	log.Info().
		Str("stage", string(stage)).
		Str("raw", s.Cfg.Paths.RawDir).
		Str("batches", s.Cfg.Paths.BatchDir).
		Str("split", s.Cfg.Paths.SplitDir).
		Msg("pipeline: starting")

	rec := s.openLedger(ctx, sum.RunID, stage, sum.Started)
	err := s.run(ctx, &sum, rec)

	sum.Finished = s.now()
	sum.Err = err
	sum.Status = statusOf(sum, err)
	rec.finish(ctx, sum, err)

	if s.Cfg.ReportDir != "" {
		if p, rerr := WriteReport(s.FS, s.Cfg.ReportDir, sum); rerr != nil {
			log.Warn().Err(rerr).Str("dir", s.Cfg.ReportDir).Msg("pipeline: report not written")
		} else {
			log.Info().Str("path", p).Msg("pipeline: report written")
		}
	}

	ev := log.Info()
	if sum.Status == domain.StatusError {
		ev = log.Error().Err(err)
	} else if sum.Status == domain.StatusHalted {
		ev = log.Warn().Err(err)
	}
	ev.Str("status", sum.Status).
		Int("molecules", sum.Molecules()).
		Int("tranches", sum.Tranches()).
		Str("elapsed", ptime.Human(sum.Elapsed())).
		Str("dest", s.Cfg.Paths.SplitDir).
		Msg("pipeline: finished")
	return sum, err
}

func (s *Service) run(ctx context.Context, sum *domain.RunSummary, rec *runLedger) error {
	p, w := s.Cfg.Paths, s.Cfg.Workers
	all := sum.Stage == domain.StageAll

	if all {
		st, err := s.SplitTreeState(p.SplitDir)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeIO, "pipeline: inspect %s", p.SplitDir)
		}
		if st.Exists {
			sum.Skipped, sum.Existing = true, st
			logger.C(ctx).Info().
				Int("molecules", st.Molecules).
				Int("tranches", st.Tranches).
				Str("dir", p.SplitDir).
				Msg("pipeline: split output already present; skipping fetch, extract and split")
			return nil
		}
	}

	if all || sum.Stage == domain.StageFetch {
		var res domain.FetchResult
		err := s.timed(ctx, sum, domain.StageFetch, func(ctx context.Context) (err error) {
			res, err = s.fetchAll(ctx, p.Manifest, p.RawDir, w.Fetch, rec)
			return err
		})
		sum.Fetch = &res
		if err != nil {
			return err
		}
		if res.Succeeded == 0 {
			return halt(sum, domain.StageFetch, "no archives downloaded")
		}
	}

	if all || sum.Stage == domain.StageExtract {
		var res domain.ExtractResult
		err := s.timed(ctx, sum, domain.StageExtract, func(ctx context.Context) (err error) {
			res, err = s.extractAll(ctx, p.RawDir, p.BatchDir, w.Extract, rec)
			return err
		})
		sum.Extract = &res
		if err != nil {
			return err
		}
		if res.Succeeded == 0 {
			return halt(sum, domain.StageExtract, "no archives extracted")
		}
	}

	if all || sum.Stage == domain.StageSplit {
		var res domain.SplitResult
		err := s.timed(ctx, sum, domain.StageSplit, func(ctx context.Context) (err error) {
			res, err = s.splitAll(ctx, p.BatchDir, p.SplitDir, w.Split, rec)
			return err
		})
		sum.Split = &res
		if err != nil {
			return err
		}
		if res.Molecules == 0 {
			return halt(sum, domain.StageSplit, "no molecules written")
		}
	}
	return nil
}

// timed runs fn under a stage-scoped logger and records its wall time
func (s *Service) timed(ctx context.Context, sum *domain.RunSummary, stage domain.Stage, fn func(context.Context) error) error {
	start := s.now()
	err := fn(logger.WithStage(ctx, string(stage)))
	d := s.now().Sub(start)
	sum.Timings = append(sum.Timings, domain.StageTiming{Stage: stage, Duration: d})
	logger.C(ctx).Debug().Str("stage", string(stage)).Dur("took", d).Msg("pipeline: stage timed")
	return err
}

func halt(sum *domain.RunSummary, stage domain.Stage, why string) error {
	sum.HaltedAt = stage
	return perr.StageEmptyf("pipeline halted after %s: %s", stage, why)
}

func statusOf(sum domain.RunSummary, err error) string {
	switch {
	case err == nil && sum.Skipped:
		return domain.StatusSkipped
	case err == nil:
		return domain.StatusOK
	case perr.IsCode(err, perr.ErrorCodeStageEmpty):
		return domain.StatusHalted
	default:
		return domain.StatusError
	}
}

