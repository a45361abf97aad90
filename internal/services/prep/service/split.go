package service

import (
	"context"
	"path/filepath"

	"ligprep/internal/core/pdbqt"
	perr "ligprep/internal/platform/errors"
	"ligprep/internal/platform/listing"
	"ligprep/internal/platform/logger"
	"ligprep/internal/platform/workpool"
	"ligprep/internal/services/prep/domain"

	"github.com/spf13/afero"
)

// batchOut is what one batch contributed
type batchOut struct {
	molecules int
	tranche   string
}

// SplitAll writes every record of every batch in inputDir to
// outputDir/<tranche>/<name>.pdbqt. Batches run in parallel, records within
// a batch in order. A batch that fails midway counts in FailedFiles, and
// the records it wrote before failing stay on disk and still count in
// Molecules and Tranches
func (s *Service) SplitAll(ctx context.Context, inputDir, outputDir string, concurrency int) (domain.SplitResult, error) {
	return s.splitAll(ctx, inputDir, outputDir, concurrency, nil)
}

func (s *Service) splitAll(ctx context.Context, inputDir, outputDir string, concurrency int, rec *runLedger) (domain.SplitResult, error) {
	log := logger.C(ctx)
	var res domain.SplitResult

	entries, err := listing.List(s.FS, inputDir, listing.Suffix(pdbqt.Ext))
	if err != nil {
		return res, perr.Wrapf(err, perr.ErrorCodeIO, "split: list %s", inputDir)
	}
	if len(entries) == 0 {
		log.Warn().Str("dir", inputDir).Msg("split: no batch files found")
		return res, nil
	}
	if err := s.FS.MkdirAll(outputDir, 0o755); err != nil {
		return res, perr.Wrapf(err, perr.ErrorCodeIO, "split: mkdir %s", outputDir)
	}

	total := len(entries)
	log.Info().Int("total", total).Int("workers", concurrency).Str("dest", outputDir).Msg("split: starting")

	var tally workpool.Tally
	tranches := map[string]struct{}{}
	bar := s.progress().Begin(string(domain.StageSplit), total)
	workpool.Run(ctx, concurrency, entries,
		func(ctx context.Context, e listing.Entry) (batchOut, error) {
			return s.splitBatch(ctx, e, outputDir)
		},
		func(r workpool.Result[listing.Entry, batchOut]) {
			tally.Add(r.Item.Name, r.Err)
			res.Molecules += r.Value.molecules
			if r.Value.molecules > 0 {
				tranches[r.Value.tranche] = struct{}{}
			}
			bar.Tick(r.Err == nil)
			rec.item(ctx, domain.StageSplit, r.Item.Name, r.Err)
			logItem(log, domain.StageSplit, r.Item.Name, r.Err, tally, total)
		},
	)
	bar.Close()

	res.FailedFiles, res.Failures = tally.Failed, tally.Failures
	res.Tranches = len(tranches)
	log.Info().
		Int("molecules", res.Molecules).
		Int("tranches", res.Tranches).
		Int("failed", res.FailedFiles).
		Str("dest", outputDir).
		Strs("failures", res.Failures).
		Msg("split: done")
	return res, nil
}

// splitBatch streams one batch through the record parser
func (s *Service) splitBatch(ctx context.Context, src listing.Entry, outputDir string) (batchOut, error) {
	out := batchOut{tranche: pdbqt.TrancheOf(src.Name)}
	f, err := s.FS.Open(src.Path)
	if err != nil {
		return out, perr.Wrapf(err, perr.ErrorCodeIO, "split: open %s", src.Name)
	}
	defer func() { _ = f.Close() }()

	dir := filepath.Join(outputDir, out.tranche)
	made := false
	_, err = pdbqt.Scan(f, func(r pdbqt.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !made {
			if err := s.FS.MkdirAll(dir, 0o755); err != nil {
				return perr.Wrapf(err, perr.ErrorCodeIO, "split: mkdir %s", dir)
			}
			made = true
		}
		p := filepath.Join(dir, r.FileName())
		if err := afero.WriteFile(s.FS, p, r.Bytes(), 0o644); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeIO, "split: write %s", p)
		}
		out.molecules++
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if _, ok := perr.As(err); !ok {
			err = perr.Wrapf(err, perr.ErrorCodeIO, "split: read %s", src.Name)
		}
		return out, err
	}
	return out, nil
}

// SplitTreeState reports whether dir already holds split output, and how
// much. It checks presence only; a tree left by an interrupted run counts
// as done
func (s *Service) SplitTreeState(dir string) (domain.TreeState, error) {
	var st domain.TreeState
	ok, err := listing.NonEmpty(s.FS, dir)
	if err != nil || !ok {
		return st, err
	}
	st.Exists = true
	dirs, err := listing.Dirs(s.FS, dir)
	if err != nil {
		return st, err
	}
	for _, d := range dirs {
		files, err := listing.List(s.FS, filepath.Join(dir, d), listing.Suffix(pdbqt.Ext))
		if err != nil {
			return st, err
		}
		if len(files) > 0 {
			st.Tranches++
			st.Molecules += len(files)
		}
	}
	return st, nil
}
