package service

import (
	"context"
	"path/filepath"

	"ligprep/internal/adapters/ingest/zinc"
	perr "ligprep/internal/platform/errors"
	"ligprep/internal/platform/logger"
	"ligprep/internal/platform/workpool"
	"ligprep/internal/services/prep/domain"

	"github.com/c2h5oh/datasize"
)

// FetchAll downloads every archive named in the manifest into outputDir with
// at most concurrency transfers in flight. A failed url is counted and does
// not stop the others; a missing manifest is a MissingInput error
func (s *Service) FetchAll(ctx context.Context, manifestPath, outputDir string, concurrency int) (domain.FetchResult, error) {
	return s.fetchAll(ctx, manifestPath, outputDir, concurrency, nil)
}

func (s *Service) fetchAll(ctx context.Context, manifestPath, outputDir string, concurrency int, rec *runLedger) (domain.FetchResult, error) {
	log := logger.C(ctx)
	var res domain.FetchResult

	entries, err := zinc.ReadManifest(s.FS, manifestPath)
	if err != nil {
		return res, err
	}
	if len(entries) == 0 {
		log.Warn().Str("manifest", manifestPath).Msg("fetch: manifest lists no urls")
		return res, nil
	}
	if err := s.FS.MkdirAll(outputDir, 0o755); err != nil {
		return res, perr.Wrapf(err, perr.ErrorCodeIO, "fetch: mkdir %s", outputDir)
	}

	total := len(entries)
	log.Info().Int("total", total).Int("workers", concurrency).Str("dest", outputDir).Msg("fetch: starting")

	var tally workpool.Tally
	bar := s.progress().Begin(string(domain.StageFetch), total)
	workpool.Run(ctx, concurrency, entries,
		func(ctx context.Context, e zinc.Entry) (int64, error) {
			u, err := zinc.Resolve(s.Cfg.BaseURL, e.Raw)
			if err != nil {
				return 0, err
			}
			dest := filepath.Join(outputDir, zinc.TargetName(e.Raw, e.Ordinal))
			return s.Fetch.Download(ctx, u.String(), dest)
		},
		func(r workpool.Result[zinc.Entry, int64]) {
			tally.Add(r.Item.Raw, r.Err)
			res.Bytes += r.Value
			bar.Tick(r.Err == nil)
			rec.item(ctx, domain.StageFetch, r.Item.Raw, r.Err)
			logItem(log, domain.StageFetch, r.Item.Raw, r.Err, tally, total)
		},
	)
	bar.Close()

	res.Succeeded, res.Failed, res.Failures = tally.Succeeded, tally.Failed, tally.Failures
	log.Info().
		Int("ok", res.Succeeded).
		Int("failed", res.Failed).
		Str("size", datasize.ByteSize(res.Bytes).HumanReadable()).
		Str("dest", outputDir).
		Strs("failures", res.Failures).
		Msg("fetch: done")
	return res, nil
}

// logItem writes the per-item line every stage emits
func logItem(log *logger.Logger, stage domain.Stage, item string, err error, t workpool.Tally, total int) {
	if err != nil {
		log.Warn().Err(err).Str("item", item).Int("done", t.Done()).Int("total", total).Msg("✗ " + string(stage))
		return
	}
	log.Info().Str("item", item).Int("done", t.Done()).Int("total", total).Msg("✓ " + string(stage))
}
