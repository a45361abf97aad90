package service

import (
	"context"

	"ligprep/internal/adapters/archive"
	perr "ligprep/internal/platform/errors"
	"ligprep/internal/platform/listing"
	"ligprep/internal/platform/logger"
	"ligprep/internal/platform/workpool"
	"ligprep/internal/services/prep/domain"

	"github.com/c2h5oh/datasize"
)

// ExtractAll decompresses every archive in rawDir into outputDir with at
// most concurrency archives in flight. Archives are never modified
func (s *Service) ExtractAll(ctx context.Context, rawDir, outputDir string, concurrency int) (domain.ExtractResult, error) {
	return s.extractAll(ctx, rawDir, outputDir, concurrency, nil)
}

func (s *Service) extractAll(ctx context.Context, rawDir, outputDir string, concurrency int, rec *runLedger) (domain.ExtractResult, error) {
	log := logger.C(ctx)
	var res domain.ExtractResult

	entries, err := listing.List(s.FS, rawDir, listing.Suffix(archive.Exts()...))
	if err != nil {
		return res, perr.Wrapf(err, perr.ErrorCodeIO, "extract: list %s", rawDir)
	}
	if len(entries) == 0 {
		log.Warn().Str("dir", rawDir).Strs("exts", archive.Exts()).Msg("extract: no archives found")
		return res, nil
	}
	if err := s.FS.MkdirAll(outputDir, 0o755); err != nil {
		return res, perr.Wrapf(err, perr.ErrorCodeIO, "extract: mkdir %s", outputDir)
	}

	total := len(entries)
	log.Info().Int("total", total).Int("workers", concurrency).Str("dest", outputDir).Msg("extract: starting")

	var tally workpool.Tally
	bar := s.progress().Begin(string(domain.StageExtract), total)
	workpool.Run(ctx, concurrency, entries,
		func(ctx context.Context, e listing.Entry) (int64, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			_, n, err := s.Unpack.Decompress(e.Path, outputDir)
			return n, err
		},
		func(r workpool.Result[listing.Entry, int64]) {
			tally.Add(r.Item.Name, r.Err)
			res.Bytes += r.Value
			bar.Tick(r.Err == nil)
			rec.item(ctx, domain.StageExtract, r.Item.Name, r.Err)
			logItem(log, domain.StageExtract, r.Item.Name, r.Err, tally, total)
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
		Msg("extract: done")
	return res, nil
}
