package service

import (
	"context"
	"time"

	"ligprep/internal/modkit/repokit"
	perr "ligprep/internal/platform/errors"
	"ligprep/internal/platform/logger"
	"ligprep/internal/services/prep/domain"
)

// runLedger records one run; every write is best effort and a nil
// *runLedger does nothing. Each write is its own short transaction so the
// begin hooks on db (lock_timeout) apply
type runLedger struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.LedgerRepo]
	runID  string
	fails  int
}

// tx runs fn against a repo bound to a fresh transaction
func (l *runLedger) tx(ctx context.Context, fn func(domain.LedgerRepo) error) error {
	return repokit.WithTx(ctx, l.db, func(q repokit.Queryer) error {
		return fn(l.binder.Bind(q))
	})
}

// maxLedgerFails turns the ledger off for the rest of the run
const maxLedgerFails = 3

// openLedger prepares the schema and inserts the run row.
// It returns nil when no database is configured or the database refuses
func (s *Service) openLedger(ctx context.Context, runID string, stage domain.Stage, started time.Time) *runLedger {
	if s.DB == nil || s.Binder == nil {
		return nil
	}
	l := &runLedger{db: s.DB, binder: s.Binder, runID: runID}
	if err := l.tx(ctx, func(r domain.LedgerRepo) error { return r.EnsureSchema(ctx) }); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("ledger: schema unavailable; continuing without ledger")
		return nil
	}
	if err := l.tx(ctx, func(r domain.LedgerRepo) error { return r.StartRun(ctx, runID, stage, started) }); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("ledger: start run failed; continuing without ledger")
		return nil
	}
	return l
}

func (l *runLedger) item(ctx context.Context, stage domain.Stage, item string, err error) {
	if l == nil || l.fails >= maxLedgerFails {
		return
	}
	o := domain.ItemOutcome{Stage: stage, Item: item, Err: err}
	if werr := l.tx(ctx, func(r domain.LedgerRepo) error { return r.RecordItem(ctx, l.runID, o) }); werr != nil {
		l.warn(ctx, werr, "ledger: record item failed")
	}
}

func (l *runLedger) finish(ctx context.Context, sum domain.RunSummary, runErr error) {
	if l == nil {
		return
	}
	fin := domain.RunFinish{
		Status:    sum.Status,
		Molecules: sum.Molecules(),
		Tranches:  sum.Tranches(),
	}
	if runErr != nil {
		fin.ErrText = runErr.Error()
	}
	// the run context may already be canceled; the row should still close
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	write := func(r domain.LedgerRepo) error { return r.FinishRun(fctx, l.runID, fin) }
	err := l.tx(fctx, write)
	if perr.IsRetryable(err) {
		err = l.tx(fctx, write)
	}
	if err != nil {
		l.warn(ctx, err, "ledger: finish run failed")
	}
}

func (l *runLedger) warn(ctx context.Context, err error, msg string) {
	l.fails++
	ev := logger.C(ctx).Warn().Err(err).Str("code", perr.CodeOf(err).String())
	if l.fails >= maxLedgerFails {
		ev = ev.Bool("disabled", true)
	}
	ev.Msg(msg)
}
