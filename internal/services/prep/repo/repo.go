// Package repo provides postgres access for the prep run ledger
package repo

import (
	"context"
	"time"

	"ligprep/internal/modkit/repokit"
	perr "ligprep/internal/platform/errors"
	pstrings "ligprep/internal/platform/strings"
	"ligprep/internal/services/prep/domain"

	"github.com/google/uuid"
)

type (
	// PG is a Postgres binder for domain.LedgerRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.LedgerRepo
func NewPG() repokit.Binder[domain.LedgerRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.LedgerRepo { return &queries{q: q} }

// maxErrText caps the error column
const maxErrText = 2000

var schema = []string{
	`CREATE TABLE IF NOT EXISTS prep_runs (
		run_id      uuid PRIMARY KEY,
		stage       text NOT NULL,
		status      text NOT NULL,
		started_at  timestamptz NOT NULL,
		finished_at timestamptz,
		molecules   integer NOT NULL DEFAULT 0,
		tranches    integer NOT NULL DEFAULT 0,
		error       text
	)`,
	`CREATE TABLE IF NOT EXISTS prep_items (
		run_id      uuid NOT NULL REFERENCES prep_runs(run_id) ON DELETE CASCADE,
		stage       text NOT NULL,
		item        text NOT NULL,
		ok          boolean NOT NULL,
		error       text,
		recorded_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (run_id, stage, item)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_prep_items_failed ON prep_items (run_id) WHERE NOT ok`,
}

// EnsureSchema creates the ledger tables (idempotent)
func (r *queries) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.q.Exec(ctx, stmt); err != nil {
			return perr.FromPostgres(err, "ledger: schema")
		}
	}
	return nil
}

// StartRun inserts the run row (idempotent)
func (r *queries) StartRun(ctx context.Context, runID string, stage domain.Stage, started time.Time) error {
	id, err := parseRunID(runID)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO prep_runs (run_id, stage, status, started_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id) DO UPDATE
		SET stage = EXCLUDED.stage, status = EXCLUDED.status, started_at = EXCLUDED.started_at,
			finished_at = null, error = null
	`, id, string(stage), domain.StatusRunning, started.UTC())
	return perr.FromPostgres(err, "ledger: start run")
}

// RecordItem upserts one item outcome; the last write for an item wins
func (r *queries) RecordItem(ctx context.Context, runID string, o domain.ItemOutcome) error {
	id, err := parseRunID(runID)
	if err != nil {
		return err
	}
	var errText string
	if o.Err != nil {
		errText = pstrings.Clip(o.Err.Error(), maxErrText)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO prep_items (run_id, stage, item, ok, error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, stage, item) DO UPDATE
		SET ok = EXCLUDED.ok, error = EXCLUDED.error, recorded_at = now()
	`, id, string(o.Stage), o.Item, o.Err == nil, pstrings.SQLNull(errText))
	return perr.FromPostgres(err, "ledger: record item")
}

// FinishRun closes the run row
func (r *queries) FinishRun(ctx context.Context, runID string, fin domain.RunFinish) error {
	id, err := parseRunID(runID)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE prep_runs SET
			finished_at = now(),
			status = $2,
			molecules = $3,
			tranches = $4,
			error = $5
		WHERE run_id = $1
	`, id, fin.Status, fin.Molecules, fin.Tranches, pstrings.SQLNull(pstrings.Clip(fin.ErrText, maxErrText)))
	if err != nil {
		return perr.FromPostgres(err, "ledger: finish run")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("prep run %s not started", runID)
	}
	return nil
}

func parseRunID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "run id %q", s), "run_id")
	}
	return id, nil
}
