//go:build integration_pg

package pg

import (
	"context"
	"sync"
	"testing"
	"time"

	"ligprep/internal/platform/store/pg/pgtest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type memTracer struct {
	mu  sync.Mutex
	evs []QueryEvent
}

func (m *memTracer) OnQuery(_ context.Context, ev QueryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evs = append(m.evs, ev)
}

func TestOpen_SessionSettings_Integration(t *testing.T) {
	dsn := pgtest.Start(t, "ligprep")
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	tr := &memTracer{}
	p, err := Open(ctx, Config{URL: dsn, AppName: "ligprep-it", MaxConns: 2, SlowMs: 50}, tr, func(pc *pgxpool.Config) {
		pc.MinConns = 1
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(p.Close)
	if p.Tracer != tr || p.SlowMs != 50 {
		t.Fatalf("client = %+v", p)
	}

	// TEMP tables live on one session
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer conn.Release()

	var app string
	if err := conn.QueryRow(ctx, `select current_setting('application_name')`).Scan(&app); err != nil {
		t.Fatalf("application_name: %v", err)
	}
	if app != "ligprep-it" {
		t.Fatalf("application_name = %q", app)
	}

	if _, err := conn.Exec(ctx, `create temporary table mols (tranche text, name text, primary key (tranche, name))`); err != nil {
		t.Fatalf("create: %v", err)
	}
	b := &pgx.Batch{}
	for _, n := range []string{"ZINC1.pdbqt", "ZINC2.pdbqt", "record_000000.pdbqt"} {
		b.Queue(`insert into mols (tranche, name) values ($1, $2)`, "AAAA.xaa", n)
	}
	if err := conn.SendBatch(ctx, b).Close(); err != nil {
		t.Fatalf("batch: %v", err)
	}

	var n int
	if err := conn.QueryRow(ctx, `select count(*) from mols where tranche = $1`, "AAAA.xaa").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}

	// lock_timeout scoped to one transaction
	tx, err := conn.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Exec(ctx, `set local lock_timeout = '2s'`); err != nil {
		t.Fatalf("set local: %v", err)
	}
	var inTx string
	if err := tx.QueryRow(ctx, `show lock_timeout`).Scan(&inTx); err != nil {
		t.Fatalf("show: %v", err)
	}
	_ = tx.Rollback(ctx)
	var after string
	if err := conn.QueryRow(ctx, `show lock_timeout`).Scan(&after); err != nil {
		t.Fatalf("show after: %v", err)
	}
	if inTx != "2s" || after == "2s" {
		t.Fatalf("lock_timeout in tx %q, after %q", inTx, after)
	}
}
