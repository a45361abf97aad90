// Package module wires the prep pipeline from shared deps
package module

import (
	"net/url"

	"ligprep/internal/adapters/archive"
	"ligprep/internal/adapters/ingest/zinc"
	"ligprep/internal/adapters/progress"
	"ligprep/internal/modkit"
	"ligprep/internal/modkit/repokit"
	"ligprep/internal/services/prep/domain"
	"ligprep/internal/services/prep/repo"
	"ligprep/internal/services/prep/service"
)

// Ports defines the prep module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the prep module
type Module struct {
	deps  modkit.Deps
	opts  Options
	svc   *service.Service
	ports Ports
}

// New constructs the prep module from opts, which the caller has validated.
// The ledger is wired only when deps.PG is set
func New(deps modkit.Deps, opts Options) *Module {
	fsys := deps.Files()

	fetch := zinc.NewHTTPFetcher(fsys, opts.FetchTimeout, opts.FetchRetries)
	if opts.RetryBase > 0 {
		fetch.RetryBase = opts.RetryBase
	}

	var base *url.URL
	if opts.BaseURL != "" {
		// validated as an absolute url
		base, _ = url.Parse(opts.BaseURL)
	}

	var (
		db     repokit.TxRunner
		binder repokit.Binder[domain.LedgerRepo]
	)
	if deps.PG != nil {
		db = repokit.WithBeginHooks(deps.PG, repokit.SetLocal("lock_timeout", "2s"))
		binder = repo.NewPG()
	}

	svc := service.New(fsys, fetch, archive.NewDecompressor(fsys), db, binder, service.Config{
		Paths:     opts.Paths(),
		Workers:   opts.Workers(),
		Stage:     domain.Stage(opts.Stage),
		BaseURL:   base,
		ReportDir: opts.ReportDir,
	}).WithProgress(progress.For(opts.Progress, nil))

	m := &Module{deps: deps, opts: opts, svc: svc}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "prep" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Service exposes the underlying service for stage-level calls
func (m *Module) Service() *service.Service { return m.svc }
