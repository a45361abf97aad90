// Package service provides the ligand prep pipeline: fetch, extract, split
package service

import (
	"net/url"
	"time"

	"ligprep/internal/adapters/progress"
	"ligprep/internal/modkit/repokit"
	"ligprep/internal/services/prep/domain"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Config holds the paths and pool sizes for one pipeline
type Config struct {
	Paths   domain.Paths
	Workers domain.Workers
	Stage   domain.Stage // "" runs everything

	// BaseURL resolves relative manifest lines; nil rejects them
	BaseURL *url.URL

	// ReportDir receives a timing report per run when set
	ReportDir string
}

// Service implements domain.RunnerPort
type Service struct {
	FS       afero.Fs
	Fetch    domain.Fetcher
	Unpack   domain.Decompressor
	Progress progress.Reporter
	Cfg      Config

	// Optional run ledger; nil DB disables it
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.LedgerRepo]

	now   func() time.Time
	newID func() string
}

// New constructs the prep service. db and binder may be nil
func New(
	fsys afero.Fs,
	f domain.Fetcher,
	d domain.Decompressor,
	db repokit.TxRunner,
	binder repokit.Binder[domain.LedgerRepo],
	cfg Config,
) *Service {
	if fsys == nil {
		panic("prep.Service requires a non nil filesystem")
	}
	if f == nil || d == nil {
		panic("prep.Service requires a fetcher and a decompressor")
	}
	return &Service{
		FS: fsys, Fetch: f, Unpack: d,
		Progress: progress.Nop{},
		Cfg:      cfg,
		DB:       db, Binder: binder,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithProgress sets the progress reporter used by every stage
func (s *Service) WithProgress(r progress.Reporter) *Service {
	if r == nil {
		r = progress.Nop{}
	}
	s.Progress = r
	return s
}

func (s *Service) progress() progress.Reporter {
	if s.Progress == nil {
		return progress.Nop{}
	}
	return s.Progress
}
