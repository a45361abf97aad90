package domain

import (
	"context"
	"time"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	Run(ctx context.Context) (RunSummary, error)
}

// Fetcher downloads one remote archive to dest
type Fetcher interface {
	Download(ctx context.Context, rawURL, dest string) (int64, error)
}

// Decompressor expands one archive into outDir
type Decompressor interface {
	Decompress(src, outDir string) (dest string, n int64, err error)
}

// LedgerRepo persists run and item records
type LedgerRepo interface {
	// EnsureSchema creates the ledger tables when missing
	EnsureSchema(ctx context.Context) error

	// StartRun inserts the run row
	StartRun(ctx context.Context, runID string, stage Stage, started time.Time) error

	// RecordItem upserts one item outcome
	RecordItem(ctx context.Context, runID string, o ItemOutcome) error

	// FinishRun closes the run row
	FinishRun(ctx context.Context, runID string, fin RunFinish) error
}
