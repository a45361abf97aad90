package module

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"ligprep/internal/adapters/ingest/zinc"
	"ligprep/internal/platform/config"
	"ligprep/internal/platform/validate"
	"ligprep/internal/services/prep/domain"
)

// Keys are the LIGPREP_ settings the module reads. The same names, lower
// case with dashes, are accepted in the [pipeline] section of an INI file
var Keys = []string{
	"MANIFEST", "RAW_DIR", "BATCH_DIR", "SPLIT_DIR",
	"FETCH_WORKERS", "EXTRACT_WORKERS", "SPLIT_WORKERS",
	"FETCH_TIMEOUT", "FETCH_RETRIES", "RETRY_BASE",
	"BASE_URL", "REPORT_DIR", "STAGE", "PROGRESS",
}

// Options holds configuration settings for the prep module
type Options struct {
	Manifest string `flag:"manifest" validate:"required"`
	RawDir   string `flag:"raw" validate:"required"`
	BatchDir string `flag:"batches" validate:"required,nefield=RawDir"`
	SplitDir string `flag:"out" validate:"required,nefield=RawDir,nefield=BatchDir"`

	FetchWorkers   int `flag:"fetch-workers" validate:"min=1,max=256"`
	ExtractWorkers int `flag:"extract-workers" validate:"min=1,max=1024"`
	SplitWorkers   int `flag:"split-workers" validate:"min=1,max=1024"`

	FetchTimeout time.Duration `flag:"timeout" validate:"gt=0"`
	FetchRetries int           `flag:"retries" validate:"min=0,max=20"`
	RetryBase    time.Duration `flag:"retry-base" validate:"gte=0"`

	BaseURL   string `flag:"base-url" validate:"omitempty,url"`
	ReportDir string `flag:"report-dir"`
	Stage     string `flag:"stage" validate:"oneof=all fetch extract split"`
	Progress  bool   `flag:"progress"`
}

// FromConfig reads options with the LIGPREP_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("LIGPREP_")
	cpus := DefaultWorkers()
	return Options{
		Manifest: c.MayString("MANIFEST", "data/ligand_urls.txt"),
		RawDir:   c.MayString("RAW_DIR", "data/raw_ligands"),
		BatchDir: c.MayString("BATCH_DIR", "data/ligands_pdbqt"),
		SplitDir: c.MayString("SPLIT_DIR", "data/ligands_pdbqt_split"),

		FetchWorkers:   c.MayInt("FETCH_WORKERS", 8),
		ExtractWorkers: c.MayInt("EXTRACT_WORKERS", cpus),
		SplitWorkers:   c.MayInt("SPLIT_WORKERS", cpus),

		FetchTimeout: c.MayDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries: c.MayInt("FETCH_RETRIES", 2),
		RetryBase:    c.MayDuration("RETRY_BASE", 500*time.Millisecond),

		BaseURL:   c.MayURL("BASE_URL", zinc.DefaultBaseURL),
		ReportDir: c.MayString("REPORT_DIR", ""),
		Stage:     strings.ToLower(c.MayString("STAGE", string(domain.StageAll))),
		Progress:  c.MayBool("PROGRESS", false),
	}
}

// Validate checks field ranges and returns a Validation error for the first bad one
func (o Options) Validate() error { return validate.Struct(o) }

// DefaultWorkers is the scheduler's CPU allocation (SLURM_CPUS_PER_TASK)
// when present and positive, else the host CPU count
func DefaultWorkers() int {
	if v, err := strconv.Atoi(os.Getenv("SLURM_CPUS_PER_TASK")); err == nil && v > 0 {
		return v
	}
	return runtime.NumCPU()
}

// Paths maps the options onto domain paths
func (o Options) Paths() domain.Paths {
	return domain.Paths{Manifest: o.Manifest, RawDir: o.RawDir, BatchDir: o.BatchDir, SplitDir: o.SplitDir}
}

// Workers maps the options onto domain pool sizes
func (o Options) Workers() domain.Workers {
	return domain.Workers{Fetch: o.FetchWorkers, Extract: o.ExtractWorkers, Split: o.SplitWorkers}
}
