package module

import (
	"strings"
	"testing"
	"time"

	"ligprep/internal/adapters/ingest/zinc"
	"ligprep/internal/platform/config"
	perr "ligprep/internal/platform/errors"
)

func TestFromConfig_Defaults(t *testing.T) {
	t.Setenv("SLURM_CPUS_PER_TASK", "6")
	o := FromConfig(config.New())

	if o.Manifest != "data/ligand_urls.txt" || o.RawDir != "data/raw_ligands" ||
		o.BatchDir != "data/ligands_pdbqt" || o.SplitDir != "data/ligands_pdbqt_split" {
		t.Fatalf("default paths = %+v", o.Paths())
	}
	if o.FetchWorkers != 8 || o.ExtractWorkers != 6 || o.SplitWorkers != 6 {
		t.Fatalf("default workers = %+v", o.Workers())
	}
	if o.FetchTimeout != 30*time.Second || o.FetchRetries != 2 || o.RetryBase != 500*time.Millisecond {
		t.Fatalf("fetch defaults = %v %d %v", o.FetchTimeout, o.FetchRetries, o.RetryBase)
	}
	if o.BaseURL != zinc.DefaultBaseURL || o.Stage != "all" || o.Progress {
		t.Fatalf("misc defaults = %q %q %v", o.BaseURL, o.Stage, o.Progress)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFromConfig_EnvAndFallback(t *testing.T) {
	t.Setenv("LIGPREP_FETCH_WORKERS", "32")
	t.Setenv("LIGPREP_STAGE", "Split")
	in := strings.NewReader("[pipeline]\nfetch-workers = 4\nraw-dir = /scratch/raw\nprogress = true\n")
	src, err := config.ParseIni(in, "pipeline", Keys...)
	if err != nil {
		t.Fatalf("ParseIni: %v", err)
	}
	o := FromConfig(config.New().WithFallback(config.Prefixed("LIGPREP_", src)))
	if o.FetchWorkers != 32 {
		t.Fatalf("env should win, got %d", o.FetchWorkers)
	}
	if o.RawDir != "/scratch/raw" || !o.Progress {
		t.Fatalf("ini fallback not applied: %+v", o)
	}
	if o.Stage != "split" {
		t.Fatalf("stage = %q", o.Stage)
	}
}

func TestDefaultWorkers(t *testing.T) {
	t.Setenv("SLURM_CPUS_PER_TASK", "3")
	if got := DefaultWorkers(); got != 3 {
		t.Fatalf("DefaultWorkers = %d, want 3", got)
	}
	t.Setenv("SLURM_CPUS_PER_TASK", "0")
	if got := DefaultWorkers(); got < 1 {
		t.Fatalf("DefaultWorkers fallback = %d", got)
	}
}

func TestValidate_Rejects(t *testing.T) {
	base := func() Options {
		return Options{
			Manifest: "m", RawDir: "r", BatchDir: "b", SplitDir: "s",
			FetchWorkers: 1, ExtractWorkers: 1, SplitWorkers: 1,
			FetchTimeout: time.Second, Stage: "all",
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base options: %v", err)
	}

	cases := []struct {
		name  string
		mut   func(*Options)
		field string
	}{
		{"zero fetch workers", func(o *Options) { o.FetchWorkers = 0 }, "fetch-workers"},
		{"missing manifest", func(o *Options) { o.Manifest = "" }, "manifest"},
		{"batches equals raw", func(o *Options) { o.BatchDir = "r" }, "batches"},
		{"bad stage", func(o *Options) { o.Stage = "dock" }, "stage"},
		{"relative base url", func(o *Options) { o.BaseURL = "not a url" }, "base-url"},
		{"zero timeout", func(o *Options) { o.FetchTimeout = 0 }, "timeout"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := base()
			c.mut(&o)
			err := o.Validate()
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("want validation error, got %v", err)
			}
			pe, _ := perr.As(err)
			if pe.Field() != c.field {
				t.Fatalf("field = %q, want %q", pe.Field(), c.field)
			}
			if perr.ExitCode(err) != perr.ExitUsage {
				t.Fatalf("exit = %d, want usage", perr.ExitCode(err))
			}
		})
	}
}
