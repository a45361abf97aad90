// Command ligprep downloads, unpacks and splits ZINC ligand batches into
// per-molecule PDBQT files ready for docking
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ligprep/internal/core/version"
	"ligprep/internal/modkit"
	"ligprep/internal/platform/config"
	perr "ligprep/internal/platform/errors"
	"ligprep/internal/platform/logger"
	"ligprep/internal/platform/store"

	prepmod "ligprep/internal/services/prep/module"
)

// flagEnv maps each command line flag onto the LIGPREP_ key it overrides
var flagEnv = map[string]string{
	"manifest":        "MANIFEST",
	"raw":             "RAW_DIR",
	"batches":         "BATCH_DIR",
	"out":             "SPLIT_DIR",
	"fetch-workers":   "FETCH_WORKERS",
	"extract-workers": "EXTRACT_WORKERS",
	"split-workers":   "SPLIT_WORKERS",
	"timeout":         "FETCH_TIMEOUT",
	"retries":         "FETCH_RETRIES",
	"retry-base":      "RETRY_BASE",
	"base-url":        "BASE_URL",
	"report-dir":      "REPORT_DIR",
	"stage":           "STAGE",
	"progress":        "PROGRESS",
}

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("ligprep", flag.ContinueOnError)
	fVersion := fs.Bool("version", false, "print the build version and exit")
	var (
		fConfig = fs.String("config", "", "INI file with a [pipeline] section (default $HOME/.ligprep)")
		_       = fs.String("manifest", "", "file with one batch URL per line")
		_       = fs.String("raw", "", "directory for downloaded archives")
		_       = fs.String("batches", "", "directory for decompressed batch files")
		_       = fs.String("out", "", "root of the per-tranche split tree")
		_       = fs.Int("fetch-workers", 0, "concurrent downloads")
		_       = fs.Int("extract-workers", 0, "concurrent decompressions (default CPU count)")
		_       = fs.Int("split-workers", 0, "concurrent batch splits (default CPU count)")
		_       = fs.Duration("timeout", 0, "per download timeout")
		_       = fs.Int("retries", 0, "extra attempts per failed download")
		_       = fs.Duration("retry-base", 0, "first retry backoff interval")
		_       = fs.String("base-url", "", "base for relative manifest entries")
		_       = fs.String("report-dir", "", "write a JSON timing report into this directory")
		_       = fs.String("stage", "", "run one stage only: all | fetch | extract | split")
		_       = fs.Bool("progress", false, "draw progress bars on stderr")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return perr.ExitOK
		}
		return perr.ExitUsage
	}

	if *fVersion {
		fmt.Println(version.Info())
		return perr.ExitOK
	}

	// Surface flags that were set so modules reading FromConfig see them
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagEnv[f.Name]; ok {
			mustSetEnv("LIGPREP_"+key, f.Value.String())
		}
	})

	l := logger.Get()

	iniPath := *fConfig
	if iniPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			iniPath = filepath.Join(home, ".ligprep")
		}
	}
	root := config.New()
	if iniPath != "" {
		keys := append([]string{"PGSQL_DBURL"}, prepmod.Keys...)
		src, err := config.LoadIni(iniPath, "pipeline", keys...)
		if err != nil {
			l.Error().Err(err).Str("path", iniPath).Msg("bad config file")
			return perr.ExitUsage
		}
		if src.Len() > 0 {
			l.Debug().Str("path", iniPath).Int("keys", src.Len()).Msg("loaded config file")
		}
		root = root.WithFallback(config.Prefixed("LIGPREP_", src))
	}

	l.Info().Str("version", version.Info().String()).Msg("ligprep starting")

	opts := prepmod.FromConfig(root)
	if err := opts.Validate(); err != nil {
		l.Error().Err(err).Msg("invalid options")
		fmt.Fprintln(os.Stderr, "usage: ligprep [flags]; run with -h for the list")
		return perr.ExitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "ligprep",
		PG:      store.PGFromConf(root.Prefix("LIGPREP_PGSQL_")),
	}, store.WithLogger(*l))
	if err != nil {
		// the ledger is optional; run without it
		l.Warn().Err(err).Msg("run ledger unavailable")
		st = nil
	}
	defer func() {
		if st == nil {
			return
		}
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Cfg: root, Log: *l}
	if st.Enabled() {
		if err := st.Guard(ctx); err != nil {
			l.Warn().Err(err).Msg("run ledger unreachable; continuing without it")
		} else {
			deps.PG = st.PG
			l.Info().Msg("run ledger enabled")
		}
	}

	prep := prepmod.New(deps, opts)
	sum, err := prep.Ports().(prepmod.Ports).Runner.Run(ctx)
	switch {
	case err == nil:
	case perr.IsCode(err, perr.ErrorCodeStageEmpty):
		l.Warn().Err(err).Str("halted_at", string(sum.HaltedAt)).Msg("pipeline halted")
	default:
		l.Error().Err(err).Msg("pipeline failed")
	}
	return perr.ExitCode(err)
}
