package store

import (
	"context"
	"time"

	perr "ligprep/internal/platform/errors"
	"ligprep/internal/platform/store/pg"

	"github.com/cenkalti/backoff/v4"
)

// pingPool is a seam for tests
var pingPool = func(ctx context.Context, p *pg.PG) error { return p.Pool.Ping(ctx) }

// openPG opens the pool, waits for it to answer a ping, then wraps it
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "pg: open")
	}

	timeout := cfg.PG.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	retries := cfg.PG.ConnectRetries
	if retries < 0 {
		retries = 0
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 150 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := 0
	err = backoff.Retry(func() error {
		attempts++
		toCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return pingPool(toCtx, p)
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx))
	if err != nil {
		p.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "pg: ping failed after %d attempts", attempts)
	}

	s.Log.Debug().Int("attempts", attempts).Msg("pg: connected")
	return newPGAdapter(p), nil
}
