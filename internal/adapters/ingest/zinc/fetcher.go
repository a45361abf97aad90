package zinc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	perr "ligprep/internal/platform/errors"
	"ligprep/internal/platform/logger"

	"github.com/c2h5oh/datasize"
	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/afero"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetryBase = 500 * time.Millisecond
	maxRetryInterval = 10 * time.Second
)

// HTTPFetcher downloads archives over HTTP onto an afero filesystem
type HTTPFetcher struct {
	Client    *http.Client
	FS        afero.Fs
	Retries   int           // extra attempts after the first
	RetryBase time.Duration // first backoff interval
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout
func NewHTTPFetcher(fsys afero.Fs, timeout time.Duration, retries int) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		FS:        fsys,
		Retries:   retries,
		RetryBase: defaultRetryBase,
	}
}

// Download streams rawURL into dest and returns the number of bytes written.
// dest only appears once the whole body was received
func (f *HTTPFetcher) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	var n int64
	attempt := 0
	op := func() error {
		attempt++
		var err error
		n, err = f.once(ctx, rawURL, dest)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !perr.Retryable(err) {
			return backoff.Permanent(err)
		}
		logger.Named("zinc").Debug().Err(err).Str("url", rawURL).Int("attempt", attempt).Msg("zinc: retrying")
		return err
	}
	if err := backoff.Retry(op, f.backoff(ctx)); err != nil {
		return 0, perr.WithOp(err, "zinc.download")
	}
	logger.Named("zinc").Debug().
		Str("url", rawURL).
		Str("size", datasize.ByteSize(n).HumanReadable()).
		Int("attempts", attempt).
		Msg("zinc: downloaded")
	return n, nil
}

func (f *HTTPFetcher) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.RetryBase
	if b.InitialInterval <= 0 {
		b.InitialInterval = defaultRetryBase
	}
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0
	b.Reset()
	retries := f.Retries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// once performs a single attempt
func (f *HTTPFetcher) once(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "zinc: build request for %s", rawURL)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "zinc: get %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp.StatusCode, rawURL)
	}

	if err := f.FS.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "zinc: mkdir %s", filepath.Dir(dest))
	}
	// each attempt streams to its own temp file; same-named targets never share one
	out, err := afero.TempFile(f.FS, filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "zinc: create temp for %s", dest)
	}
	tmp := out.Name()
	n, werr := io.Copy(out, resp.Body)
	cerr := out.Close()
	if werr != nil || cerr != nil {
		_ = f.FS.Remove(tmp)
		if werr != nil {
			// body read failures are transport failures
			return 0, perr.Wrapf(werr, perr.ErrorCodeUnavailable, "zinc: read body of %s", rawURL)
		}
		return 0, perr.Wrapf(cerr, perr.ErrorCodeIO, "zinc: close %s", tmp)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		_ = f.FS.Remove(tmp)
		return 0, perr.Unavailablef("zinc: short body for %s: got %d of %d bytes", rawURL, n, resp.ContentLength)
	}
	if err := f.FS.Chmod(tmp, 0o644); err != nil {
		_ = f.FS.Remove(tmp)
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "zinc: chmod %s", tmp)
	}
	if err := f.FS.Rename(tmp, dest); err != nil {
		_ = f.FS.Remove(tmp)
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "zinc: rename %s", tmp)
	}
	return n, nil
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: defaultTimeout}
}

// statusError classifies a non-200 response: 5xx and 429 are worth retrying
func statusError(code int, rawURL string) error {
	msg := fmt.Sprintf("zinc: unexpected status %d for %s", code, rawURL)
	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		return perr.New(perr.ErrorCodeNotFound, msg)
	case code == http.StatusTooManyRequests || code >= 500:
		return perr.New(perr.ErrorCodeUnavailable, msg)
	default:
		return perr.New(perr.ErrorCodeInvalidArgument, msg)
	}
}
