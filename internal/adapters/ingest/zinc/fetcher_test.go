package zinc

import (
	"context"
	stderrs "errors"
	"net/http"
	"strings"
	"testing"
	"time"

	perr "ligprep/internal/platform/errors"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const archiveURL = "http://files.example/3D/AA.xaa.pdbqt.gz"

func newTestFetcher(t *testing.T, retries int) (*HTTPFetcher, *httpmock.MockTransport, afero.Fs) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	fsys := afero.NewMemMapFs()
	f := NewHTTPFetcher(fsys, time.Second, retries)
	f.Client = &http.Client{Transport: mt, Timeout: time.Second}
	f.RetryBase = time.Millisecond
	return f, mt, fsys
}

func TestDownload_OK(t *testing.T) {
	t.Parallel()

	f, mt, fsys := newTestFetcher(t, 0)
	mt.RegisterResponder(http.MethodGet, archiveURL, httpmock.NewBytesResponder(200, []byte("gzdata")))

	n, err := f.Download(context.Background(), archiveURL, "/raw/AA.xaa.pdbqt.gz")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != 6 {
		t.Fatalf("bytes = %d, want 6", n)
	}
	got, err := afero.ReadFile(fsys, "/raw/AA.xaa.pdbqt.gz")
	if err != nil || string(got) != "gzdata" {
		t.Fatalf("dest = %q, %v", got, err)
	}
	if names := dirNames(t, fsys, "/raw"); len(names) != 1 || names[0] != "AA.xaa.pdbqt.gz" {
		t.Fatalf("raw dir = %v, want only the archive", names)
	}
}

func TestDownload_SameTargetConcurrently(t *testing.T) {
	t.Parallel()

	f, mt, fsys := newTestFetcher(t, 0)
	bodies := map[string]string{
		"http://a.example/3D/AA.xaa.pdbqt.gz": strings.Repeat("a", 64<<10),
		"http://b.example/3D/AA.xaa.pdbqt.gz": strings.Repeat("b", 96<<10),
	}
	for u, b := range bodies {
		mt.RegisterResponder(http.MethodGet, u, httpmock.NewStringResponder(200, b))
	}

	var g errgroup.Group
	for u := range bodies {
		g.Go(func() error {
			_, err := f.Download(context.Background(), u, "/raw/AA.xaa.pdbqt.gz")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Download: %v", err)
	}

	if names := dirNames(t, fsys, "/raw"); len(names) != 1 || names[0] != "AA.xaa.pdbqt.gz" {
		t.Fatalf("raw dir = %v, want only the archive", names)
	}
	got, err := afero.ReadFile(fsys, "/raw/AA.xaa.pdbqt.gz")
	if err != nil {
		t.Fatal(err)
	}
	if s := string(got); s != bodies["http://a.example/3D/AA.xaa.pdbqt.gz"] && s != bodies["http://b.example/3D/AA.xaa.pdbqt.gz"] {
		t.Fatalf("archive is a mix of both bodies (%d bytes)", len(got))
	}
}

func dirNames(t *testing.T, fsys afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	out := make([]string, 0, len(infos))
	for _, fi := range infos {
		out = append(out, fi.Name())
	}
	return out
}

func TestDownload_NotFoundIsPermanent(t *testing.T) {
	t.Parallel()

	f, mt, fsys := newTestFetcher(t, 3)
	mt.RegisterResponder(http.MethodGet, archiveURL, httpmock.NewStringResponder(404, "nope"))

	_, err := f.Download(context.Background(), archiveURL, "/raw/AA.xaa.pdbqt.gz")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
	if calls := mt.GetTotalCallCount(); calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if ok, _ := afero.Exists(fsys, "/raw/AA.xaa.pdbqt.gz"); ok {
		t.Fatalf("dest written on failure")
	}
}

func TestDownload_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	f, mt, fsys := newTestFetcher(t, 2)
	calls := 0
	mt.RegisterResponder(http.MethodGet, archiveURL, func(*http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return httpmock.NewStringResponse(503, "busy"), nil
		}
		return httpmock.NewBytesResponse(200, []byte("ok")), nil
	})

	if _, err := f.Download(context.Background(), archiveURL, "/raw/a.gz"); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if got, _ := afero.ReadFile(fsys, "/raw/a.gz"); string(got) != "ok" {
		t.Fatalf("dest = %q", got)
	}
}

func TestDownload_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	f, mt, _ := newTestFetcher(t, 2)
	mt.RegisterResponder(http.MethodGet, archiveURL, httpmock.NewStringResponder(500, "boom"))

	_, err := f.Download(context.Background(), archiveURL, "/raw/a.gz")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v, want Unavailable", err)
	}
	if calls := mt.GetTotalCallCount(); calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDownload_TransportError(t *testing.T) {
	t.Parallel()

	f, mt, _ := newTestFetcher(t, 1)
	mt.RegisterResponder(http.MethodGet, archiveURL, httpmock.NewErrorResponder(stderrs.New("connection reset")))

	_, err := f.Download(context.Background(), archiveURL, "/raw/a.gz")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v, want Unavailable", err)
	}
	if calls := mt.GetTotalCallCount(); calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestDownload_CanceledContextNotRetried(t *testing.T) {
	t.Parallel()

	f, mt, _ := newTestFetcher(t, 5)
	mt.RegisterResponder(http.MethodGet, archiveURL, httpmock.NewStringResponder(503, "busy"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Download(ctx, archiveURL, "/raw/a.gz"); err == nil {
		t.Fatalf("expected error on canceled context")
	}
	if calls := mt.GetTotalCallCount(); calls > 1 {
		t.Fatalf("calls = %d, want at most 1", calls)
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	cases := map[int]perr.ErrorCode{
		404: perr.ErrorCodeNotFound,
		410: perr.ErrorCodeNotFound,
		403: perr.ErrorCodeInvalidArgument,
		429: perr.ErrorCodeUnavailable,
		502: perr.ErrorCodeUnavailable,
	}
	for code, want := range cases {
		if got := perr.CodeOf(statusError(code, "u")); got != want {
			t.Fatalf("statusError(%d) = %v, want %v", code, got, want)
		}
	}
}
