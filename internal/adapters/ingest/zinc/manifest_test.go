package zinc

import (
	"net/url"
	"testing"

	perr "ligprep/internal/platform/errors"
	kit "ligprep/internal/platform/testkit"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestReadManifest(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	kit.WriteFile(t, fsys, "/in/urls.txt", []byte(
		"# ZINC subset\n\n  http://h/a/AA.xaa.pdbqt.gz  \n#http://h/skip.gz\n\tBB/BB.xab.pdbqt.gz\n"))

	got, err := ReadManifest(fsys, "/in/urls.txt")
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	want := []Entry{
		{Ordinal: 1, Line: 3, Raw: "http://h/a/AA.xaa.pdbqt.gz"},
		{Ordinal: 2, Line: 5, Raw: "BB/BB.xab.pdbqt.gz"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestReadManifest_EmptyAndMissing(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	kit.WriteFile(t, fsys, "/in/empty.txt", []byte("# nothing here\n\n"))
	got, err := ReadManifest(fsys, "/in/empty.txt")
	if err != nil || len(got) != 0 {
		t.Fatalf("ReadManifest(empty) = %v, %v", got, err)
	}

	_, err = ReadManifest(fsys, "/in/nope.txt")
	if !perr.IsCode(err, perr.ErrorCodeMissingInput) {
		t.Fatalf("missing manifest err = %v, want MissingInput", err)
	}
	if perr.ExitCode(err) != perr.ExitNoInput {
		t.Fatalf("missing manifest exit = %d", perr.ExitCode(err))
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse(DefaultBaseURL + "3D/")
	cases := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"https://example.org/x/AA.xaa.pdbqt.gz", "https://example.org/x/AA.xaa.pdbqt.gz", false},
		{"AA/AARN/AA.xaa.pdbqt.gz", "http://files.docking.org/3D/AA/AARN/AA.xaa.pdbqt.gz", false},
		{"/abs/AA.xaa.pdbqt.gz", "http://files.docking.org/abs/AA.xaa.pdbqt.gz", false},
		{"ftp://example.org/a.gz", "", true},
		{"http://%zz", "", true},
	}
	for _, c := range cases {
		u, err := Resolve(base, c.raw)
		if c.wantErr {
			if err == nil {
				t.Fatalf("Resolve(%q) expected error, got %v", c.raw, u)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Resolve(%q): %v", c.raw, err)
		}
		if u.String() != c.want {
			t.Fatalf("Resolve(%q) = %q, want %q", c.raw, u, c.want)
		}
	}

	if _, err := Resolve(nil, "rel/a.gz"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("Resolve without base err = %v", err)
	}
}

func TestTargetName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		ordinal int
		want    string
	}{
		{"http://h/3D/AA/AARN/AA.xaa.pdbqt.gz", 1, "AA.xaa.pdbqt.gz"},
		{"http://h/3D/AA.xab.pdbqt.gz?sig=abc", 2, "AA.xab.pdbqt.gz"},
		{"http://h/3D/", 3, "downloaded_ligand_3.pdbqt.gz"},
		{"http://h", 4, "downloaded_ligand_4.pdbqt.gz"},
		{"AA/AA.xac.pdbqt.gz", 5, "AA.xac.pdbqt.gz"},
	}
	for _, c := range cases {
		if got := TargetName(c.raw, c.ordinal); got != c.want {
			t.Fatalf("TargetName(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}
