package modkit

import (
	"testing"

	"ligprep/internal/platform/config"

	"github.com/spf13/afero"
)

type stub struct{ ports any }

func (s stub) Name() string { return "stub" }
func (s stub) Ports() any   { return s.ports }

var _ Module = stub{}

func TestDeps_FilesDefaultsToOs(t *testing.T) {
	t.Parallel()
	var d Deps
	if _, ok := d.Files().(*afero.OsFs); !ok {
		t.Fatalf("Files() = %T, want *afero.OsFs", d.Files())
	}
	mem := afero.NewMemMapFs()
	d = Deps{Cfg: config.New(), FS: mem}
	if d.Files() != mem {
		t.Fatalf("Files() should return the configured fs")
	}
}

func TestBuilder(t *testing.T) {
	t.Parallel()
	var b Builder = func(d Deps) Module { return stub{ports: d.PG == nil} }
	m := b(Deps{})
	if m.Name() != "stub" || m.Ports() != true {
		t.Fatalf("unexpected module %v %v", m.Name(), m.Ports())
	}
}
