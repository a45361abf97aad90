package modkit

import (
	"ligprep/internal/modkit/repokit"
	"ligprep/internal/platform/config"
	"ligprep/internal/platform/logger"

	"github.com/spf13/afero"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	FS  afero.Fs         // nil means the host filesystem
	PG  repokit.TxRunner // nil when no database is configured
}

// Files returns FS, or the host filesystem when unset
func (d Deps) Files() afero.Fs {
	if d.FS == nil {
		return afero.NewOsFs()
	}
	return d.FS
}
