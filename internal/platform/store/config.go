package store

import (
	"time"

	"ligprep/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string
	PG      PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // ping attempts after the first, default 5
	PingTimeout    time.Duration // per ping, default 3s
}

// PGFromConf reads DBURL, MAX_CONNS, LOG_SQL, SLOW_MS and CONNECT_RETRIES from c.
// PG is enabled when DBURL is set
func PGFromConf(c config.Conf) PGConfig {
	url := c.MayString("DBURL", "")
	return PGConfig{
		Enabled:        url != "",
		URL:            url,
		MaxConns:       int32(c.MayInt("MAX_CONNS", 4)),
		LogSQL:         c.MayBool("LOG_SQL", false),
		SlowQueryMs:    c.MayInt("SLOW_MS", 200),
		ConnectRetries: c.MayInt("CONNECT_RETRIES", 5),
		PingTimeout:    c.MayDuration("PING_TIMEOUT", 3*time.Second),
	}
}
