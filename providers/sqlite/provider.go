package sqlite

import (
	"errors"
	"strconv"

	"github.com/Konsultn-Engineering/simpledb/connector"
	_ "github.com/mattn/go-sqlite3"
)

type Provider struct{}

func init() {
	connector.Register("sqlite3", &Provider{})
}

func (p *Provider) DriverName() string {
	return "sqlite3"
}

const memoryDatabase = ":memory:"

// PinConnection keeps an in-memory database alive while scopes come and go.
func (p *Provider) PinConnection(cfg connector.Config) bool {
	return cfg.Database == memoryDatabase
}

// DSN treats Database as the file path. ":memory:" maps to a shared
// in-memory database so every scope sees the same data.
func (p *Provider) DSN(cfg connector.Config) (string, error) {
	if cfg.Database == "" {
		return "", errors.New("sqlite: database path is required")
	}

	b := connector.NewDSNBuilder("file").File(cfg.Database)
	if cfg.Database == memoryDatabase {
		b.Param("mode", "memory").Param("cache", "shared")
	}
	if cfg.TimeZone != "" {
		if _, err := cfg.Location(); err != nil {
			return "", err
		}
		b.Param("_loc", cfg.TimeZone)
	}
	if cfg.ConnectTimeout > 0 {
		b.Param("_busy_timeout", strconv.FormatInt(cfg.ConnectTimeout.Milliseconds(), 10))
	}
	b.Params(cfg.Params)
	return b.Build(), nil
}
