package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Konsultn-Engineering/simpledb/database"
)

// ErrProviderNotFound is returned by New for a name nobody registered.
var ErrProviderNotFound = errors.New("provider not registered")

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

// Manager is the provider registry. Providers add themselves from init.
type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// Providers lists registered provider names in order.
func Providers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns a connector for the named provider. The pool is opened on the
// first Connect.
func New(name string, config Config) (Connector, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[name]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &standardConnector{provider: provider, config: config, owned: true}, nil
}

// Wrap builds a connector over a pool opened elsewhere. Close leaves db open.
func Wrap(db *sql.DB, config Config) Connector {
	return &standardConnector{db: db, config: config.WithDefaults()}
}

type standardConnector struct {
	provider Provider
	config   Config

	mu    sync.Mutex
	db    *sql.DB
	pin   *sql.Conn
	owned bool
}

func (c *standardConnector) open(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return c.db, nil
	}

	dsn, err := c.provider.DSN(c.config)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(c.provider.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	applyPool(db, c.config.Pool)

	if p, ok := c.provider.(Pinner); ok && p.PinConnection(c.config) {
		pin, err := db.Conn(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		c.pin = pin
	}
	c.db = db
	return db, nil
}

func applyPool(db *sql.DB, pool PoolConfig) {
	if pool.MaxOpen > 0 {
		db.SetMaxOpenConns(pool.MaxOpen)
	}
	db.SetMaxIdleConns(pool.MaxIdle)
	if pool.MaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.MaxLifetime)
	}
	if pool.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.MaxIdleTime)
	}
}

func (c *standardConnector) Connect(ctx context.Context) (*database.Conn, error) {
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	db, err := c.open(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	dc, err := database.NewConn(conn, c.config.StatementCache)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return dc, nil
}

func (c *standardConnector) Config() Config {
	return c.config
}

func (c *standardConnector) Stats() ConnectionStats {
	c.mu.Lock()
	db := c.db
	c.mu.Unlock()
	if db == nil {
		return ConnectionStats{}
	}
	s := db.Stats()
	return ConnectionStats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
	}
}

func (c *standardConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil || !c.owned {
		return nil
	}
	var errs []error
	if c.pin != nil {
		if err := c.pin.Close(); err != nil {
			errs = append(errs, err)
		}
		c.pin = nil
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	c.db = nil
	return errors.Join(errs...)
}
