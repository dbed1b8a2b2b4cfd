package simpledb

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Konsultn-Engineering/simpledb/connector"
	"github.com/Konsultn-Engineering/simpledb/database"
	"github.com/Konsultn-Engineering/simpledb/schema"
	"github.com/Konsultn-Engineering/simpledb/utils"
	"github.com/jjeffery/kv"
)

// SimpleDb owns one connection per scope and executes statements on it.
// It is safe for concurrent use by different scopes; a single scope must not
// be used from two goroutines at once.
type SimpleDb struct {
	connector connector.Connector
	loc       *time.Location
	logger    Logger
	devMode   atomic.Bool
	scopeIDs  utils.IDGenerator
	stmtIDs   utils.IDGenerator

	mu     sync.Mutex
	scopes map[string]*database.Conn
	closed bool
}

type Option func(*SimpleDb)

// WithLogger sets the sink for dev mode output. The default writes to stdout.
func WithLogger(l Logger) Option {
	return func(s *SimpleDb) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithDevMode(on bool) Option {
	return func(s *SimpleDb) {
		s.devMode.Store(on)
	}
}

// New resolves cfg.Driver against the registered providers. No connection
// is made until a scope first needs one.
func New(cfg connector.Config, opts ...Option) (*SimpleDb, error) {
	cfg = cfg.WithDefaults()
	c, err := connector.New(cfg.Driver, cfg)
	if err != nil {
		return nil, &ConnectionError{Op: "configure", Err: err}
	}
	return NewWithConnector(c, opts...), nil
}

func NewWithConnector(c connector.Connector, opts ...Option) *SimpleDb {
	loc, err := c.Config().Location()
	if err != nil {
		loc = time.UTC
	}
	s := &SimpleDb{
		connector: c,
		loc:       loc,
		logger:    defaultLogger(),
		scopeIDs:  utils.UUIDGenerator{},
		stmtIDs:   utils.NewULIDGenerator(),
		scopes:    make(map[string]*database.Conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewScope returns a copy of ctx bound to a freshly generated scope.
func (s *SimpleDb) NewScope(ctx context.Context) (context.Context, error) {
	id, err := s.scopeIDs.Generate()
	if err != nil {
		return nil, err
	}
	return WithScope(ctx, id), nil
}

func (s *SimpleDb) SetDevMode(on bool) {
	s.devMode.Store(on)
}

func (s *SimpleDb) DevMode() bool {
	return s.devMode.Load()
}

// Location is the time zone text datetimes are parsed in.
func (s *SimpleDb) Location() *time.Location {
	return s.loc
}

// SQL starts a new statement.
func (s *SimpleDb) SQL() *Builder {
	return &Builder{db: s}
}

// AcquireConn returns the connection of the scope carried by ctx, opening
// one if the scope has none or its connection is no longer usable.
func (s *SimpleDb) AcquireConn(ctx context.Context) (*database.Conn, error) {
	scope := ScopeOf(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, &ConnectionError{Op: "acquire", Scope: scope, Err: ErrClosed}
	}
	if conn, ok := s.scopes[scope]; ok && conn.Alive() {
		s.mu.Unlock()
		return conn, nil
	}
	s.mu.Unlock()

	fresh, err := s.connector.Connect(ctx)
	if err != nil {
		return nil, &ConnectionError{Op: "open", Scope: scope, Err: err}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fresh.Close()
		return nil, &ConnectionError{Op: "acquire", Scope: scope, Err: ErrClosed}
	}
	stale, ok := s.scopes[scope]
	if ok && stale.Alive() {
		// another caller stored a connection for this scope first
		s.mu.Unlock()
		fresh.Close()
		return stale, nil
	}
	s.scopes[scope] = fresh
	s.mu.Unlock()

	if stale != nil {
		stale.Close()
	}
	return fresh, nil
}

// ReleaseConn closes the scope's connection, rolling back a pending
// transaction. The scope forgets the connection even when closing fails.
func (s *SimpleDb) ReleaseConn(ctx context.Context) error {
	scope := ScopeOf(ctx)

	s.mu.Lock()
	conn, ok := s.scopes[scope]
	delete(s.scopes, scope)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := conn.Close(); err != nil {
		return &ConnectionError{Op: "close", Scope: scope, Err: err}
	}
	return nil
}

func (s *SimpleDb) current(ctx context.Context) *database.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scopes[ScopeOf(ctx)]
}

// Begin turns autocommit off for the scope. It does nothing when a
// transaction is already pending.
func (s *SimpleDb) Begin(ctx context.Context) error {
	conn, err := s.AcquireConn(ctx)
	if err != nil {
		return err
	}
	if err := conn.Begin(ctx); err != nil {
		return &StatementError{Op: "begin", Err: err}
	}
	return nil
}

func (s *SimpleDb) Commit(ctx context.Context) error {
	return s.finish(ctx, "commit", (*database.Conn).Commit)
}

func (s *SimpleDb) Rollback(ctx context.Context) error {
	return s.finish(ctx, "rollback", (*database.Conn).Rollback)
}

func (s *SimpleDb) finish(ctx context.Context, op string, fn func(*database.Conn) error) error {
	conn := s.current(ctx)
	if conn == nil {
		return &StatementError{Op: op, Err: ErrNoTransaction}
	}
	if err := fn(conn); err != nil {
		return &StatementError{Op: op, Err: err}
	}
	return nil
}

// Exec runs a statement that returns no rows.
func (s *SimpleDb) Exec(ctx context.Context, query string, params ...any) error {
	_, err := s.exec(ctx, "exec", query, params)
	return err
}

// Stats reports pool counters, the number of scopes holding a connection
// and the age of the oldest one.
func (s *SimpleDb) Stats() connector.ConnectionStats {
	stats := s.connector.Stats()
	now := time.Now()
	s.mu.Lock()
	stats.Scopes = len(s.scopes)
	for _, conn := range s.scopes {
		if age := now.Sub(conn.OpenedAt()); age > stats.OldestScope {
			stats.OldestScope = age
		}
	}
	s.mu.Unlock()
	return stats
}

// Close releases every scope and closes the pool. Later calls that need a
// connection fail with ErrClosed.
func (s *SimpleDb) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	scopes := s.scopes
	s.scopes = make(map[string]*database.Conn)
	s.mu.Unlock()

	var errs []error
	for scope, conn := range scopes {
		if err := conn.Close(); err != nil {
			errs = append(errs, &ConnectionError{Op: "close", Scope: scope, Err: err})
		}
	}
	if err := s.connector.Close(); err != nil {
		errs = append(errs, &ConnectionError{Op: "close pool", Err: err})
	}
	return errors.Join(errs...)
}

func (s *SimpleDb) prepare(ctx context.Context, op, query string, params []any) (*sql.Stmt, func(), error) {
	conn, err := s.AcquireConn(ctx)
	if err != nil {
		return nil, nil, err
	}
	stmt, release, err := conn.Prepare(ctx, query)
	if err != nil {
		return nil, nil, &StatementError{Op: op, SQL: query, Err: err}
	}
	s.logStatement(ctx, query, params)
	return stmt, release, nil
}

func (s *SimpleDb) exec(ctx context.Context, op, query string, params []any) (sql.Result, error) {
	stmt, release, err := s.prepare(ctx, op, query, params)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := stmt.ExecContext(ctx, params...)
	if err != nil {
		return nil, &StatementError{Op: op, SQL: query, Err: err}
	}
	return res, nil
}

func (s *SimpleDb) query(ctx context.Context, op, query string, params []any) ([]schema.Row, error) {
	stmt, release, err := s.prepare(ctx, op, query, params)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := stmt.QueryContext(ctx, params...)
	if err != nil {
		return nil, &StatementError{Op: op, SQL: query, Err: err}
	}
	defer rows.Close()

	result, err := schema.ReadRows(rows)
	if err != nil {
		return nil, &StatementError{Op: op, SQL: query, Err: err}
	}
	return result, nil
}

func (s *SimpleDb) logStatement(ctx context.Context, query string, params []any) {
	if !s.devMode.Load() {
		return
	}
	id, _ := s.stmtIDs.Generate()
	s.logger.Print("[SQL] " + query)
	s.logger.Print("[PARAMS] " + kv.List([]interface{}{
		"stmt", id,
		"fp", utils.Fingerprint(query),
		"scope", ScopeOf(ctx),
		"params", params,
	}).String())
}
