package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/Konsultn-Engineering/simpledb/cache"
)

var (
	// ErrNoTransaction is returned by Commit and Rollback when no
	// transaction was started on the connection.
	ErrNoTransaction = errors.New("simpledb: no transaction in progress")

	// ErrConnClosed is returned by operations on a closed Conn.
	ErrConnClosed = errors.New("simpledb: connection is closed")
)

// Conn is a dedicated driver connection plus its transaction state. While
// a transaction is pending the connection is not in autocommit mode and
// every statement runs inside that transaction.
//
// A Conn belongs to exactly one scope and is not safe for concurrent use.
type Conn struct {
	conn     *sql.Conn
	tx       *sql.Tx
	stmts    *cache.StatementCache
	closed   bool
	openedAt time.Time
}

// NewConn wraps conn. A positive stmtCacheSize keeps that many prepared
// statements alive for reuse until they are evicted or the Conn is closed.
func NewConn(conn *sql.Conn, stmtCacheSize int) (*Conn, error) {
	c := &Conn{conn: conn, openedAt: time.Now()}
	if stmtCacheSize > 0 {
		stmts, err := cache.NewStatementCache(stmtCacheSize)
		if err != nil {
			return nil, err
		}
		c.stmts = stmts
	}
	return c, nil
}

// Alive reports whether the connection is open and the driver still
// considers it usable. The check is local; no round trip is made.
func (c *Conn) Alive() bool {
	if c.closed {
		return false
	}
	err := c.conn.Raw(func(dc any) error {
		if v, ok := dc.(driver.Validator); ok && !v.IsValid() {
			return driver.ErrBadConn
		}
		return nil
	})
	return err == nil
}

// AutoCommit reports whether statements commit on their own.
func (c *Conn) AutoCommit() bool {
	return c.tx == nil
}

func (c *Conn) OpenedAt() time.Time {
	return c.openedAt
}

// Begin turns autocommit off. Calling it while a transaction is pending
// keeps that transaction; nesting is not tracked.
func (c *Conn) Begin(ctx context.Context) error {
	if c.closed {
		return ErrConnClosed
	}
	if c.tx != nil {
		return nil
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

// Commit commits the pending transaction and restores autocommit.
func (c *Conn) Commit() error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

// Rollback discards the pending transaction and restores autocommit.
func (c *Conn) Rollback() error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	tx := c.tx
	c.tx = nil
	return tx.Rollback()
}

func (c *Conn) executor() Executor {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

// Prepare prepares query on the connection, inside the pending transaction
// if there is one. Statements prepared outside a transaction are cached when
// the Conn has a statement cache. The caller must call release once done
// with the statement.
func (c *Conn) Prepare(ctx context.Context, query string) (stmt *sql.Stmt, release func(), err error) {
	if c.closed {
		return nil, nil, ErrConnClosed
	}

	if c.stmts == nil || c.tx != nil {
		stmt, err = c.executor().PrepareContext(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		return stmt, func() { stmt.Close() }, nil
	}

	stmt, err = c.stmts.GetOrPrepare(ctx, c.conn, query)
	if err != nil {
		return nil, nil, err
	}
	return stmt, func() {}, nil
}

// Raw exposes the underlying connection.
func (c *Conn) Raw() *sql.Conn {
	return c.conn
}

// Close rolls back a pending transaction, closes cached statements and
// returns the connection. The Conn is unusable afterwards even if an error
// is returned.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		c.tx = nil
	}
	if c.stmts != nil {
		if err := c.stmts.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
