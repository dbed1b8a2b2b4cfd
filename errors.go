package simpledb

import (
	"errors"
	"strconv"

	"github.com/Konsultn-Engineering/simpledb/database"
	"github.com/Konsultn-Engineering/simpledb/schema"
	"github.com/jjeffery/kv"
)

var (
	// ErrClosed is wrapped by errors of a SimpleDb that was closed.
	ErrClosed = errors.New("simpledb: closed")

	// ErrNoTransaction is wrapped when Commit or Rollback finds nothing to
	// finish.
	ErrNoTransaction = database.ErrNoTransaction
)

// TypeCoercionError reports a fetched value that cannot be converted to the
// requested type.
type TypeCoercionError = schema.CoercionError

// ConnectionError reports a failure to open, replace or close a scope's
// connection.
type ConnectionError struct {
	Op    string
	Scope string
	Err   error
}

func (e *ConnectionError) Error() string {
	return "simpledb: cannot " + e.Op + " connection " +
		kv.List([]interface{}{"scope", e.Scope}).String() + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatementError reports a failure to prepare, execute or read a statement.
type StatementError struct {
	Op  string
	SQL string
	Err error
}

func (e *StatementError) Error() string {
	msg := "simpledb: " + e.Op + " failed"
	if e.SQL != "" {
		msg += " " + kv.List([]interface{}{"sql", e.SQL}).String()
	}
	return msg + ": " + e.Err.Error()
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// ArgumentError reports a malformed fragment passed to the builder.
type ArgumentError struct {
	Fragment string
	Msg      string
}

func (e *ArgumentError) Error() string {
	return "simpledb: " + e.Msg + ": " + strconv.Quote(e.Fragment)
}
