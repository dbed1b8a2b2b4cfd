package simpledb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Konsultn-Engineering/simpledb/connector"
	"github.com/Konsultn-Engineering/simpledb/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) Print(v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprint(v...))
}

func (l *captureLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func newMockDB(t *testing.T, opts ...Option) (*SimpleDb, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	opts = append([]Option{WithLogger(DiscardLogger)}, opts...)
	s := NewWithConnector(connector.Wrap(db, connector.Config{Driver: "sqlmock", TimeZone: "UTC"}), opts...)
	t.Cleanup(func() {
		s.Close()
		db.Close()
	})
	return s, mock
}

// textRows builds result rows whose columns report a VARCHAR type.
func textRows(mock sqlmock.Sqlmock, columns ...string) *sqlmock.Rows {
	defs := make([]*sqlmock.Column, len(columns))
	for i, name := range columns {
		defs[i] = sqlmock.NewColumn(name).OfType("VARCHAR", "")
	}
	return mock.NewRowsWithColumnDefinition(defs...)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(connector.Config{Driver: "no-such-driver"})

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "configure", connErr.Op)
	assert.ErrorIs(t, err, connector.ErrProviderNotFound)
}

func TestAcquireConn_ReusesPerScope(t *testing.T) {
	s, _ := newMockDB(t)
	ctxA := WithScope(context.Background(), "a")
	ctxB := WithScope(context.Background(), "b")

	a1, err := s.AcquireConn(ctxA)
	require.NoError(t, err)
	a2, err := s.AcquireConn(ctxA)
	require.NoError(t, err)
	b1, err := s.AcquireConn(ctxB)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b1)
	assert.Equal(t, 2, s.Stats().Scopes)
}

func TestAcquireConn_ReplacesDeadConnection(t *testing.T) {
	s, _ := newMockDB(t)
	ctx := context.Background()

	first, err := s.AcquireConn(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Raw().Close())
	assert.False(t, first.Alive())

	second, err := s.AcquireConn(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.True(t, second.Alive())
	assert.Equal(t, 1, s.Stats().Scopes)
}

func TestStats_OldestScope(t *testing.T) {
	s, _ := newMockDB(t)
	assert.Zero(t, s.Stats().OldestScope)

	_, err := s.AcquireConn(WithScope(context.Background(), "old"))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = s.AcquireConn(WithScope(context.Background(), "new"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int64(s.Stats().OldestScope), int64(2*time.Millisecond))

	require.NoError(t, s.ReleaseConn(WithScope(context.Background(), "old")))
	require.NoError(t, s.ReleaseConn(WithScope(context.Background(), "new")))
	assert.Zero(t, s.Stats().OldestScope)
}

func TestReleaseConn(t *testing.T) {
	s, _ := newMockDB(t)
	ctx := WithScope(context.Background(), "req")

	assert.NoError(t, s.ReleaseConn(ctx))

	first, err := s.AcquireConn(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ReleaseConn(ctx))
	assert.False(t, first.Alive())
	assert.Equal(t, 0, s.Stats().Scopes)

	second, err := s.AcquireConn(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestReleaseConn_RollsBackPendingTransaction(t *testing.T) {
	s, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.ReleaseConn(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewScope(t *testing.T) {
	s, _ := newMockDB(t)

	ctx1, err := s.NewScope(context.Background())
	require.NoError(t, err)
	ctx2, err := s.NewScope(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, DefaultScope, ScopeOf(ctx1))
	assert.NotEqual(t, ScopeOf(ctx1), ScopeOf(ctx2))
	assert.Equal(t, DefaultScope, ScopeOf(context.Background()))
}

func TestTransaction_Commit(t *testing.T) {
	s, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectPrepare("UPDATE article SET title = ? WHERE id = ?").
		ExpectExec().
		WithArgs("new", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Begin(ctx))

	conn, err := s.AcquireConn(ctx)
	require.NoError(t, err)
	assert.False(t, conn.AutoCommit())

	require.NoError(t, s.Exec(ctx, "UPDATE article SET title = ? WHERE id = ?", "new", 1))
	require.NoError(t, s.Commit(ctx))
	assert.True(t, conn.AutoCommit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_Rollback(t *testing.T) {
	s, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_FinishWithoutBegin(t *testing.T) {
	s, _ := newMockDB(t)
	ctx := context.Background()

	err := s.Commit(ctx)
	var stmtErr *StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, "commit", stmtErr.Op)
	assert.ErrorIs(t, err, ErrNoTransaction)

	_, err = s.AcquireConn(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Rollback(ctx), ErrNoTransaction)
}

func TestTransaction_BeginError(t *testing.T) {
	s, mock := newMockDB(t)
	boom := errors.New("begin refused")
	mock.ExpectBegin().WillReturnError(boom)

	err := s.Begin(context.Background())
	var stmtErr *StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, "begin", stmtErr.Op)
	assert.ErrorIs(t, err, boom)
}

func TestExec_Errors(t *testing.T) {
	s, mock := newMockDB(t)
	ctx := context.Background()

	prepareErr := errors.New("syntax error")
	mock.ExpectPrepare("DELETE FORM article").WillReturnError(prepareErr)

	err := s.Exec(ctx, "DELETE FORM article")
	var stmtErr *StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, "DELETE FORM article", stmtErr.SQL)
	assert.ErrorIs(t, err, prepareErr)
	assert.Contains(t, err.Error(), "syntax error")

	execErr := errors.New("table is locked")
	mock.ExpectPrepare("DELETE FROM article").ExpectExec().WillReturnError(execErr)

	err = s.Exec(ctx, "DELETE FROM article")
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, "exec", stmtErr.Op)
	assert.ErrorIs(t, err, execErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDevMode_LogsStatements(t *testing.T) {
	logger := &captureLogger{}
	s, mock := newMockDB(t, WithLogger(logger))
	ctx := WithScope(context.Background(), "req-1")

	mock.ExpectPrepare("DELETE FROM article WHERE id = ?").
		ExpectExec().WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Exec(ctx, "DELETE FROM article WHERE id = ?", 7))
	assert.Empty(t, logger.Lines())
	assert.False(t, s.DevMode())

	s.SetDevMode(true)
	assert.True(t, s.DevMode())
	mock.ExpectPrepare("DELETE FROM article WHERE id = ?").
		ExpectExec().WithArgs(8).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Exec(ctx, "DELETE FROM article WHERE id = ?", 8))

	lines := logger.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "[SQL] DELETE FROM article WHERE id = ?", lines[0])
	assert.Contains(t, lines[1], "[PARAMS] ")
	assert.Contains(t, lines[1], "stmt=")
	assert.Contains(t, lines[1], utils.Fingerprint("DELETE FROM article WHERE id = ?"))
	assert.Contains(t, lines[1], "req-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithDevMode(t *testing.T) {
	s, _ := newMockDB(t, WithDevMode(true))
	assert.True(t, s.DevMode())
}

func TestClose(t *testing.T) {
	s, _ := newMockDB(t)
	ctx := context.Background()

	_, err := s.AcquireConn(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, 0, s.Stats().Scopes)
	assert.NoError(t, s.Close())

	_, err = s.AcquireConn(ctx)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.SQL().Append("SELECT 1").SelectRows(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConcurrentScopes(t *testing.T) {
	s, _ := newMockDB(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := WithScope(context.Background(), fmt.Sprintf("worker-%d", i))
			conn, err := s.AcquireConn(ctx)
			assert.NoError(t, err)
			again, err := s.AcquireConn(ctx)
			assert.NoError(t, err)
			assert.Same(t, conn, again)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, s.Stats().Scopes)
}
