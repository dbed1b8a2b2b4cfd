package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Preparer is implemented by *sql.Conn, *sql.DB and *sql.Tx.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// StatementCache keeps prepared statements keyed by their SQL text.
// Statements are closed when evicted and when the cache is purged.
type StatementCache struct {
	cache *lru.Cache[string, *sql.Stmt]
	mu    sync.Mutex
}

func NewStatementCache(size int) (*StatementCache, error) {
	cache, err := lru.NewWithEvict(size, func(_ string, stmt *sql.Stmt) {
		stmt.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("statement cache: %w", err)
	}
	return &StatementCache{cache: cache}, nil
}

func (s *StatementCache) Get(query string) (*sql.Stmt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(query)
}

// GetOrPrepare returns the cached statement for query or prepares and caches it.
func (s *StatementCache) GetOrPrepare(ctx context.Context, p Preparer, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.cache.Get(query); ok {
		return stmt, nil
	}

	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	s.cache.Add(query, stmt)
	return stmt, nil
}

func (s *StatementCache) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Close purges the cache, closing every statement it holds.
func (s *StatementCache) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Purge()
	return nil
}
