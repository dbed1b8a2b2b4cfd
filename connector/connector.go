package connector

import (
	"context"

	"github.com/Konsultn-Engineering/simpledb/database"
)

// Connector hands out dedicated connections from a shared pool.
type Connector interface {
	// Connect takes a connection out of the pool. The connection goes back
	// when the returned Conn is closed.
	Connect(ctx context.Context) (*database.Conn, error)
	Config() Config
	Stats() ConnectionStats
	Close() error
}
