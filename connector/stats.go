package connector

import "time"

// ConnectionStats represents database connection pool statistics.
type ConnectionStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	// Scopes is the number of execution scopes holding a connection.
	Scopes int
	// OldestScope is how long the longest-held scope connection has been open.
	OldestScope time.Duration
}
