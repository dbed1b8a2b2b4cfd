package connector

// Provider knows how to reach one kind of database through database/sql.
type Provider interface {
	// DriverName is the name the driver registered with database/sql.
	DriverName() string
	// DSN renders cfg as a data source name for the driver.
	DSN(cfg Config) (string, error)
}

// Pinner is implemented by providers whose database only lives while a
// connection is open, such as an in-memory sqlite database. A connector
// keeps one connection pinned from the first Connect until Close when
// PinConnection reports true.
type Pinner interface {
	PinConnection(cfg Config) bool
}
