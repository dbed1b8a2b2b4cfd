package sqlite

import (
	"testing"
	"time"

	"github.com/Konsultn-Engineering/simpledb/connector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_DSN(t *testing.T) {
	p := &Provider{}
	assert.Equal(t, "sqlite3", p.DriverName())
	assert.Contains(t, connector.Providers(), "sqlite3")

	dsn, err := p.DSN(connector.Config{
		Database:       "/var/lib/app.db",
		TimeZone:       "UTC",
		ConnectTimeout: 2 * time.Second,
		Params:         map[string]string{"_foreign_keys": "on"},
	})
	require.NoError(t, err)
	assert.Equal(t, "file:/var/lib/app.db?_busy_timeout=2000&_foreign_keys=on&_loc=UTC", dsn)
}

func TestProvider_DSNMemory(t *testing.T) {
	dsn, err := (&Provider{}).DSN(connector.Config{Database: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "file::memory:?cache=shared&mode=memory", dsn)
}

func TestProvider_PinsOnlyMemory(t *testing.T) {
	p := &Provider{}
	assert.True(t, p.PinConnection(connector.Config{Database: ":memory:"}))
	assert.False(t, p.PinConnection(connector.Config{Database: "app.db"}))
}

func TestProvider_DSNErrors(t *testing.T) {
	_, err := (&Provider{}).DSN(connector.Config{})
	assert.Error(t, err)

	_, err = (&Provider{}).DSN(connector.Config{Database: "x.db", TimeZone: "Bad/Zone"})
	assert.Error(t, err)
}
