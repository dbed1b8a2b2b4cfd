package utils

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator(t *testing.T) {
	g := UUIDGenerator{}
	assert.Equal(t, "uuid", g.Type())

	a, err := g.Generate()
	require.NoError(t, err)
	b, err := g.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	_, err = uuid.Parse(a)
	assert.NoError(t, err)
}

func TestULIDGenerator_Monotonic(t *testing.T) {
	g := NewULIDGenerator()
	assert.Equal(t, "ulid", g.Type())

	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		id, err := g.Generate()
		require.NoError(t, err)
		_, err = ulid.Parse(id)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	assert.True(t, sort.StringsAreSorted(ids), "ids from one generator must sort in creation order")
}
