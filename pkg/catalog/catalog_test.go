package catalog

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starterbench/crankdaq/pkg/session"
)

func TestCatalog_RecordAndList(t *testing.T) {
	c, err := Open(":memory:")
	require.NoError(t, err)
	defer c.Close()

	ep := session.Episode{
		File:        "crank0000.csv",
		StartMicros: 1000,
		EndMicros:   5000,
		Records:     10,
		Bytes:       400,
		Overflows:   0,
		BusFaults:   1,
	}
	require.NoError(t, c.Record(ep))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "crank0000.csv", got.File)
	assert.Equal(t, uint32(1000), got.StartUsec)
	assert.Equal(t, uint32(5000), got.EndUsec)
	assert.Equal(t, uint64(10), got.Records)
	assert.Equal(t, 400, got.Bytes)
	assert.Zero(t, got.Overflows)
	assert.Equal(t, uint64(1), got.BusFaults)
	assert.False(t, got.RecordedAt.IsZero())
}

func TestCatalog_ListOrderedOldestFirst(t *testing.T) {
	c, err := Open(":memory:")
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Record(session.Episode{File: fmt.Sprintf("crank%04d.csv", i)}))
	}

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "crank0000.csv", entries[0].File)
	assert.Equal(t, "crank0002.csv", entries[2].File)
}

func TestCatalog_EmptyList(t *testing.T) {
	c, err := Open(":memory:")
	require.NoError(t, err)
	defer c.Close()

	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCatalog_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Record(session.Episode{File: "crank0000.csv", Records: 5}))
	require.NoError(t, c.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(5), entries[0].Records)
}
