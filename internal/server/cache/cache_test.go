package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCachesSuccess(t *testing.T) {
	c := New(time.Minute, time.Minute)
	calls := 0
	load := func() (any, error) {
		calls++
		return []string{"a"}, nil
	}

	first, err := c.Load(Key("collections", "inst-1"), load)
	require.NoError(t, err)
	second, err := c.Load(Key("collections", "inst-1"), load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, Stats{Items: 1, Hits: 1, Misses: 1}, c.Stats())
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute, time.Minute)
	boom := errors.New("store down")

	_, err := c.Load("k", func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, c.ItemCount())

	v, err := c.Load("k", func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestClear(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	require.Equal(t, 2, c.ItemCount())

	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.ItemCount())
}

func TestEntriesExpire(t *testing.T) {
	c := New(20*time.Millisecond, time.Hour)
	c.Set("a", 1)

	require.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "collections|geojson|", Key("collections", "geojson", ""))
}
