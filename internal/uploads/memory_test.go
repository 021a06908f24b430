package uploads

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/internal/csvfile"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

func sampleUpload() *Upload {
	return &Upload{
		FileName: "holdings.csv",
		Headers:  []string{"Inst", "Coll"},
		Rows:     [][]string{{"Smith College", "Botanicals"}},
	}
}

func TestMemoryStore_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour, time.Hour)
	defer s.Close(ctx)

	in := sampleUpload()
	id, err := s.Create(ctx, in)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "id should be a UUID")
	assert.Empty(t, in.ID, "caller's upload must not be modified")

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, []string{"Inst", "Coll"}, got.Headers)
	assert.WithinDuration(t, got.CreatedAt.Add(time.Hour), got.ExpiresAt, time.Millisecond)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	assert.True(t, pkgerrors.IsNotFound(err))
	err = s.Delete(ctx, id)
	assert.True(t, pkgerrors.IsNotFound(err), "second delete is NotFound")
}

func TestMemoryStore_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour, time.Hour)
	defer s.Close(ctx)

	seen := map[string]bool{}
	for range 50 {
		id, err := s.Create(ctx, sampleUpload())
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestMemoryStore_ExpiryReportsOnlyUnconsumed(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var expired []string
	s := NewMemoryStore(20*time.Millisecond, time.Hour, WithExpiredFunc(func(u *Upload) {
		mu.Lock()
		defer mu.Unlock()
		expired = append(expired, u.ID)
	}))
	defer s.Close(ctx)

	abandoned, err := s.Create(ctx, sampleUpload())
	require.NoError(t, err)
	consumed, err := s.Create(ctx, sampleUpload())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, consumed))

	time.Sleep(40 * time.Millisecond)

	_, err = s.Get(ctx, abandoned)
	assert.True(t, pkgerrors.IsNotFound(err), "expired upload is gone before the sweep")

	s.Reap()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{abandoned}, expired)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := NewMemoryStore(time.Hour, time.Hour)
	defer s.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, sampleUpload())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Get(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromFile(t *testing.T) {
	f := &csvfile.File{
		Name:     "a.csv",
		Headers:  []string{"a"},
		Rows:     [][]string{{"1"}},
		Warnings: []csvfile.Warning{{Row: 1, Message: "padded"}},
	}
	u := FromFile(f)
	assert.Equal(t, "a.csv", u.FileName)
	assert.Equal(t, f.Headers, u.Headers)
	assert.Equal(t, f.Rows, u.Rows)
	assert.Len(t, u.Warnings, 1)
}
