package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_IncrIsAtomic(t *testing.T) {
	m := NewMemory("t")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Incr(ctx, "login:a@x.com", time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := m.Get(ctx, "login:a@x.com")
	require.NoError(t, err)
	require.Equal(t, "200", v)
}

func TestMemory_IncrWindowExpires(t *testing.T) {
	m := NewMemory("")
	ctx := context.Background()

	n, err := m.Incr(ctx, "k", 30*time.Millisecond)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	n, err = m.Incr(ctx, "k", 30*time.Millisecond)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	time.Sleep(60 * time.Millisecond)

	_, err = m.Get(ctx, "k")
	require.True(t, IsNotFound(err))
	n, err = m.Incr(ctx, "k", 30*time.Millisecond)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestMemory_SetNXKeepsFirstValue(t *testing.T) {
	m := NewMemory("")
	ctx := context.Background()

	ok, err := m.SetNX(ctx, "jtir:t1", "first", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.SetNX(ctx, "jtir:t1", "second", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	v, err := m.Get(ctx, "jtir:t1")
	require.NoError(t, err)
	require.Equal(t, "first", v)

	exists, err := m.Exists(ctx, "jtir:t1")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, m.Delete(ctx, "jtir:t1"))
	exists, err = m.Exists(ctx, "jtir:t1")
	require.NoError(t, err)
	require.False(t, exists)
}
