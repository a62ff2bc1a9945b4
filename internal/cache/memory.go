package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory implementa Client sobre go-cache. Útil para desarrollo y testing;
// no es compartido entre procesos.
type Memory struct {
	prefix string
	c      *gocache.Cache
}

// NewMemory crea un cliente en memoria.
func NewMemory(prefix string) *Memory {
	return &Memory{prefix: prefix, c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func memTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	default:
		return fmt.Sprint(t), nil
	}
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := m.c.Add(prefixed(m.prefix, key), value, memTTL(ttl)); err != nil {
		// Add solo falla si la key existe y no expiró
		return false, nil
	}
	return true, nil
}

func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	k := prefixed(m.prefix, key)
	var err error
	for i := 0; i < 3; i++ {
		if err = m.c.Add(k, int64(1), memTTL(ttl)); err == nil {
			return 1, nil
		}
		var n int64
		if n, err = m.c.IncrementInt64(k, 1); err == nil {
			return n, nil
		}
		// La key expiró entre Add e Increment: reintentar el Add.
	}
	return 0, fmt.Errorf("cache: incr %s: %w", key, err)
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.c.Get(prefixed(m.prefix, key))
	return ok, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(prefixed(m.prefix, key))
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
