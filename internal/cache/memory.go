package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process Cache. Values are JSON-encoded on Set so callers
// never share mutable state with the cache.
type Memory struct {
	entries *xsync.Map[string, entry]
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: xsync.NewMap[string, entry](), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	e, ok := m.entries.Load(key)
	if !ok {
		return false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.entries.Delete(key)
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key. A ttl of zero never expires.
func (m *Memory) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	e := entry{data: b}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries.Store(key, e)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.entries.Delete(k)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.entries.Clear()
	return nil
}
