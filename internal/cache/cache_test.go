package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type page struct {
	Title   string `json:"title"`
	Rows    []int  `json:"rows"`
	Partial bool   `json:"partial"`
}

func (p page) Degraded() bool { return p.Partial }

type run struct {
	Rows     []int    `json:"rows"`
	Failures []string `json:"failures"`
}

func (r run) Incomplete() bool { return len(r.Failures) > 0 }

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	c, err := NewRedis("redis://"+mr.Addr(), "")
	if err != nil {
		mr.Close()
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		mr.Close()
	})
	return c, mr
}

func TestKey(t *testing.T) {
	if got := Key("flipside", "abc-123"); got != "near-dashboard:flipside:abc-123" {
		t.Errorf("Key = %q", got)
	}
	if got := sourceOf(Key("llama", "protocols")); got != "llama" {
		t.Errorf("sourceOf = %q", got)
	}
}

func TestNewRedisBadURL(t *testing.T) {
	if _, err := NewRedis("not a url", ""); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestRedisRoundTripAndTTL(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	var got page
	found, err := c.Get(ctx, "k", &got)
	if err != nil || found {
		t.Fatalf("empty cache: found=%v err=%v", found, err)
	}

	if err := c.Set(ctx, "k", page{Title: "a", Rows: []int{1, 2}}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	found, err = c.Get(ctx, "k", &got)
	if err != nil || !found {
		t.Fatalf("after Set: found=%v err=%v", found, err)
	}
	if got.Title != "a" || len(got.Rows) != 2 {
		t.Errorf("unexpected value %+v", got)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	found, _ = c.Get(ctx, "k", &got)
	if found {
		t.Error("entry should expire")
	}
}

func TestRedisDelete(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	_ = c.Set(ctx, "a", 1, 0)
	_ = c.Set(ctx, "b", 2, 0)
	if err := c.Delete(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var v int
	if found, _ := c.Get(ctx, "a", &v); found {
		t.Error("a should be gone")
	}
	if err := c.Delete(ctx); err != nil {
		t.Errorf("Delete with no keys: %v", err)
	}
}

func TestRedisCorruptValue(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Set("bad", "{not json")

	var v page
	found, err := c.Get(context.Background(), "bad", &v)
	if err == nil || found {
		t.Errorf("expected decode error, found=%v err=%v", found, err)
	}
}

func TestRedisPing(t *testing.T) {
	c, mr := setupTestRedis(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	mr.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Error("Ping should fail once the server is gone")
	}
}

func TestMemoryTTL(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_ = m.Set(ctx, "k", page{Title: "x"}, time.Minute)
	_ = m.Set(ctx, "forever", page{Title: "y"}, 0)

	var got page
	if found, _ := m.Get(ctx, "k", &got); !found || got.Title != "x" {
		t.Fatalf("expected hit, got %+v", got)
	}

	now = now.Add(time.Minute)
	if found, _ := m.Get(ctx, "k", &got); found {
		t.Error("entry should expire at its deadline")
	}
	if found, _ := m.Get(ctx, "forever", &got); !found {
		t.Error("zero ttl should not expire")
	}
}

func TestMemoryIsolatesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := page{Rows: []int{1}}
	_ = m.Set(ctx, "k", v, 0)
	v.Rows[0] = 99

	var got page
	_, _ = m.Get(ctx, "k", &got)
	if got.Rows[0] != 1 {
		t.Errorf("cached value mutated through caller: %v", got.Rows)
	}
}

func TestLoad(t *testing.T) {
	backends := map[string]func(t *testing.T) Cache{
		"memory": func(t *testing.T) Cache { return NewMemory() },
		"redis":  func(t *testing.T) Cache { c, _ := setupTestRedis(t); return c },
	}
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			c := mk(t)
			ctx := context.Background()
			calls := 0
			fn := func(context.Context) (page, error) {
				calls++
				return page{Title: "fresh"}, nil
			}

			for i := 0; i < 3; i++ {
				got, err := Load(ctx, c, Key("flipside", "q"), time.Minute, fn)
				if err != nil || got.Title != "fresh" {
					t.Fatalf("Load: %+v %v", got, err)
				}
			}
			if calls != 1 {
				t.Errorf("fn called %d times, want 1", calls)
			}

			_ = c.Delete(ctx, Key("flipside", "q"))
			_, _ = Load(ctx, c, Key("flipside", "q"), time.Minute, fn)
			if calls != 2 {
				t.Errorf("fn called %d times after invalidation, want 2", calls)
			}
		})
	}
}

func TestLoadSkipsDegradedAndErrors(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	calls := 0

	degraded := func(context.Context) (page, error) {
		calls++
		return page{Partial: true}, nil
	}
	_, _ = Load(ctx, c, "k", time.Minute, degraded)
	got, _ := Load(ctx, c, "k", time.Minute, degraded)
	if calls != 2 || !got.Partial {
		t.Errorf("degraded result should not be cached, calls=%d", calls)
	}

	boom := errors.New("boom")
	_, err := Load(ctx, c, "e", time.Minute, func(context.Context) (page, error) { return page{}, boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	var v page
	if found, _ := c.Get(ctx, "e", &v); found {
		t.Error("failed result should not be cached")
	}
}

func TestLoadShortensTTLForIncompleteResults(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	complete := func(context.Context) (run, error) { return run{Rows: []int{1}}, nil }
	partial := func(context.Context) (run, error) { return run{Rows: []int{1}, Failures: []string{"x"}}, nil }

	if _, err := Load(ctx, c, "full", time.Hour, complete); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(ctx, c, "part", time.Hour, partial); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("full"); ttl != time.Hour {
		t.Errorf("complete TTL = %v, want 1h", ttl)
	}
	if ttl := mr.TTL("part"); ttl != 15*time.Minute {
		t.Errorf("incomplete TTL = %v, want 15m", ttl)
	}
}

func TestLoadTreatsCacheErrorAsMiss(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	got, err := Load(context.Background(), c, "k", time.Minute, func(context.Context) (page, error) {
		return page{Title: "computed"}, nil
	})
	if err != nil || got.Title != "computed" {
		t.Errorf("Load should fall through on cache errors: %+v %v", got, err)
	}
}
