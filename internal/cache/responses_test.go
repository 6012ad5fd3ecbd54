package cache

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	m.Set(ctx, "k", []byte("v"), time.Minute)
	if got, ok := m.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	now = now.Add(59 * time.Second)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(time.Second)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatal("entry should be expired at ttl")
	}
	if m.Len() != 0 {
		t.Errorf("expired entry not removed, Len = %d", m.Len())
	}
}

func TestMemoryOverwriteAndClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Set(ctx, "k", []byte("one"), time.Hour)
	m.Set(ctx, "k", []byte("two"), time.Hour)
	if got, _ := m.Get(ctx, "k"); string(got) != "two" {
		t.Errorf("Get = %q, want two", got)
	}
	m.Set(ctx, "zero", []byte("x"), 0)
	if _, ok := m.Get(ctx, "zero"); ok {
		t.Error("zero ttl should not store")
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("entry survived Clear")
	}
}

func TestMemoryConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m.Set(ctx, "k", []byte{byte(i)}, time.Hour)
				m.Get(ctx, "k")
				if j%50 == 0 {
					_ = m.Clear(ctx)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestMemoryChunkedBody(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySize(1 << 20)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	// Random bytes do not compress, so the body spans many chunks.
	body := make([]byte, 32<<10)
	rand.New(rand.NewSource(1)).Read(body)
	m.Set(ctx, "vod", body, time.Minute)
	if m.Len() < 2 {
		t.Fatalf("Len = %d, want a chunked entry", m.Len())
	}
	got, ok := m.Get(ctx, "vod")
	if !ok || !bytes.Equal(got, body) {
		t.Fatalf("Get = %d bytes, %v", len(got), ok)
	}

	m.Set(ctx, "vod", []byte("small"), time.Minute)
	if got, _ := m.Get(ctx, "vod"); string(got) != "small" {
		t.Errorf("overwrite with inline body = %q", got)
	}

	now = now.Add(time.Minute)
	if _, ok := m.Get(ctx, "vod"); ok {
		t.Error("entry should be expired at ttl")
	}
}

func TestMemoryLostChunkIsMiss(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySize(1 << 20)
	body := make([]byte, 16<<10)
	rand.New(rand.NewSource(2)).Read(body)
	m.Set(ctx, "k", body, time.Hour)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatal("chunked entry missing")
	}
	m.cache.Del(chunkKey("k", m.gen.Load(), 1))
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("entry with a lost chunk should miss")
	}
}

func TestMemorySubSecondTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Error("sub-second ttl should round up, not drop")
	}
}

func redisForTest(t *testing.T) *Redis {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	r, err := New(url)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Ping(context.Background()); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRedisResponses(t *testing.T) {
	r := redisForTest(t)
	ctx := context.Background()
	c := NewRedisResponses(r)
	t.Cleanup(func() { _ = c.Clear(ctx) })

	body := []byte(`[{"category_id":"1","category_name":"News"}]`)
	c.Set(ctx, "http://h/player_api.php?action=get_live_categories", body, time.Minute)
	got, ok := c.Get(ctx, "http://h/player_api.php?action=get_live_categories")
	if !ok || string(got) != string(body) {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "http://h/player_api.php?action=get_live_categories"); ok {
		t.Error("entry survived Clear")
	}
}

func TestRedisLocker(t *testing.T) {
	r := redisForTest(t)
	ctx := context.Background()
	l := NewRedisLocker(r)
	unlock, err := l.TryLock(ctx, "test:reconcile", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.TryLock(ctx, "test:reconcile", time.Minute); err != ErrLocked {
		t.Errorf("second TryLock err = %v, want ErrLocked", err)
	}
	unlock()
	if l.IsLocked(ctx, "test:reconcile") {
		t.Error("lock still held after unlock")
	}
}

func TestQueueRoundTrip(t *testing.T) {
	r := redisForTest(t)
	ctx := context.Background()
	q := DefaultQueue + ":test"
	t.Cleanup(func() { _ = Del(ctx, r, q) })

	if err := Enqueue(ctx, r, q, RefreshJob{AccountID: "main", ContentType: "live"}); err != nil {
		t.Fatal(err)
	}
	job, err := Dequeue(ctx, r, q, time.Second)
	if err != nil || job == nil {
		t.Fatalf("Dequeue = %v, %v", job, err)
	}
	if job.AccountID != "main" || job.ContentType != "live" || job.Queued.IsZero() {
		t.Errorf("job = %+v", job)
	}
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	unlock, err := l.TryLock(ctx, "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.TryLock(ctx, "a", 0); err != ErrLocked {
		t.Errorf("err = %v, want ErrLocked", err)
	}
	if u, err := l.TryLock(ctx, "b", 0); err != nil {
		t.Errorf("independent key: %v", err)
	} else {
		u()
	}
	unlock()
	unlock()
	if u, err := l.TryLock(ctx, "a", 0); err != nil {
		t.Errorf("relock after unlock: %v", err)
	} else {
		u()
	}
}
