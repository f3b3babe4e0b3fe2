package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedTask struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Progress int      `json:"progress"`
	Tags     []string `json:"tags"`
}

func newTestMultiLevel(t *testing.T) (*MultiLevelCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewMultiLevelCache(NewRedisCacheFromClient(client))
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestMultiLevelSetGet(t *testing.T) {
	cache, _ := newTestMultiLevel(t)

	original := cachedTask{ID: "t1", Title: "write tests", Progress: 33, Tags: []string{"backend"}}
	if err := cache.Set("task:t1", original, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got cachedTask
	if err := cache.Get("task:t1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != original.ID || got.Title != original.Title || got.Progress != original.Progress {
		t.Errorf("Get() = %+v, want %+v", got, original)
	}
}

func TestMultiLevelMiss(t *testing.T) {
	cache, _ := newTestMultiLevel(t)

	var got cachedTask
	if err := cache.Get("task:absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestMultiLevelL2Promotion(t *testing.T) {
	cache, _ := newTestMultiLevel(t)

	original := cachedTask{ID: "t2", Title: "promote me"}
	if err := cache.Set("task:t2", original, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Drop L1 only; the next read must come from Redis and repopulate L1.
	cache.l1.Delete("task:t2")

	var got cachedTask
	if err := cache.Get("task:t2", &got); err != nil {
		t.Fatalf("Get() after L1 eviction error = %v", err)
	}
	if got.Title != "promote me" {
		t.Errorf("Get() = %+v, want the L2 copy", got)
	}

	if found, _ := cache.l1.Exists("task:t2"); !found {
		t.Error("entry not promoted back to L1")
	}
}

func TestMultiLevelDelete(t *testing.T) {
	cache, mr := newTestMultiLevel(t)

	if err := cache.Set("task:t3", cachedTask{ID: "t3"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Delete("task:t3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var got cachedTask
	if err := cache.Get("task:t3", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want ErrCacheMiss", err)
	}
	if mr.Exists("task:t3") {
		t.Error("key still present in Redis after delete")
	}
}

func TestMultiLevelDeletePattern(t *testing.T) {
	cache, _ := newTestMultiLevel(t)

	keys := []string{"task:a", "task:b", "team:c"}
	for _, key := range keys {
		if err := cache.Set(key, cachedTask{ID: key}, time.Minute); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := cache.DeletePattern("task:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	var got cachedTask
	if err := cache.Get("task:a", &got); !errors.Is(err, ErrCacheMiss) {
		t.Error("task:a survived pattern delete")
	}
	if err := cache.Get("task:b", &got); !errors.Is(err, ErrCacheMiss) {
		t.Error("task:b survived pattern delete")
	}
	if err := cache.Get("team:c", &got); err != nil {
		t.Errorf("team:c was deleted by an unrelated pattern: %v", err)
	}
}

func TestMultiLevelSurvivesRedisOutage(t *testing.T) {
	cache, mr := newTestMultiLevel(t)
	mr.Close()

	if err := cache.Set("task:t4", cachedTask{ID: "t4"}, time.Minute); err != nil {
		t.Fatalf("Set() with Redis down error = %v", err)
	}

	var got cachedTask
	if err := cache.Get("task:t4", &got); err != nil {
		t.Fatalf("Get() with Redis down error = %v (L1 should serve)", err)
	}
	if got.ID != "t4" {
		t.Errorf("Get() = %+v, want the L1 copy", got)
	}
}

func TestMultiLevelStats(t *testing.T) {
	cache, _ := newTestMultiLevel(t)

	if err := cache.Set("task:t5", cachedTask{ID: "t5"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	var got cachedTask
	if err := cache.Get("task:t5", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	cache.Get("task:missing", &got)

	stats := cache.Stats()
	for _, key := range []string{"l1", "l2", "metrics", "hit_rate_percent", "circuit_breaker"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Stats() missing %q", key)
		}
	}

	metrics := cache.GetMetrics()
	if metrics.GetStats()["hits"].(int64) < 1 {
		t.Error("hit not recorded")
	}
	if metrics.GetStats()["misses"].(int64) < 1 {
		t.Error("miss not recorded")
	}
}
