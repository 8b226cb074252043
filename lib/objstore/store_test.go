package objstore

import (
	"fmt"
	"sync"
	"testing"
)

func newTestStore(t *testing.T, capacity int) IObjectStore {
	s, err := NewLocalStore(capacity)
	if err != nil {
		t.Fatalf("NewLocalStore(%d) failed: %v", capacity, err)
	}
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := newTestStore(t, 10)

	if evicted := s.Put("a", int32(1)); evicted {
		t.Error("Put on an empty store should not evict")
	}
	s.Put("b", "two")

	v, ok := s.Get("a")
	if !ok || v != int32(1) {
		t.Errorf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}

	if !s.Delete("a") {
		t.Error("Delete(a) should report the key as deleted")
	}
	if s.Delete("a") {
		t.Error("second Delete(a) should report nothing deleted")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d; want 1", s.Len())
	}

	stats := s.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Evictions != 0 {
		t.Errorf("unexpected stats %s", stats)
	}
}

func TestEviction(t *testing.T) {
	s := newTestStore(t, 3)

	s.Put("a", 1)
	s.Put("b", 2)
	s.Put("c", 3)

	// touch a, so b is the least recently used entry
	s.Get("a")

	if evicted := s.Put("d", 4); !evicted {
		t.Error("Put beyond capacity should evict")
	}
	if _, ok := s.Get("b"); ok {
		t.Error("b should have been evicted")
	}

	keys := s.Keys()
	want := []string{"a", "c", "d"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("Keys() = %v; want %v", keys, want)
	}
	if s.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d; want 1", s.Stats().Evictions)
	}
}

func TestDefaultCapacity(t *testing.T) {
	s := newTestStore(t, 0)
	if c := s.Stats().Capacity; c != DefaultCapacity {
		t.Errorf("Capacity = %d; want %d", c, DefaultCapacity)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(t, 1000)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("%d-%d", g, i)
				s.Put(key, i)
				if v, ok := s.Get(key); !ok || v != i {
					t.Errorf("Get(%s) = %v, %v", key, v, ok)
				}
			}
		}(g)
	}
	wg.Wait()

	if s.Len() != 800 {
		t.Errorf("Len() = %d; want 800", s.Len())
	}
}
