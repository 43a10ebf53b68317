package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"power of two", 32, 32},
		{"one", 1, 1},
		{"zero falls back", 0, DefaultShardCount},
		{"negative falls back", -4, DefaultShardCount},
		{"not power of two falls back", 12, DefaultShardCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWithShards[int](tt.in)
			if got := m.ShardCount(); got != tt.want {
				t.Errorf("ShardCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[int]()

	if !m.SetIfAbsent("a", 1) {
		t.Fatal("SetIfAbsent(absent) should return true")
	}
	if m.SetIfAbsent("a", 2) {
		t.Error("SetIfAbsent(present) should return false")
	}
	if v, _ := m.Get("a"); v != 1 {
		t.Errorf("Get(a) = %d, want 1", v)
	}
}

func TestPop(t *testing.T) {
	m := New[int]()
	m.Set("a", 7)

	v, ok := m.Pop("a")
	if !ok || v != 7 {
		t.Errorf("Pop(existing) = (%d, %v), want (7, true)", v, ok)
	}
	if m.Has("a") {
		t.Error("a should not exist after Pop")
	}

	if _, ok := m.Pop("a"); ok {
		t.Error("Pop(absent) should return false")
	}
	m.Delete("never-there")
}

func TestCountAndValues(t *testing.T) {
	m := New[int]()
	for i := 0; i < 50; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	if got := m.Count(); got != 50 {
		t.Fatalf("Count() = %d, want 50", got)
	}

	values := m.Values()
	sort.Ints(values)
	for i, v := range values {
		if v != i {
			t.Fatalf("values[%d] = %d, want %d", i, v, i)
		}
	}

	if got := len(m.Keys()); got != 50 {
		t.Errorf("len(Keys()) = %d, want 50", got)
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	count := 0
	m.Range(func(string, int) bool {
		count++
		return count < 10
	})
	if count != 10 {
		t.Errorf("Range stopped at %d, want 10", count)
	}
}

func TestValuesWhileRemoving(t *testing.T) {
	m := New[int]()
	for i := 0; i < 200; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	for _, v := range m.Values() {
		m.Delete(fmt.Sprintf("k%d", v))
	}

	if got := m.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.SetIfAbsent(key, i)
				m.Range(func(string, int) bool { return true })
				m.Pop(key)
			}
		}(g)
	}
	wg.Wait()

	if got := m.Count(); got != 0 {
		t.Errorf("Count() = %d after concurrent add/remove, want 0", got)
	}
}
