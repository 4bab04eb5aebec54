package keypool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPool_RoundRobin(t *testing.T) {
	p := New([]string{"a", "b", "c"}, nil)
	var got []string
	for i := 0; i < 7; i++ {
		item, _, ok := p.Next()
		if !ok {
			t.Fatal("Next() ok = false")
		}
		got = append(got, item)
	}
	want := []string{"a", "b", "c", "a", "b", "c", "a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rotation mismatch (-want +got):\n%s", diff)
	}
	if p.Current() != 1 {
		t.Errorf("Current() = %d, want 1", p.Current())
	}
}

func TestPool_Empty(t *testing.T) {
	var p *Pool[int]
	if _, _, ok := p.Next(); ok {
		t.Error("nil pool returned an item")
	}
	if p.Len() != 0 || p.Current() != -1 {
		t.Errorf("nil pool Len/Current = %d/%d", p.Len(), p.Current())
	}
}

func TestPool_InjectedCounter(t *testing.T) {
	c := new(atomic.Uint64)
	c.Store(4)
	p := NewWithCounter([]int{10, 20}, nil, c)
	if item, idx, _ := p.Next(); item != 10 || idx != 0 {
		t.Errorf("Next() = %d,%d want 10,0", item, idx)
	}
}

func TestPool_ConcurrentNext(t *testing.T) {
	p := New([]int{0, 1, 2, 3}, nil)
	counts := make([]atomic.Int64, 4)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, idx, _ := p.Next()
				counts[idx].Add(1)
			}
		}()
	}
	wg.Wait()
	for i := range counts {
		if got := counts[i].Load(); got != 200 {
			t.Errorf("index %d used %d times, want 200", i, got)
		}
	}
}

func TestStatus_MasksKeys(t *testing.T) {
	p := New([]int{1, 2}, []string{"AIzaSecret1234", "ab"})
	s := p.Status()
	if diff := cmp.Diff([]string{"...1234", "****"}, s.Keys); diff != "" {
		t.Errorf("masked keys mismatch (-want +got):\n%s", diff)
	}
	if s.Total != 2 || s.CurrentIndex != 0 {
		t.Errorf("status = %+v", s)
	}
}
