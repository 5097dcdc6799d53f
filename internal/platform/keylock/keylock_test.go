package keylock

import (
	"sync"
	"testing"
)

func TestLockSerializesPerKey(t *testing.T) {
	m := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("review-1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter=%d, want 50", counter)
	}
	if m.Len() != 0 {
		t.Fatalf("Len=%d after all unlocks, want 0", m.Len())
	}
}

func TestDistinctKeysDoNotBlock(t *testing.T) {
	m := New()
	unlockA := m.Lock("a")
	unlockB := m.Lock("b")
	if m.Len() != 2 {
		t.Fatalf("Len=%d, want 2", m.Len())
	}
	unlockB()
	unlockA()
}
