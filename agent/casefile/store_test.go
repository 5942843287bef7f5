package casefile

import (
	"fmt"
	"sync"
	"testing"
)

func TestStorePutGet(t *testing.T) {
	s, err := NewStore(StoreConfig{})
	if err != nil {
		t.Fatal(err)
	}

	c := New(testNow)
	s.Put(c)

	got, ok := s.Get(c.CaseID)
	if !ok {
		t.Fatal("expected case to be found")
	}
	if got != c {
		t.Fatal("store must return the same instance")
	}

	if _, ok := s.Get("CASE-MISSING"); ok {
		t.Fatal("missing case must not be found")
	}
}

func TestStoreIgnoresEmptyID(t *testing.T) {
	s, err := NewStore(StoreConfig{})
	if err != nil {
		t.Fatal(err)
	}

	s.Put(nil)
	s.Put(&CaseContext{})
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

func TestStoreLRUEviction(t *testing.T) {
	s, err := NewStore(StoreConfig{MaxCases: 2})
	if err != nil {
		t.Fatal(err)
	}

	first := New(testNow)
	second := New(testNow)
	third := New(testNow)
	s.Put(first)
	s.Put(second)
	s.Put(third)

	if s.Len() != 2 {
		t.Fatalf("expected 2 cases after eviction, got %d", s.Len())
	}
	if _, ok := s.Get(first.CaseID); ok {
		t.Fatal("oldest case should have been evicted")
	}
	if _, ok := s.Get(third.CaseID); !ok {
		t.Fatal("newest case must survive")
	}
}

func TestStoreLockSerializesTurns(t *testing.T) {
	s, err := NewStore(StoreConfig{})
	if err != nil {
		t.Fatal(err)
	}

	c := New(testNow)
	s.Put(c)

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock(c.CaseID)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s, err := NewStore(StoreConfig{})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c := New(testNow)
			c.CaseID = fmt.Sprintf("CASE-TEST-%02d", n)
			s.Put(c)
			s.Get(c.CaseID)
		}(i)
	}
	wg.Wait()

	if s.Len() != 20 {
		t.Fatalf("expected 20 cases, got %d", s.Len())
	}
}
