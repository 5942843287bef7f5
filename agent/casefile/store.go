package casefile

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// StoreConfig controls the case store's retention policy. The POC default
// is an unbounded map; no TTL is applied. Setting MaxCases switches the
// backing storage to an LRU so stale cases are evicted by capacity.
type StoreConfig struct {
	MaxCases int `envconfig:"MAX_CASES" split_words:"true" default:"0"`
}

// Store is the process-wide mapping from case id to CaseContext. Entries
// are inserted on first request for a case and updated in place after;
// they are never deleted explicitly.
type Store struct {
	mu    sync.Mutex
	cases map[string]*CaseContext
	lru   *lru.Cache[string, *CaseContext]
	locks map[string]*sync.Mutex
}

func NewStore(cfg StoreConfig) (*Store, error) {
	s := &Store{locks: make(map[string]*sync.Mutex)}
	if cfg.MaxCases > 0 {
		cache, err := lru.New[string, *CaseContext](cfg.MaxCases)
		if err != nil {
			return nil, err
		}
		s.lru = cache
		return s, nil
	}
	s.cases = make(map[string]*CaseContext)
	return s, nil
}

func (s *Store) Get(caseID string) (*CaseContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lru != nil {
		return s.lru.Get(caseID)
	}
	c, ok := s.cases[caseID]
	return c, ok
}

func (s *Store) Put(c *CaseContext) {
	if c == nil || c.CaseID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lru != nil {
		s.lru.Add(c.CaseID, c)
		return
	}
	s.cases[c.CaseID] = c
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lru != nil {
		return s.lru.Len()
	}
	return len(s.cases)
}

// Lock takes the per-case advisory lock so at most one turn executes per
// case id at a time. The returned func releases it.
func (s *Store) Lock(caseID string) func() {
	s.mu.Lock()
	m, ok := s.locks[caseID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[caseID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
