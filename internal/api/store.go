package api

import (
	"sync"

	"github.com/google/uuid"
)

// SolveStore keeps finished solves in memory so they can be fetched by id.
type SolveStore struct {
	mu     sync.Mutex
	solves map[string]SolveResponse
}

func NewSolveStore() *SolveStore {
	return &SolveStore{
		solves: make(map[string]SolveResponse),
	}
}

func (s *SolveStore) Save(resp SolveResponse) {
	s.mu.Lock()
	s.solves[resp.ID] = resp
	s.mu.Unlock()
}

func (s *SolveStore) Get(id string) (SolveResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.solves[id]
	return resp, ok
}

func (s *SolveStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.solves)
}

func newSolveID() string {
	return "solve_" + uuid.NewString()
}
