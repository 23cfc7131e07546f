package google

import (
	"errors"
	"sync"
	"time"

	interrors "github.com/jrsteele09/trails-auth/internal/errors"
)

// FlowState is what AuthCodeURL remembers until the matching callback arrives.
type FlowState struct {
	CodeVerifier string
	Nonce        string
	CreatedAt    time.Time
}

type StateRepo interface {
	Upsert(state string, flow *FlowState) error
	Get(state string) (*FlowState, error)
	Delete(state string) error
	// Prune drops states created more than ttl before now and reports how many went.
	Prune(now time.Time, ttl time.Duration) int
}

var _ StateRepo = (*InMemoryStateRepo)(nil)

// InMemoryStateRepo is a thread-safe in-memory StateRepo.
type InMemoryStateRepo struct {
	mu     sync.RWMutex
	states map[string]*FlowState
}

func NewInMemoryStateRepo() *InMemoryStateRepo {
	return &InMemoryStateRepo{
		states: make(map[string]*FlowState),
	}
}

func (r *InMemoryStateRepo) Upsert(state string, flow *FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flow == nil {
		return errors.New("flow state cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *flow
	r.states[state] = &cp
	return nil
}

func (r *InMemoryStateRepo) Get(state string) (*FlowState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, ok := r.states[state]
	if !ok {
		return nil, interrors.ErrStateNotFound
	}
	cp := *flow
	return &cp, nil
}

func (r *InMemoryStateRepo) Delete(state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

func (r *InMemoryStateRepo) Prune(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for state, flow := range r.states {
		if now.Sub(flow.CreatedAt) > ttl {
			delete(r.states, state)
			removed++
		}
	}
	return removed
}
