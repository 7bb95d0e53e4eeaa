package platform

import (
	"context"
	"sync"
)

// StubFetcher is an in-memory fetcher used in development and tests. States
// are keyed by (account, resource type) and returned as stored.
type StubFetcher struct {
	mu     sync.RWMutex
	states map[string][]ResourceState
}

func NewStubFetcher() *StubFetcher {
	return &StubFetcher{states: make(map[string][]ResourceState)}
}

// SetResources replaces the stubbed states for an account and resource type.
func (f *StubFetcher) SetResources(externalAccountID string, resourceType ResourceType, states []ResourceState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[externalAccountID+"/"+string(resourceType)] = states
}

func (f *StubFetcher) FetchResources(_ context.Context, externalAccountID string, resourceType ResourceType) ([]ResourceState, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	stored := f.states[externalAccountID+"/"+string(resourceType)]
	out := make([]ResourceState, len(stored))
	copy(out, stored)
	return out, nil
}
