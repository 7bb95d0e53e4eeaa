package platform

import (
	"context"
	"errors"
)

// ErrUnsupportedPlatform is returned when no fetcher is registered for a platform.
var ErrUnsupportedPlatform = errors.New("unsupported_platform")

// Fetcher supplies current resource states for one ad account. Real
// implementations call the platform's API; this repository ships a stub.
type Fetcher interface {
	// FetchResources returns the current state of every resource of the
	// given type in the external account. Each returned state carries a
	// stable id unique within the account for that resource type.
	FetchResources(ctx context.Context, externalAccountID string, resourceType ResourceType) ([]ResourceState, error)
}

// Registry resolves the fetcher for a platform.
type Registry struct {
	fetchers map[Platform]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[Platform]Fetcher)}
}

// Register binds a fetcher to a platform, replacing any previous binding.
func (r *Registry) Register(p Platform, f Fetcher) {
	r.fetchers[p] = f
}

// Fetcher returns the fetcher for a platform.
func (r *Registry) Fetcher(p Platform) (Fetcher, error) {
	f, ok := r.fetchers[p]
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	return f, nil
}
