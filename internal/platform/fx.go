package platform

import (
	"go.uber.org/fx"
)

// Module provides the fetcher registry with the stub fetcher bound to every
// supported platform. Real API clients replace these bindings when available.
var Module = fx.Module("platform",
	fx.Provide(func() *Registry {
		registry := NewRegistry()
		stub := NewStubFetcher()
		for _, p := range []Platform{PlatformMeta, PlatformGoogle, PlatformTikTok} {
			registry.Register(p, stub)
		}
		return registry
	}),
)
