package oauth

import (
	"portal/config"
	"portal/internal/domain/service"
)

// registry is a name-keyed lookup of configured providers.
type registry struct {
	providers map[string]service.OAuthProvider
}

// NewRegistry builds the provider registry from configuration. Providers
// without configuration are simply absent; callbacks for them fail lookup.
func NewRegistry(cfg *config.Config) service.OAuthProviderRegistry {
	providers := make(map[string]service.OAuthProvider)

	if providerCfg, ok := cfg.OAuth[ProviderGoogle]; ok && providerCfg.ClientID != "" {
		providers[ProviderGoogle] = NewGoogleProvider(providerCfg)
	}

	return &registry{providers: providers}
}

// Lookup returns the provider registered under name, or false.
func (r *registry) Lookup(name string) (service.OAuthProvider, bool) {
	provider, ok := r.providers[name]

	return provider, ok
}
