package core

import (
	"sort"
	"sync"
)

type RegistryConfig struct {
	Stores StoreProvider

	// CookieDomain empty means the Domain attribute is omitted
	CookieDomain string
	Production   bool

	// Optional config
	Verifier IdentityVerifier
}

// Registry maps a request host name to its AuthContext.
//
// Contexts are built lazily on first use and kept for the lifetime of the
// registry. Hosts are matched exactly; there is no wildcard or subdomain
// matching. Entries are never evicted, which is fine for a bounded set of
// tenant hosts but grows without limit if hosts are attacker-controlled.
type Registry struct {
	config   RegistryConfig
	mu       sync.RWMutex
	contexts map[string]*AuthContext
}

func NewRegistry(config RegistryConfig) (*Registry, error) {
	if config.Stores == nil {
		return nil, ErrStoreProviderRequired
	}
	if config.Verifier == nil {
		config.Verifier = PassthroughVerifier{}
	}

	return &Registry{
		config:   config,
		contexts: make(map[string]*AuthContext),
	}, nil
}

// Get returns the AuthContext for host, constructing it exactly once
func (r *Registry) Get(host string) *AuthContext {
	r.mu.RLock()
	actx, ok := r.contexts[host]
	r.mu.RUnlock()
	if ok {
		return actx
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another request may have won the race while we waited
	if actx, ok := r.contexts[host]; ok {
		return actx
	}

	policy := CookiePolicy{
		Domain:     r.config.CookieDomain,
		Production: r.config.Production,
	}
	actx = NewAuthContext(host, r.config.Stores.ForHost(host), policy, r.config.Verifier)
	r.contexts[host] = actx

	return actx
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// Hosts lists the hosts seen so far, sorted
func (r *Registry) Hosts() []string {
	r.mu.RLock()
	hosts := make([]string, 0, len(r.contexts))
	for host := range r.contexts {
		hosts = append(hosts, host)
	}
	r.mu.RUnlock()

	sort.Strings(hosts)
	return hosts
}
