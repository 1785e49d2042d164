// Package memory is the in-process store backend. It is used when no durable
// backend is configured, or when the durable one is unreachable at startup.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lborres/linkage/core"
)

var (
	_ core.StoreProvider = (*Provider)(nil)
	_ core.Store         = (*Store)(nil)
)

type Provider struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewProvider() *Provider {
	return &Provider{stores: make(map[string]*Store)}
}

// ForHost returns the same Store for repeated calls with the same host
func (p *Provider) ForHost(host string) core.Store {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.stores[host]
	if !ok {
		s = NewStore()
		p.stores[host] = s
	}
	return s
}

// Store keeps copies of records so callers can't mutate stored state
type Store struct {
	mu       sync.RWMutex
	users    map[string]core.User
	accounts map[string]map[string]core.Account // userID -> account ID -> account
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]core.User),
		accounts: make(map[string]map[string]core.Account),
	}
}

func (s *Store) GetUserByID(_ context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) PutUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	delete(s.accounts, id)
	return nil
}

func (s *Store) PutAccount(_ context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned, ok := s.accounts[a.UserID]
	if !ok {
		owned = make(map[string]core.Account)
		s.accounts[a.UserID] = owned
	}

	acc := *a
	acc.Scopes = append([]string(nil), a.Scopes...)
	owned[a.ID] = acc
	return nil
}

func (s *Store) GetAccountsByUser(_ context.Context, userID string) ([]*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.accounts[userID]
	accounts := make([]*core.Account, 0, len(owned))
	for _, a := range owned {
		acc := a
		acc.Scopes = append([]string(nil), a.Scopes...)
		accounts = append(accounts, &acc)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts[userID], id)
	return nil
}
