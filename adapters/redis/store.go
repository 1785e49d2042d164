// Package redis is the durable key-value store backend.
//
// Keys are namespaced per host:
//
//	<prefix>:<host>:user:<id>          user record (versioned JSON)
//	<prefix>:<host>:accounts:<userID>  hash of account ID -> account record
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/lborres/linkage/core"
)

const DefaultPrefix = "linkage"

var (
	_ core.StoreProvider = (*Provider)(nil)
	_ core.Store         = (*Store)(nil)
)

type Provider struct {
	client redis.UniversalClient
	prefix string
}

func NewProvider(client redis.UniversalClient, prefix string) *Provider {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Provider{client: client, prefix: prefix}
}

// Ping reports whether the server is reachable
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (p *Provider) ForHost(host string) core.Store {
	return &Store{
		client:    p.client,
		namespace: p.prefix + ":" + host,
	}
}

type Store struct {
	client    redis.UniversalClient
	namespace string
}

func (s *Store) userKey(id string) string {
	return s.namespace + ":user:" + id
}

func (s *Store) accountsKey(userID string) string {
	return s.namespace + ":accounts:" + userID
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	data, err := s.client.Get(ctx, s.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	return core.DecodeUser(data)
}

func (s *Store) PutUser(ctx context.Context, u *core.User) error {
	data, err := core.EncodeUser(u)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.userKey(u.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteUser removes the user and its accounts in a single DEL
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.userKey(id), s.accountsKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) PutAccount(ctx context.Context, a *core.Account) error {
	data, err := core.EncodeAccount(a)
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, s.accountsKey(a.UserID), a.ID, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) GetAccountsByUser(ctx context.Context, userID string) ([]*core.Account, error) {
	fields, err := s.client.HGetAll(ctx, s.accountsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	accounts := make([]*core.Account, 0, len(fields))
	for _, data := range fields {
		acc, err := core.DecodeAccount([]byte(data))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	if err := s.client.HDel(ctx, s.accountsKey(userID), id).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}
