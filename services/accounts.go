package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lborres/linkage/core"
	"github.com/lborres/linkage/pkg/crypto"
)

// AccountService manages the third-party accounts a user has connected.
// Tokens are sealed before they reach the store.
type AccountService struct {
	sealer *crypto.Sealer
	ids    *crypto.IDGenerator
	now    func() time.Time
}

func NewAccountService(sealer *crypto.Sealer) (*AccountService, error) {
	ids, err := crypto.NewIDGenerator("")
	if err != nil {
		return nil, err
	}

	return &AccountService{
		sealer: sealer,
		ids:    ids,
		now:    time.Now,
	}, nil
}

// Connect stores grant as an account owned by userID. Reconnecting the same
// provider account replaces its tokens instead of adding a duplicate.
func (s *AccountService) Connect(ctx context.Context, store core.Store, userID string, grant *ZohoGrant) (*core.Account, error) {
	existing, err := store.GetAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	now := s.now()

	var acc *core.Account
	if grant.AccountID != "" {
		for _, a := range existing {
			if a.ProviderID == ZohoProviderID && a.AccountID == grant.AccountID {
				acc = a
				break
			}
		}
	}

	if acc == nil {
		id, err := s.ids.New()
		if err != nil {
			return nil, fmt.Errorf("failed to generate account id: %w", err)
		}
		acc = &core.Account{
			ID:         id,
			UserID:     userID,
			ProviderID: ZohoProviderID,
			AccountID:  grant.AccountID,
			CreatedAt:  now,
		}
	}

	accessToken, err := s.sealer.Seal(grant.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to seal access token: %w", err)
	}
	refreshToken := acc.RefreshToken
	if grant.RefreshToken != "" {
		// Zoho only issues a refresh token on the first offline consent
		if refreshToken, err = s.sealer.Seal(grant.RefreshToken); err != nil {
			return nil, fmt.Errorf("failed to seal refresh token: %w", err)
		}
	}

	if grant.Email != "" {
		acc.Email = grant.Email
	}
	acc.Scopes = grant.Scopes
	acc.AccessToken = accessToken
	acc.RefreshToken = refreshToken
	acc.ExpiresAt = grant.ExpiresAt
	acc.UpdatedAt = now

	if err := store.PutAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to store account: %w", err)
	}

	return acc, nil
}

// List returns summaries only; tokens never leave the service
func (s *AccountService) List(ctx context.Context, store core.Store, userID string) ([]core.AccountSummary, error) {
	accounts, err := store.GetAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	summaries := make([]core.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, a.Summary())
	}
	return summaries, nil
}

// AccessToken opens the stored access token for one of userID's accounts.
// It is the read path for calling Zoho APIs on the user's behalf; no
// route uses it yet.
func (s *AccountService) AccessToken(ctx context.Context, store core.Store, userID, id string) (string, error) {
	acc, err := s.find(ctx, store, userID, id)
	if err != nil {
		return "", err
	}
	return s.sealer.Open(acc.AccessToken)
}

func (s *AccountService) Disconnect(ctx context.Context, store core.Store, userID, id string) error {
	if _, err := s.find(ctx, store, userID, id); err != nil {
		return err
	}
	if err := store.DeleteAccount(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *AccountService) find(ctx context.Context, store core.Store, userID, id string) (*core.Account, error) {
	accounts, err := store.GetAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	for _, a := range accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, core.ErrAccountNotFound
}
