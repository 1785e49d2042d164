package pgx

import (
	"context"
	"fmt"
	"time"

	"github.com/lborres/linkage/core"
)

func (s *Store) PutAccount(ctx context.Context, acc *core.Account) error {
	query := `INSERT INTO public.accounts (host, id, user_id, provider_id, account_id, email, scopes, access_token, refresh_token, expires_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          ON CONFLICT (host, id) DO UPDATE SET
	              account_id = EXCLUDED.account_id, email = EXCLUDED.email, scopes = EXCLUDED.scopes,
	              access_token = EXCLUDED.access_token, refresh_token = EXCLUDED.refresh_token,
	              expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`

	var expiresAt *time.Time
	if !acc.ExpiresAt.IsZero() {
		expiresAt = &acc.ExpiresAt
	}

	scopes := acc.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	_, err := s.pool.Exec(ctx, query,
		s.host, acc.ID, acc.UserID, acc.ProviderID, acc.AccountID, acc.Email, scopes,
		acc.AccessToken, acc.RefreshToken, expiresAt, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) GetAccountsByUser(ctx context.Context, userID string) ([]*core.Account, error) {
	query := `SELECT id, user_id, provider_id, account_id, email, scopes, access_token, refresh_token, expires_at, created_at, updated_at
	          FROM public.accounts WHERE host = $1 AND user_id = $2 ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, s.host, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var accounts []*core.Account
	for rows.Next() {
		acc := &core.Account{}
		var expiresAt *time.Time
		err := rows.Scan(
			&acc.ID, &acc.UserID, &acc.ProviderID, &acc.AccountID, &acc.Email, &acc.Scopes,
			&acc.AccessToken, &acc.RefreshToken, &expiresAt, &acc.CreatedAt, &acc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if expiresAt != nil {
			acc.ExpiresAt = *expiresAt
		}
		accounts = append(accounts, acc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	return accounts, nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM public.accounts WHERE host = $1 AND user_id = $2 AND id = $3`, s.host, userID, id)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}
