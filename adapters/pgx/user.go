package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lborres/linkage/core"
)

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	q := `SELECT id, name, email, created_at FROM public.users WHERE host = $1 AND id = $2`

	user := &core.User{}
	err := s.pool.QueryRow(ctx, q, s.host, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return user, nil
}

// PutUser upserts so concurrent first sightings of an ID settle on the last write
func (s *Store) PutUser(ctx context.Context, user *core.User) error {
	q := `INSERT INTO public.users (host, id, name, email, created_at) VALUES ($1, $2, $3, $4, $5)
	      ON CONFLICT (host, id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, created_at = EXCLUDED.created_at`

	_, err := s.pool.Exec(ctx, q, s.host, user.ID, user.Name, user.Email, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteUser relies on ON DELETE CASCADE to drop the user's accounts
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM public.users WHERE host = $1 AND id = $2`, s.host, id)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}
