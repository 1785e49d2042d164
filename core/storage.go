package core

import "context"

type UserStorage interface {
	// GetUserByID returns ErrUserNotFound when no record exists
	GetUserByID(ctx context.Context, id string) (*User, error)

	// PutUser creates or replaces the record for u.ID
	PutUser(ctx context.Context, u *User) error

	// DeleteUser is idempotent. It also removes the user's accounts.
	DeleteUser(ctx context.Context, id string) error
}

type AccountStorage interface {
	// PutAccount creates or replaces the account a.ID owned by a.UserID
	PutAccount(ctx context.Context, a *Account) error

	GetAccountsByUser(ctx context.Context, userID string) ([]*Account, error)

	DeleteAccount(ctx context.Context, userID, id string) error
}

type Store interface {
	UserStorage
	AccountStorage
}

// StoreProvider hands out one namespaced Store per host.
// Writes made through one host's Store are never visible to another host.
type StoreProvider interface {
	ForHost(host string) Store
}
