package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AuthContext answers "who is this request" for a single host
type AuthContext struct {
	host     string
	store    Store
	policy   CookiePolicy
	verifier IdentityVerifier
	now      func() time.Time
}

func NewAuthContext(host string, store Store, policy CookiePolicy, verifier IdentityVerifier) *AuthContext {
	if verifier == nil {
		verifier = PassthroughVerifier{}
	}

	return &AuthContext{
		host:     host,
		store:    store,
		policy:   policy,
		verifier: verifier,
		now:      time.Now,
	}
}

func (a *AuthContext) Host() string         { return a.host }
func (a *AuthContext) Store() Store         { return a.store }
func (a *AuthContext) Policy() CookiePolicy { return a.policy }

// RequireAuth resolves the identity cookie in cookieHeader to a user.
//
// A missing cookie yields (nil, nil). A value rejected by the verifier
// yields an error wrapping ErrInvalidIdentity. Either way the request is
// anonymous and the store is never written. An unknown ID gets a
// placeholder record persisted on the spot. Two requests racing to create
// the same ID both write; the last write wins.
//
// Any other error reports a store failure. Callers should log it and carry
// on as anonymous.
func (a *AuthContext) RequireAuth(ctx context.Context, cookieHeader string) (*User, error) {
	raw, ok := DecodeCookie(cookieHeader, IdentityCookie)
	if !ok {
		return nil, nil
	}

	userID, err := a.verifier.Verify(raw)
	if err != nil {
		if !errors.Is(err, ErrInvalidIdentity) {
			err = fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
		}
		return nil, err
	}

	user, err := a.store.GetUserByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user = placeholderUser(userID, a.now())
	if err := a.store.PutUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	return user, nil
}

// LoginResult is the outcome of accepting a bearer token from the login redirect
type LoginResult struct {
	User      *User
	SetCookie string
}

// Login accepts raw as the identity credential for this response and returns
// the Set-Cookie value that keeps it. An existing record is returned as is;
// otherwise one is built from profile (nil for a placeholder) and stored.
//
// When the store fails, the result is still usable and the error is returned
// alongside it so the caller can log it.
func (a *AuthContext) Login(ctx context.Context, raw string, profile *Profile) (*LoginResult, error) {
	userID, err := a.verifier.Verify(raw)
	if err != nil {
		return nil, err
	}

	setCookie, err := EncodeCookie(IdentityCookie, raw, a.policy, CookieOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}

	result := &LoginResult{SetCookie: setCookie}

	existing, err := a.store.GetUserByID(ctx, userID)
	if err == nil {
		result.User = existing
		return result, nil
	}

	result.User = profileUser(userID, profile, a.now())
	if !errors.Is(err, ErrUserNotFound) {
		return result, fmt.Errorf("failed to get user: %w", err)
	}

	if err := a.store.PutUser(ctx, result.User); err != nil {
		return result, fmt.Errorf("failed to store user: %w", err)
	}

	return result, nil
}

// Logout deletes the user record for the identity cookie, if any, and
// returns the Set-Cookie value that clears it. Stores drop the user's
// connected accounts with the record, so a later login with the same ID
// starts over. The cookie value is always returned; a non-nil error only
// reports that the best-effort deletion failed.
func (a *AuthContext) Logout(ctx context.Context, cookieHeader string) (string, error) {
	cleared := DeleteCookie(IdentityCookie, a.policy, CookieOptions{})

	raw, ok := DecodeCookie(cookieHeader, IdentityCookie)
	if !ok {
		return cleared, nil
	}

	userID, err := a.verifier.Verify(raw)
	if err != nil {
		return cleared, nil
	}

	if err := a.store.DeleteUser(ctx, userID); err != nil {
		return cleared, fmt.Errorf("failed to delete session: %w", err)
	}

	return cleared, nil
}
