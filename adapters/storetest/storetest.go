// Package storetest holds the behaviour every core.StoreProvider must share.
// Backend packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lborres/linkage/core"
)

// Run exercises provider with isolated hosts. newHost must return a host
// name not used by any earlier call.
func Run(t *testing.T, provider core.StoreProvider, newHost func() string) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, p core.StoreProvider, host string)
	}{
		{"UserRoundTrip", testUserRoundTrip},
		{"UserNotFound", testUserNotFound},
		{"PutUserReplaces", testPutUserReplaces},
		{"DeleteUserIdempotent", testDeleteUserIdempotent},
		{"DeleteUserCascades", testDeleteUserCascades},
		{"AccountsOrdered", testAccountsOrdered},
		{"PutAccountReplaces", testPutAccountReplaces},
		{"DeleteAccount", testDeleteAccount},
		{"HostIsolation", testHostIsolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, provider, newHost())
		})
	}
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testUserRoundTrip(t *testing.T, p core.StoreProvider, host string) {
	ctx := context.Background()
	store := p.ForHost(host)

	want := &core.User{ID: "abc123", Name: "Alice", Email: "alice@example.org", CreatedAt: epoch}
	if err := store.PutUser(ctx, want); err != nil {
		t.Fatalf("PutUser failed: %v", err)
	}

	got, err := store.GetUserByID(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.ID != want.ID || got.Name != want.Name || got.Email != want.Email || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func testUserNotFound(t *testing.T, p core.StoreProvider, host string) {
	_, err := p.ForHost(host).GetUserByID(context.Background(), "missing")
	if !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func testPutUserReplaces(t *testing.T, p core.StoreProvider, host string) {
	ctx := context.Background()
	store := p.ForHost(host)

	_ = store.PutUser(ctx, &core.User{ID: "abc123", Name: "First", CreatedAt: epoch})
	if err := store.PutUser(ctx, &core.User{ID: "abc123", Name: "Second", CreatedAt: epoch}); err != nil {
		t.Fatalf("PutUser failed: %v", err)
	}

	got, err := store.GetUserByID(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Second" {
		t.Errorf("expected last write to win, got %q", got.Name)
	}
}

func testDeleteUserIdempotent(t *testing.T, p core.StoreProvider, host string) {
	ctx := context.Background()
	store := p.ForHost(host)

	_ = store.PutUser(ctx, &core.User{ID: "abc123", CreatedAt: epoch})
	for i := 0; i < 2; i++ {
		if err := store.DeleteUser(ctx, "abc123"); err != nil {
			t.Fatalf("DeleteUser call %d failed: %v", i+1, err)
		}
	}

	if _, err := store.GetUserByID(ctx, "abc123"); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound after delete, got %v", err)
	}
}

func newAccount(id, userID string, created time.Time) *core.Account {
	return &core.Account{
		ID:           id,
		UserID:       userID,
		ProviderID:   "zoho",
		AccountID:    "zuid-" + id,
		Email:        id + "@zoho.example",
		Scopes:       []string{"ZohoMail.accounts.READ"},
		AccessToken:  "at-" + id,
		RefreshToken: "rt-" + id,
		ExpiresAt:    created.Add(time.Hour),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func testDeleteUserCascades(t *testing.T, p core.StoreProvider, host string) {
	ctx := context.Background()
	store := p.ForHost(host)

	_ = store.PutUser(ctx, &core.User{ID: "abc123", CreatedAt: epoch})
	if err := store.PutAccount(ctx, newAccount("acc-1", "abc123", epoch)); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}

	if err := store.DeleteUser(ctx, "abc123"); err != nil {
		t.Fatal(err)
	}

	accounts, err := store.GetAccountsByUser(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected accounts to be removed with the user, got %d", len(accounts))
	}
}

func testAccountsOrdered(t *testing.T, p core.StoreProvider, host string) {
	ctx := context.Background()
	store := p.ForHost(host)

	_ = store.PutUser(ctx, &core.User{ID: "abc123", CreatedAt: epoch})
	_ = store.PutAccount(ctx, newAccount("acc-2", "abc123", epoch.Add(2*time.Minute)))
	_ = store.PutAccount(ctx, newAccount("acc-1", "abc123", epoch.Add(time.Minute)))

	accounts, err := store.GetAccountsByUser(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetAccountsByUser failed: %v", err)
	}
	if len(accounts) != 2 || accounts[0].ID != "acc-1" || accounts[1].ID != "acc-2" {
		t.Fatalf("expected [acc-1 acc-2] by creation time, got %v", accountIDs(accounts))
	}

	got := accounts[0]
	if got.AccessToken != "at-acc-1" || got.RefreshToken != "rt-acc-1" || got.AccountID != "zuid-acc-1" {
		t.Errorf("fields lost in storage: %+v", got)
	}
	if len(got.Scopes) != 1 || got.Scopes[0] != "ZohoMail.accounts.READ" {
		t.Errorf("unexpected scopes %v", got.Scopes)
	}
}

func testPutAccountReplaces(t *testing.T, p core.StoreProvider, host string) {
	ctx := context.Background()
	store := p.ForHost(host)

	_ = store.PutUser(ctx, &core.User{ID: "abc123", CreatedAt: epoch})
	acc := newAccount("acc-1", "abc123", epoch)
	_ = store.PutAccount(ctx, acc)

	acc.AccessToken = "at-rotated"
	if err := store.PutAccount(ctx, acc); err != nil {
		t.Fatal(err)
	}

	accounts, err := store.GetAccountsByUser(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 || accounts[0].AccessToken != "at-rotated" {
		t.Errorf("expected one replaced account, got %+v", accounts)
	}
}

func testDeleteAccount(t *testing.T, p core.StoreProvider, host string) {
	ctx := context.Background()
	store := p.ForHost(host)

	_ = store.PutUser(ctx, &core.User{ID: "abc123", CreatedAt: epoch})
	_ = store.PutAccount(ctx, newAccount("acc-1", "abc123", epoch))
	_ = store.PutAccount(ctx, newAccount("acc-2", "abc123", epoch.Add(time.Minute)))

	if err := store.DeleteAccount(ctx, "abc123", "acc-1"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if err := store.DeleteAccount(ctx, "abc123", "acc-1"); err != nil {
		t.Fatalf("repeated DeleteAccount failed: %v", err)
	}

	accounts, _ := store.GetAccountsByUser(ctx, "abc123")
	if ids := accountIDs(accounts); len(ids) != 1 || ids[0] != "acc-2" {
		t.Errorf("expected [acc-2], got %v", ids)
	}
}

func testHostIsolation(t *testing.T, p core.StoreProvider, host string) {
	ctx := context.Background()
	other := host + ".other"

	_ = p.ForHost(host).PutUser(ctx, &core.User{ID: "shared", Name: "A", CreatedAt: epoch})

	if _, err := p.ForHost(other).GetUserByID(ctx, "shared"); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("expected user to be invisible to %s, got %v", other, err)
	}

	_ = p.ForHost(other).DeleteUser(ctx, "shared")
	if _, err := p.ForHost(host).GetUserByID(ctx, "shared"); err != nil {
		t.Errorf("delete on %s leaked into %s: %v", other, host, err)
	}
}

func accountIDs(accounts []*core.Account) []string {
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids
}
