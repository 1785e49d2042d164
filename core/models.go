package core

import "time"

// User represents a user record in a host's store
//
// This is the "identity" - who someone is
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Account represents a connected third-party account
//
// Every account belongs to exactly one User
type Account struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProviderID   string    `json:"providerId"` // "zoho"
	AccountID    string    `json:"accountId"`
	Email        string    `json:"email"`
	Scopes       []string  `json:"scopes"`
	AccessToken  string    `json:"-"` // Never expose in JSON
	RefreshToken string    `json:"-"` // Never expose in JSON
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountSummary is the model returned to clients listing connected accounts
type AccountSummary struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Scopes []string `json:"scopes"`
}

// Profile is what an external user-profile lookup knows about an identifier
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (a *Account) Summary() AccountSummary {
	scopes := a.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	return AccountSummary{
		ID:     a.ID,
		Email:  a.Email,
		Scopes: scopes,
	}
}
