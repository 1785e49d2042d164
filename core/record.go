package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordVersion is the current on-disk format of user and account records.
// Bump it when a field changes meaning, and teach the decoders the old shape.
const RecordVersion = 1

type userRecord struct {
	Version   int       `json:"v"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// accountRecord differs from Account in that the tokens are persisted.
type accountRecord struct {
	Version      int       `json:"v"`
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProviderID   string    `json:"providerId"`
	AccountID    string    `json:"accountId"`
	Email        string    `json:"email"`
	Scopes       []string  `json:"scopes"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type versionHeader struct {
	Version int `json:"v"`
}

func EncodeUser(u *User) ([]byte, error) {
	return json.Marshal(userRecord{
		Version:   RecordVersion,
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	})
}

func DecodeUser(data []byte) (*User, error) {
	if err := checkVersion(data); err != nil {
		return nil, err
	}

	var r userRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}

	return &User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
	}, nil
}

func EncodeAccount(a *Account) ([]byte, error) {
	return json.Marshal(accountRecord{
		Version:      RecordVersion,
		ID:           a.ID,
		UserID:       a.UserID,
		ProviderID:   a.ProviderID,
		AccountID:    a.AccountID,
		Email:        a.Email,
		Scopes:       a.Scopes,
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		ExpiresAt:    a.ExpiresAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	})
}

func DecodeAccount(data []byte) (*Account, error) {
	if err := checkVersion(data); err != nil {
		return nil, err
	}

	var r accountRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode account record: %w", err)
	}

	return &Account{
		ID:           r.ID,
		UserID:       r.UserID,
		ProviderID:   r.ProviderID,
		AccountID:    r.AccountID,
		Email:        r.Email,
		Scopes:       r.Scopes,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func checkVersion(data []byte) error {
	var header versionHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	if header.Version != RecordVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedRecordVersion, header.Version)
	}
	return nil
}
