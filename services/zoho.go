package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/client"
	"golang.org/x/oauth2"
)

const (
	ZohoProviderID         = "zoho"
	DefaultZohoAccountsURL = "https://accounts.zoho.com"
	DefaultOAuthTimeout    = 10 * time.Second
)

var DefaultZohoScopes = []string{"ZohoMail.accounts.READ", "ZohoMail.messages.READ"}

var (
	ErrZohoNotConfigured = errors.New("zoho client is not configured")
	ErrOAuthExchange     = errors.New("oauth code exchange failed")
)

type ZohoConfig struct {
	ClientID     string
	ClientSecret string

	// Optional config
	AccountsURL string
	Scopes      []string
	Timeout     time.Duration
}

// ZohoGrant is what a successful authorization yields
type ZohoGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AccountID    string
	Email        string
	Scopes       []string
}

// ZohoConnector drives the authorization code flow against Zoho Accounts.
// Zoho itself is an opaque collaborator: tokens are stored, never interpreted.
type ZohoConnector struct {
	config      ZohoConfig
	accountsURL string
	http        *client.Client
}

func NewZohoConnector(c ZohoConfig) *ZohoConnector {
	if c.AccountsURL == "" {
		c.AccountsURL = DefaultZohoAccountsURL
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultZohoScopes
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultOAuthTimeout
	}

	return &ZohoConnector{
		config:      c,
		accountsURL: strings.TrimRight(c.AccountsURL, "/"),
		http:        client.New(),
	}
}

func (z *ZohoConnector) Configured() bool {
	return z.config.ClientID != ""
}

func (z *ZohoConnector) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     z.config.ClientID,
		ClientSecret: z.config.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       z.config.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   z.accountsURL + "/oauth/v2/auth",
			TokenURL:  z.accountsURL + "/oauth/v2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthCodeURL asks for offline access so a refresh token is issued
func (z *ZohoConnector) AuthCodeURL(redirectURL, state string) string {
	return z.oauthConfig(redirectURL).AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens, then looks up which
// Zoho account they belong to. The lookup is best effort.
func (z *ZohoConnector) Exchange(ctx context.Context, code, redirectURL string) (*ZohoGrant, error) {
	if !z.Configured() {
		return nil, ErrZohoNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, z.config.Timeout)
	defer cancel()

	token, err := z.oauthConfig(redirectURL).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	grant := &ZohoGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		Scopes:       grantedScopes(token, z.config.Scopes),
	}

	if info, err := z.userInfo(ctx, token.AccessToken); err == nil {
		grant.AccountID = info.ZUID.String()
		grant.Email = info.Email
	}

	return grant, nil
}

type zohoUserInfo struct {
	ZUID        json.Number `json:"ZUID"`
	Email       string      `json:"Email"`
	DisplayName string      `json:"Display_Name"`
}

func (z *ZohoConnector) userInfo(ctx context.Context, accessToken string) (*zohoUserInfo, error) {
	resp, err := z.http.Get(z.accountsURL+"/oauth/user/info", client.Config{
		Ctx: ctx,
		Header: map[string]string{
			"Authorization": "Zoho-oauthtoken " + accessToken,
		},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode())
	}

	info := &zohoUserInfo{}
	if err := resp.JSON(info); err != nil {
		return nil, err
	}
	return info, nil
}

// grantedScopes prefers what the token endpoint reports over what was requested
func grantedScopes(token *oauth2.Token, requested []string) []string {
	raw, _ := token.Extra("scope").(string)
	if raw == "" {
		return append([]string(nil), requested...)
	}
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
