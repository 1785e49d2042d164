package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3/client"

	"github.com/lborres/linkage/core"
)

var (
	ErrProfileDisabled = errors.New("profile lookup is not configured")
	ErrProfileLookup   = errors.New("profile lookup failed")
)

// ProfileClient fetches display details for a login token from an external
// profile endpoint. An empty URL disables the lookup.
type ProfileClient struct {
	url     string
	timeout time.Duration
	http    *client.Client
}

func NewProfileClient(url string, timeout time.Duration) *ProfileClient {
	if timeout <= 0 {
		timeout = DefaultOAuthTimeout
	}
	return &ProfileClient{
		url:     url,
		timeout: timeout,
		http:    client.New(),
	}
}

func (p *ProfileClient) Lookup(ctx context.Context, token string) (*core.Profile, error) {
	if p.url == "" {
		return nil, ErrProfileDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.http.Get(p.url, client.Config{
		Ctx: ctx,
		Header: map[string]string{
			"Authorization": "Bearer " + token,
			"Accept":        "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileLookup, err)
	}
	defer resp.Close()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: status %d", ErrProfileLookup, resp.StatusCode())
	}

	profile := &core.Profile{}
	if err := resp.JSON(profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileLookup, err)
	}
	return profile, nil
}
