// Package config loads server settings from defaults, an optional JSON
// file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	VerificationNone = "none"
	VerificationJWT  = "jwt"

	minSecretLength = 32
)

var (
	ErrUnknownBackend      = errors.New("unknown store backend")
	ErrUnknownVerification = errors.New("unknown identity verification")
	ErrSecretTooShort      = errors.New("secret too short")
)

// Config holds runtime settings for the server.
//
// CookieDomain empty means cookies carry no Domain attribute. Secret seals
// stored OAuth tokens and signs identity JWTs when verification is "jwt".
type Config struct {
	Port         int
	Production   bool
	CookieDomain string

	StoreBackend  string
	StoreFallback bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	DatabaseDSN   string

	ZohoClientID     string
	ZohoClientSecret string
	ZohoAccountsURL  string
	ZohoScopes       []string
	OAuthTimeout     time.Duration
	ProfileURL       string

	// LoginURL is where anonymous visitors are sent to obtain an identity
	LoginURL string

	Secret               string
	IdentityVerification string

	Root              string
	TransformCacheTTL time.Duration
}

// LoadDefaults populates Config with development defaults
func (c *Config) LoadDefaults() {
	c.Port = 8999
	c.StoreBackend = BackendMemory
	c.StoreFallback = true
	c.RedisAddr = "localhost:6379"
	c.RedisPrefix = "linkage"
	c.ZohoAccountsURL = "https://accounts.zoho.com"
	c.ZohoScopes = []string{"ZohoMail.accounts.READ", "ZohoMail.messages.READ"}
	c.OAuthTimeout = 10 * time.Second
	c.IdentityVerification = VerificationNone
	c.LoginURL = "/auth/login"
	c.Root = "."
	c.TransformCacheTTL = 5 * time.Minute
}

// Load applies defaults, then the JSON file named by -c/-config, then the
// environment, then flags. args excludes the program name.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromOS is Load over os.Args and os.Getenv
func LoadFromOS() (*Config, error) {
	return Load(os.Args[1:], os.Getenv)
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.StoreBackend)
	}

	switch c.IdentityVerification {
	case VerificationNone, VerificationJWT:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVerification, c.IdentityVerification)
	}

	if c.Secret != "" && len(c.Secret) < minSecretLength {
		return fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, minSecretLength)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
