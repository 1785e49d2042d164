package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Duration accepts "10s" style strings or integer nanoseconds
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// fileConfig mirrors Config for JSON decoding. Pointers tell "absent" from "zero".
type fileConfig struct {
	Port                 *int      `json:"port"`
	Production           *bool     `json:"production"`
	CookieDomain         *string   `json:"cookie_domain"`
	StoreBackend         *string   `json:"store_backend"`
	StoreFallback        *bool     `json:"store_fallback"`
	RedisAddr            *string   `json:"redis_addr"`
	RedisPassword        *string   `json:"redis_password"`
	RedisDB              *int      `json:"redis_db"`
	RedisPrefix          *string   `json:"redis_prefix"`
	DatabaseDSN          *string   `json:"database_dsn"`
	ZohoClientID         *string   `json:"zoho_client_id"`
	ZohoClientSecret     *string   `json:"zoho_client_secret"`
	ZohoAccountsURL      *string   `json:"zoho_accounts_url"`
	ZohoScopes           []string  `json:"zoho_scopes"`
	OAuthTimeout         *Duration `json:"oauth_timeout"`
	ProfileURL           *string   `json:"profile_url"`
	LoginURL             *string   `json:"login_url"`
	Secret               *string   `json:"secret"`
	IdentityVerification *string   `json:"identity_verification"`
	Root                 *string   `json:"root"`
	TransformCacheTTL    *Duration `json:"transform_cache_ttl"`
}

// configPath finds -c/-config in args without tripping over other flags
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(strings.TrimLeft(args[i], "-"), "=")
		if !strings.HasPrefix(args[i], "-") || (name != "c" && name != "config") {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func parseJSON(c *Config, args []string) error {
	path := configPath(args)
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return applyJSON(c, f)
}

func applyJSON(c *Config, r io.Reader) error {
	var fc fileConfig
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&c.CookieDomain, fc.CookieDomain)
	setString(&c.StoreBackend, fc.StoreBackend)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.RedisPassword, fc.RedisPassword)
	setString(&c.RedisPrefix, fc.RedisPrefix)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.ZohoClientID, fc.ZohoClientID)
	setString(&c.ZohoClientSecret, fc.ZohoClientSecret)
	setString(&c.ZohoAccountsURL, fc.ZohoAccountsURL)
	setString(&c.ProfileURL, fc.ProfileURL)
	setString(&c.LoginURL, fc.LoginURL)
	setString(&c.Secret, fc.Secret)
	setString(&c.IdentityVerification, fc.IdentityVerification)
	setString(&c.Root, fc.Root)

	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.Production != nil {
		c.Production = *fc.Production
	}
	if fc.StoreFallback != nil {
		c.StoreFallback = *fc.StoreFallback
	}
	if fc.RedisDB != nil {
		c.RedisDB = *fc.RedisDB
	}
	if fc.ZohoScopes != nil {
		c.ZohoScopes = fc.ZohoScopes
	}
	if fc.OAuthTimeout != nil {
		c.OAuthTimeout = fc.OAuthTimeout.Duration
	}
	if fc.TransformCacheTTL != nil {
		c.TransformCacheTTL = fc.TransformCacheTTL.Duration
	}
	return nil
}
