package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays environment variables. Unset or empty variables keep
// the current value.
func parseEnv(c *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	str("COOKIE_DOMAIN", &c.CookieDomain)
	str("STORE_BACKEND", &c.StoreBackend)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("REDIS_PREFIX", &c.RedisPrefix)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("ZOHO_CLIENT_ID", &c.ZohoClientID)
	str("ZOHO_CLIENT_SECRET", &c.ZohoClientSecret)
	str("ZOHO_ACCOUNTS_URL", &c.ZohoAccountsURL)
	str("PROFILE_URL", &c.ProfileURL)
	str("LOGIN_URL", &c.LoginURL)
	str("LINKAGE_SECRET", &c.Secret)
	str("IDENTITY_VERIFICATION", &c.IdentityVerification)
	str("ROOT", &c.Root)

	if v := getenv("APP_ENV"); v != "" {
		c.Production = v == "production"
	}

	if v := getenv("ZOHO_SCOPES"); v != "" {
		c.ZohoScopes = splitList(v)
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}

	if v := getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.RedisDB = db
	}

	if v := getenv("STORE_FALLBACK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid STORE_FALLBACK %q: %w", v, err)
		}
		c.StoreFallback = b
	}

	for key, dst := range map[string]*time.Duration{
		"OAUTH_TIMEOUT":       &c.OAuthTimeout,
		"TRANSFORM_CACHE_TTL": &c.TransformCacheTTL,
	} {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = d
		}
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
