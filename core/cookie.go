package core

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// IdentityCookie holds the user identifier. It is a bearer credential:
	// whoever presents the value for X is treated as X unless a stricter
	// IdentityVerifier is configured.
	IdentityCookie = "id"

	defaultSameSite = "Lax"
	defaultPath     = "/"
)

// CookiePolicy carries the per-host defaults applied by EncodeCookie
type CookiePolicy struct {
	// Domain is omitted from the header entirely when empty
	Domain     string
	Production bool
}

// CookieOptions overrides the policy defaults. Nil or zero fields keep the default.
type CookieOptions struct {
	Expires  time.Time // zero = session cookie
	HTTPOnly *bool     // default true
	Secure   *bool     // default CookiePolicy.Production
	SameSite string    // default "Lax"
	Domain   *string   // default CookiePolicy.Domain
	Path     string    // default "/"
}

// EncodeCookie renders a Set-Cookie header value.
//
// Attributes are emitted in a fixed order: value, expires, HttpOnly, Secure,
// SameSite, Domain, Path. Only present or true attributes are written.
// Values outside the RFC 6265 cookie-octet set are rejected with
// ErrInvalidCookieValue, so a value can never smuggle in attributes.
func EncodeCookie(name, value string, policy CookiePolicy, opts CookieOptions) (string, error) {
	if !ValidCookieValue(value) {
		return "", fmt.Errorf("%w for %s", ErrInvalidCookieValue, name)
	}

	httpOnly := true
	if opts.HTTPOnly != nil {
		httpOnly = *opts.HTTPOnly
	}

	secure := policy.Production
	if opts.Secure != nil {
		secure = *opts.Secure
	}

	sameSite := opts.SameSite
	if sameSite == "" {
		sameSite = defaultSameSite
	}

	domain := policy.Domain
	if opts.Domain != nil {
		domain = *opts.Domain
	}

	path := opts.Path
	if path == "" {
		path = defaultPath
	}

	parts := []string{name + "=" + value}
	if !opts.Expires.IsZero() {
		parts = append(parts, "expires="+opts.Expires.UTC().Format(http.TimeFormat))
	}
	if httpOnly {
		parts = append(parts, "HttpOnly")
	}
	if secure {
		parts = append(parts, "Secure")
	}
	parts = append(parts, "SameSite="+sameSite)
	if domain != "" {
		parts = append(parts, "Domain="+domain)
	}
	parts = append(parts, "Path="+path)

	return strings.Join(parts, "; "), nil
}

// DeleteCookie encodes name with an empty value that expired at the Unix
// epoch. opts.Path and opts.Domain must match the cookie being cleared.
func DeleteCookie(name string, policy CookiePolicy, opts CookieOptions) string {
	opts.Expires = time.Unix(0, 0)

	// an empty value is always a valid cookie value
	cleared, _ := EncodeCookie(name, "", policy, opts)
	return cleared
}

// ValidCookieValue reports whether every byte of v is a cookie-octet:
// printable US-ASCII excluding space, DQUOTE, comma, semicolon and backslash.
func ValidCookieValue(v string) bool {
	for i := 0; i < len(v); i++ {
		b := v[i]
		if b < 0x21 || b > 0x7e || b == '"' || b == ',' || b == ';' || b == '\\' {
			return false
		}
	}
	return true
}

// DecodeCookie finds name in a Cookie request header or a Set-Cookie line.
//
// Malformed pairs are skipped rather than failing the whole header.
// An empty value is reported as not present.
func DecodeCookie(header, name string) (string, bool) {
	for _, part := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(key) != name {
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}
