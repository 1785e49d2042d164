package fiber

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/linkage/core"
	"github.com/lborres/linkage/services"
)

// renderPage shows the dashboard for a known user and the login page otherwise.
//
// An anonymous request carrying ?token= is logged in on the spot: the token
// becomes the identity cookie and the profile lookup, when configured, fills
// in the display name. Lookup failures fall back to a placeholder identity.
func (a *Adapter) renderPage(c fiber.Ctx) error {
	ctx := c.Context()
	user := currentUser(c)

	if user == nil {
		if token := c.Query("token"); token != "" {
			user = a.login(c, token)
		}
	}

	if user == nil {
		return a.sendPage(c, pageLogin, pageData{
			Title:    "Login - Linkage",
			LoginURL: a.loginURL(c),
		})
	}

	accounts, err := a.linkage.Accounts.List(ctx, a.authContext(c).Store(), user.ID)
	if err != nil {
		a.linkage.Logger.Warn(ctx, "failed to list accounts", "user", user.ID, "error", err)
	}

	return a.sendPage(c, pageDashboard, pageData{
		Title:         "Dashboard - Linkage",
		User:          user,
		Accounts:      accounts,
		ZohoEnabled:   a.linkage.Zoho.Configured(),
		ZohoConnected: c.Query("zoho_connected") != "",
	})
}

func (a *Adapter) login(c fiber.Ctx, token string) *core.User {
	ctx := c.Context()
	actx := a.authContext(c)

	profile, err := a.linkage.Profiles.Lookup(ctx, token)
	if err != nil && !errors.Is(err, services.ErrProfileDisabled) {
		a.linkage.Logger.Warn(ctx, "profile lookup failed, using placeholder", "error", err)
	}

	result, err := actx.Login(ctx, token, profile)
	if result == nil {
		a.linkage.Logger.Warn(ctx, "login token rejected", "host", actx.Host(), "error", err)
		return nil
	}
	if err != nil {
		a.linkage.Logger.Error(ctx, "failed to store user", "host", actx.Host(), "error", err)
	}

	setCookie(c, result.SetCookie)
	return result.User
}

// loginURL appends the current page as the redirect target
func (a *Adapter) loginURL(c fiber.Ctx) string {
	u, err := url.Parse(a.linkage.LoginURL)
	if err != nil {
		return a.linkage.LoginURL
	}

	q := u.Query()
	q.Set("redirect", c.BaseURL()+c.OriginalURL())
	u.RawQuery = q.Encode()
	return u.String()
}

// logout always clears the cookie and redirects home, even when deleting
// the stored user fails
func (a *Adapter) logout(c fiber.Ctx) error {
	actx := a.authContext(c)

	cleared, err := actx.Logout(c.Context(), c.Get(fiber.HeaderCookie))
	if err != nil {
		a.linkage.Logger.Error(c.Context(), "failed to delete user on logout", "host", actx.Host(), "error", err)
	}

	setCookie(c, cleared)
	return c.Redirect().Status(fiber.StatusFound).To("/")
}

func (a *Adapter) health(c fiber.Ctx) error {
	return c.SendString("ok")
}

// diagnostics reports the hosts seen so far and the transform cache
// counters. Only routed when registered as a plugin endpoint.
func (a *Adapter) diagnostics(c fiber.Ctx) error {
	body := fiber.Map{
		"hostCount": a.linkage.Registry.Len(),
		"hosts":     a.linkage.Registry.Hosts(),
	}
	if stats, ok := a.linkage.Modules.Stats(); ok {
		body["transformCache"] = stats
	}
	return c.JSON(body)
}

// mapErrorToStatus maps linkage error types to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrInvalidIdentity):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrAccountNotFound):
		return http.StatusNotFound

	case errors.Is(err, services.ErrOAuthExchange):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrStoreUnavailable),
		errors.Is(err, services.ErrZohoNotConfigured):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
