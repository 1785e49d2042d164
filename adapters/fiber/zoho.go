package fiber

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/linkage/core"
	"github.com/lborres/linkage/pkg/crypto"
)

const (
	stateCookie    = "zoho_state"
	stateCookieTTL = 10 * time.Minute
	callbackPath   = "/api/zoho/callback"

	oauthFailed = "OAuth failed"
)

func (a *Adapter) callbackURL(c fiber.Ctx) string {
	return c.BaseURL() + callbackPath
}

// zohoConnect sends the browser to Zoho's consent screen. The raw state goes
// to Zoho and only its hash is kept, in a short-lived cookie.
func (a *Adapter) zohoConnect(c fiber.Ctx) error {
	if !a.linkage.Zoho.Configured() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("Zoho is not configured")
	}

	state, err := crypto.NewTokenPair()
	if err != nil {
		a.linkage.Logger.Error(c.Context(), "failed to generate oauth state", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString(oauthFailed)
	}

	stateSetCookie, err := core.EncodeCookie(stateCookie, state.Hash, a.authContext(c).Policy(), core.CookieOptions{
		Expires: time.Now().Add(stateCookieTTL),
		Path:    callbackPath,
	})
	if err != nil {
		a.linkage.Logger.Error(c.Context(), "failed to encode oauth state", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString(oauthFailed)
	}
	setCookie(c, stateSetCookie)

	return c.Redirect().Status(fiber.StatusFound).To(a.linkage.Zoho.AuthCodeURL(a.callbackURL(c), state.Token))
}

// zohoCallback completes the flow. Every failure answers 400 "OAuth failed"
// so callers can't tell which step went wrong; the log has the detail.
func (a *Adapter) zohoCallback(c fiber.Ctx) error {
	ctx := c.Context()
	actx := a.authContext(c)

	storedHash, _ := core.DecodeCookie(c.Get(fiber.HeaderCookie), stateCookie)
	setCookie(c, core.DeleteCookie(stateCookie, actx.Policy(), core.CookieOptions{Path: callbackPath}))

	code := c.Query("code")
	if code == "" {
		a.linkage.Logger.Warn(ctx, "oauth callback without code", "error", c.Query("error"))
		return c.Status(fiber.StatusBadRequest).SendString(oauthFailed)
	}

	user := currentUser(c)
	if user == nil {
		a.linkage.Logger.Warn(ctx, "oauth callback for anonymous request")
		return c.Status(fiber.StatusBadRequest).SendString(oauthFailed)
	}

	if !crypto.VerifyToken(c.Query("state"), storedHash) {
		a.linkage.Logger.Warn(ctx, "oauth state mismatch", "user", user.ID)
		return c.Status(fiber.StatusBadRequest).SendString(oauthFailed)
	}

	grant, err := a.linkage.Zoho.Exchange(ctx, code, a.callbackURL(c))
	if err != nil {
		a.linkage.Logger.Warn(ctx, "oauth exchange failed", "user", user.ID, "error", err)
		return c.Status(fiber.StatusBadRequest).SendString(oauthFailed)
	}

	acc, err := a.linkage.Accounts.Connect(ctx, actx.Store(), user.ID, grant)
	if err != nil {
		a.linkage.Logger.Error(ctx, "failed to store connected account", "user", user.ID, "error", err)
		return c.Status(mapErrorToStatus(err)).SendString("Failed to save account")
	}

	a.linkage.Logger.Info(ctx, "zoho account connected", "user", user.ID, "account", acc.ID)
	return c.Redirect().Status(fiber.StatusFound).To("/?zoho_connected=1")
}

// zohoAccounts lists the current user's connected accounts. Anonymous
// requests get an empty list.
func (a *Adapter) zohoAccounts(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.JSON([]core.AccountSummary{})
	}

	accounts, err := a.linkage.Accounts.List(c.Context(), a.authContext(c).Store(), user.ID)
	if err != nil {
		a.linkage.Logger.Error(c.Context(), "failed to list accounts", "user", user.ID, "error", err)
		return c.Status(mapErrorToStatus(err)).JSON(fiber.Map{
			"error": "failed to list accounts",
		})
	}

	return c.JSON(accounts)
}

func (a *Adapter) zohoDisconnect(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": core.ErrInvalidIdentity.Error(),
		})
	}

	err := a.linkage.Accounts.Disconnect(c.Context(), a.authContext(c).Store(), user.ID, c.Params("id"))
	if err != nil {
		return c.Status(mapErrorToStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
