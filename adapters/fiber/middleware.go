package fiber

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/linkage/core"
)

const (
	localsAuth = "auth"
	localsUser = "user"
)

// authContext returns the AuthContext for the request host
func (a *Adapter) authContext(c fiber.Ctx) *core.AuthContext {
	if actx, ok := c.Locals(localsAuth).(*core.AuthContext); ok {
		return actx
	}
	return a.linkage.Registry.Get(c.Hostname())
}

// withIdentity resolves the identity cookie and stores the user, if any, in
// the context. Store failures are logged and the request continues as
// anonymous: authentication never blocks a response.
func (a *Adapter) withIdentity(next fiber.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		actx := a.linkage.Registry.Get(c.Hostname())
		c.Locals(localsAuth, actx)

		user, err := actx.RequireAuth(c.Context(), c.Get(fiber.HeaderCookie))
		switch {
		case errors.Is(err, core.ErrInvalidIdentity):
			a.linkage.Logger.Warn(c.Context(), "identity cookie rejected", "host", actx.Host(), "error", err)
		case err != nil:
			a.linkage.Logger.Error(c.Context(), "failed to resolve identity", "host", actx.Host(), "error", err)
		}

		if user != nil {
			c.Locals(localsUser, user)
		}

		return next(c)
	}
}

func currentUser(c fiber.Ctx) *core.User {
	user, _ := c.Locals(localsUser).(*core.User)
	return user
}

// setCookie adds a Set-Cookie line verbatim. Each call adds its own line.
func setCookie(c fiber.Ctx, value string) {
	c.Response().Header.Add(fiber.HeaderSetCookie, value)
}
