package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/metrics"
	"github.com/padelhub/storefront/internal/session"
)

const (
	// HeaderSessionID carries the session id for clients that do not keep cookies.
	HeaderSessionID = "X-Session-ID"

	localsSession = "session"
)

// Deadline gives the request a context that ends after the handler's request
// timeout. fasthttp's own context never expires, so handlers pass
// c.UserContext() downstream.
func (h *Handler) Deadline(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()
	c.SetUserContext(ctx)
	return c.Next()
}

// ResolveSession loads the caller's session into the request. Requests without
// a live session continue as anonymous.
func (h *Handler) ResolveSession(c *fiber.Ctx) error {
	id := c.Cookies(h.cookie.Name)
	fromCookie := id != ""
	if !fromCookie {
		id = c.Get(HeaderSessionID)
	}

	sess := session.Anonymous()
	if id != "" {
		loaded, err := h.sessions.Get(c.UserContext(), id)
		switch {
		case err == nil:
			sess = loaded
		case errors.Is(err, session.ErrNotFound):
			if fromCookie {
				h.clearCookie(c)
			}
		default:
			h.logger.Error("session.load_failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "session store unavailable"})
		}
	}

	c.Locals(localsSession, sess)
	return c.Next()
}

// RequireAuth rejects anonymous callers.
func RequireAuth(c *fiber.Ctx) error {
	if !sessionFrom(c).Authenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":    "sign in required",
			"redirect": loginRedirect,
		})
	}
	return c.Next()
}

// CountRequests records every answered request by route template.
func CountRequests(c *fiber.Ctx) error {
	err := c.Next()
	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	metrics.IncHTTPRequest(c.Route().Path, c.Method(), status)
	return err
}

func sessionFrom(c *fiber.Ctx) *session.Context {
	if sess, ok := c.Locals(localsSession).(*session.Context); ok && sess != nil {
		return sess
	}
	return session.Anonymous()
}

func (h *Handler) setCookie(c *fiber.Ctx, sess *session.Context) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(c *fiber.Ctx) {
	c.ClearCookie(h.cookie.Name)
}
