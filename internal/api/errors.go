package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/backend"
	"github.com/padelhub/storefront/internal/export"
	"github.com/padelhub/storefront/internal/metrics"
	"github.com/padelhub/storefront/internal/storefront"
	"github.com/padelhub/storefront/pkg/model"
)

// loginRedirect is where screens send the user after a forced sign-out.
const loginRedirect = "/login"

// respondAuthError answers a failed sign-in style call. A backend 401 there
// means bad credentials, so the caller's current session is left alone.
func (h *Handler) respondAuthError(c *fiber.Ctx, err error) error {
	if errors.Is(err, backend.ErrUnauthorized) {
		msg := backend.Message(err)
		if msg == "" {
			msg = "invalid credentials"
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
	}
	return h.respondError(c, err)
}

// respondError maps service and backend errors onto HTTP answers. A backend
// 401 also destroys the caller's session.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var (
		fields    model.FieldErrors
		statusErr *backend.StatusError
	)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		h.forceTeardown(c)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":    "session expired, please sign in again",
			"redirect": loginRedirect,
		})
	case errors.As(err, &fields):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	case errors.Is(err, storefront.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed for this role"})
	case errors.Is(err, storefront.ErrRefetchFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "changes saved but the catalog could not be reloaded",
			"saved": true,
		})
	case errors.Is(err, backend.ErrRejected):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": backend.Message(err)})
	case errors.Is(err, backend.ErrNetwork):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "catalog backend unreachable"})
	case errors.Is(err, backend.ErrMalformedResponse):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "unexpected answer from catalog backend"})
	case errors.As(err, &statusErr):
		msg := statusErr.Message
		if msg == "" {
			msg = "catalog backend error"
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": msg})
	case errors.Is(err, export.ErrUnknownFormat):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, export.ErrFormatUnavailable):
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "catalog backend timed out"})
	}

	h.logger.Error("api.unhandled_error",
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func (h *Handler) forceTeardown(c *fiber.Ctx) {
	sess := sessionFrom(c)
	if sess.Authenticated() {
		if err := h.sessions.Teardown(c.UserContext(), sess.ID); err != nil {
			h.logger.Warn("session.teardown_failed",
				zap.String("session_id", sess.ID),
				zap.Error(err))
		}
		metrics.IncSessionEvent("forced_teardown")
	}
	h.clearCookie(c)
}
