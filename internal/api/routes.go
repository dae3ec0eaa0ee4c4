package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all HTTP routes on the Fiber app. nc may be nil
// when catalog events are disabled.
func RegisterRoutes(app *fiber.App, nc *nats.Conn, h *Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{
			"sessions": "ok",
		}
		status := "ok"
		code := fiber.StatusOK

		if nc != nil {
			checks["nats"] = "ok"
			if !nc.IsConnected() {
				checks["nats"] = "disconnected"
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			} else if err := nc.FlushTimeout(1 * time.Second); err != nil {
				checks["nats"] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.sessions.HealthCheck(healthCtx); err != nil {
			checks["sessions"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	// API routes
	v1 := app.Group("/api/v1", CountRequests, h.Deadline, h.ResolveSession)

	auth := v1.Group("/auth")
	auth.Post("/login", h.Login)
	auth.Post("/register", h.Register)
	auth.Post("/verify-email", h.VerifyEmail)
	auth.Post("/recover-password", h.RecoverPassword)
	auth.Post("/reset-password", h.ResetPassword)
	auth.Post("/logout", h.Logout)

	v1.Get("/session", h.Session)
	v1.Get("/navigation", h.Navigation)
	v1.Get("/catalog", h.Catalog)
	v1.Get("/catalog/export", RequireAuth, h.Export)
	v1.Get("/dashboard", RequireAuth, h.Dashboard)
	v1.Post("/products", RequireAuth, h.CreateProduct)
	v1.Put("/products/:id", RequireAuth, h.UpdateProduct)
	v1.Delete("/products/:id", RequireAuth, h.DeleteProduct)
}
