package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/access"
	"github.com/padelhub/storefront/internal/backend"
	"github.com/padelhub/storefront/internal/export"
	"github.com/padelhub/storefront/internal/metrics"
	"github.com/padelhub/storefront/internal/pricing"
	"github.com/padelhub/storefront/internal/session"
	"github.com/padelhub/storefront/internal/storefront"
	"github.com/padelhub/storefront/pkg/model"
)

const (
	// MaxPageSize caps the page size a caller may ask for.
	MaxPageSize = 200

	// DefaultRequestTimeout bounds a request when none is configured.
	DefaultRequestTimeout = 45 * time.Second
)

// AuthBackend is the part of the backend client behind the auth screens.
type AuthBackend interface {
	Login(ctx context.Context, req backend.LoginRequest) (*backend.AuthResult, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResult, error)
	VerifyEmail(ctx context.Context, req backend.VerifyEmailRequest) (*backend.AuthResult, error)
	RecoverPassword(ctx context.Context, req backend.RecoverPasswordRequest) (*backend.AuthResult, error)
	ResetPassword(ctx context.Context, req backend.ResetPasswordRequest) (*backend.AuthResult, error)
}

// StorefrontService defines the catalog operations used by the handler.
type StorefrontService interface {
	Navigation(sess *session.Context) access.Actions
	Catalog(ctx context.Context, sess *session.Context, q storefront.Query) (*storefront.CatalogPage, error)
	Dashboard(ctx context.Context, sess *session.Context) (*storefront.Dashboard, error)
	Export(ctx context.Context, sess *session.Context, format export.Format, q storefront.Query) (*export.Document, error)
	CreateProduct(ctx context.Context, sess *session.Context, f model.ProductForm) (*storefront.WriteResult, error)
	UpdateProduct(ctx context.Context, sess *session.Context, f model.ProductForm) (*storefront.WriteResult, error)
	DeleteProduct(ctx context.Context, sess *session.Context, productID string) (*storefront.WriteResult, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Handler serves the storefront API.
type Handler struct {
	logger    *zap.Logger
	auth      AuthBackend
	service   StorefrontService
	sessions  *session.Manager
	formatter *pricing.Formatter
	cookie    CookieConfig
	timeout   time.Duration
}

// NewHandler creates a new Handler.
func NewHandler(logger *zap.Logger, auth AuthBackend, service StorefrontService, sessions *session.Manager, formatter *pricing.Formatter, cookie CookieConfig) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if formatter == nil {
		formatter = pricing.DefaultFormatter()
	}
	if cookie.Name == "" {
		cookie.Name = "storefront_session"
	}
	return &Handler{
		logger:    logger,
		auth:      auth,
		service:   service,
		sessions:  sessions,
		formatter: formatter,
		cookie:    cookie,
		timeout:   DefaultRequestTimeout,
	}
}

// WithRequestTimeout sets the per-request deadline and returns h.
func (h *Handler) WithRequestTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.timeout = d
	}
	return h
}

// Login signs the user in.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if errs := validateStruct(req); len(errs) > 0 {
		return h.respondError(c, errs)
	}
	res, err := h.auth.Login(c.UserContext(), req.toBackend())
	if err != nil {
		return h.respondAuthError(c, err)
	}
	return h.completeAuth(c, res)
}

// Register creates an account. The backend may sign the user in right away.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if errs := validateStruct(req); len(errs) > 0 {
		return h.respondError(c, errs)
	}
	res, err := h.auth.Register(c.UserContext(), req.toBackend())
	if err != nil {
		return h.respondAuthError(c, err)
	}
	return h.completeAuth(c, res)
}

// VerifyEmail confirms the emailed code.
func (h *Handler) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if errs := validateStruct(req); len(errs) > 0 {
		return h.respondError(c, errs)
	}
	res, err := h.auth.VerifyEmail(c.UserContext(), backend.VerifyEmailRequest{Email: req.Email, Code: req.Code})
	if err != nil {
		return h.respondAuthError(c, err)
	}
	return h.completeAuth(c, res)
}

// RecoverPassword asks the backend to email a reset code.
func (h *Handler) RecoverPassword(c *fiber.Ctx) error {
	var req RecoverPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if errs := validateStruct(req); len(errs) > 0 {
		return h.respondError(c, errs)
	}
	res, err := h.auth.RecoverPassword(c.UserContext(), backend.RecoverPasswordRequest{Email: req.Email})
	if err != nil {
		return h.respondAuthError(c, err)
	}
	return h.completeAuth(c, res)
}

// ResetPassword sets a new password with the emailed code.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if errs := validateStruct(req); len(errs) > 0 {
		return h.respondError(c, errs)
	}
	res, err := h.auth.ResetPassword(c.UserContext(), backend.ResetPasswordRequest{
		Email:    req.Email,
		Code:     req.Code,
		Password: req.Password,
	})
	if err != nil {
		return h.respondAuthError(c, err)
	}
	return h.completeAuth(c, res)
}

// completeAuth answers an auth call, opening a session when the backend
// returned a token and a user.
func (h *Handler) completeAuth(c *fiber.Ctx, res *backend.AuthResult) error {
	body := fiber.Map{"message": res.Message}
	if res.Token == "" || res.User == nil {
		return c.Status(fiber.StatusOK).JSON(body)
	}

	if old := sessionFrom(c); old.Authenticated() {
		if err := h.sessions.Teardown(c.UserContext(), old.ID); err != nil {
			h.logger.Warn("session.teardown_failed", zap.String("session_id", old.ID), zap.Error(err))
		}
	}
	sess, err := h.sessions.Init(c.UserContext(), *res.User, res.Token)
	if err != nil {
		h.logger.Error("session.init_failed",
			zap.String("user_id", res.User.ID),
			zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "could not start session"})
	}
	metrics.IncSessionEvent("init")
	h.setCookie(c, sess)

	body["session"] = toSessionResponse(sess)
	return c.Status(fiber.StatusOK).JSON(body)
}

// Logout destroys the session. Calling it without one is not an error.
func (h *Handler) Logout(c *fiber.Ctx) error {
	sess := sessionFrom(c)
	if sess.Authenticated() {
		if err := h.sessions.Teardown(c.UserContext(), sess.ID); err != nil {
			h.logger.Error("session.teardown_failed", zap.String("session_id", sess.ID), zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "session store unavailable"})
		}
		metrics.IncSessionEvent("teardown")
	}
	h.clearCookie(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "signed out", "redirect": "/"})
}

// Session describes the caller's session.
func (h *Handler) Session(c *fiber.Ctx) error {
	return c.JSON(toSessionResponse(sessionFrom(c)))
}

// Navigation lists the actions the caller may use.
func (h *Handler) Navigation(c *fiber.Ctx) error {
	sess := sessionFrom(c)
	return c.JSON(fiber.Map{
		"state":   access.StateOf(sess.Identity),
		"actions": h.service.Navigation(sess),
	})
}

// Catalog serves one page of the caller's catalog.
func (h *Handler) Catalog(c *fiber.Ctx) error {
	q, errs := parseQuery(c)
	if len(errs) > 0 {
		return h.respondError(c, errs)
	}
	page, err := h.service.Catalog(c.UserContext(), sessionFrom(c), q)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toCatalogResponse(page, h.formatter))
}

// Export renders the requested catalog page as a downloadable document.
func (h *Handler) Export(c *fiber.Ctx) error {
	raw := c.Query("format", string(export.FormatSpreadsheet))
	format, err := export.ParseFormat(raw)
	if err != nil {
		metrics.IncExport("unknown", "rejected")
		return h.respondError(c, err)
	}
	q, errs := parseQuery(c)
	if len(errs) > 0 {
		metrics.IncExport(string(format), "rejected")
		return h.respondError(c, errs)
	}

	doc, err := h.service.Export(c.UserContext(), sessionFrom(c), format, q)
	if err != nil {
		metrics.IncExport(string(format), "failed")
		return h.respondError(c, err)
	}
	metrics.IncExport(string(format), "ok")

	c.Set(fiber.HeaderContentType, doc.MIMEType)
	c.Set(fiber.HeaderContentDisposition, doc.ContentDisposition())
	return c.Status(fiber.StatusOK).Send(doc.Body)
}

// Dashboard summarizes the caller's catalog.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	d, err := h.service.Dashboard(c.UserContext(), sessionFrom(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(toDashboardResponse(d, h.formatter))
}

// CreateProduct creates a product and returns the reloaded catalog.
func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	form, errs := validateProduct(req)
	if len(errs) > 0 {
		return h.respondError(c, errs)
	}
	res, err := h.service.CreateProduct(c.UserContext(), sessionFrom(c), form)
	return h.writeResult(c, fiber.StatusCreated, res, err)
}

// UpdateProduct replaces product :id and returns the reloaded catalog.
func (h *Handler) UpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "product id is required"})
	}
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	form, errs := validateProduct(req)
	if len(errs) > 0 {
		return h.respondError(c, errs)
	}
	form.ID = id
	res, err := h.service.UpdateProduct(c.UserContext(), sessionFrom(c), form)
	return h.writeResult(c, fiber.StatusOK, res, err)
}

// DeleteProduct deletes product :id and returns the reloaded catalog.
func (h *Handler) DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "product id is required"})
	}
	res, err := h.service.DeleteProduct(c.UserContext(), sessionFrom(c), id)
	return h.writeResult(c, fiber.StatusOK, res, err)
}

func (h *Handler) writeResult(c *fiber.Ctx, status int, res *storefront.WriteResult, err error) error {
	if err != nil {
		if errors.Is(err, storefront.ErrRefetchFailed) {
			h.logger.Warn("api.write_without_reload", zap.String("path", c.Path()), zap.Error(err))
		}
		return h.respondError(c, err)
	}
	return c.Status(status).JSON(toWriteResponse(res, h.formatter))
}

// parseQuery reads the catalog selectors. Search accepts both q and buscar.
func parseQuery(c *fiber.Ctx) (storefront.Query, model.FieldErrors) {
	var errs model.FieldErrors
	q := storefront.Query{
		Search:   c.Query("q", c.Query("buscar")),
		Category: c.Query("categoria"),
	}

	if v := c.Query("destacado"); v != "" {
		featured, err := cast.ToBoolE(v)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "destacado", Message: "must be true or false"})
		} else {
			q.Featured = &featured
		}
	}
	if v := c.Query("page"); v != "" {
		page, err := cast.ToIntE(v)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "page", Message: "must be a whole number"})
		}
		q.Page = page
	}
	if v := c.Query("pageSize"); v != "" {
		size, err := cast.ToIntE(v)
		if err != nil || size < 1 {
			errs = append(errs, model.FieldError{Field: "pageSize", Message: "must be a positive whole number"})
		}
		q.PageSize = min(size, MaxPageSize)
	}
	return q, errs
}
