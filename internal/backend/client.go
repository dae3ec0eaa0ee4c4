package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/httpclient"
	"github.com/padelhub/storefront/internal/rate"
	"github.com/padelhub/storefront/pkg/model"
)

const invalidCredentials = "Credenciales inválidas"

// Config configures the backend client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

// Client talks to the catalog and auth REST backend. The token is passed
// through as-is and never inspected.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
}

// NewClient constructs a backend client. observe may be nil.
func NewClient(cfg Config, rateMgr *rate.Manager, logger *zap.Logger, observe httpclient.Observer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	exec := httpclient.New(logger, rateMgr, httpClient, cfg.RetryMax, "backend", func(status int, body []byte) error {
		var env envelope
		_ = json.Unmarshal(body, &env)

		logger.Warn("backend.client_error",
			zap.Int("status", status),
			zap.String("message", env.Message))

		if status == http.StatusUnauthorized {
			return &UnauthorizedError{Message: env.Message}
		}
		return &StatusError{Status: status, Message: env.Message}
	}).WithObserver(observe)

	return &Client{
		logger:  logger,
		exec:    exec,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ListProducts returns the full catalog.
// GET /productos?categoria=&destacado=&buscar=
func (c *Client) ListProducts(ctx context.Context, token string, p ListParams) ([]model.Product, error) {
	q := url.Values{}
	if cat := strings.TrimSpace(p.Category); cat != "" && cat != string(model.CategoryAll) {
		q.Set("categoria", cat)
	}
	if p.Featured != nil {
		q.Set("destacado", strconv.FormatBool(*p.Featured))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("buscar", s)
	}
	return c.listProducts(ctx, token, "/productos", q)
}

// ListVendorProducts returns the products owned by vendorID.
// GET /productos-vendedor?vendedorId=
func (c *Client) ListVendorProducts(ctx context.Context, token, vendorID string) ([]model.Product, error) {
	if vendorID == "" {
		return nil, errors.New("backend: empty vendor id")
	}
	q := url.Values{}
	q.Set("vendedorId", vendorID)
	return c.listProducts(ctx, token, "/productos-vendedor", q)
}

// CreateProduct creates a product. The returned product is nil when the
// backend does not echo it back.
// POST /productos
func (c *Client) CreateProduct(ctx context.Context, token string, f model.ProductForm) (*model.Product, error) {
	return c.writeProduct(ctx, token, http.MethodPost, f)
}

// UpdateProduct replaces a product identified by f.ID.
// PUT /productos
func (c *Client) UpdateProduct(ctx context.Context, token string, f model.ProductForm) (*model.Product, error) {
	if f.ID == "" {
		return nil, errors.New("backend: update without product id")
	}
	return c.writeProduct(ctx, token, http.MethodPut, f)
}

// DeleteProduct deletes a product.
// DELETE /productos?id=
func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	q := url.Values{}
	q.Set("id", id)
	env, err := c.call(ctx, token, http.MethodDelete, "/productos", q, nil)
	if err != nil {
		return err
	}
	return rejected(env)
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	return c.auth(ctx, "/auth/login", req)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	return c.auth(ctx, "/auth/register", req)
}

func (c *Client) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*AuthResult, error) {
	return c.auth(ctx, "/auth/verify-email", req)
}

func (c *Client) RecoverPassword(ctx context.Context, req RecoverPasswordRequest) (*AuthResult, error) {
	return c.auth(ctx, "/auth/recover-password", req)
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*AuthResult, error) {
	return c.auth(ctx, "/auth/reset-password", req)
}

func (c *Client) listProducts(ctx context.Context, token, path string, q url.Values) ([]model.Product, error) {
	env, err := c.call(ctx, token, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	if err := rejected(env); err != nil {
		return nil, err
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: %s: data is not an array", ErrMalformedResponse, path)
	}
	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	c.logger.Debug("backend.products_listed", zap.String("path", path), zap.Int("count", len(products)))
	return products, nil
}

func (c *Client) writeProduct(ctx context.Context, token, method string, f model.ProductForm) (*model.Product, error) {
	env, err := c.call(ctx, token, method, "/productos", nil, toPayload(f))
	if err != nil {
		return nil, err
	}
	if err := rejected(env); err != nil {
		return nil, err
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '{' {
		return nil, nil
	}
	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &p, nil
}

func (c *Client) auth(ctx context.Context, path string, body any) (*AuthResult, error) {
	env, err := c.call(ctx, "", http.MethodPost, path, nil, body)
	if err != nil {
		// A 401 here is a credential failure, not an expired session.
		var ue *UnauthorizedError
		if errors.As(err, &ue) {
			msg := ue.Message
			if msg == "" {
				msg = invalidCredentials
			}
			return nil, &RejectedError{Message: msg}
		}
		return nil, err
	}
	if err := rejected(env); err != nil {
		return nil, err
	}
	res := &AuthResult{Message: env.Message, Token: env.Token}
	if u := bytes.TrimSpace(env.User); len(u) > 0 && u[0] == '{' {
		var id model.Identity
		if err := json.Unmarshal(u, &id); err != nil {
			return nil, fmt.Errorf("%w: usuario: %v", ErrMalformedResponse, err)
		}
		res.User = &id
	}
	if res.Token != "" && res.User == nil {
		return nil, fmt.Errorf("%w: %s: token without usuario", ErrMalformedResponse, path)
	}
	return res, nil
}

func (c *Client) call(ctx context.Context, token, method, path string, q url.Values, body any) (*envelope, error) {
	req := httpclient.Request{
		Method:   method,
		URL:      c.baseURL + path,
		Endpoint: method + " " + path,
		Header:   http.Header{},
	}
	if len(q) > 0 {
		req.URL += "?" + q.Encode()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		req.Body = b
	}

	var env envelope
	if err := c.exec.DoJSON(ctx, req, rateKey(token), &env); err != nil {
		return nil, classify(err)
	}
	return &env, nil
}

func rejected(env *envelope) error {
	if env.ok() {
		return nil
	}
	if env.Message == "" {
		return fmt.Errorf("%w: success=false without message", ErrMalformedResponse)
	}
	return &RejectedError{Message: env.Message}
}

// rateKey buckets callers by a digest of their token so raw credentials are
// never held as limiter keys.
func rateKey(token string) string {
	if token == "" {
		return "anonymous"
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String()
}
