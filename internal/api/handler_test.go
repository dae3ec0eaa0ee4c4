package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/backend"
	"github.com/padelhub/storefront/internal/session"
	"github.com/padelhub/storefront/internal/storefront"
	"github.com/padelhub/storefront/pkg/model"
)

// ─── Fake backend ─────────────────────────────────────────────────────────────

type fakeBackend struct {
	mu              sync.Mutex
	products        []model.Product
	listErr         error
	failListOnWrite bool
	writes          int
	created         []model.ProductForm
	authResult      *backend.AuthResult
	authErr         error
	// hangList makes catalog reads wait for the caller's context.
	hangList bool
}

func (f *fakeBackend) ListProducts(ctx context.Context, _ string, _ backend.ListParams) ([]model.Product, error) {
	if f.hangList {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.failListOnWrite && f.writes > 0 {
		return nil, backend.ErrNetwork
	}
	return append([]model.Product(nil), f.products...), nil
}

func (f *fakeBackend) ListVendorProducts(_ context.Context, _ string, vendorID string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Product
	for _, p := range f.products {
		if p.VendorID == vendorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBackend) CreateProduct(_ context.Context, _ string, form model.ProductForm) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.created = append(f.created, form)
	p := model.Product{
		ID:         "p-new",
		Code:       form.Code,
		Name:       form.Name,
		BasePrice:  form.BasePrice,
		Currency:   form.Currency,
		Surcharges: form.Surcharges,
		Stock:      form.Stock,
		Category:   form.Category,
		VendorID:   form.VendorID,
	}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, _ string, form model.ProductForm) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	return nil, nil
}

func (f *fakeBackend) DeleteProduct(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	kept := f.products[:0]
	for _, p := range f.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.products = kept
	return nil
}

func (f *fakeBackend) auth() (*backend.AuthResult, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if f.authResult != nil {
		return f.authResult, nil
	}
	return &backend.AuthResult{Message: "ok"}, nil
}

func (f *fakeBackend) Login(context.Context, backend.LoginRequest) (*backend.AuthResult, error) {
	return f.auth()
}

func (f *fakeBackend) Register(context.Context, backend.RegisterRequest) (*backend.AuthResult, error) {
	return f.auth()
}

func (f *fakeBackend) VerifyEmail(context.Context, backend.VerifyEmailRequest) (*backend.AuthResult, error) {
	return f.auth()
}

func (f *fakeBackend) RecoverPassword(context.Context, backend.RecoverPasswordRequest) (*backend.AuthResult, error) {
	return f.auth()
}

func (f *fakeBackend) ResetPassword(context.Context, backend.ResetPasswordRequest) (*backend.AuthResult, error) {
	return f.auth()
}

// ─── Test app helpers ─────────────────────────────────────────────────────────

type testEnv struct {
	app      *fiber.App
	backend  *fakeBackend
	sessions *session.Manager
	handler  *Handler
}

func sampleProducts() []model.Product {
	return []model.Product{
		{
			ID:        "p-1",
			Code:      "PAL-001",
			Name:      "Paleta Carbon Pro",
			BasePrice: decimal.NewFromInt(25000),
			Currency:  model.CurrencyARS,
			Surcharges: model.Surcharges{
				Transport: decimal.NewFromInt(15),
				Margin:    decimal.NewFromInt(10),
			},
			Stock:          4,
			Category:       model.CategoryPaddle,
			ContactChannel: "+54 9 11 5555-0000",
			VendorID:       "v-1",
		},
		{
			ID:              "p-2",
			Code:            "BAL-010",
			Name:            "Tubo de pelotas",
			BasePrice:       decimal.NewFromInt(45),
			Currency:        model.CurrencyUSD,
			DiscountPercent: decimal.NewFromInt(20),
			Stock:           30,
			Category:        model.CategoryBall,
			Featured:        true,
			VendorID:        "v-2",
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fb := &fakeBackend{products: sampleProducts()}
	store := session.NewMemoryStore(time.Hour, 0)
	t.Cleanup(func() { _ = store.Close() })
	mgr := session.NewManager(store, time.Hour, zap.NewNop())
	svc := storefront.NewService(fb, nil, nil, zap.NewNop())
	h := NewHandler(zap.NewNop(), fb, svc, mgr, nil, CookieConfig{})

	app := fiber.New()
	RegisterRoutes(app, nil, h)
	return &testEnv{app: app, backend: fb, sessions: mgr, handler: h}
}

func (e *testEnv) signIn(t *testing.T, id model.Identity) string {
	t.Helper()
	sess, err := e.sessions.Init(context.Background(), id, "tok-"+id.ID)
	require.NoError(t, err)
	return sess.ID
}

func (e *testEnv) do(t *testing.T, method, path, sessionID, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

var (
	admin    = model.Identity{ID: "a-1", DisplayName: "Ana", Role: model.RoleAdmin}
	vendor   = model.Identity{ID: "v-1", DisplayName: "Vera", Role: model.RoleVendor}
	customer = model.Identity{ID: "c-1", DisplayName: "Carlos", Role: model.RoleCustomer}
)

// ─── Catalog ──────────────────────────────────────────────────────────────────

func TestCatalog_AnonymousSeesFullCatalogWithDerivedPrices(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/catalog", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body CatalogResponse
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "full", body.Source)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 2, body.TotalRows)
	require.Len(t, body.Items, 2)

	paddle := body.Items[0]
	assert.Equal(t, "31250.00", paddle.FinalPrice)
	assert.Equal(t, "$ 31.250,00", paddle.FinalPriceFormatted)
	assert.Equal(t, "Paletas", paddle.CategoryLabel)
	assert.Equal(t, "Stock bajo", paddle.StatusLabel)
	assert.True(t, strings.HasPrefix(paddle.ContactLink, "https://wa.me/5491155550000?text="))

	balls := body.Items[1]
	assert.Equal(t, "45.00", balls.ListPrice)
	assert.Equal(t, "36.00", balls.FinalPrice)
	assert.True(t, balls.HasDiscount)
}

func TestCatalog_VendorSeesOwnSubset(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, vendor)

	resp := env.do(t, http.MethodGet, "/api/v1/catalog", sid, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body CatalogResponse
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "vendor", body.Source)
	assert.Equal(t, "v-1", body.VendorID)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "p-1", body.Items[0].ID)
}

func TestCatalog_InvalidQuery(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/catalog?pageSize=abc&destacado=maybe", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "validation failed", body["error"])
	assert.Len(t, body["fields"], 2)
}

func TestCatalog_BackendUnreachable(t *testing.T) {
	env := newTestEnv(t)
	env.backend.listErr = backend.ErrNetwork

	resp := env.do(t, http.MethodGet, "/api/v1/catalog", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotContains(t, body, "message")
}

func TestCatalog_BackendUnauthorizedTearsDownSession(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, customer)
	env.backend.listErr = backend.ErrUnauthorized

	resp := env.do(t, http.MethodGet, "/api/v1/catalog", sid, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "/login", body["redirect"])

	_, err := env.sessions.Get(context.Background(), sid)
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

// ─── Auth ─────────────────────────────────────────────────────────────────────

func TestCatalog_StalledBackendHitsRequestDeadline(t *testing.T) {
	env := newTestEnv(t)
	env.handler.WithRequestTimeout(30 * time.Millisecond)
	env.backend.hangList = true

	start := time.Now()
	resp := env.do(t, http.MethodGet, "/api/v1/catalog", "", "")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLogin_OpensSessionAndSetsCookie(t *testing.T) {
	env := newTestEnv(t)
	user := customer
	env.backend.authResult = &backend.AuthResult{Message: "Bienvenido", Token: "jwt-1", User: &user}

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"carlos@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "storefront_session" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	body := decodeBody(t, resp)
	assert.Equal(t, "Bienvenido", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	sessResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	sessBody := decodeBody(t, sessResp)
	assert.Equal(t, true, sessBody["authenticated"])
	assert.Equal(t, "customer", sessBody["state"])
}

func TestLogin_ValidationFailure(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"nope","password":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 2)
}

func TestLogin_RejectedByBackend(t *testing.T) {
	env := newTestEnv(t)
	env.backend.authErr = &backend.RejectedError{Message: "Credenciales inválidas"}

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"carlos@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Credenciales inválidas", body["error"])
}

func TestLogin_UnauthorizedKeepsExistingSession(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, admin)
	env.backend.authErr = &backend.UnauthorizedError{Message: "contraseña incorrecta"}

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", sid, `{"email":"otro@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	for _, ck := range resp.Cookies() {
		assert.NotEqual(t, "storefront_session", ck.Name)
	}
	body := decodeBody(t, resp)
	assert.Equal(t, "contraseña incorrecta", body["error"])
	assert.NotContains(t, body, "redirect")

	sess, err := env.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, "a-1", sess.Identity.ID)
}

func TestRecoverPassword_NoSessionWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	env.backend.authResult = &backend.AuthResult{Message: "Código enviado"}

	resp := env.do(t, http.MethodPost, "/api/v1/auth/recover-password", "", `{"email":"carlos@example.com"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
	body := decodeBody(t, resp)
	assert.Equal(t, "Código enviado", body["message"])
	assert.NotContains(t, body, "session")
}

func TestLogout_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, customer)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/logout", sid, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := env.sessions.Get(context.Background(), sid)
	assert.ErrorIs(t, err, session.ErrNotFound)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/logout", sid, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ─── Navigation / dashboard ───────────────────────────────────────────────────

func TestNavigation_ByRole(t *testing.T) {
	env := newTestEnv(t)

	anon := decodeBody(t, env.do(t, http.MethodGet, "/api/v1/navigation", "", ""))
	assert.Equal(t, []any{"public_catalog"}, anon["actions"])

	sid := env.signIn(t, admin)
	adm := decodeBody(t, env.do(t, http.MethodGet, "/api/v1/navigation", sid, ""))
	assert.Len(t, adm["actions"], 8)
	assert.Equal(t, "admin", adm["state"])
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/dashboard", env.signIn(t, customer), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/dashboard", env.signIn(t, admin), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d DashboardResponse
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	assert.Equal(t, 2, d.Total)
	assert.Equal(t, 1, d.LowStock)
	assert.Equal(t, 1, d.Featured)
	assert.Equal(t, "US$ 1,080.00", d.InventoryValue["USD"])
}

// ─── Export ───────────────────────────────────────────────────────────────────

func TestExport_CSV(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, admin)

	resp := env.do(t, http.MethodGet, "/api/v1/catalog/export?format=csv", sid, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "lista_precios_admin_ana_pag1.csv")

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "PAL-001")
	assert.Contains(t, string(raw), "$ 31.250,00")
}

func TestExport_Errors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/catalog/export?format=csv", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	sid := env.signIn(t, admin)
	resp = env.do(t, http.MethodGet, "/api/v1/catalog/export?format=docx", sid, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/catalog/export?format=pdf", sid, "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/catalog/export", env.signIn(t, customer), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// ─── Product writes ───────────────────────────────────────────────────────────

const productBody = `{
	"codigo": "PAL-200",
	"nombre": "Paleta Control",
	"precioBase": "1.234,50",
	"moneda": "ars",
	"descuento": 0,
	"recargos": {"transporte": "5", "margen": 10},
	"stock": "3",
	"categoria": "paddle",
	"destacado": "true"
}`

func TestCreateProduct_ParsesAmountsAndReloads(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, admin)

	resp := env.do(t, http.MethodPost, "/api/v1/products", sid, productBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, env.backend.created, 1)
	form := env.backend.created[0]
	assert.True(t, form.BasePrice.Equal(decimal.RequireFromString("1234.5")), form.BasePrice.String())
	assert.Equal(t, model.CurrencyARS, form.Currency)
	assert.Equal(t, 3, form.Stock)
	assert.True(t, form.Featured)

	var body WriteResponse
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Catalog)
	assert.Equal(t, 3, body.Catalog.TotalRows)
	require.NotNil(t, body.Product)
	assert.Equal(t, "1419.68", body.Product.FinalPrice)
}

func TestCreateProduct_VendorForcedToOwnSubset(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, vendor)

	resp := env.do(t, http.MethodPost, "/api/v1/products", sid, productBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, env.backend.created, 1)
	assert.Equal(t, "v-1", env.backend.created[0].VendorID)
}

func TestCreateProduct_Validation(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, admin)

	resp := env.do(t, http.MethodPost, "/api/v1/products", sid,
		`{"codigo":"","nombre":"X","precioBase":"abc","moneda":"EUR","stock":1.5,"categoria":"paddle","descuento":150}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	raw, err := json.Marshal(body["fields"])
	require.NoError(t, err)
	for _, field := range []string{"precioBase", "stock", "codigo", "moneda", "descuento"} {
		assert.Contains(t, string(raw), `"`+field+`"`)
	}
	assert.Empty(t, env.backend.created)
}

func TestCreateProduct_RolesGate(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/products", "", productBody)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", decodeBody(t, resp)["redirect"])

	resp = env.do(t, http.MethodPost, "/api/v1/products", env.signIn(t, customer), productBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateProduct_ReloadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.backend.failListOnWrite = true
	sid := env.signIn(t, admin)

	resp := env.do(t, http.MethodPost, "/api/v1/products", sid, productBody)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["saved"])
	assert.NotContains(t, body, "message")
}

func TestDeleteProduct_VendorMustOwn(t *testing.T) {
	env := newTestEnv(t)
	sid := env.signIn(t, vendor)

	resp := env.do(t, http.MethodDelete, "/api/v1/products/p-2", sid, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, env.backend.writes)

	resp = env.do(t, http.MethodDelete, "/api/v1/products/p-1", sid, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body WriteResponse
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 0, body.Catalog.TotalRows)
}

// ─── Health ───────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
}
