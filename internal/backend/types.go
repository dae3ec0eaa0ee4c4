package backend

import (
	"encoding/json"

	"github.com/padelhub/storefront/pkg/model"
)

// envelope is the common response shape: { success, message?, data?, token?, usuario? }.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"usuario"`
}

func (e *envelope) ok() bool {
	return e.Success == nil || *e.Success
}

// ListParams are the optional filters of GET /productos.
type ListParams struct {
	Category string
	Featured *bool
	Search   string
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"rol,omitempty"`
}

// VerifyEmailRequest is the body of POST /auth/verify-email.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"codigo"`
}

// RecoverPasswordRequest is the body of POST /auth/recover-password.
type RecoverPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"codigo"`
	Password string `json:"password"`
}

// AuthResult is a successful auth answer. Token and User are set only by
// the endpoints that sign the user in.
type AuthResult struct {
	Message string
	Token   string
	User    *model.Identity
}

// productPayload is the write body of /productos with numbers as JSON numbers.
type productPayload struct {
	ID             string           `json:"id,omitempty"`
	Code           string           `json:"codigo"`
	Name           string           `json:"nombre"`
	Brand          string           `json:"marca"`
	Description    string           `json:"descripcion"`
	BasePrice      float64          `json:"precioBase"`
	Currency       string           `json:"moneda"`
	Discount       float64          `json:"descuento"`
	Surcharges     surchargePayload `json:"recargos"`
	Stock          int              `json:"stock"`
	Category       string           `json:"categoria"`
	Featured       bool             `json:"destacado"`
	ContactChannel string           `json:"whatsapp,omitempty"`
	VendorID       string           `json:"vendedorId,omitempty"`
}

type surchargePayload struct {
	Transport float64 `json:"transporte"`
	Margin    float64 `json:"margen"`
	Other     float64 `json:"otros"`
}

func toPayload(f model.ProductForm) productPayload {
	return productPayload{
		ID:          f.ID,
		Code:        f.Code,
		Name:        f.Name,
		Brand:       f.Brand,
		Description: f.Description,
		BasePrice:   f.BasePrice.InexactFloat64(),
		Currency:    string(f.Currency),
		Discount:    f.DiscountPercent.InexactFloat64(),
		Surcharges: surchargePayload{
			Transport: f.Surcharges.Transport.InexactFloat64(),
			Margin:    f.Surcharges.Margin.InexactFloat64(),
			Other:     f.Surcharges.Other.InexactFloat64(),
		},
		Stock:          f.Stock,
		Category:       string(f.Category),
		Featured:       f.Featured,
		ContactChannel: f.ContactChannel,
		VendorID:       f.VendorID,
	}
}
