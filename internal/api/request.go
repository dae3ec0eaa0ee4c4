package api

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/padelhub/storefront/internal/backend"
	"github.com/padelhub/storefront/pkg/model"
)

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the payload of POST /auth/register.
type RegisterRequest struct {
	Name            string `json:"nombre" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"rol" validate:"omitempty,oneof=customer vendor cliente vendedor"`
}

// VerifyEmailRequest is the payload of POST /auth/verify-email.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"codigo" validate:"required,max=64"`
}

// RecoverPasswordRequest is the payload of POST /auth/recover-password.
type RecoverPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the payload of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"codigo" validate:"required,max=64"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ProductRequest is the create/edit payload as screens send it: numeric fields
// may arrive as numbers or as strings typed by the user.
type ProductRequest struct {
	Code           string            `json:"codigo"`
	Name           string            `json:"nombre"`
	Brand          string            `json:"marca"`
	Description    string            `json:"descripcion"`
	BasePrice      any               `json:"precioBase"`
	Currency       string            `json:"moneda"`
	Discount       any               `json:"descuento"`
	Surcharges     SurchargesRequest `json:"recargos"`
	Stock          any               `json:"stock"`
	Category       string            `json:"categoria"`
	Featured       any               `json:"destacado"`
	ContactChannel string            `json:"whatsapp"`
}

// SurchargesRequest holds the loosely typed surcharge percentages.
type SurchargesRequest struct {
	Transport any `json:"transporte"`
	Margin    any `json:"margen"`
	Other     any `json:"otros"`
}

// toForm parses the input edge into a typed form. Anything that is not a
// number is a field error; nothing past this point parses strings.
func (r ProductRequest) toForm() (model.ProductForm, model.FieldErrors) {
	var errs model.FieldErrors
	amount := func(field string, v any) decimal.Decimal {
		d, ok := parseAmount(v)
		if !ok {
			errs = append(errs, model.FieldError{Field: field, Message: "must be a number"})
		}
		return d
	}

	f := model.ProductForm{
		Code:            strings.TrimSpace(r.Code),
		Name:            strings.TrimSpace(r.Name),
		Brand:           strings.TrimSpace(r.Brand),
		Description:     strings.TrimSpace(r.Description),
		BasePrice:       amount("precioBase", r.BasePrice),
		Currency:        model.Currency(strings.ToUpper(strings.TrimSpace(r.Currency))),
		DiscountPercent: amount("descuento", r.Discount),
		Surcharges: model.Surcharges{
			Transport: amount("recargos.transporte", r.Surcharges.Transport),
			Margin:    amount("recargos.margen", r.Surcharges.Margin),
			Other:     amount("recargos.otros", r.Surcharges.Other),
		},
		Category:       model.Category(strings.ToLower(strings.TrimSpace(r.Category))),
		ContactChannel: strings.TrimSpace(r.ContactChannel),
	}

	stock := amount("stock", r.Stock)
	if !stock.IsInteger() {
		errs = append(errs, model.FieldError{Field: "stock", Message: "must be a whole number"})
	}
	f.Stock = int(stock.IntPart())

	if r.Featured != nil {
		featured, err := cast.ToBoolE(r.Featured)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "destacado", Message: "must be true or false"})
		}
		f.Featured = featured
	}

	return f, errs
}

// parseAmount accepts JSON numbers and strings with either decimal separator.
// A missing or blank value is zero.
func parseAmount(v any) (decimal.Decimal, bool) {
	if v == nil {
		return decimal.Zero, true
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func (r LoginRequest) toBackend() backend.LoginRequest {
	return backend.LoginRequest{Email: strings.TrimSpace(r.Email), Password: r.Password}
}

func (r RegisterRequest) toBackend() backend.RegisterRequest {
	role := ""
	if r.Role != "" {
		role = string(model.ParseRole(r.Role))
	}
	return backend.RegisterRequest{
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
		Role:     role,
	}
}
