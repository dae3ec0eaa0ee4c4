package model

import (
	"github.com/shopspring/decimal"
)

// ProductForm is the typed create/edit form. Numeric fields hold numbers from
// the input edge on; nothing downstream parses strings.
type ProductForm struct {
	ID              string          `json:"id,omitempty"`
	Code            string          `json:"codigo" validate:"required,max=40"`
	Name            string          `json:"nombre" validate:"required,max=200"`
	Brand           string          `json:"marca" validate:"max=120"`
	Description     string          `json:"descripcion" validate:"max=2000"`
	BasePrice       decimal.Decimal `json:"precioBase"`
	Currency        Currency        `json:"moneda" validate:"required,oneof=ARS USD"`
	DiscountPercent decimal.Decimal `json:"descuento"`
	Surcharges      Surcharges      `json:"recargos"`
	Stock           int             `json:"stock" validate:"gte=0"`
	Category        Category        `json:"categoria" validate:"required,oneof=paddle ball apparel accessory"`
	Featured        bool            `json:"destacado"`
	ContactChannel  string          `json:"whatsapp" validate:"omitempty,max=30"`
	VendorID        string          `json:"vendedorId,omitempty"`
}

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is returned when a form fails validation.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return e[0].Field + ": " + e[0].Message
	}
	return e[0].Field + ": " + e[0].Message + " (and more)"
}

// CheckAmounts validates the decimal fields the struct tags cannot express.
func (f ProductForm) CheckAmounts() FieldErrors {
	var errs FieldErrors
	hundred := decimal.NewFromInt(100)

	if f.BasePrice.IsNegative() {
		errs = append(errs, FieldError{Field: "precioBase", Message: "must not be negative"})
	}
	if f.DiscountPercent.IsNegative() || f.DiscountPercent.GreaterThan(hundred) {
		errs = append(errs, FieldError{Field: "descuento", Message: "must be between 0 and 100"})
	}
	surcharges := []struct {
		field string
		value decimal.Decimal
	}{
		{"recargos.transporte", f.Surcharges.Transport},
		{"recargos.margen", f.Surcharges.Margin},
		{"recargos.otros", f.Surcharges.Other},
	}
	for _, s := range surcharges {
		if s.value.IsNegative() {
			errs = append(errs, FieldError{Field: s.field, Message: "must not be negative"})
		}
	}
	return errs
}
