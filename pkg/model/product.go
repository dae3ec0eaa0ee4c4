package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Currency is the ISO code a product is priced in. Prices are never converted
// between currencies.
type Currency string

const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
)

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	return c == CurrencyARS || c == CurrencyUSD
}

// Category groups products in the catalog.
type Category string

const (
	CategoryPaddle    Category = "paddle"
	CategoryBall      Category = "ball"
	CategoryApparel   Category = "apparel"
	CategoryAccessory Category = "accessory"

	// CategoryAll is the selector sentinel that disables category filtering.
	CategoryAll Category = "all"
)

var categoryLabels = map[Category]string{
	CategoryPaddle:    "Paletas",
	CategoryBall:      "Pelotas",
	CategoryApparel:   "Indumentaria",
	CategoryAccessory: "Accesorios",
}

// Categories lists the selectable categories in display order.
func Categories() []Category {
	return []Category{CategoryPaddle, CategoryBall, CategoryApparel, CategoryAccessory}
}

// Valid reports whether c is a known product category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name, or the raw value for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Surcharges are additive percentage uplifts applied to the base price.
type Surcharges struct {
	Transport decimal.Decimal `json:"transporte"`
	Margin    decimal.Decimal `json:"margen"`
	Other     decimal.Decimal `json:"otros"`
}

// Product is a catalog record as served by the backend. The backend owns it;
// the storefront only reads and writes it over HTTP.
type Product struct {
	ID              string           `json:"id"`
	Code            string           `json:"codigo"`
	Name            string           `json:"nombre"`
	Brand           string           `json:"marca"`
	Description     string           `json:"descripcion"`
	BasePrice       decimal.Decimal  `json:"precioBase"`
	Currency        Currency         `json:"moneda"`
	DiscountPercent decimal.Decimal  `json:"descuento"`
	Surcharges      Surcharges       `json:"recargos"`
	Stock           int              `json:"stock"`
	Category        Category         `json:"categoria"`
	Featured        bool             `json:"destacado"`
	ContactChannel  string           `json:"whatsapp"`
	VendorID        string           `json:"vendedorId,omitempty"`
	FinalPrice      *decimal.Decimal `json:"precioFinal,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// productWire mirrors Product with loosely typed numerics. The backend has been
// seen sending numbers as strings, and the pricing rules treat anything that
// is not a number as zero.
type productWire struct {
	ID              string         `json:"id"`
	MongoID         string         `json:"_id"`
	Code            string         `json:"codigo"`
	Name            string         `json:"nombre"`
	Brand           string         `json:"marca"`
	Description     string         `json:"descripcion"`
	BasePrice       any            `json:"precioBase"`
	Currency        string         `json:"moneda"`
	DiscountPercent any            `json:"descuento"`
	Surcharges      map[string]any `json:"recargos"`
	Stock           any            `json:"stock"`
	Category        string         `json:"categoria"`
	Featured        any            `json:"destacado"`
	ContactChannel  string         `json:"whatsapp"`
	VendorID        string         `json:"vendedorId"`
	FinalPrice      any            `json:"precioFinal"`
	CreatedAt       any            `json:"createdAt"`
	UpdatedAt       any            `json:"updatedAt"`
}

// UnmarshalJSON decodes a backend product leniently.
func (p *Product) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var w productWire
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("decode product: %w", err)
	}

	id := w.ID
	if id == "" {
		id = w.MongoID
	}

	*p = Product{
		ID:              id,
		Code:            strings.TrimSpace(w.Code),
		Name:            w.Name,
		Brand:           w.Brand,
		Description:     w.Description,
		BasePrice:       LenientDecimal(w.BasePrice),
		Currency:        Currency(strings.ToUpper(strings.TrimSpace(w.Currency))),
		DiscountPercent: LenientDecimal(w.DiscountPercent),
		Surcharges: Surcharges{
			Transport: LenientDecimal(w.Surcharges["transporte"]),
			Margin:    LenientDecimal(w.Surcharges["margen"]),
			Other:     LenientDecimal(w.Surcharges["otros"]),
		},
		Stock:          int(LenientDecimal(w.Stock).IntPart()),
		Category:       Category(strings.ToLower(strings.TrimSpace(w.Category))),
		Featured:       lenientBool(w.Featured),
		ContactChannel: w.ContactChannel,
		VendorID:       w.VendorID,
		CreatedAt:      parseTime(w.CreatedAt),
		UpdatedAt:      parseTime(w.UpdatedAt),
	}
	if w.FinalPrice != nil {
		fp := LenientDecimal(w.FinalPrice)
		p.FinalPrice = &fp
	}
	return nil
}

// LenientDecimal converts a decoded JSON value into a decimal. Missing or
// non-numeric values yield zero.
func LenientDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case json.Number:
		return parseDecimalString(t.String())
	case string:
		return parseDecimalString(t)
	case decimal.Decimal:
		return t
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func lenientBool(v any) bool {
	switch t := v.(type) {
	case json.Number:
		return t.String() != "0"
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "si", "sí", "yes", "on":
			return true
		}
	}
	return cast.ToBool(v)
}

func parseDecimalString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		// "1.234,50" style input from Spanish locale forms
		d, err = decimal.NewFromString(strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."))
		if err != nil {
			return decimal.Zero
		}
	}
	return d
}

func parseTime(v any) time.Time {
	s := cast.ToString(v)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ContactLink builds an outbound chat link for the product's contact channel.
// Returns "" when the channel has no digits.
func (p Product) ContactLink(text string) string {
	var digits strings.Builder
	for _, r := range p.ContactChannel {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	link := "https://wa.me/" + digits.String()
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link
}
