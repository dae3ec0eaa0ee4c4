package api

import (
	"time"

	"github.com/padelhub/storefront/internal/access"
	"github.com/padelhub/storefront/internal/catalog"
	"github.com/padelhub/storefront/internal/pricing"
	"github.com/padelhub/storefront/internal/session"
	"github.com/padelhub/storefront/internal/storefront"
	"github.com/padelhub/storefront/pkg/model"
)

// ProductView is a catalog row as served to screens. Prices are derived here
// and nowhere else.
type ProductView struct {
	ID                  string `json:"id"`
	Code                string `json:"codigo"`
	Name                string `json:"nombre"`
	Brand               string `json:"marca"`
	Description         string `json:"descripcion,omitempty"`
	Category            string `json:"categoria"`
	CategoryLabel       string `json:"categoriaLabel"`
	Currency            string `json:"moneda"`
	BasePrice           string `json:"precioBase"`
	SurchargePercent    string `json:"recargoPorcentaje"`
	DiscountPercent     string `json:"descuento"`
	ListPrice           string `json:"precioLista"`
	FinalPrice          string `json:"precioFinal"`
	ListPriceFormatted  string `json:"precioListaFormateado"`
	FinalPriceFormatted string `json:"precioFinalFormateado"`
	HasDiscount         bool   `json:"tieneDescuento"`
	Stock               int    `json:"stock"`
	Status              string `json:"estado"`
	StatusLabel         string `json:"estadoLabel"`
	Featured            bool   `json:"destacado"`
	ContactLink         string `json:"contacto,omitempty"`
	VendorID            string `json:"vendedorId,omitempty"`
}

func toProductView(r catalog.Row, f *pricing.Formatter) ProductView {
	p := r.Product
	return ProductView{
		ID:                  p.ID,
		Code:                p.Code,
		Name:                p.Name,
		Brand:               p.Brand,
		Description:         p.Description,
		Category:            string(p.Category),
		CategoryLabel:       p.Category.Label(),
		Currency:            string(p.Currency),
		BasePrice:           r.Price.Base.StringFixed(2),
		SurchargePercent:    f.FormatPercent(r.Price.SurchargePercent, p.Currency),
		DiscountPercent:     f.FormatPercent(r.Price.DiscountPercent, p.Currency),
		ListPrice:           r.Price.ListRounded().StringFixed(2),
		FinalPrice:          r.Price.FinalRounded().StringFixed(2),
		ListPriceFormatted:  f.Format(r.Price.List, p.Currency),
		FinalPriceFormatted: f.Format(r.Price.Final, p.Currency),
		HasDiscount:         r.Price.HasDiscount(),
		Stock:               p.Stock,
		Status:              string(r.Status),
		StatusLabel:         r.Status.Label(),
		Featured:            p.Featured,
		ContactLink:         p.ContactLink("Hola, me interesa " + p.Name),
		VendorID:            p.VendorID,
	}
}

// CatalogResponse is one catalog page.
type CatalogResponse struct {
	Source     string        `json:"source"`
	VendorID   string        `json:"vendorId,omitempty"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	TotalRows  int           `json:"totalRows"`
	Items      []ProductView `json:"items"`
}

func toCatalogResponse(p *storefront.CatalogPage, f *pricing.Formatter) *CatalogResponse {
	if p == nil {
		return nil
	}
	items := make([]ProductView, 0, len(p.Page.Rows))
	for _, r := range p.Page.Rows {
		items = append(items, toProductView(r, f))
	}
	return &CatalogResponse{
		Source:     string(p.Source.Kind),
		VendorID:   p.Source.VendorID,
		Page:       p.Page.Page,
		PageSize:   p.Page.PageSize,
		TotalPages: p.Page.TotalPages,
		TotalRows:  p.Page.TotalRows,
		Items:      items,
	}
}

// WriteResponse answers product writes with the re-fetched catalog.
type WriteResponse struct {
	Product *ProductView     `json:"product,omitempty"`
	Catalog *CatalogResponse `json:"catalog"`
}

func toWriteResponse(res *storefront.WriteResult, f *pricing.Formatter) WriteResponse {
	out := WriteResponse{Catalog: toCatalogResponse(res.Catalog, f)}
	if res.Product != nil {
		rows := catalog.BuildRows([]model.Product{*res.Product}, nil)
		v := toProductView(rows[0], f)
		out.Product = &v
	}
	return out
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	SessionID     string          `json:"sessionId,omitempty"`
	Identity      *model.Identity `json:"identity,omitempty"`
	State         access.State    `json:"state"`
	Navigation    access.Actions  `json:"navigation"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
}

func toSessionResponse(s *session.Context) SessionResponse {
	if !s.Authenticated() {
		return SessionResponse{
			State:      access.StateAnonymous,
			Navigation: access.SelectNavigation(model.Identity{}),
		}
	}
	id := s.Identity
	exp := s.ExpiresAt
	return SessionResponse{
		Authenticated: true,
		SessionID:     s.ID,
		Identity:      &id,
		State:         access.StateOf(id),
		Navigation:    access.SelectNavigation(id),
		ExpiresAt:     &exp,
	}
}

// DashboardResponse summarizes the caller's data source.
type DashboardResponse struct {
	Source         string            `json:"source"`
	Total          int               `json:"total"`
	OutOfStock     int               `json:"outOfStock"`
	LowStock       int               `json:"lowStock"`
	Available      int               `json:"available"`
	Featured       int               `json:"featured"`
	InventoryValue map[string]string `json:"inventoryValue"`
}

func toDashboardResponse(d *storefront.Dashboard, f *pricing.Formatter) DashboardResponse {
	values := make(map[string]string, len(d.Summary.InventoryValue))
	for cur, v := range d.Summary.InventoryValue {
		values[string(cur)] = f.Format(v, cur)
	}
	return DashboardResponse{
		Source:         string(d.Source.Kind),
		Total:          d.Summary.Total,
		OutOfStock:     d.Summary.OutOfStock,
		LowStock:       d.Summary.LowStock,
		Available:      d.Summary.Available,
		Featured:       d.Summary.Featured,
		InventoryValue: values,
	}
}
