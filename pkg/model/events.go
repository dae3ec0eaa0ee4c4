package model

import "time"

// CatalogEventType names a catalog change.
type CatalogEventType string

const (
	ProductCreated CatalogEventType = "product.created"
	ProductUpdated CatalogEventType = "product.updated"
	ProductDeleted CatalogEventType = "product.deleted"
)

// CatalogEvent is emitted after a successful product write so other screens can
// re-fetch.
type CatalogEvent struct {
	Type      CatalogEventType `json:"type"`
	ProductID string           `json:"product_id,omitempty"`
	Code      string           `json:"code,omitempty"`
	ActorID   string           `json:"actor_id"`
	ActorRole Role             `json:"actor_role"`
	VendorID  string           `json:"vendor_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
