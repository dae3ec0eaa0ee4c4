package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/access"
	"github.com/padelhub/storefront/internal/backend"
	"github.com/padelhub/storefront/internal/catalog"
	"github.com/padelhub/storefront/internal/export"
	"github.com/padelhub/storefront/internal/publisher"
	"github.com/padelhub/storefront/internal/session"
	"github.com/padelhub/storefront/pkg/model"
)

var (
	// ErrForbidden means the session's role may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrRefetchFailed means a write succeeded but the catalog could not be reloaded.
	ErrRefetchFailed = errors.New("catalog reload failed after write")
)

// Backend is the subset of the backend client the service needs.
type Backend interface {
	ListProducts(ctx context.Context, token string, p backend.ListParams) ([]model.Product, error)
	ListVendorProducts(ctx context.Context, token, vendorID string) ([]model.Product, error)
	CreateProduct(ctx context.Context, token string, f model.ProductForm) (*model.Product, error)
	UpdateProduct(ctx context.Context, token string, f model.ProductForm) (*model.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
}

// Query selects a catalog page.
type Query struct {
	Search   string
	Category string
	Featured *bool
	Page     int
	PageSize int
}

// CatalogPage is one page of the session's data source.
type CatalogPage struct {
	Source access.DataSource
	Query  Query
	Page   catalog.Page
}

// WriteResult is returned by product writes. Catalog is the re-fetched first
// page of the session's data source.
type WriteResult struct {
	Product *model.Product
	Catalog *CatalogPage
}

// Dashboard is the summary of the session's data source.
type Dashboard struct {
	Source  access.DataSource
	Summary catalog.Summary
}

// Service implements the storefront use-cases on top of the backend.
type Service struct {
	backend   Backend
	renderer  *export.Renderer
	publisher publisher.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a Service. A nil publisher drops events.
func NewService(b Backend, renderer *export.Renderer, pub publisher.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pub == nil {
		pub = publisher.Nop{}
	}
	if renderer == nil {
		renderer = export.NewRenderer(nil, nil, logger)
	}
	return &Service{
		backend:   b,
		renderer:  renderer,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
	}
}

// Navigation returns the actions the session may use.
func (s *Service) Navigation(sess *session.Context) access.Actions {
	return access.SelectNavigation(identityOf(sess))
}

// Catalog loads, resolves, filters and paginates the session's data source.
func (s *Service) Catalog(ctx context.Context, sess *session.Context, q Query) (*CatalogPage, error) {
	id := identityOf(sess)
	src := access.SelectDataSource(id)

	rows, err := s.loadRows(ctx, sess, src, q)
	if err != nil {
		return nil, err
	}
	rows = catalog.Filter(rows, q.Search, q.Category)
	if q.Featured != nil {
		rows = filterFeatured(rows, *q.Featured)
	}
	page := catalog.Paginate(rows, q.Page, q.PageSize)

	s.logger.Debug("storefront.catalog_loaded",
		zap.String("source", string(src.Kind)),
		zap.String("role", string(id.Role)),
		zap.Int("rows", page.TotalRows),
		zap.Int("page", page.Page))

	return &CatalogPage{Source: src, Query: q, Page: page}, nil
}

// Dashboard summarizes the unfiltered data source.
func (s *Service) Dashboard(ctx context.Context, sess *session.Context) (*Dashboard, error) {
	id := identityOf(sess)
	if !access.SelectNavigation(id).Allows(access.ActionDashboard) {
		return nil, ErrForbidden
	}
	src := access.SelectDataSource(id)
	rows, err := s.loadRows(ctx, sess, src, Query{})
	if err != nil {
		return nil, err
	}
	return &Dashboard{Source: src, Summary: catalog.Summarize(rows)}, nil
}

// Export renders the requested catalog page in format.
func (s *Service) Export(ctx context.Context, sess *session.Context, format export.Format, q Query) (*export.Document, error) {
	id := identityOf(sess)
	if !access.SelectNavigation(id).Allows(access.ActionExport) {
		return nil, ErrForbidden
	}
	page, err := s.Catalog(ctx, sess, q)
	if err != nil {
		return nil, err
	}

	name := id.DisplayName
	if name == "" {
		name = id.ID
	}
	totalPages := page.Page.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	meta := export.Meta{
		Title:       "Lista de precios",
		GeneratedAt: s.now(),
		PageLabel:   fmt.Sprintf("Página %d de %d", page.Page.Page, totalPages),
		Role:        id.Role,
		Identity:    name,
		Page:        page.Page.Page,
	}
	return s.renderer.Render(ctx, format, page.Page.Rows, meta)
}

// CreateProduct creates a product. Vendors always create in their own subset.
func (s *Service) CreateProduct(ctx context.Context, sess *session.Context, f model.ProductForm) (*WriteResult, error) {
	id := identityOf(sess)
	if !access.SelectNavigation(id).Allows(access.ActionCreateProduct) {
		return nil, ErrForbidden
	}
	f.ID = ""
	if access.StateOf(id) == access.StateVendor {
		f.VendorID = id.ID
	}

	p, err := s.backend.CreateProduct(ctx, sess.Token, f)
	if err != nil {
		return nil, err
	}
	productID := f.ID
	if p != nil {
		productID = p.ID
	}
	return s.afterWrite(ctx, sess, model.ProductCreated, productID, f.Code, p)
}

// UpdateProduct replaces product f.ID.
func (s *Service) UpdateProduct(ctx context.Context, sess *session.Context, f model.ProductForm) (*WriteResult, error) {
	id := identityOf(sess)
	if !access.SelectNavigation(id).Allows(access.ActionEditProduct) {
		return nil, ErrForbidden
	}
	if access.StateOf(id) == access.StateVendor {
		if err := s.ensureOwned(ctx, sess, f.ID); err != nil {
			return nil, err
		}
		f.VendorID = id.ID
	}

	p, err := s.backend.UpdateProduct(ctx, sess.Token, f)
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, sess, model.ProductUpdated, f.ID, f.Code, p)
}

// DeleteProduct deletes product productID.
func (s *Service) DeleteProduct(ctx context.Context, sess *session.Context, productID string) (*WriteResult, error) {
	id := identityOf(sess)
	if !access.SelectNavigation(id).Allows(access.ActionDeleteProduct) {
		return nil, ErrForbidden
	}
	if access.StateOf(id) == access.StateVendor {
		if err := s.ensureOwned(ctx, sess, productID); err != nil {
			return nil, err
		}
	}

	if err := s.backend.DeleteProduct(ctx, sess.Token, productID); err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, sess, model.ProductDeleted, productID, "", nil)
}

// afterWrite publishes the change and re-fetches the data source. A write is
// never reported without the reload.
func (s *Service) afterWrite(ctx context.Context, sess *session.Context, t model.CatalogEventType, productID, code string, p *model.Product) (*WriteResult, error) {
	id := identityOf(sess)
	evt := model.CatalogEvent{
		Type:      t,
		ProductID: productID,
		Code:      code,
		ActorID:   id.ID,
		ActorRole: id.Role,
		Timestamp: s.now().UTC(),
	}
	if access.StateOf(id) == access.StateVendor {
		evt.VendorID = id.ID
	}
	if err := s.publisher.PublishCatalogEvent(ctx, evt); err != nil {
		s.logger.Warn("storefront.event_publish_failed",
			zap.String("event_type", string(t)),
			zap.String("product_id", productID),
			zap.Error(err))
	}

	s.logger.Info("storefront.product_written",
		zap.String("event_type", string(t)),
		zap.String("product_id", productID),
		zap.String("actor_id", id.ID))

	res := &WriteResult{Product: p}
	page, err := s.Catalog(ctx, sess, Query{Page: 1})
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrRefetchFailed, err)
	}
	res.Catalog = page
	return res, nil
}

func (s *Service) ensureOwned(ctx context.Context, sess *session.Context, productID string) error {
	if productID == "" {
		return ErrForbidden
	}
	owned, err := s.backend.ListVendorProducts(ctx, sess.Token, sess.Identity.ID)
	if err != nil {
		return err
	}
	for _, p := range owned {
		if p.ID == productID {
			return nil
		}
	}
	s.logger.Warn("storefront.vendor_not_owner",
		zap.String("vendor_id", sess.Identity.ID),
		zap.String("product_id", productID))
	return ErrForbidden
}

func (s *Service) loadRows(ctx context.Context, sess *session.Context, src access.DataSource, q Query) ([]catalog.Row, error) {
	var (
		products []model.Product
		err      error
	)
	token := ""
	if sess != nil {
		token = sess.Token
	}
	switch src.Kind {
	case access.SourceVendorSubset:
		products, err = s.backend.ListVendorProducts(ctx, token, src.VendorID)
	default:
		// Search and category are matched locally; the backend's own search
		// covers fewer fields.
		products, err = s.backend.ListProducts(ctx, token, backend.ListParams{
			Featured: q.Featured,
		})
	}
	if err != nil {
		s.logger.Warn("storefront.fetch_failed",
			zap.String("source", string(src.Kind)),
			zap.Error(err))
		return nil, err
	}
	return catalog.BuildRows(products, s.logger), nil
}

func filterFeatured(rows []catalog.Row, featured bool) []catalog.Row {
	out := make([]catalog.Row, 0, len(rows))
	for _, r := range rows {
		if r.Product.Featured == featured {
			out = append(out, r)
		}
	}
	return out
}

func identityOf(sess *session.Context) model.Identity {
	if sess == nil {
		return model.Identity{}
	}
	return sess.Identity
}
