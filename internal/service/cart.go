package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/telemetry"
)

// Cart errors
var (
	ErrProductIDRequired = domain.Errorf(domain.EINVALID, "", "Product ID required")
	ErrProductNotFound   = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrInvalidQuantity   = domain.Errorf(domain.EINVALID, "", "Quantity must be between 1 and 2147483647")
)

// CartView is a stored cart priced against the catalog.
type CartView struct {
	Items  []domain.TotalsLine `json:"items"`
	Totals domain.Totals       `json:"totals"`
}

// CartLine is one entry of a cart replacement.
type CartLine struct {
	ID  string
	Qty int64
}

// CartService manages the server-side cart kept per owner. The owner is the
// caller's user id, or domain.AnonymousCartOwner.
type CartService interface {
	Get(ctx context.Context, owner string) (*CartView, error)

	// Add increments a product's quantity. qty must be positive.
	Add(ctx context.Context, owner, productID string, qty int64) (*CartView, error)

	// Replace swaps the whole cart, keeping only known products with a
	// positive quantity.
	Replace(ctx context.Context, owner string, lines []CartLine) (*CartView, error)

	Clear(ctx context.Context, owner string) error
}

// CartOption configures a cart service.
type CartOption func(*cartService)

// WithCartClock overrides the time source.
func WithCartClock(now func() time.Time) CartOption {
	return func(s *cartService) { s.now = now }
}

// WithCartMetrics records business metrics.
func WithCartMetrics(m *telemetry.BusinessMetrics) CartOption {
	return func(s *cartService) { s.metrics = m }
}

// WithCartLogger sets the service logger.
func WithCartLogger(logger *slog.Logger) CartOption {
	return func(s *cartService) { s.logger = logger }
}

type cartService struct {
	store    domain.CartStore
	products domain.ProductLookup
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewCartService creates a new CartService instance
func NewCartService(store domain.CartStore, products domain.ProductLookup, opts ...CartOption) CartService {
	s := &cartService{
		store:    store,
		products: products,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CartOwner normalizes a caller-supplied user id into a cart key.
func CartOwner(userID string) string {
	if id := strings.TrimSpace(userID); id != "" {
		return id
	}
	return domain.AnonymousCartOwner
}

func (s *cartService) Get(ctx context.Context, owner string) (*CartView, error) {
	cart, err := s.store.Get(ctx, CartOwner(owner))
	if err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

func (s *cartService) Add(ctx context.Context, owner, productID string, qty int64) (*CartView, error) {
	const op = "cart.add"

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.WithOp(ErrProductIDRequired, op)
	}
	if qty <= 0 || qty > domain.MaxQuantity {
		return nil, domain.WithOp(ErrInvalidQuantity, op)
	}
	if _, ok := s.products.Lookup(productID); !ok {
		return nil, domain.WithOp(ErrProductNotFound, op)
	}

	cart, err := s.store.AddItem(ctx, CartOwner(owner), productID, qty, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("cart item added", "owner", CartOwner(owner), "product_id", productID, "qty", qty)
	s.metrics.RecordCartUpdate("add")
	return s.view(cart), nil
}

func (s *cartService) Replace(ctx context.Context, owner string, lines []CartLine) (*CartView, error) {
	cart := make(domain.Cart, len(lines))
	for _, l := range lines {
		id := strings.TrimSpace(l.ID)
		if l.Qty <= 0 || l.Qty > domain.MaxQuantity {
			continue
		}
		if _, ok := s.products.Lookup(id); !ok {
			continue
		}
		cart[id] = l.Qty
	}

	if err := s.store.Put(ctx, CartOwner(owner), cart, s.now().UTC()); err != nil {
		return nil, err
	}

	s.metrics.RecordCartUpdate("replace")
	return s.view(cart), nil
}

func (s *cartService) Clear(ctx context.Context, owner string) error {
	if err := s.store.Delete(ctx, CartOwner(owner)); err != nil {
		return err
	}
	s.metrics.RecordCartUpdate("clear")
	return nil
}

func (s *cartService) view(cart domain.Cart) *CartView {
	totals := ComputeTotals(cart, s.products)
	return &CartView{Items: totals.Items, Totals: totals}
}
