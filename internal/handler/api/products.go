package api

import (
	"net/http"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/handler"
)

// Catalog is the read side of the product catalog.
type Catalog interface {
	All() []domain.Product
	Lookup(id string) (domain.Product, bool)
}

// ProductHandler serves the product catalog
type ProductHandler struct {
	catalog Catalog
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	handler.WriteJSON(w, http.StatusOK, map[string]any{"products": h.catalog.All()})
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.catalog.Lookup(r.PathValue("id"))
	if !ok {
		handler.NotFoundResponse(w, r)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"product": p})
}
