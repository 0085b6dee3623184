// Package catalog holds the fixed in-memory product catalog.
package catalog

import (
	"fmt"

	"github.com/dukerupert/bharosa/internal/domain"
)

// Catalog is an immutable, ordered set of products indexed by id.
type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

var _ domain.ProductLookup = (*Catalog)(nil)

// New builds a catalog. Every product needs a unique id, a non-negative price
// and price <= mrp.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: product at index %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		if p.Price < 0 || p.Price > p.MRP {
			return nil, fmt.Errorf("catalog: product %q must satisfy 0 <= price (%d) <= mrp (%d)", p.ID, p.Price, p.MRP)
		}
		c.products[i] = p
		c.byID[p.ID] = i
	}
	return c, nil
}

// Lookup returns the product with the given id.
func (c *Catalog) Lookup(id string) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// All returns a copy of the catalog in display order.
func (c *Catalog) All() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len is the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Default returns the store's grocery catalog.
func Default() *Catalog {
	c, err := New(defaultProducts)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultProducts = []domain.Product{
	{ID: "a1", Name: "Aashirvaad Atta 5kg", Description: "Whole wheat flour for soft rotis", Category: "Staples", Price: 255, MRP: 299, Rating: 4.5, Tag: "Bestseller", Image: "https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?w=400"},
	{ID: "a2", Name: "Fortune Oil 1L", Description: "Refined sunflower oil", Category: "Staples", Price: 145, MRP: 175, Rating: 4.3, Tag: "Deal", Image: "https://images.unsplash.com/photo-1474979266404-7eaacbcd87c5?w=400"},
	{ID: "a3", Name: "Parle-G Family Pack", Description: "Glucose biscuits, family pack", Category: "Snacks", Price: 72, MRP: 80, Rating: 4.6, Tag: "Popular", Image: "https://images.unsplash.com/photo-1558961363-fa8fdf82db35?w=400"},
	{ID: "a4", Name: "Tata Salt 1kg", Description: "Iodised vacuum evaporated salt", Category: "Staples", Price: 28, MRP: 32, Rating: 4.7, Image: "https://images.unsplash.com/photo-1518110925495-5fe2fda0442c?w=400"},
	{ID: "a5", Name: "Instant Noodles Pack", Description: "Masala noodles, pack of 6", Category: "Snacks", Price: 120, MRP: 140, Rating: 4.2, Tag: "Deal", Image: "https://images.unsplash.com/photo-1569718212165-3a8278d5f624?w=400"},
	{ID: "a6", Name: "Milk Chocolate 50g", Description: "Creamy milk chocolate bar", Category: "Snacks", Price: 50, MRP: 55, Rating: 4.4, Image: "https://images.unsplash.com/photo-1511381939415-e44015466834?w=400"},
	{ID: "a7", Name: "Detergent Powder 1kg", Description: "Tough stain removal", Category: "Household", Price: 215, MRP: 260, Rating: 4.1, Tag: "Save 17%", Image: "https://images.unsplash.com/photo-1610557892470-55d9e80c0bce?w=400"},
	{ID: "a8", Name: "Toilet Cleaner", Description: "Kills 99.9% germs", Category: "Household", Price: 98, MRP: 120, Rating: 4.0, Image: "https://images.unsplash.com/photo-1585421514738-01798e348b17?w=400"},
	{ID: "a9", Name: "Shampoo 180ml", Description: "Smooth and shiny hair", Category: "Personal Care", Price: 155, MRP: 199, Rating: 4.2, Tag: "Deal", Image: "https://images.unsplash.com/photo-1535585209827-a15fcdbc4c2d?w=400"},
	{ID: "a10", Name: "Face Wash 100ml", Description: "Oil control face wash", Category: "Personal Care", Price: 135, MRP: 170, Rating: 4.3, Image: "https://images.unsplash.com/photo-1556228578-8c89e6adf883?w=400"},
	{ID: "a11", Name: "Green Tea 100g", Description: "Pure green tea leaves", Category: "Beverages", Price: 189, MRP: 220, Rating: 4.4, Tag: "Healthy", Image: "https://images.unsplash.com/photo-1556679343-c7306c1976bc?w=400"},
	{ID: "a12", Name: "Masala Tea 250g", Description: "Strong chai with spices", Category: "Beverages", Price: 165, MRP: 199, Rating: 4.6, Tag: "Popular", Image: "https://images.unsplash.com/photo-1597318181409-cf64d0b5d8a2?w=400"},
}
