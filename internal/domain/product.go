package domain

// Product is a sellable catalog item. Prices are whole rupees.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"desc"`
	Category    string  `json:"category"`
	Price       int64   `json:"price"`
	MRP         int64   `json:"mrp"`
	Rating      float64 `json:"rating"`
	Tag         string  `json:"tag,omitempty"`
	Image       string  `json:"img,omitempty"`
}

// Discount is the per-unit saving against MRP.
func (p Product) Discount() int64 {
	if p.MRP <= p.Price {
		return 0
	}
	return p.MRP - p.Price
}

// ProductLookup resolves product ids. Implemented by the catalog.
type ProductLookup interface {
	Lookup(id string) (Product, bool)
}
