package service

import (
	"math"
	"sort"

	"github.com/dukerupert/bharosa/internal/domain"
)

// ComputeTotals prices a cart against the catalog. Negative quantities count
// as zero; zero quantities, quantities above domain.MaxQuantity and unknown
// product ids are dropped, as is any line whose amounts would overflow.
// Lines come out in ascending product id order.
func ComputeTotals(cart domain.Cart, products domain.ProductLookup) domain.Totals {
	ids := make([]string, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	totals := domain.Totals{Items: []domain.TotalsLine{}}
	for _, id := range ids {
		qty := max(0, cart[id])
		if qty == 0 || qty > domain.MaxQuantity {
			continue
		}
		p, ok := products.Lookup(id)
		if !ok {
			continue
		}

		lineMRP, ok1 := mulAmount(p.MRP, qty)
		linePrice, ok2 := mulAmount(p.Price, qty)
		if !ok1 || !ok2 || !addFits(totals.TotalMRP, lineMRP) || !addFits(totals.TotalPrice, linePrice) {
			continue
		}

		line := domain.TotalsLine{
			ID:        p.ID,
			Name:      p.Name,
			Price:     p.Price,
			MRP:       p.MRP,
			Qty:       qty,
			LineMRP:   lineMRP,
			LinePrice: linePrice,
		}
		totals.Items = append(totals.Items, line)
		totals.TotalMRP += line.LineMRP
		totals.TotalPrice += line.LinePrice
	}

	totals.Discount = totals.TotalMRP - totals.TotalPrice
	totals.Payable = totals.TotalPrice
	return totals
}

// mulAmount multiplies a non-negative unit amount by a positive quantity,
// reporting false on overflow.
func mulAmount(unit, qty int64) (int64, bool) {
	if unit < 0 || qty <= 0 {
		return 0, false
	}
	if unit > math.MaxInt64/qty {
		return 0, false
	}
	return unit * qty, true
}

func addFits(a, b int64) bool {
	return a <= math.MaxInt64-b
}
