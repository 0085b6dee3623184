package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxQuantity is the largest quantity a cart line may carry. Larger values
// are treated as garbage, like unparsable ones.
const MaxQuantity = math.MaxInt32

// Cart maps product ids to requested quantities.
//
// Quantities arrive from browsers and are decoded leniently: JSON numbers and
// numeric strings are accepted, fractions are truncated toward zero, and
// anything unparsable or beyond ±MaxQuantity becomes 0 (and is later dropped
// by the totals calculator).
type Cart map[string]int64

func (c *Cart) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Cart, len(raw))
	for id, v := range raw {
		out[id] = ParseQuantity(v)
	}
	*c = out
	return nil
}

// ParseQuantity decodes one browser-supplied quantity with the same leniency
// as Cart.
func ParseQuantity(v json.RawMessage) int64 {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return truncQuantity(string(n))
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return truncQuantity(strings.TrimSpace(s))
	}
	return 0
}

func truncQuantity(s string) int64 {
	if s == "" {
		return 0
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if i > MaxQuantity || i < -MaxQuantity {
			return 0
		}
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > MaxQuantity || f < -MaxQuantity {
		return 0
	}
	return int64(f)
}

// Clone returns an independent copy of c.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	for id, q := range c {
		out[id] = q
	}
	return out
}

// AnonymousCartOwner keys the stored cart of callers that send no user id.
const AnonymousCartOwner = "anonymous"

// CartStore keeps one server-side cart per owner.
type CartStore interface {
	// Get returns the owner's cart, or an empty cart when none is stored.
	Get(ctx context.Context, owner string) (Cart, error)

	// AddItem adds qty of productID to the owner's cart in one atomic step,
	// creating the cart if needed. The line is capped at MaxQuantity.
	AddItem(ctx context.Context, owner, productID string, qty int64, at time.Time) (Cart, error)

	// Put replaces the owner's cart.
	Put(ctx context.Context, owner string, c Cart, at time.Time) error

	// Delete removes the owner's cart. Deleting a missing cart is not an error.
	Delete(ctx context.Context, owner string) error
}

// TotalsLine is one priced line of an order snapshot.
type TotalsLine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	MRP       int64  `json:"mrp"`
	Qty       int64  `json:"qty"`
	LineMRP   int64  `json:"lineMrp"`
	LinePrice int64  `json:"linePrice"`
}

// Totals is the priced snapshot of a cart. It is frozen onto an order at
// checkout and never recomputed.
type Totals struct {
	Items      []TotalsLine `json:"items"`
	TotalMRP   int64        `json:"totalMrp"`
	TotalPrice int64        `json:"totalPrice"`
	Discount   int64        `json:"discount"`
	Payable    int64        `json:"payable"`
}

// Empty reports whether the snapshot has no priced lines.
func (t Totals) Empty() bool {
	return len(t.Items) == 0
}

// Units is the number of items across all lines.
func (t Totals) Units() int64 {
	var n int64
	for _, it := range t.Items {
		n += it.Qty
	}
	return n
}
