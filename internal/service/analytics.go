package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/bharosa/internal/domain"
)

// Analytics periods
const (
	Period7Days   = "7"
	Period30Days  = "30"
	Period90Days  = "90"
	Period365Days = "365"
	PeriodCustom  = "custom"
)

const topProductsLimit = 10

// Period is a reporting window. Both ends are inclusive.
type Period struct {
	Kind string
	From time.Time
	To   time.Time
}

// ParsePeriod resolves a period name relative to now. Custom periods take
// start and end as YYYY-MM-DD (end day included) or RFC 3339 timestamps.
// An empty kind means the last 30 days.
func ParsePeriod(kind, start, end string, now time.Time) (Period, error) {
	const op = "analytics.parse_period"

	now = now.UTC()
	switch kind {
	case "":
		kind = Period30Days
		fallthrough
	case Period7Days, Period30Days, Period90Days, Period365Days:
		days := map[string]int{Period7Days: 7, Period30Days: 30, Period90Days: 90, Period365Days: 365}[kind]
		return Period{Kind: kind, From: now.AddDate(0, 0, -days), To: now}, nil
	case PeriodCustom:
	default:
		return Period{}, domain.WithOp(ErrInvalidPeriod, op)
	}

	var verr error
	from, ok := parseDay(start, false)
	if !ok {
		verr = domain.AddFieldError(verr, "startDate", "must be YYYY-MM-DD")
	}
	to, ok := parseDay(end, true)
	if !ok {
		verr = domain.AddFieldError(verr, "endDate", "must be YYYY-MM-DD")
	}
	if verr != nil {
		return Period{}, verr
	}
	if to.Before(from) {
		return Period{}, domain.NewValidationError(op, "endDate", "must not be before startDate")
	}
	return Period{Kind: PeriodCustom, From: from, To: to}, nil
}

func parseDay(s string, endOfDay bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, true
}

// AnalyticsSummary is the sales report for a period.
type AnalyticsSummary struct {
	Period   string         `json:"period"`
	From     time.Time      `json:"from"`
	To       time.Time      `json:"to"`
	Stats    SalesStats     `json:"stats"`
	Sales    SalesSeries    `json:"sales"`
	Products []ProductSales `json:"products"`
	Payments []PaymentSplit `json:"payments"`
}

// SalesStats are headline figures. Growth values are percentages against the
// preceding window of equal length, rounded to one decimal place, and zero
// when the preceding window had nothing to compare with.
type SalesStats struct {
	TotalRevenue    int64           `json:"totalRevenue"`
	TotalOrders     int             `json:"totalOrders"`
	AvgOrderValue   decimal.Decimal `json:"avgOrderValue"`
	RevenueGrowth   decimal.Decimal `json:"revenueGrowth"`
	OrdersGrowth    decimal.Decimal `json:"ordersGrowth"`
	UniqueCustomers int             `json:"uniqueCustomers"`
	CustomerGrowth  decimal.Decimal `json:"customerGrowth"`
}

// SalesSeries is revenue and order count per bucket, oldest first. Buckets
// without orders are omitted.
type SalesSeries struct {
	Granularity string   `json:"granularity"`
	Labels      []string `json:"labels"`
	Revenue     []int64  `json:"revenue"`
	Orders      []int    `json:"orders"`
}

type ProductSales struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitsSold int64  `json:"unitsSold"`
	Revenue   int64  `json:"revenue"`
}

type PaymentSplit struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
}

// AnalyticsService aggregates stored orders into sales reports
type AnalyticsService interface {
	Summary(ctx context.Context, p Period) (*AnalyticsSummary, error)
}

type analyticsService struct {
	store domain.OrderStore
}

// NewAnalyticsService creates a new AnalyticsService instance
func NewAnalyticsService(store domain.OrderStore) AnalyticsService {
	return &analyticsService{store: store}
}

func (s *analyticsService) Summary(ctx context.Context, p Period) (*AnalyticsSummary, error) {
	orders, err := s.store.ListBetween(ctx, p.From, p.To)
	if err != nil {
		return nil, err
	}

	window := p.To.Sub(p.From)
	prev, err := s.store.ListBetween(ctx, p.From.Add(-window), p.From.Add(-time.Nanosecond))
	if err != nil {
		return nil, err
	}

	revenue := sumPayable(orders)
	customers := uniqueCustomers(orders)

	stats := SalesStats{
		TotalRevenue:    revenue,
		TotalOrders:     len(orders),
		AvgOrderValue:   decimal.Zero,
		RevenueGrowth:   growth(revenue, sumPayable(prev)),
		OrdersGrowth:    growth(int64(len(orders)), int64(len(prev))),
		UniqueCustomers: customers,
		CustomerGrowth:  growth(int64(customers), int64(uniqueCustomers(prev))),
	}
	if len(orders) > 0 {
		stats.AvgOrderValue = decimal.NewFromInt(revenue).Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}

	return &AnalyticsSummary{
		Period:   p.Kind,
		From:     p.From,
		To:       p.To,
		Stats:    stats,
		Sales:    salesSeries(orders, granularity(p.Kind)),
		Products: topProducts(orders, topProductsLimit),
		Payments: paymentSplit(orders),
	}, nil
}

func sumPayable(orders []domain.Order) int64 {
	var total int64
	for _, o := range orders {
		total += o.Totals.Payable
	}
	return total
}

func uniqueCustomers(orders []domain.Order) int {
	seen := make(map[string]struct{})
	for _, o := range orders {
		if o.Customer.Email != "" {
			seen[o.Customer.Email] = struct{}{}
		}
	}
	return len(seen)
}

var hundred = decimal.NewFromInt(100)

func growth(current, previous int64) decimal.Decimal {
	if previous <= 0 {
		return decimal.Zero
	}
	prev := decimal.NewFromInt(previous)
	return decimal.NewFromInt(current).Sub(prev).Div(prev).Mul(hundred).Round(1)
}

func granularity(kind string) string {
	switch kind {
	case Period7Days, Period30Days:
		return "day"
	case Period90Days:
		return "week"
	}
	return "month"
}

func bucketLabel(t time.Time, granularity string) string {
	t = t.UTC()
	switch granularity {
	case "day":
		return t.Format(time.DateOnly)
	case "week":
		return t.AddDate(0, 0, -int(t.Weekday())).Format(time.DateOnly)
	}
	return t.Format("2006-01")
}

func salesSeries(orders []domain.Order, granularity string) SalesSeries {
	type bucket struct {
		revenue int64
		orders  int
	}
	buckets := make(map[string]*bucket)
	for _, o := range orders {
		key := bucketLabel(o.CreatedAt, granularity)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.revenue += o.Totals.Payable
		b.orders++
	}

	labels := make([]string, 0, len(buckets))
	for k := range buckets {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	series := SalesSeries{
		Granularity: granularity,
		Labels:      labels,
		Revenue:     make([]int64, len(labels)),
		Orders:      make([]int, len(labels)),
	}
	for i, k := range labels {
		series.Revenue[i] = buckets[k].revenue
		series.Orders[i] = buckets[k].orders
	}
	return series
}

func topProducts(orders []domain.Order, limit int) []ProductSales {
	byID := make(map[string]*ProductSales)
	for _, o := range orders {
		for _, it := range o.Totals.Items {
			p, ok := byID[it.ID]
			if !ok {
				p = &ProductSales{ID: it.ID, Name: it.Name}
				byID[it.ID] = p
			}
			p.UnitsSold += it.Qty
			p.Revenue += it.Price * it.Qty
		}
	}

	out := make([]ProductSales, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitsSold != out[j].UnitsSold {
			return out[i].UnitsSold > out[j].UnitsSold
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func paymentSplit(orders []domain.Order) []PaymentSplit {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[o.PaymentMethod.Label()]++
	}

	out := make([]PaymentSplit, 0, len(counts))
	for method, n := range counts {
		out = append(out, PaymentSplit{Method: method, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Method < out[j].Method
	})
	return out
}
