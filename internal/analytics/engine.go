// Package analytics is the stateless aggregation engine. Each report is a
// read-only pipeline (filter, join, group, sort, paginate) over the order,
// customer, and product collections; no report takes locks or observes
// in-flight transactions.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gjayprakash/commerce-backend/internal/apperr"
	"github.com/gjayprakash/commerce-backend/internal/catalog"
	"github.com/gjayprakash/commerce-backend/internal/orders"
)

// Engine runs the five reports against the stores.
type Engine struct {
	orders  *orders.Store
	catalog *catalog.Store
}

// NewEngine creates an Engine over the given stores.
func NewEngine(ord *orders.Store, cat *catalog.Store) *Engine {
	return &Engine{orders: ord, catalog: cat}
}

// CustomerSpending rolls a customer's completed orders into total spent,
// average order value, and last order date. Returns (nil, nil) when the
// customer has no completed orders or does not exist; that is an empty
// result, not an error.
func (e *Engine) CustomerSpending(ctx context.Context, customerID string) (*CustomerSpending, error) {
	if customerID == "" {
		return nil, apperr.InvalidArgumentf("customerId must not be empty")
	}

	all, err := e.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	completed := Filter(all, func(o orders.Order) bool {
		return o.Status == orders.StatusCompleted
	})
	if len(completed) == 0 {
		return nil, nil
	}

	cust, err := e.catalog.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if cust == nil {
		// join to a missing customer drops the row
		return nil, nil
	}

	var total float64
	var last time.Time
	for _, o := range completed {
		total += o.TotalAmount
		if o.OrderDate.After(last) {
			last = o.OrderDate
		}
	}
	return &CustomerSpending{
		CustomerID:        customerID,
		CustomerName:      cust.Name,
		TotalSpent:        total,
		AverageOrderValue: total / float64(len(completed)),
		LastOrderDate:     last,
	}, nil
}

// TopSellingProducts unwinds every order's line items, sums quantity per
// product, and returns the top limit products by units sold. Ties on
// totalSold break by productId ascending, so the order is stable for a fixed
// input. Products no longer in the catalog are dropped, as a join to a
// missing product yields no row.
func (e *Engine) TopSellingProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		return nil, apperr.InvalidArgumentf("limit must be a positive integer, got %d", limit)
	}

	all, err := e.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	lines := FlatMap(all, func(o orders.Order) []orders.LineItem { return o.Items })
	groups := GroupBy(lines, func(l orders.LineItem) string { return l.ProductID })

	type productTotal struct {
		productID string
		totalSold int
	}
	totals := make([]productTotal, 0, len(groups))
	for _, g := range groups {
		sold := 0
		for _, l := range g.Items {
			sold += l.Quantity
		}
		totals = append(totals, productTotal{productID: g.Key, totalSold: sold})
	}
	totals = SortBy(totals, func(a, b productTotal) bool {
		if a.totalSold != b.totalSold {
			return a.totalSold > b.totalSold
		}
		return a.productID < b.productID
	})
	if len(totals) > limit {
		totals = totals[:limit]
	}

	ids := make([]string, 0, len(totals))
	for _, t := range totals {
		ids = append(ids, t.productID)
	}
	products, err := e.catalog.BatchGetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	byID := IndexBy(products, func(p catalog.Product) string { return p.ProductID })

	result := make([]ProductSales, 0, len(totals))
	for _, t := range totals {
		p, ok := byID[t.productID]
		if !ok {
			continue
		}
		result = append(result, ProductSales{
			ProductID: t.productID,
			Name:      p.Name,
			TotalSold: t.totalSold,
		})
	}
	return result, nil
}

// SalesAnalytics sums revenue of completed orders with orderDate inside
// [start, end] inclusive, broken down by product category. An empty range
// yields the zero-valued report with an empty breakdown.
func (e *Engine) SalesAnalytics(ctx context.Context, start, end time.Time) (*SalesAnalytics, error) {
	all, err := e.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	matched := Filter(all, func(o orders.Order) bool {
		return o.Status == orders.StatusCompleted &&
			!o.OrderDate.Before(start) && !o.OrderDate.After(end)
	})

	report := &SalesAnalytics{
		CompletedOrders:   len(matched),
		CategoryBreakdown: []CategoryRevenue{},
	}
	if len(matched) == 0 {
		return report, nil
	}

	lines := FlatMap(matched, func(o orders.Order) []orders.LineItem { return o.Items })

	ids := make([]string, 0, len(lines))
	seen := map[string]bool{}
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	products, err := e.catalog.BatchGetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	byID := IndexBy(products, func(p catalog.Product) string { return p.ProductID })

	type categoryLine struct {
		category string
		revenue  float64
	}
	joined := make([]categoryLine, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		joined = append(joined, categoryLine{
			category: p.Category,
			revenue:  float64(l.Quantity) * l.PriceAtPurchase,
		})
	}

	groups := GroupBy(joined, func(c categoryLine) string { return c.category })
	for _, g := range groups {
		var revenue float64
		for _, c := range g.Items {
			revenue += c.revenue
		}
		report.CategoryBreakdown = append(report.CategoryBreakdown, CategoryRevenue{
			Category: g.Key,
			Revenue:  revenue,
		})
		report.TotalRevenue += revenue
	}
	// category order is deterministic regardless of scan order
	report.CategoryBreakdown = SortBy(report.CategoryBreakdown, func(a, b CategoryRevenue) bool {
		return a.Category < b.Category
	})
	return report, nil
}

// Fields ListCustomers accepts in sortBy.
var customerSortFields = map[string]func(a, b CustomerSummary) bool{
	"name":          func(a, b CustomerSummary) bool { return a.Name < b.Name },
	"email":         func(a, b CustomerSummary) bool { return a.Email < b.Email },
	"age":           func(a, b CustomerSummary) bool { return a.Age < b.Age },
	"location":      func(a, b CustomerSummary) bool { return a.Location < b.Location },
	"totalSpending": func(a, b CustomerSummary) bool { return a.TotalSpending < b.TotalSpending },
	"totalOrders":   func(a, b CustomerSummary) bool { return a.TotalOrders < b.TotalOrders },
}

// ListCustomers filters, sorts, and paginates customers with their derived
// spending fields. sortBy defaults to "name", sortOrder to ascending
// (anything other than "desc" sorts ascending). The envelope total counts
// every matching customer, ignoring pagination.
func (e *Engine) ListCustomers(ctx context.Context, filter CustomerFilter, page, limit int, sortBy, sortOrder string) (*CustomerPage, error) {
	page, limit, err := NormalizePaging(page, limit)
	if err != nil {
		return nil, err
	}
	if sortBy == "" {
		sortBy = "name"
	}
	less, ok := customerSortFields[sortBy]
	if !ok {
		return nil, apperr.InvalidArgumentf("unknown sortBy field %q", sortBy)
	}

	customers, err := e.catalog.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	matched := Filter(customers, func(c catalog.Customer) bool { return matchCustomer(c, filter) })

	allOrders, err := e.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	type orderTotals struct {
		spending float64
		count    int
	}
	totals := map[string]orderTotals{}
	for _, o := range allOrders {
		t := totals[o.CustomerID]
		t.spending += o.TotalAmount
		t.count++
		totals[o.CustomerID] = t
	}

	summaries := make([]CustomerSummary, 0, len(matched))
	for _, c := range matched {
		t := totals[c.CustomerID]
		summaries = append(summaries, CustomerSummary{
			CustomerID:    c.CustomerID,
			Name:          c.Name,
			Email:         c.Email,
			Age:           c.Age,
			Location:      c.Location,
			Gender:        c.Gender,
			TotalSpending: t.spending,
			TotalOrders:   t.count,
		})
	}

	// canonical id order first, so the stable field sort is repeatable even
	// though the store's scan order is not
	summaries = SortBy(summaries, func(a, b CustomerSummary) bool { return a.CustomerID < b.CustomerID })
	summaries = SortBy(summaries, less)
	if sortOrder == "desc" {
		reverse(summaries)
	}

	pageItems, pagination := Paginate(summaries, page, limit)
	return &CustomerPage{Customers: pageItems, Pagination: pagination}, nil
}

// CustomerOrderHistory lists a customer's orders newest first, each line item
// joined to its product's name and category, paginated. The envelope total
// counts every order of the customer.
func (e *Engine) CustomerOrderHistory(ctx context.Context, customerID string, page, limit int) (*OrderHistoryPage, error) {
	if customerID == "" {
		return nil, apperr.InvalidArgumentf("customerId must not be empty")
	}
	page, limit, err := NormalizePaging(page, limit)
	if err != nil {
		return nil, err
	}

	all, err := e.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	ids := make([]string, 0)
	seen := map[string]bool{}
	for _, o := range all {
		for _, l := range o.Items {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}
	}
	products, err := e.catalog.BatchGetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	byID := IndexBy(products, func(p catalog.Product) string { return p.ProductID })

	details := make([]OrderDetails, 0, len(all))
	for _, o := range all {
		lines := make([]OrderLine, 0, len(o.Items))
		for _, l := range o.Items {
			p, ok := byID[l.ProductID]
			if !ok {
				// join to a vanished product drops the line
				continue
			}
			lines = append(lines, OrderLine{
				ProductID:       l.ProductID,
				Name:            p.Name,
				Category:        p.Category,
				Quantity:        l.Quantity,
				PriceAtPurchase: l.PriceAtPurchase,
			})
		}
		if len(lines) == 0 {
			continue
		}
		details = append(details, OrderDetails{
			OrderID:     o.OrderID,
			CustomerID:  o.CustomerID,
			Items:       lines,
			TotalAmount: o.TotalAmount,
			OrderDate:   o.OrderDate,
			Status:      o.Status,
		})
	}

	details = SortBy(details, func(a, b OrderDetails) bool {
		if !a.OrderDate.Equal(b.OrderDate) {
			return a.OrderDate.After(b.OrderDate)
		}
		return a.OrderID < b.OrderID
	})

	pageItems, pagination := Paginate(details, page, limit)
	// total counts every order of the customer, joined or not
	pagination.Total = len(all)
	pagination.TotalPages = (len(all) + limit - 1) / limit
	return &OrderHistoryPage{Orders: pageItems, Pagination: pagination}, nil
}

func matchCustomer(c catalog.Customer, f CustomerFilter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Email != "" && !strings.Contains(strings.ToLower(c.Email), strings.ToLower(f.Email)) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.Gender != "" && c.Gender != f.Gender {
		return false
	}
	if f.MinAge != nil && c.Age < *f.MinAge {
		return false
	}
	if f.MaxAge != nil && c.Age > *f.MaxAge {
		return false
	}
	return true
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
