package analytics

import "time"

// CustomerSpending is the single-row spending rollup for one customer.
type CustomerSpending struct {
	CustomerID        string    `json:"customerId"`
	CustomerName      string    `json:"customerName"`
	TotalSpent        float64   `json:"totalSpent"`
	AverageOrderValue float64   `json:"averageOrderValue"`
	LastOrderDate     time.Time `json:"lastOrderDate"`
}

// ProductSales is one row of the top-selling-products report.
type ProductSales struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	TotalSold int    `json:"totalSold"`
}

// CategoryRevenue is one category's revenue within a sales report.
type CategoryRevenue struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
}

// SalesAnalytics is the revenue rollup for a date range. A range with no
// matching orders yields the zero value with an empty, non-nil breakdown.
type SalesAnalytics struct {
	TotalRevenue      float64           `json:"totalRevenue"`
	CompletedOrders   int               `json:"completedOrders"`
	CategoryBreakdown []CategoryRevenue `json:"categoryBreakdown"`
}

// CustomerFilter selects customers for ListCustomers. String fields are
// case-insensitive substring matches except Gender, which is exact. Nil age
// bounds are open-ended.
type CustomerFilter struct {
	Name     string
	Email    string
	Location string
	Gender   string
	MinAge   *int
	MaxAge   *int
}

// CustomerSummary is a customer plus the order-derived fields.
type CustomerSummary struct {
	CustomerID    string  `json:"customerId"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Age           int     `json:"age"`
	Location      string  `json:"location"`
	Gender        string  `json:"gender"`
	TotalSpending float64 `json:"totalSpending"`
	TotalOrders   int     `json:"totalOrders"`
}

// CustomerPage is one page of the customer listing.
type CustomerPage struct {
	Customers  []CustomerSummary `json:"customers"`
	Pagination Pagination        `json:"pagination"`
}

// OrderLine is a line item joined to its product's name and category.
type OrderLine struct {
	ProductID       string  `json:"productId"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

// OrderDetails is one order in a customer's history, with joined line items.
type OrderDetails struct {
	OrderID     string      `json:"orderId"`
	CustomerID  string      `json:"customerId"`
	Items       []OrderLine `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	OrderDate   time.Time   `json:"orderDate"`
	Status      string      `json:"status"`
}

// OrderHistoryPage is one page of a customer's order history.
type OrderHistoryPage struct {
	Orders     []OrderDetails `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}
