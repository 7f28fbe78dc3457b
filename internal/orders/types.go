package orders

import "time"

// StatusCompleted is the only status the checkout path produces. There is no
// cancellation or refund state machine.
const StatusCompleted = "completed"

// LineItem is one product/quantity/price entry within an Order.
// PriceAtPurchase is a snapshot of the product's price at order time and is
// never recomputed.
type LineItem struct {
	ProductID       string  `dynamodbav:"product_id" json:"productId"`
	Quantity        int     `dynamodbav:"quantity" json:"quantity"`
	PriceAtPurchase float64 `dynamodbav:"price_at_purchase" json:"priceAtPurchase"`
}

// Order represents the item stored in the orders table.
type Order struct {
	OrderID     string     `dynamodbav:"order_id" json:"orderId"`       // PK
	CustomerID  string     `dynamodbav:"customer_id" json:"customerId"` // GSI hash key
	Items       []LineItem `dynamodbav:"items" json:"items"`
	TotalAmount float64    `dynamodbav:"total_amount" json:"totalAmount"`
	OrderDate   time.Time  `dynamodbav:"order_date" json:"orderDate"`
	Status      string     `dynamodbav:"status" json:"status"`
}
