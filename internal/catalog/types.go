package catalog

// Product represents an item stored in the products table. Only Stock is
// mutated within core scope, and only by the checkout transactor.
type Product struct {
	ProductID string  `dynamodbav:"product_id" json:"productId"` // PK
	Name      string  `dynamodbav:"name" json:"name"`
	Category  string  `dynamodbav:"category" json:"category"`
	Price     float64 `dynamodbav:"price" json:"price"` // unit price
	Stock     int     `dynamodbav:"stock" json:"stock"` // never negative
}

// Customer represents an item stored in the customers table.
type Customer struct {
	CustomerID string `dynamodbav:"customer_id" json:"customerId"` // PK
	Name       string `dynamodbav:"name" json:"name"`
	Email      string `dynamodbav:"email" json:"email"` // unique
	Age        int    `dynamodbav:"age" json:"age"`
	Location   string `dynamodbav:"location" json:"location"`
	Gender     string `dynamodbav:"gender" json:"gender"`
}
