package validation

// OrderLineRequest is a single requested product/quantity pair.
type OrderLineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"` // must be >= 1
}

// PlaceOrderRequest is the payload for POST /orders.
type PlaceOrderRequest struct {
	CustomerID string             `json:"customerId" validate:"required"`
	Products   []OrderLineRequest `json:"products" validate:"required,min=1,dive"` // at least one line
}

// CreateProductRequest is the payload for POST /products (administrative).
type CreateProductRequest struct {
	ProductID string  `json:"productId,omitempty"` // generated when empty
	Name      string  `json:"name" validate:"required"`
	Category  string  `json:"category" validate:"required"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	Stock     int     `json:"stock" validate:"min=0"`
}

// CreateCustomerRequest is the payload for POST /customers (administrative).
type CreateCustomerRequest struct {
	CustomerID string `json:"customerId,omitempty"` // generated when empty
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Age        int    `json:"age" validate:"gte=0"`
	Location   string `json:"location" validate:"required"`
	Gender     string `json:"gender" validate:"required"`
}
