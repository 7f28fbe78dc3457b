package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for PlaceOrderRequest to reject
	// duplicate product ids: the store cannot apply two operations to the
	// same item in one transaction, so duplicates never reach checkout.
	v.RegisterStructValidation(placeOrderStructValidation, PlaceOrderRequest{})

	return v
}

func placeOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(PlaceOrderRequest)

	seen := make(map[string]bool, len(req.Products))
	for _, line := range req.Products {
		if seen[line.ProductID] {
			sl.ReportError(req.Products, "products", "Products", "unique_product_ids", line.ProductID)
			return
		}
		seen[line.ProductID] = true
	}
}
