// Package apperr defines the error taxonomy shared by the checkout
// transactor, the stores, and the aggregation engine. Every failure crossing
// a package boundary is one of these types so callers can branch with
// errors.As without string matching.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// ProductsNotFoundError reports every requested product id absent from the
// catalog, not just the first.
type ProductsNotFoundError struct {
	IDs []string
}

func (e *ProductsNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %s", strings.Join(e.IDs, ", "))
}

// InsufficientStockError reports a line whose quantity exceeds the product's
// available stock.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// NotFoundError reports a missing referenced entity (e.g. the order's customer).
type NotFoundError struct {
	Kind string // "customer", "product", "order"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// InvalidArgumentError reports a caller mistake (non-positive quantity or
// limit, duplicate line items, empty ids).
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Reason
}

// TransactionAbortedError wraps a store-level commit failure, including
// conflict-induced aborts. All writes of the attempted transaction were
// discarded.
type TransactionAbortedError struct {
	Err error
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("transaction aborted: %v", e.Err)
}

func (e *TransactionAbortedError) Unwrap() error { return e.Err }

// UnavailableError wraps a failure to reach the store at all.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// InvalidArgumentf builds an InvalidArgumentError from a format string.
func InvalidArgumentf(format string, args ...interface{}) error {
	return &InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// IsThrottleOrNetwork reports whether err looks like the store being
// unreachable rather than rejecting the request, based on the smithy API
// error code.
func IsThrottleOrNetwork(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ServiceUnavailable", "InternalServerError", "RequestLimitExceeded",
			"ProvisionedThroughputExceededException", "ThrottlingException":
			return true
		}
	}
	return false
}
