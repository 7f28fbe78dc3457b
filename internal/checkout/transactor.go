// Package checkout implements order placement: a single all-or-nothing
// transaction that validates the customer and products, snapshots prices,
// decrements stock, and persists the order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/gjayprakash/commerce-backend/internal/apperr"
	"github.com/gjayprakash/commerce-backend/internal/aws"
	"github.com/gjayprakash/commerce-backend/internal/catalog"
	"github.com/gjayprakash/commerce-backend/internal/orders"
)

// LineRequest is one requested product/quantity pair in a PlaceOrder call.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// Transactor orchestrates the atomic order-creation operation.
type Transactor struct {
	client  aws.DynamoDBAPI
	catalog *catalog.Store
	orders  *orders.Store
	nowFunc func() time.Time
	idFunc  func() string
}

// NewTransactor creates a Transactor over the given stores. The stores and
// the transactor must share the same client so reads and the commit hit the
// same tables.
func NewTransactor(client aws.DynamoDBAPI, cat *catalog.Store, ord *orders.Store) *Transactor {
	return &Transactor{
		client:  client,
		catalog: cat,
		orders:  ord,
		nowFunc: time.Now,
		idFunc:  uuid.NewString,
	}
}

// PlaceOrder validates the request, prices each line at the product's current
// price, and commits the stock decrements together with the new order in one
// TransactWriteItems call. On any failure no write survives.
//
// Stock is decremented by each line's quantity. Requests naming the same
// product twice are rejected: the store forbids two operations on one item
// inside a single transaction, and merging lines would silently rewrite the
// caller's order.
func (t *Transactor) PlaceOrder(ctx context.Context, customerID string, lines []LineRequest) (*orders.Order, error) {
	if customerID == "" {
		return nil, apperr.InvalidArgumentf("customerId must not be empty")
	}
	if len(lines) == 0 {
		return nil, apperr.InvalidArgumentf("order must contain at least one line item")
	}

	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, apperr.InvalidArgumentf("productId must not be empty")
		}
		if l.Quantity <= 0 {
			return nil, apperr.InvalidArgumentf("quantity for product %s must be positive, got %d", l.ProductID, l.Quantity)
		}
		if seen[l.ProductID] {
			return nil, apperr.InvalidArgumentf("duplicate product %s in order request", l.ProductID)
		}
		seen[l.ProductID] = true
		ids = append(ids, l.ProductID)
	}

	products, err := t.catalog.BatchGetProducts(ctx, ids)
	if err != nil {
		if apperr.IsThrottleOrNetwork(err) {
			return nil, &apperr.UnavailableError{Err: err}
		}
		return nil, fmt.Errorf("read products: %w", err)
	}

	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}
	if len(byID) != len(lines) {
		var missing []string
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &apperr.ProductsNotFoundError{IDs: missing}
	}

	items := make([]orders.LineItem, 0, len(lines))
	var totalAmount float64
	for _, l := range lines {
		p := byID[l.ProductID]
		if l.Quantity > p.Stock {
			return nil, &apperr.InsufficientStockError{
				ProductID: p.ProductID,
				Requested: l.Quantity,
				Available: p.Stock,
			}
		}
		items = append(items, orders.LineItem{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			PriceAtPurchase: p.Price,
		})
		totalAmount += float64(l.Quantity) * p.Price
	}

	order := orders.Order{
		OrderID:     t.idFunc(),
		CustomerID:  customerID,
		Items:       items,
		TotalAmount: totalAmount,
		OrderDate:   t.nowFunc().UTC(),
		Status:      orders.StatusCompleted,
	}
	orderItem, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	// One transaction: customer existence check, conditional stock decrement
	// per line, order put. Item order matters when mapping cancellation
	// reasons back to lines below.
	transactItems := make([]types.TransactWriteItem, 0, len(lines)+2)
	transactItems = append(transactItems, types.TransactWriteItem{
		ConditionCheck: &types.ConditionCheck{
			TableName: awsString(t.catalog.CustomersTable()),
			Key: map[string]types.AttributeValue{
				"customer_id": &types.AttributeValueMemberS{Value: customerID},
			},
			ConditionExpression: awsString("attribute_exists(customer_id)"),
		},
	})
	for _, l := range lines {
		transactItems = append(transactItems, types.TransactWriteItem{
			Update: &types.Update{
				TableName: awsString(t.catalog.ProductsTable()),
				Key: map[string]types.AttributeValue{
					"product_id": &types.AttributeValueMemberS{Value: l.ProductID},
				},
				UpdateExpression:    awsString("SET stock = stock - :dec"),
				ConditionExpression: awsString("stock >= :dec"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":dec": &types.AttributeValueMemberN{Value: strconv.Itoa(l.Quantity)},
				},
				ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
			},
		})
	}
	transactItems = append(transactItems, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           awsString(t.orders.TableName()),
			Item:                orderItem,
			ConditionExpression: awsString("attribute_not_exists(order_id)"),
		},
	})

	_, err = t.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		return nil, t.classifyCommitError(err, customerID, lines)
	}
	return &order, nil
}

// classifyCommitError maps a TransactWriteItems failure onto the error
// taxonomy. Cancellation reasons arrive in transact-item order: customer
// check first, one per line next, order put last.
func (t *Transactor) classifyCommitError(err error, customerID string, lines []LineRequest) error {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for i, reason := range tce.CancellationReasons {
			if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
				continue
			}
			switch {
			case i == 0:
				return &apperr.NotFoundError{Kind: "customer", ID: customerID}
			case i <= len(lines):
				line := lines[i-1]
				return &apperr.InsufficientStockError{
					ProductID: line.ProductID,
					Requested: line.Quantity,
					Available: stockFromItem(reason.Item),
				}
			}
		}
		return &apperr.TransactionAbortedError{Err: err}
	}
	if apperr.IsThrottleOrNetwork(err) {
		return &apperr.UnavailableError{Err: err}
	}
	return &apperr.TransactionAbortedError{Err: err}
}

// stockFromItem pulls the stock attribute out of a cancellation reason's
// returned item. Returns 0 when the store did not return the old values.
func stockFromItem(item map[string]types.AttributeValue) int {
	n, ok := item["stock"].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0
	}
	return v
}

func awsString(s string) *string { return &s }
