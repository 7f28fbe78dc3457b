package catalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/gjayprakash/commerce-backend/internal/aws"
)

// Store encapsulates operations on the products and customers tables.
type Store struct {
	client         aws.DynamoDBAPI
	productsTable  string
	customersTable string
}

// NewStore creates a new catalog Store.
func NewStore(client aws.DynamoDBAPI, productsTable, customersTable string) *Store {
	return &Store{
		client:         client,
		productsTable:  productsTable,
		customersTable: customersTable,
	}
}

// ProductsTable exposes the backing products table for the checkout transactor.
func (s *Store) ProductsTable() string { return s.productsTable }

// CustomersTable exposes the backing customers table for the checkout transactor.
func (s *Store) CustomersTable() string { return s.customersTable }

// GetProduct fetches a product by id. Returns (nil, nil) if not found.
func (s *Store) GetProduct(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.productsTable,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

// batchGetMaxKeys is DynamoDB's per-request key limit for BatchGetItem.
const batchGetMaxKeys = 100

// BatchGetProducts fetches every product in ids that exists. Missing ids are
// simply absent from the result; the caller decides whether that is an error.
// Key lists longer than the BatchGetItem limit are split across requests.
func (s *Store) BatchGetProducts(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: id},
		})
	}

	var products []Product
	for len(keys) > 0 {
		chunk := keys
		if len(chunk) > batchGetMaxKeys {
			chunk = chunk[:batchGetMaxKeys]
		}
		keys = keys[len(chunk):]

		request := map[string]types.KeysAndAttributes{
			s.productsTable: {Keys: chunk},
		}
		for len(request) > 0 {
			out, err := s.client.BatchGetItem(ctx, &dyn.BatchGetItemInput{
				RequestItems: request,
			})
			if err != nil {
				return nil, fmt.Errorf("batch get products: %w", err)
			}
			for _, item := range out.Responses[s.productsTable] {
				var p Product
				if err := attributevalue.UnmarshalMap(item, &p); err != nil {
					return nil, fmt.Errorf("unmarshal product: %w", err)
				}
				products = append(products, p)
			}
			request = out.UnprocessedKeys
		}
	}
	return products, nil
}

// PutProduct writes (or overwrites) a product.
func (s *Store) PutProduct(ctx context.Context, p *Product) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.productsTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// GetCustomer fetches a customer by id. Returns (nil, nil) if not found.
func (s *Store) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.customersTable,
		Key: map[string]types.AttributeValue{
			"customer_id": &types.AttributeValueMemberS{Value: customerID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var c Customer
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal customer: %w", err)
	}
	return &c, nil
}

// PutCustomer writes (or overwrites) a customer.
func (s *Store) PutCustomer(ctx context.Context, c *Customer) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.customersTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put customer: %w", err)
	}
	return nil
}

// ListCustomers scans the whole customers table, following pagination keys.
// Filtering and sorting happen in the aggregation engine.
func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.customersTable,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan customers: %w", err)
		}
		for _, item := range out.Items {
			var c Customer
			if err := attributevalue.UnmarshalMap(item, &c); err != nil {
				return nil, fmt.Errorf("unmarshal customer: %w", err)
			}
			customers = append(customers, c)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return customers, nil
}
