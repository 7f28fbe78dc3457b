// Package awstest provides an in-memory DynamoDB fake for tests. It
// implements the aws.DynamoDBAPI subset the stores and the checkout
// transactor use, including all-or-nothing TransactWriteItems with the
// condition expressions they issue. All methods are mutex-guarded so
// concurrency tests observe real serialization.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// pk attribute names the fake knows how to find in items and keys. order_id
// must come before customer_id: order items carry both.
var keyAttrs = []string{"order_id", "product_id", "customer_id"}

// DynamoFake is an in-memory stand-in for DynamoDB: table -> pk -> item.
type DynamoFake struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	// FailTransact, when set, is returned verbatim by TransactWriteItems.
	FailTransact error
}

// NewDynamoFake returns an empty fake.
func NewDynamoFake() *DynamoFake {
	return &DynamoFake{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (f *DynamoFake) ensureTable(tbl string) map[string]map[string]types.AttributeValue {
	if _, ok := f.tables[tbl]; !ok {
		f.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
	return f.tables[tbl]
}

func primaryKey(item map[string]types.AttributeValue) (string, error) {
	for _, attr := range keyAttrs {
		if v, ok := item[attr]; ok {
			s, ok := v.(*types.AttributeValueMemberS)
			if !ok {
				return "", fmt.Errorf("key attribute %s is not a string", attr)
			}
			return s.Value, nil
		}
	}
	return "", errors.New("no key attribute in item")
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// Len reports the number of items in a table.
func (f *DynamoFake) Len(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

func (f *DynamoFake) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tbl := f.ensureTable(*params.TableName)
	pk, err := primaryKey(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && strings.HasPrefix(*params.ConditionExpression, "attribute_not_exists") {
		if _, exists := tbl[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	tbl[pk] = copyItem(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (f *DynamoFake) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tbl := f.ensureTable(*params.TableName)
	pk, err := primaryKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := tbl[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *DynamoFake) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &dyn.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	total := 0
	for _, req := range params.RequestItems {
		total += len(req.Keys)
	}
	// the real service caps BatchGetItem at 100 keys per request
	if total > 100 {
		return nil, &smithy.GenericAPIError{
			Code:    "ValidationException",
			Message: "Too many items requested for the BatchGetItem call",
		}
	}
	for table, req := range params.RequestItems {
		tbl := f.ensureTable(table)
		for _, key := range req.Keys {
			pk, err := primaryKey(key)
			if err != nil {
				return nil, err
			}
			if item, ok := tbl[pk]; ok {
				out.Responses[table] = append(out.Responses[table], copyItem(item))
			}
		}
	}
	return out, nil
}

// Query supports the single query shape the stores issue: an equality key
// condition like "customer_id = :cid".
func (f *DynamoFake) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tbl := f.ensureTable(*params.TableName)
	if params.KeyConditionExpression == nil {
		return nil, errors.New("missing key condition expression")
	}
	parts := strings.SplitN(*params.KeyConditionExpression, " = ", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("unsupported key condition %q", *params.KeyConditionExpression)
	}
	attr, placeholder := parts[0], parts[1]
	want, ok := params.ExpressionAttributeValues[placeholder].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("missing value for %s", placeholder)
	}
	out := &dyn.QueryOutput{}
	for _, item := range tbl {
		if v, ok := item[attr].(*types.AttributeValueMemberS); ok && v.Value == want.Value {
			out.Items = append(out.Items, copyItem(item))
		}
	}
	return out, nil
}

func (f *DynamoFake) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tbl := f.ensureTable(*params.TableName)
	out := &dyn.ScanOutput{}
	for _, item := range tbl {
		out.Items = append(out.Items, copyItem(item))
	}
	return out, nil
}

// TransactWriteItems validates every item's condition against current state
// and applies all writes only when every condition holds, mirroring the
// store's all-or-nothing contract. On failure it returns a
// TransactionCanceledException whose CancellationReasons line up with the
// input items.
func (f *DynamoFake) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailTransact != nil {
		return nil, f.FailTransact
	}

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, item := range params.TransactItems {
		reasons[i] = types.CancellationReason{Code: awsString("None")}
		switch {
		case item.ConditionCheck != nil:
			if !f.conditionHolds(*item.ConditionCheck.TableName, item.ConditionCheck.Key, item.ConditionCheck.ConditionExpression, nil) {
				reasons[i] = types.CancellationReason{Code: awsString("ConditionalCheckFailed")}
				failed = true
			}
		case item.Update != nil:
			u := item.Update
			if !f.conditionHolds(*u.TableName, u.Key, u.ConditionExpression, u.ExpressionAttributeValues) {
				reason := types.CancellationReason{Code: awsString("ConditionalCheckFailed")}
				if u.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
					if old := f.lookup(*u.TableName, u.Key); old != nil {
						reason.Item = copyItem(old)
					}
				}
				reasons[i] = reason
				failed = true
			}
		case item.Put != nil:
			p := item.Put
			if p.ConditionExpression != nil && strings.HasPrefix(*p.ConditionExpression, "attribute_not_exists") {
				pk, err := primaryKey(p.Item)
				if err != nil {
					return nil, err
				}
				if _, exists := f.ensureTable(*p.TableName)[pk]; exists {
					reasons[i] = types.CancellationReason{Code: awsString("ConditionalCheckFailed")}
					failed = true
				}
			}
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             awsString("Transaction cancelled, please refer cancellation reasons for specific reasons"),
			CancellationReasons: reasons,
		}
	}

	for _, item := range params.TransactItems {
		switch {
		case item.Update != nil:
			f.applyUpdate(item.Update)
		case item.Put != nil:
			pk, _ := primaryKey(item.Put.Item)
			f.ensureTable(*item.Put.TableName)[pk] = copyItem(item.Put.Item)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (f *DynamoFake) lookup(table string, key map[string]types.AttributeValue) map[string]types.AttributeValue {
	pk, err := primaryKey(key)
	if err != nil {
		return nil
	}
	return f.ensureTable(table)[pk]
}

// conditionHolds evaluates the expressions the transactor issues:
// attribute_exists(<attr>) and "stock >= :dec".
func (f *DynamoFake) conditionHolds(table string, key map[string]types.AttributeValue, expr *string, values map[string]types.AttributeValue) bool {
	item := f.lookup(table, key)
	if expr == nil {
		return true
	}
	switch {
	case strings.HasPrefix(*expr, "attribute_exists"):
		return item != nil
	case strings.Contains(*expr, ">="):
		if item == nil {
			return false
		}
		parts := strings.SplitN(*expr, " >= ", 2)
		have := numAttr(item[strings.TrimSpace(parts[0])])
		want := numAttr(values[strings.TrimSpace(parts[1])])
		return have >= want
	}
	return true
}

// applyUpdate applies the single update shape the transactor issues:
// "SET <attr> = <attr> - :dec".
func (f *DynamoFake) applyUpdate(u *types.Update) {
	item := f.lookup(*u.TableName, u.Key)
	if item == nil || u.UpdateExpression == nil {
		return
	}
	expr := strings.TrimPrefix(*u.UpdateExpression, "SET ")
	parts := strings.SplitN(expr, " = ", 2)
	if len(parts) != 2 {
		return
	}
	attr := strings.TrimSpace(parts[0])
	rhs := strings.SplitN(parts[1], " - ", 2)
	if len(rhs) != 2 {
		return
	}
	dec := numAttr(u.ExpressionAttributeValues[strings.TrimSpace(rhs[1])])
	item[attr] = &types.AttributeValueMemberN{Value: strconv.Itoa(numAttr(item[attr]) - dec)}
}

func numAttr(v types.AttributeValue) int {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0
	}
	return i
}

func awsString(s string) *string { return &s }
