package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/smithy-go"

	"github.com/gjayprakash/commerce-backend/internal/apperr"
	"github.com/gjayprakash/commerce-backend/internal/awstest"
	"github.com/gjayprakash/commerce-backend/internal/catalog"
	"github.com/gjayprakash/commerce-backend/internal/orders"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	fake    *awstest.DynamoFake
	catalog *catalog.Store
	orders  *orders.Store
	tr      *Transactor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := awstest.NewDynamoFake()
	cat := catalog.NewStore(fake, "products", "customers")
	ord := orders.NewStore(fake, "orders")
	tr := NewTransactor(fake, cat, ord)
	tr.nowFunc = func() time.Time { return fixedNow }

	ctx := context.Background()
	seed := []catalog.Product{
		{ProductID: "p1", Name: "Keyboard", Category: "electronics", Price: 10.0, Stock: 5},
		{ProductID: "p2", Name: "Mug", Category: "kitchen", Price: 5.5, Stock: 4},
	}
	for i := range seed {
		if err := cat.PutProduct(ctx, &seed[i]); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
	cust := catalog.Customer{CustomerID: "c1", Name: "Asha", Email: "asha@example.com", Age: 31, Location: "Pune", Gender: "female"}
	if err := cat.PutCustomer(ctx, &cust); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return &fixture{fake: fake, catalog: cat, orders: ord, tr: tr}
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.catalog.GetProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p == nil {
		t.Fatalf("product %s not found", productID)
	}
	return p.Stock
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.tr.PlaceOrder(ctx, "c1", []LineRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.TotalAmount != 2*10.0+1*5.5 {
		t.Fatalf("totalAmount = %v, want 25.5", order.TotalAmount)
	}
	if order.Status != orders.StatusCompleted {
		t.Fatalf("status = %q, want %q", order.Status, orders.StatusCompleted)
	}
	if !order.OrderDate.Equal(fixedNow) {
		t.Fatalf("orderDate = %v, want %v", order.OrderDate, fixedNow)
	}
	if order.Items[0].PriceAtPurchase != 10.0 || order.Items[1].PriceAtPurchase != 5.5 {
		t.Fatalf("priceAtPurchase not snapshotted: %+v", order.Items)
	}

	// stock decremented by quantity
	if got := f.stock(t, "p1"); got != 3 {
		t.Fatalf("p1 stock = %d, want 3", got)
	}
	if got := f.stock(t, "p2"); got != 3 {
		t.Fatalf("p2 stock = %d, want 3", got)
	}

	// order durably persisted
	stored, err := f.orders.Get(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored == nil {
		t.Fatal("order not persisted")
	}
	if stored.TotalAmount != order.TotalAmount || len(stored.Items) != 2 {
		t.Fatalf("stored order mismatch: %+v", stored)
	}
}

func TestPlaceOrder_ProductsNotFound_ListsAllMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.tr.PlaceOrder(context.Background(), "c1", []LineRequest{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost-1", Quantity: 1},
		{ProductID: "ghost-2", Quantity: 1},
	})

	var missing *apperr.ProductsNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected ProductsNotFoundError, got %v", err)
	}
	if len(missing.IDs) != 2 || missing.IDs[0] != "ghost-1" || missing.IDs[1] != "ghost-2" {
		t.Fatalf("missing ids = %v, want [ghost-1 ghost-2]", missing.IDs)
	}

	// nothing written
	if got := f.stock(t, "p1"); got != 5 {
		t.Fatalf("p1 stock = %d, want 5 (unchanged)", got)
	}
	if n := f.fake.Len("orders"); n != 0 {
		t.Fatalf("orders written = %d, want 0", n)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.tr.PlaceOrder(context.Background(), "c1", []LineRequest{
		{ProductID: "p1", Quantity: 6}, // stock is 5
	})

	var stock *apperr.InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stock.ProductID != "p1" || stock.Requested != 6 || stock.Available != 5 {
		t.Fatalf("unexpected detail: %+v", stock)
	}

	if got := f.stock(t, "p1"); got != 5 {
		t.Fatalf("p1 stock = %d, want 5 (unchanged)", got)
	}
	if n := f.fake.Len("orders"); n != 0 {
		t.Fatalf("orders written = %d, want 0", n)
	}
}

func TestPlaceOrder_UnknownCustomer(t *testing.T) {
	f := newFixture(t)

	_, err := f.tr.PlaceOrder(context.Background(), "nobody", []LineRequest{
		{ProductID: "p1", Quantity: 1},
	})

	var notFound *apperr.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Kind != "customer" || notFound.ID != "nobody" {
		t.Fatalf("unexpected detail: %+v", notFound)
	}

	// the conditional failed inside the transaction, so no write survived
	if got := f.stock(t, "p1"); got != 5 {
		t.Fatalf("p1 stock = %d, want 5 (unchanged)", got)
	}
	if n := f.fake.Len("orders"); n != 0 {
		t.Fatalf("orders written = %d, want 0", n)
	}
}

func TestPlaceOrder_InvalidArguments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name       string
		customerID string
		lines      []LineRequest
	}{
		{"empty customer", "", []LineRequest{{ProductID: "p1", Quantity: 1}}},
		{"no lines", "c1", nil},
		{"zero quantity", "c1", []LineRequest{{ProductID: "p1", Quantity: 0}}},
		{"negative quantity", "c1", []LineRequest{{ProductID: "p1", Quantity: -2}}},
		{"empty product id", "c1", []LineRequest{{ProductID: "", Quantity: 1}}},
		{"duplicate product", "c1", []LineRequest{{ProductID: "p1", Quantity: 1}, {ProductID: "p1", Quantity: 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tr.PlaceOrder(ctx, tc.customerID, tc.lines)
			var invalid *apperr.InvalidArgumentError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidArgumentError, got %v", err)
			}
		})
	}

	if got := f.stock(t, "p1"); got != 5 {
		t.Fatalf("p1 stock = %d, want 5 (unchanged)", got)
	}
}

func TestPlaceOrder_TransactionAborted(t *testing.T) {
	f := newFixture(t)
	f.fake.FailTransact = errors.New("internal failure")

	_, err := f.tr.PlaceOrder(context.Background(), "c1", []LineRequest{
		{ProductID: "p1", Quantity: 1},
	})

	var aborted *apperr.TransactionAbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("expected TransactionAbortedError, got %v", err)
	}
	if got := f.stock(t, "p1"); got != 5 {
		t.Fatalf("p1 stock = %d, want 5 (unchanged)", got)
	}
}

func TestPlaceOrder_ThrottledCommitIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.fake.FailTransact = &smithy.GenericAPIError{Code: "ThrottlingException"}

	_, err := f.tr.PlaceOrder(context.Background(), "c1", []LineRequest{
		{ProductID: "p1", Quantity: 1},
	})

	var unavail *apperr.UnavailableError
	if !errors.As(err, &unavail) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
}

// N concurrent unit orders against stock S must produce exactly min(N, S)
// successes, the rest InsufficientStock, and final stock S - min(N, S).
func TestPlaceOrder_ConcurrentNoLostUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	const initialStock = 5 // p1 is seeded with 5

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.tr.PlaceOrder(ctx, "c1", []LineRequest{{ProductID: "p1", Quantity: 1}})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes, stockFailures := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var stock *apperr.InsufficientStockError
			if !errors.As(err, &stock) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			stockFailures++
		}
	}

	if successes != initialStock {
		t.Fatalf("successes = %d, want %d", successes, initialStock)
	}
	if stockFailures != n-initialStock {
		t.Fatalf("stock failures = %d, want %d", stockFailures, n-initialStock)
	}
	if got := f.stock(t, "p1"); got != 0 {
		t.Fatalf("final stock = %d, want 0", got)
	}

	placed, err := f.orders.ListAll(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(placed) != initialStock {
		t.Fatalf("orders persisted = %d, want %d", len(placed), initialStock)
	}
}
