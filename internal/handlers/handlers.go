// Package handlers is the HTTP edge: it binds and validates requests, calls
// the checkout transactor or the aggregation engine, and maps the error
// taxonomy onto status codes. No business rule lives here.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gjayprakash/commerce-backend/internal/analytics"
	"github.com/gjayprakash/commerce-backend/internal/apperr"
	"github.com/gjayprakash/commerce-backend/internal/aws"
	"github.com/gjayprakash/commerce-backend/internal/catalog"
	"github.com/gjayprakash/commerce-backend/internal/checkout"
	"github.com/gjayprakash/commerce-backend/internal/logger"
	"github.com/gjayprakash/commerce-backend/internal/orders"
	"github.com/gjayprakash/commerce-backend/internal/validation"
)

// HandlerConfig groups dependencies for the API routes.
type HandlerConfig struct {
	DynamoDBClient aws.DynamoDBAPI
	SQSClient      aws.SQSAPI
	ProductsTable  string
	CustomersTable string
	OrdersTable    string
	QueueURL       string
	Log            *logger.Logger
}

// RegisterRoutes wires the order, catalog, and analytics routes onto r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}
	v := validation.New()

	cat := catalog.NewStore(cfg.DynamoDBClient, cfg.ProductsTable, cfg.CustomersTable)
	ord := orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable)
	transactor := checkout.NewTransactor(cfg.DynamoDBClient, cat, ord)
	engine := analytics.NewEngine(ord, cat)

	var publisher *aws.Publisher
	if cfg.SQSClient != nil && cfg.QueueURL != "" {
		publisher = aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)
	}

	r.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.PlaceOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		lines := make([]checkout.LineRequest, 0, len(req.Products))
		for _, p := range req.Products {
			lines = append(lines, checkout.LineRequest{ProductID: p.ProductID, Quantity: p.Quantity})
		}

		order, err := transactor.PlaceOrder(ctx, req.CustomerID, lines)
		if err != nil {
			writeError(c, log, err)
			return
		}

		// the order is committed; event publishing is best-effort and never
		// unwinds it
		if publisher != nil {
			event := aws.OrderPlacedEvent{
				OrderID:     order.OrderID,
				CustomerID:  order.CustomerID,
				TotalAmount: order.TotalAmount,
			}
			attrs := map[string]string{
				"order_id":       order.OrderID,
				"correlation_id": c.GetHeader("X-Request-Id"),
			}
			if err := publisher.SendOrderEvent(ctx, event, attrs); err != nil {
				log.Warn("order event publish failed", "order_id", order.OrderID, "err", err)
			}
		}

		log.Info("order placed", "order_id", order.OrderID, "customer_id", order.CustomerID, "total", order.TotalAmount)
		c.Header("Location", "/orders/"+order.OrderID)
		c.JSON(http.StatusCreated, order)
	})

	r.GET("/orders/:id", func(c *gin.Context) {
		order, err := ord.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, log, err)
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found", "orderId": c.Param("id")})
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.GET("/customers/:id/spending", func(c *gin.Context) {
		spending, err := engine.CustomerSpending(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, log, err)
			return
		}
		// no completed orders renders as null, not an error
		c.JSON(http.StatusOK, spending)
	})

	r.GET("/products/top", func(c *gin.Context) {
		limit, err := intQuery(c, "limit", 10)
		if err != nil {
			writeError(c, log, err)
			return
		}
		top, err := engine.TopSellingProducts(c.Request.Context(), limit)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": top})
	})

	r.GET("/analytics/sales", func(c *gin.Context) {
		start, err := timeQuery(c, "startDate")
		if err != nil {
			writeError(c, log, err)
			return
		}
		end, err := timeQuery(c, "endDate")
		if err != nil {
			writeError(c, log, err)
			return
		}
		report, err := engine.SalesAnalytics(c.Request.Context(), start, end)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})

	r.GET("/customers", func(c *gin.Context) {
		page, err := intQuery(c, "page", 0)
		if err != nil {
			writeError(c, log, err)
			return
		}
		limit, err := intQuery(c, "limit", 0)
		if err != nil {
			writeError(c, log, err)
			return
		}
		filter := analytics.CustomerFilter{
			Name:     c.Query("name"),
			Email:    c.Query("email"),
			Location: c.Query("location"),
			Gender:   c.Query("gender"),
		}
		if filter.MinAge, err = optionalIntQuery(c, "minAge"); err != nil {
			writeError(c, log, err)
			return
		}
		if filter.MaxAge, err = optionalIntQuery(c, "maxAge"); err != nil {
			writeError(c, log, err)
			return
		}
		pageResult, err := engine.ListCustomers(c.Request.Context(), filter, page, limit, c.Query("sortBy"), c.Query("sortOrder"))
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, pageResult)
	})

	r.GET("/customers/:id/orders", func(c *gin.Context) {
		page, err := intQuery(c, "page", 0)
		if err != nil {
			writeError(c, log, err)
			return
		}
		limit, err := intQuery(c, "limit", 0)
		if err != nil {
			writeError(c, log, err)
			return
		}
		history, err := engine.CustomerOrderHistory(c.Request.Context(), c.Param("id"), page, limit)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, history)
	})

	// administrative creation paths; stock later moves only through checkout
	r.POST("/products", func(c *gin.Context) {
		var req validation.CreateProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		if req.ProductID == "" {
			req.ProductID = uuid.NewString()
		}
		p := &catalog.Product{
			ProductID: req.ProductID,
			Name:      req.Name,
			Category:  req.Category,
			Price:     req.Price,
			Stock:     req.Stock,
		}
		if err := cat.PutProduct(c.Request.Context(), p); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	r.POST("/customers", func(c *gin.Context) {
		var req validation.CreateCustomerRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		if req.CustomerID == "" {
			req.CustomerID = uuid.NewString()
		}
		cust := &catalog.Customer{
			CustomerID: req.CustomerID,
			Name:       req.Name,
			Email:      req.Email,
			Age:        req.Age,
			Location:   req.Location,
			Gender:     req.Gender,
		}
		if err := cat.PutCustomer(c.Request.Context(), cust); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, cust)
	})
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	var (
		invalid  *apperr.InvalidArgumentError
		missing  *apperr.ProductsNotFoundError
		notFound *apperr.NotFoundError
		stock    *apperr.InsufficientStockError
		unavail  *apperr.UnavailableError
		aborted  *apperr.TransactionAbortedError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_argument", "msg": invalid.Reason})
	case errors.As(err, &missing):
		c.JSON(http.StatusNotFound, gin.H{"error": "products_not_found", "productIds": missing.IDs})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Kind + "_not_found", "id": notFound.ID})
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient_stock",
			"productId": stock.ProductID,
			"requested": stock.Requested,
			"available": stock.Available,
		})
	case errors.As(err, &unavail):
		log.Error("store unavailable", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
	case errors.As(err, &aborted):
		log.Error("transaction aborted", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction_aborted"})
	default:
		log.Error("internal error", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgumentf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func optionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.InvalidArgumentf("%s must be an integer, got %q", name, raw)
	}
	return &v, nil
}

func timeQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, apperr.InvalidArgumentf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.InvalidArgumentf("%s must be an RFC3339 timestamp, got %q", name, raw)
	}
	return t, nil
}
