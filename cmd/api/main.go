package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/gjayprakash/commerce-backend/internal/aws"
	"github.com/gjayprakash/commerce-backend/internal/handlers"
	"github.com/gjayprakash/commerce-backend/internal/logger"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		stdlog.Fatalf("failed to init logger: %v", err)
	}
	defer log.Sync()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatal("failed to init aws clients", "err", err)
	}

	cfg := handlers.HandlerConfig{
		DynamoDBClient: clients.DynamoDB,
		SQSClient:      clients.SQS,
		ProductsTable:  os.Getenv("PRODUCTS_TABLE"),
		CustomersTable: os.Getenv("CUSTOMERS_TABLE"),
		OrdersTable:    os.Getenv("ORDERS_TABLE"),
		QueueURL:       os.Getenv("ORDER_EVENTS_QUEUE_URL"),
		Log:            log,
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Info("running local server", "addr", addr)
		if err := r.Run(addr); err != nil {
			log.Fatal("failed to run local server", "err", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
