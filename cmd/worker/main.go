package main

import (
	"context"
	stdlog "log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/gjayprakash/commerce-backend/internal/aws"
	"github.com/gjayprakash/commerce-backend/internal/logger"
)

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

	namespace := os.Getenv("METRICS_NAMESPACE")
	if namespace == "" {
		namespace = "CommerceBackend"
	}
	p := NewProcessor(clients.CloudWatch, namespace, log)

	// If RUN_LOCAL=true, process a single simulated event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":"local-order-1","customer_id":"local-cust-1","total_amount":42.5}`
		}
		ev := events.SQSEvent{Records: []events.SQSMessage{{Body: body}}}
		if err := p.Handle(context.Background(), ev); err != nil {
			log.Fatal("local handler error", "err", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
