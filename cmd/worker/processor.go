package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/gjayprakash/commerce-backend/internal/aws"
	"github.com/gjayprakash/commerce-backend/internal/logger"
)

// Processor consumes order-placed events and publishes order metrics to
// CloudWatch.
type Processor struct {
	cw        aws.CloudWatchAPI
	namespace string
	log       *logger.Logger
	nowFunc   func() time.Time
}

// NewProcessor creates a worker processor publishing under the given metric namespace.
func NewProcessor(cw aws.CloudWatchAPI, namespace string, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Processor{
		cw:        cw,
		namespace: namespace,
		log:       log,
		nowFunc:   time.Now,
	}
}

// Handle receives an SQS batch event and publishes one metric batch for it.
// Returning an error makes the runtime redeliver the batch; metric publishing
// is idempotent enough that duplicates only inflate counts transiently.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	var placed float64
	var revenue float64
	for _, rec := range ev.Records {
		var msg aws.OrderPlacedEvent
		if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
			return fmt.Errorf("invalid message body: %w", err)
		}
		p.log.Info("order event received", "order_id", msg.OrderID, "customer_id", msg.CustomerID)
		placed++
		revenue += msg.TotalAmount
	}
	if placed == 0 {
		return nil
	}

	now := p.nowFunc()
	_, err := p.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &p.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("OrdersPlaced"),
				Value:      &placed,
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  &now,
			},
			{
				MetricName: awsString("OrderRevenue"),
				Value:      &revenue,
				Unit:       cwtypes.StandardUnitNone,
				Timestamp:  &now,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
