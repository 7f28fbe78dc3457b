package awstest

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

// SQSFake records every SendMessage call. It implements the aws.SQSAPI
// subset the order-event publisher uses.
type SQSFake struct {
	mu   sync.Mutex
	sent []*sqs.SendMessageInput

	// FailSend, when set, is returned verbatim by SendMessage.
	FailSend error
}

// NewSQSFake returns an empty fake.
func NewSQSFake() *SQSFake {
	return &SQSFake{}
}

func (f *SQSFake) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSend != nil {
		return nil, f.FailSend
	}
	f.sent = append(f.sent, params)
	id := uuid.NewString()
	return &sqs.SendMessageOutput{MessageId: &id}, nil
}

// Sent returns a copy of the captured SendMessage inputs.
func (f *SQSFake) Sent() []*sqs.SendMessageInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*sqs.SendMessageInput, len(f.sent))
	copy(out, f.sent)
	return out
}
