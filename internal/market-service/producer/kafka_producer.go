package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/numdraw/bet-platform/pkg/contracts/events"
)

type KafkaPublisher struct {
	ResultWriter *kafka.Writer
	TossWriter   *kafka.Writer
}

func NewKafkaPublisher(result, toss *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{ResultWriter: result, TossWriter: toss}
}

func (p *KafkaPublisher) PublishResultDeclared(ctx context.Context, e events.ResultDeclared) error {
	if e.DeclaredAt.IsZero() {
		e.DeclaredAt = time.Now()
	}
	b, _ := json.Marshal(e)
	return p.ResultWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.MarketID), Value: b})
}

func (p *KafkaPublisher) PublishTossResultDeclared(ctx context.Context, e events.TossResultDeclared) error {
	if e.DeclaredAt.IsZero() {
		e.DeclaredAt = time.Now()
	}
	b, _ := json.Marshal(e)
	return p.TossWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.TossID), Value: b})
}
