package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/internal/settlement/settler"
	sharedkafka "github.com/numdraw/bet-platform/internal/shared/kafka"
	"github.com/numdraw/bet-platform/pkg/contracts/events"
)

// Loop consumes declared-result events and drives the settler.
// Failed events are retried a few times, then parked on the DLQ so one bad
// market never stalls the partition.
type Loop struct {
	Log     *zap.Logger
	Reader  *kafka.Reader
	Settler *settler.Settler
	DLQ     *kafka.Writer // optional

	// Toss switches the payload decode from market results to toss results.
	Toss bool

	OnConsumed func()       // metrics (counter++)
	OnError    func(string) // per phase: read, decode, settle
}

const settleRetries = 3

func (l *Loop) Run(ctx context.Context) error {
	for {
		m, err := l.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.Log.Warn("kafka read failed", zap.Error(err))
			if l.OnError != nil {
				l.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if l.OnConsumed != nil {
			l.OnConsumed()
		}

		if err := l.handle(ctx, m.Value); err != nil {
			l.Log.Error("settle failed, sending to DLQ", zap.ByteString("key", m.Key), zap.Error(err))
			if l.OnError != nil {
				l.OnError("settle")
			}
			if l.DLQ != nil {
				_ = sharedkafka.WriteJSON(ctx, l.DLQ, string(m.Key), m.Value)
			}
		}
	}
}

func (l *Loop) handle(ctx context.Context, value []byte) error {
	settle, err := l.decode(value)
	if err != nil {
		l.Log.Warn("invalid message", zap.Error(err))
		if l.OnError != nil {
			l.OnError("decode")
		}
		return nil // malformed payloads are dropped, not retried
	}

	err = settle(ctx)
	for i := 0; err != nil && i < settleRetries; i++ {
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
		err = settle(ctx)
	}
	return err
}

func (l *Loop) decode(value []byte) (func(context.Context) error, error) {
	if l.Toss {
		var ev events.TossResultDeclared
		if err := json.Unmarshal(value, &ev); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return l.Settler.SettleToss(ctx, ev) }, nil
	}
	var ev events.ResultDeclared
	if err := json.Unmarshal(value, &ev); err != nil {
		return nil, err
	}
	return func(ctx context.Context) error { return l.Settler.SettleMarket(ctx, ev) }, nil
}
