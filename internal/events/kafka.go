package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes every event to one topic, keyed by sale id so that
// events for the same sale stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	logger  *zap.Logger
	timeout time.Duration
}

const defaultPublishTimeout = 2 * time.Second

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: 5 * time.Millisecond,
		MaxAttempts:  3,
		WriteTimeout: defaultPublishTimeout,
		ReadTimeout:  defaultPublishTimeout,
		Transport: &kafka.Transport{
			DialTimeout: time.Second,
		},
	}
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, logger: logger, timeout: defaultPublishTimeout}
}

func (p *KafkaPublisher) PublishSaleCompleted(ctx context.Context, event SaleCompleted) error {
	event.EventType = TypeSaleCompleted
	return p.publish(ctx, event.SaleID, &event.BaseEvent, event)
}

func (p *KafkaPublisher) PublishSaleRefunded(ctx context.Context, event SaleRefunded) error {
	event.EventType = TypeSaleRefunded
	return p.publish(ctx, event.SaleID, &event.BaseEvent, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, saleID int64, base *BaseEvent, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", base.EventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(saleID, 10)),
		Value: payload,
		Time:  base.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(base.EventType)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", base.EventType, err)
	}

	p.logger.Debug("event published", zap.String("event_type", base.EventType), zap.Int64("sale_id", saleID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
