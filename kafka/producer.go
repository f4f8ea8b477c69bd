package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yashrajoria/order-saga-service/models"
	"github.com/yashrajoria/order-saga-service/pkg/logger"
)

// Publisher is the event-publication contract the services depend on.
// Delivery is at-least-once: a publish that fails mid-flight may be redelivered
// after a retry, so consumers must dedup on event identity.
type Publisher interface {
	Publish(ctx context.Context, topic, key, eventType, entityID string, data any) error
	Close() error
}

type Producer struct {
	writer  *kafkago.Writer
	service string
}

func NewProducer(brokers []string, serviceName string) *Producer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	logger.Log.Info("kafka producer initialized",
		zap.Strings("brokers", brokers), zap.String("service", serviceName))
	return &Producer{writer: w, service: serviceName}
}

// Publish wraps data in the standard envelope and writes it keyed by the given
// business id so all events for one key stay in partition order.
func (p *Producer) Publish(ctx context.Context, topic, key, eventType, entityID string, data any) error {
	env := models.Envelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
		Producer:  p.service,
		Data:      data,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	if err != nil {
		// one retry; acceptable duplicate under at-least-once
		logger.Log.Warn("kafka publish failed, retrying",
			zap.String("topic", topic), zap.String("event_type", eventType), zap.Error(err))
		err = p.writer.WriteMessages(ctx, msg)
	}
	if err != nil {
		logger.Log.Error("kafka publish failed",
			zap.String("topic", topic), zap.String("event_type", eventType), zap.Error(err))
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
