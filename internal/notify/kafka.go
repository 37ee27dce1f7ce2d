package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// KafkaDispatcher publishes messages to a topic; a KafkaConsumer on any
// replica performs the delivery.
type KafkaDispatcher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaDispatcher(brokers []string, topic string, logger *zap.Logger) *KafkaDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// Dispatch is bounded by publishTimeout and is not cancelled with the
// caller's request.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = d.writer.WriteMessages(publishCtx, kafka.Message{
		Key:   []byte(msg.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(msg.Kind)},
			{Key: "message_id", Value: []byte(msg.ID)},
		},
	})
	if err != nil {
		d.logger.Error("publish notification failed", zap.String("message_id", msg.ID), zap.Error(err))
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// KafkaConsumer reads published messages and hands them to a Deliverer.
type KafkaConsumer struct {
	reader    *kafka.Reader
	deliverer *Deliverer
	logger    *zap.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, deliverer *Deliverer, logger *zap.Logger) *KafkaConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		deliverer: deliverer,
		logger:    logger,
	}
}

// Run consumes until ctx is cancelled. Offsets are committed after each
// delivery attempt; failed deliveries are already in the failure log.
func (c *KafkaConsumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		record, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("notification consumer shutting down")
				return
			}
			c.logger.Error("read notification failed", zap.Error(err))
			continue
		}

		c.handle(ctx, record.Value)

		if err := c.reader.CommitMessages(ctx, record); err != nil && ctx.Err() == nil {
			c.logger.Error("commit notification offset failed", zap.Int64("offset", record.Offset), zap.Error(err))
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Error("decode notification failed", zap.Error(err))
		return
	}
	if !msg.Kind.Valid() {
		c.logger.Warn("skipping notification with unknown kind", zap.String("kind", string(msg.Kind)))
		return
	}
	_ = c.deliverer.Deliver(ctx, msg)
}
