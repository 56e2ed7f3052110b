// Package kafka carries alert notifications from the alert monitor to the
// API server over Confluent Cloud.
package kafka

import (
	"context"
	"fmt"
	"time"

	"finzora/api/alerts"
	"finzora/api/logger"
	"finzora/api/models"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

const (
	AlertTopic = "price_alerts"
	GroupID    = "finzora-notifications"

	pollTimeout = time.Second
)

type Config struct {
	BootstrapServers string
	APIKey           string
	APISecret        string
}

func (c Config) Enabled() bool { return c.BootstrapServers != "" }

func (c Config) configMap() *kafka.ConfigMap {
	cm := &kafka.ConfigMap{"bootstrap.servers": c.BootstrapServers}
	if c.APIKey != "" {
		_ = cm.SetKey("sasl.username", c.APIKey)
		_ = cm.SetKey("sasl.password", c.APISecret)
		_ = cm.SetKey("security.protocol", "SASL_SSL")
		_ = cm.SetKey("sasl.mechanisms", "PLAIN")
	}
	return cm
}

// Publisher produces AlertNotification messages keyed by user id so all of
// a user's alerts stay on one partition.
type Publisher struct {
	producer *kafka.Producer
	topic    string
}

var _ alerts.Notifier = (*Publisher)(nil)

func NewPublisher(cfg Config) (*Publisher, error) {
	producer, err := kafka.NewProducer(cfg.configMap())
	if err != nil {
		logger.Get().Error("failed to initialize Kafka producer",
			zap.String("bootstrap_servers", cfg.BootstrapServers),
			zap.Error(err))
		return nil, err
	}

	logger.Get().Info("Kafka producer initialized successfully",
		zap.String("bootstrap_servers", cfg.BootstrapServers))
	return &Publisher{producer: producer, topic: AlertTopic}, nil
}

// Notify waits for the broker acknowledgement so the caller only marks an
// alert triggered once the message is durable.
func (p *Publisher) Notify(ctx context.Context, n *models.AlertNotification) error {
	value, err := alerts.EncodeNotification(n)
	if err != nil {
		return err
	}
	topic := p.topic
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(n.UserID),
		Value:          value,
	}

	delivery := make(chan kafka.Event, 1)
	if err := p.producer.Produce(msg, delivery); err != nil {
		logger.Get().Error("failed to produce message",
			zap.String("topic", topic),
			zap.Error(err))
		return err
	}

	select {
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		logger.Get().Debug("message produced successfully",
			zap.String("topic", topic),
			zap.Int32("partition", m.TopicPartition.Partition))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}

// Submitter accepts raw messages for asynchronous handling.
type Submitter interface {
	Submit(job []byte, partition int32)
}

// StartConsumer subscribes to the alert topic and hands every message to
// pool until ctx is cancelled.
func StartConsumer(ctx context.Context, cfg Config, pool Submitter) error {
	cm := cfg.configMap()
	_ = cm.SetKey("session.timeout.ms", "45000")
	_ = cm.SetKey("client.id", "finzora-api")
	_ = cm.SetKey("group.id", GroupID)
	_ = cm.SetKey("auto.offset.reset", "latest")

	consumer, err := kafka.NewConsumer(cm)
	if err != nil {
		logger.Get().Error("failed to create consumer",
			zap.String("bootstrap_servers", cfg.BootstrapServers),
			zap.Error(err))
		return err
	}

	if err := consumer.Subscribe(AlertTopic, nil); err != nil {
		logger.Get().Error("failed to subscribe to topic",
			zap.String("topic", AlertTopic),
			zap.Error(err))
		consumer.Close()
		return err
	}

	logger.Get().Info("Kafka consumer started successfully",
		zap.String("topic", AlertTopic),
		zap.String("group_id", GroupID))

	go func() {
		defer consumer.Close()
		for ctx.Err() == nil {
			msg, err := consumer.ReadMessage(pollTimeout)
			if err != nil {
				if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				logger.Get().Error("consumer error",
					zap.String("topic", AlertTopic),
					zap.Error(err))
				continue
			}
			logger.Get().Debug("received message",
				zap.String("topic", AlertTopic),
				zap.Int32("partition", msg.TopicPartition.Partition))
			pool.Submit(msg.Value, msg.TopicPartition.Partition)
		}
		logger.Get().Info("Kafka consumer stopped", zap.String("topic", AlertTopic))
	}()
	return nil
}
