// Package events publishes prediction lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
)

// TypePredictionCreated is emitted once per persisted prediction.
const TypePredictionCreated = "prediction.created"

const defaultWriteTimeout = 10 * time.Second

// Event is the JSON envelope written to the topic
type Event struct {
	ID         string                `json:"event_id"`
	Type       string                `json:"event_type"`
	OccurredAt time.Time             `json:"occurred_at"`
	Prediction domain.PredictionView `json:"prediction"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes prediction events keyed by patient id, so every
// event for one patient lands on the same partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	log     *logrus.Logger
	now     func() time.Time
}

// New returns a Kafka publisher when enabled and a NoopPublisher otherwise.
func New(cfg domain.KafkaConfig, logger *logrus.Logger) (domain.EventPublisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required when events are enabled")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required when events are enabled")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Info("Publishing prediction events to Kafka")
	return newKafkaPublisher(writer, cfg.Topic, cfg.WriteTimeout, logger), nil
}

func newKafkaPublisher(w messageWriter, topic string, timeout time.Duration, logger *logrus.Logger) *KafkaPublisher {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &KafkaPublisher{
		writer:  w,
		topic:   topic,
		timeout: timeout,
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PublishPredictionCreated writes one prediction.created event
func (p *KafkaPublisher) PublishPredictionCreated(ctx context.Context, prediction *domain.RiskPrediction) error {
	event := Event{
		ID:         uuid.New().String(),
		Type:       TypePredictionCreated,
		OccurredAt: p.now(),
		Prediction: prediction.View(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding prediction event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(prediction.PatientID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypePredictionCreated)},
		},
	})
	if err != nil {
		return fmt.Errorf("writing prediction event to %s: %w", p.topic, err)
	}

	p.log.WithFields(logrus.Fields{
		"event_id":      event.ID,
		"prediction_id": prediction.ID,
		"topic":         p.topic,
	}).Debug("Prediction event published")
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) PublishPredictionCreated(context.Context, *domain.RiskPrediction) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
