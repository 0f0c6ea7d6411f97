package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aryan0dhankhar/freightlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/freightlink/internal/reliability/retry"
)

// Event types published after successful mutations.
const (
	CompanyCreated     = "company.created"
	InvitationAccepted = "invitation.accepted"
	TourStatusChanged  = "tour.status_changed"
)

// Event is the envelope written to the topic. Key selects the partition,
// so events for one company stay ordered.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// Publisher emits domain events. Publishing is best effort: callers log a
// failure but never fail the mutation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Writer is the part of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to one topic.
type KafkaPublisher struct {
	writer Writer
	retry  *retry.Config
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher for brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}, logger)
}

// NewKafkaPublisherWithWriter injects the writer, for tests.
func NewKafkaPublisherWithWriter(w Writer, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: w, retry: retry.DefaultConfig(), logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		metrics.ObserveEventPublished(ev.Type, "error")
		return fmt.Errorf("failed to encode %s event: %w", ev.Type, err)
	}
	msg := kafka.Message{
		Key:     []byte(ev.Key),
		Value:   body,
		Headers: []kafka.Header{{Key: "type", Value: []byte(ev.Type)}},
	}

	_, err = retry.Do(ctx, p.retry, p.logger, "publish "+ev.Type, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		metrics.ObserveEventPublished(ev.Type, "error")
		return err
	}
	metrics.ObserveEventPublished(ev.Type, "ok")
	p.logger.Debug("event published", slog.String("type", ev.Type), slog.String("key", ev.Key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                          { return nil }

// New returns a Kafka publisher when brokers are configured and Nop
// otherwise.
func New(brokers []string, topic string, logger *slog.Logger) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(brokers, topic, logger)
}
