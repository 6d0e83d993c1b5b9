package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"campus-events/internal/config"
	"campus-events/internal/logger"
	"campus-events/internal/models"
)

// Publisher emits domain events after a change has been committed.
type Publisher interface {
	Publish(ctx context.Context, ev models.DomainEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	topics map[models.DomainEventType]string
	logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, topics, log)
}

func newProducer(w messageWriter, topics config.TopicConfig, log *logger.Logger) *Producer {
	return &Producer{
		writer: w,
		topics: map[models.DomainEventType]string{
			models.EventCreated: topics.EventCreated,
			models.EventUpdated: topics.EventUpdated,
			models.EventDeleted: topics.EventDeleted,
			models.RSVPRecorded: topics.RSVPRecorded,
		},
		logger: log,
	}
}

// Publish writes ev as JSON, keyed by the entity id so every change to one
// event or RSVP lands on the same partition.
func (p *Producer) Publish(ctx context.Context, ev models.DomainEvent) error {
	topic, ok := p.topics[ev.Type]
	if !ok || topic == "" {
		return fmt.Errorf("no topic configured for %s", ev.Type)
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(ev.EntityID, 10)),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.Type, topic, err)
	}
	p.logger.LogKafka("PUBLISH", topic, fmt.Sprintf("%s entity=%d", ev.Type, ev.EntityID))
	return nil
}

// Topics lists the configured topic names, for EnsureTopicsExist.
func (p *Producer) Topics() []string {
	out := make([]string, 0, len(p.topics))
	for _, t := range []models.DomainEventType{models.EventCreated, models.EventUpdated, models.EventDeleted, models.RSVPRecorded} {
		if topic := p.topics[t]; topic != "" {
			out = append(out, topic)
		}
	}
	return out
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.DomainEvent) error { return nil }
