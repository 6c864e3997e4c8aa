package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
)

type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
	dlqTopic     string
}

func NewKafkaPublisher(brokers []string, topicByEvent map[string]string, dlqTopic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topicByEvent: topicByEvent,
		dlqTopic:     dlqTopic,
	}, nil
}

func (p *KafkaPublisher) PublishDomain(ctx context.Context, envelope contracts.EventEnvelope) error {
	return p.write(ctx, p.topicFor(envelope.EventType), []byte(envelope.PartitionKey), envelope)
}

func (p *KafkaPublisher) PublishOps(ctx context.Context, envelope contracts.EventEnvelope) error {
	return p.write(ctx, p.topicFor(envelope.EventType), []byte(envelope.PartitionKey), envelope)
}

func (p *KafkaPublisher) PublishDLQ(ctx context.Context, record contracts.DLQRecord) error {
	topic := record.DLQTopic
	if topic == "" {
		topic = p.dlqTopic
	}
	return p.write(ctx, topic, []byte(record.OriginalEvent.EventID), record)
}

func (p *KafkaPublisher) topicFor(eventType string) string {
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		return mapped
	}
	return eventType
}

func (p *KafkaPublisher) write(ctx context.Context, topic string, key []byte, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: raw,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
