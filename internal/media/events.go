package media

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// MediaEvent представляет событие жизненного цикла файла для Kafka
type MediaEvent struct {
	MediaID   string    `json:"mediaId"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type EventProducer interface {
	SendMediaEvent(ctx context.Context, event MediaEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) EventProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &kafkaProducer{
		writer: writer,
		topic:  topic,
	}
}

// SendMediaEvent отправляет событие файла в Kafka
func (p *kafkaProducer) SendMediaEvent(ctx context.Context, event MediaEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(event.MediaID),
		Value: eventJSON,
		Time:  time.Now(),
	}

	return p.writer.WriteMessages(ctx, message)
}

// Close закрывает соединение с Kafka
func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
