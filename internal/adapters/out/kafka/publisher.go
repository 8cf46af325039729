// Package kafka publishes order lifecycle events to a Kafka topic for
// consumers outside the plant floor (ERP sync, reporting).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ekanban/internal/core/domain/model/order"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderChangedMessage is the JSON value of every record on the topic.
type OrderChangedMessage struct {
	OrderID    string    `json:"orderId"`
	CardID     string    `json:"cardId"`
	Location   string    `json:"location"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher implements ports.OrderEventPublisher. Records are keyed by order
// id so every change of one order lands on the same partition, in order.
type Publisher struct {
	writer MessageWriter
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// BatchTimeout bounds how long a synchronous Publish waits for a batch to fill.
const BatchTimeout = 10 * time.Millisecond

// NewWriter builds a synchronous writer for brokersCSV ("host:port,host:port").
func NewWriter(brokersCSV, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(ParseBrokers(brokersCSV)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           BatchTimeout,
		WriteTimeout:           5 * time.Second,
	}
}

func ParseBrokers(brokersCSV string) []string {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (p *Publisher) Publish(ctx context.Context, e order.ChangedEvent) error {
	data, err := json.Marshal(OrderChangedMessage{
		OrderID:    e.OrderID.String(),
		CardID:     e.CardID,
		Location:   e.Location,
		Status:     e.Status.String(),
		OccurredAt: e.OccurredAt.UTC(),
	})
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID.String()),
		Value: data,
		Time:  e.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("write order changed message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
