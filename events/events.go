// Package events announces fulfilled orders to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/irsalhamdi/course-market/api/background"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const TypeOrderPaid = "order.paid"

type OrderPaid struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	CourseIDs []string  `json:"course_ids"`
	CreatedAt time.Time `json:"created_at"`
}

type Publisher interface {
	PublishOrderPaid(ctx context.Context, evt OrderPaid) error
}

// Nop drops every event, it is used when no broker is configured.
type Nop struct{}

func (Nop) PublishOrderPaid(context.Context, OrderPaid) error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes events keyed by order id, so all events of an order land on
// the same partition.
type Kafka struct {
	w messageWriter
}

func NewKafka(brokersCSV, topic string) *Kafka {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return &Kafka{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

func (k *Kafka) PublishOrderPaid(ctx context.Context, evt OrderPaid) error {
	evt.Type = TypeOrderPaid

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	msg := kafka.Message{Key: []byte(evt.OrderID), Value: data, Time: evt.CreatedAt}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing event[%s]: %w", evt.EventID, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}

// Async hands events to a background task so requests never wait on the
// broker. Failures are logged and dropped.
type Async struct {
	Next    Publisher
	BG      *background.Background
	Log     logrus.FieldLogger
	Timeout time.Duration
}

func (a Async) PublishOrderPaid(_ context.Context, evt OrderPaid) error {
	return a.BG.Go("publish "+TypeOrderPaid, func(ctx context.Context) {
		if a.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.Timeout)
			defer cancel()
		}

		if err := a.Next.PublishOrderPaid(ctx, evt); err != nil {
			a.Log.WithError(err).WithFields(logrus.Fields{
				"event_id": evt.EventID,
				"order_id": evt.OrderID,
			}).Warn("event dropped")
		}
	})
}
