package events

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/course-market/api/background"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublishOrderPaid(t *testing.T) {
	fw := &fakeWriter{}
	k := &Kafka{w: fw}

	evt := OrderPaid{
		EventID:   "e1",
		OrderID:   "o1",
		UserID:    "u1",
		Provider:  "stripe",
		CourseIDs: []string{"a", "b"},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := k.PublishOrderPaid(context.Background(), evt); err != nil {
		t.Fatal(err)
	}

	if len(fw.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fw.msgs))
	}
	if key := string(fw.msgs[0].Key); key != "o1" {
		t.Fatalf("messages must be keyed by order id, got %q", key)
	}

	var got OrderPaid
	if err := json.Unmarshal(fw.msgs[0].Value, &got); err != nil {
		t.Fatal(err)
	}

	evt.Type = TypeOrderPaid
	if diff := cmp.Diff(evt, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestAsyncPublishesInBackground(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	fw := &fakeWriter{}
	bg := background.New(log)
	a := Async{Next: &Kafka{w: fw}, BG: bg, Log: log, Timeout: time.Second}

	if err := a.PublishOrderPaid(context.Background(), OrderPaid{EventID: "e1", OrderID: "o1"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := bg.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	if len(fw.msgs) != 1 {
		t.Fatalf("expected the event to be written before shutdown returns, got %d messages", len(fw.msgs))
	}
}
