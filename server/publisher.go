package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledger"
)

const (
	eventStreamName = "AUCTION_EVENTS"

	// eventSubjectPrefix + event kind, e.g. auction.events.bid_accepted
	eventSubjectPrefix = "auction.events."

	publishTimeout = 5 * time.Second
)

// EventPublisher delivers ledger audit events to NATS JetStream for
// downstream archival. Publication is asynchronous and best-effort: a
// publish failure is logged and never fails the ledger mutation that
// produced the event.
type EventPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func NewEventPublisher(natsURL string) (*EventPublisher, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        eventStreamName,
		Description: "Auction ledger audit events",
		Subjects:    []string{eventSubjectPrefix + "*"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      24 * time.Hour,
		Replicas:    1,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}

	return &EventPublisher{conn: conn, js: js}, nil
}

// Publish implements ledger.EventSink. It hands the event to a goroutine
// immediately; the sink is called while the ledger mutex is held and must
// not block.
func (p *EventPublisher) Publish(ev ledger.Event) {
	go func() {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Printf("ERROR: Failed to marshal audit event %s: %v", ev.EventID, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		subject := eventSubjectPrefix + string(ev.Kind)
		if _, err := p.js.Publish(ctx, subject, data); err != nil {
			log.Printf("WARNING: Failed to publish audit event %s to %s: %v", ev.EventID, subject, err)
		}
	}()
}

func (p *EventPublisher) Close() {
	p.conn.Close()
}
