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
	eventStreamName    = "AUCTION_EVENTS"
	eventSubjectFilter = "auction.events.*"
	consumerName       = "archiver"
)

// EventConsumer pulls audit events from the AUCTION_EVENTS JetStream stream
// and persists them through the EventStore.
type EventConsumer struct {
	conn  *nats.Conn
	js    jetstream.JetStream
	store *EventStore
}

func NewEventConsumer(natsURL string, store *EventStore) (*EventConsumer, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &EventConsumer{conn: conn, js: js, store: store}, nil
}

// Start consumes until ctx is cancelled.
func (c *EventConsumer) Start(ctx context.Context) error {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, eventStreamName, jetstream.ConsumerConfig{
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: eventSubjectFilter,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		c.handleMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	log.Printf("INFO: Consuming audit events from %s (%s)", eventStreamName, eventSubjectFilter)
	<-ctx.Done()
	return nil
}

func (c *EventConsumer) handleMessage(ctx context.Context, msg jetstream.Msg) {
	var ev ledger.Event
	if err := json.Unmarshal(msg.Data(), &ev); err != nil {
		log.Printf("ERROR: Failed to unmarshal audit event: %v", err)
		// Malformed payloads are never going to parse; drop them.
		_ = msg.Ack()
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.persistEvent(dbCtx, &ev); err != nil {
		log.Printf("ERROR: Failed to persist audit event %s: %v", ev.EventID, err)
		// No ack: the message is redelivered and retried.
		return
	}

	log.Printf("INFO: Archived event %s (%s, item %d)", ev.EventID, ev.Kind, ev.ItemID)
	if err := msg.Ack(); err != nil {
		log.Printf("WARNING: Failed to ack event %s: %v", ev.EventID, err)
	}
}

func (c *EventConsumer) persistEvent(ctx context.Context, ev *ledger.Event) error {
	if err := c.store.InsertEvent(ctx, ev); err != nil {
		return err
	}
	if ev.Kind == ledger.EventAuctionFinalized {
		if err := c.store.RecordSettlement(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (c *EventConsumer) Close() {
	c.conn.Close()
}
