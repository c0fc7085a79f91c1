package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledger"
	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledgerapi"
)

// EventStore archives ledger audit events in PostgreSQL.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(connStr string) (*EventStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &EventStore{db: db}, nil
}

// InitSchema creates the archival tables.
func (s *EventStore) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS auction_events (
		event_id VARCHAR(255) PRIMARY KEY,
		kind VARCHAR(64) NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		role VARCHAR(64),
		account VARCHAR(255),
		item_id BIGINT,
		bidder VARCHAR(255),
		seller VARCHAR(255),
		amount NUMERIC(30, 8),
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settlements (
		item_id BIGINT PRIMARY KEY,
		winner VARCHAR(255) NOT NULL,
		seller VARCHAR(255) NOT NULL,
		amount NUMERIC(30, 8) NOT NULL,
		settled_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_auction_events_item_id ON auction_events(item_id);
	CREATE INDEX IF NOT EXISTS idx_auction_events_kind ON auction_events(kind);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertEvent archives a single audit event. Replays of an already archived
// event are ignored.
func (s *EventStore) InsertEvent(ctx context.Context, ev *ledger.Event) error {
	query := `
		INSERT INTO auction_events (event_id, kind, occurred_at, role, account, item_id, bidder, seller, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		ev.EventID,
		string(ev.Kind),
		ev.Timestamp,
		string(ev.Role),
		ev.Account,
		ev.ItemID,
		ev.Bidder,
		ev.Seller,
		ledgerapi.FormatAmount(ev.Amount),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// RecordSettlement upserts the final outcome row for a finalized auction.
func (s *EventStore) RecordSettlement(ctx context.Context, ev *ledger.Event) error {
	query := `
		INSERT INTO settlements (item_id, winner, seller, amount, settled_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id) DO NOTHING
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		ev.ItemID,
		ev.Bidder,
		ev.Seller,
		ledgerapi.FormatAmount(ev.Amount),
		ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record settlement: %w", err)
	}
	return nil
}

func (s *EventStore) Close() error {
	return s.db.Close()
}
