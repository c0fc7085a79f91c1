package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names the audit events the ledger emits.
type EventKind string

const (
	EventRoleGranted      EventKind = "role_granted"
	EventItemListed       EventKind = "item_listed"
	EventBidAccepted      EventKind = "bid_accepted"
	EventBidRefunded      EventKind = "bid_refunded"
	EventAuctionFinalized EventKind = "auction_finalized"
	EventAuctionCancelled EventKind = "auction_cancelled"
	EventWithdrawal       EventKind = "withdrawal"
)

// Event is an audit record emitted after a successful mutation. Fields not
// relevant to the event kind are left zero.
type Event struct {
	EventID   string    `json:"event_id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Role    Role   `json:"role,omitempty"`
	Account string `json:"account,omitempty"`
	ItemID  uint64 `json:"item_id"`
	Bidder  string `json:"bidder,omitempty"`
	Seller  string `json:"seller,omitempty"`
	Amount  Amount `json:"amount"`
}

// EventSink receives audit events. Sinks must not block: events are emitted
// while the ledger mutex is held, after the mutation has fully applied.
// A sink can never fail a mutation.
type EventSink interface {
	Publish(Event)
}

// discardSink is the default sink when none is configured.
type discardSink struct{}

func (discardSink) Publish(Event) {}

func (l *Ledger) emit(kind EventKind, ev Event) {
	ev.EventID = uuid.New().String()
	ev.Kind = kind
	ev.Timestamp = l.clock()
	l.sink.Publish(ev)
}
