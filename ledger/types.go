package ledger

import "time"

// Role identifies a named capability set. Accounts are granted roles by the
// ledger admin and every mutating operation is gated on one of them.
type Role string

const (
	// RoleAdmin is held by the account that created the ledger and is the
	// only role allowed to grant other roles.
	RoleAdmin Role = "ADMIN_ROLE"

	// RoleAuctioneer is required to list items and finalize auctions.
	RoleAuctioneer Role = "AUCTIONEER_ROLE"

	// RoleBidder is required to place bids.
	RoleBidder Role = "BIDDER_ROLE"
)

// Amount is a monetary amount in the smallest indivisible unit of the
// ledger's currency. Arithmetic on amounts is overflow-checked; an operation
// that would overflow is rejected rather than wrapped.
type Amount uint64

const maxAmount = Amount(^uint64(0))

// checkedAdd returns a+b or ErrOverflow if the sum does not fit.
func checkedAdd(a, b Amount) (Amount, error) {
	if b > maxAmount-a {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// AuctionState tracks the lifecycle of a listed item.
type AuctionState int

const (
	// StateListed is the nominal post-creation state. Listing activates
	// bidding immediately, so items never rest in this state; it exists so
	// snapshots taken by older builds remain decodable.
	StateListed AuctionState = iota

	// StateActive means the item accepts bids and can be finalized.
	StateActive

	// StateFinalized is terminal: funds settled, winner recorded.
	StateFinalized

	// StateCancelled is terminal: reserve not met, leading bid refunded.
	StateCancelled
)

func (s AuctionState) String() string {
	switch s {
	case StateListed:
		return "listed"
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Item is a listed auction lot. IDs are assigned sequentially starting at 0
// and are immutable once assigned.
type Item struct {
	ID             uint64       `json:"id" cbor:"id"`
	Description    string       `json:"description" cbor:"description"`
	StartingPrice  Amount       `json:"starting_price" cbor:"starting_price"`
	ReserveAuction bool         `json:"reserve_auction" cbor:"reserve_auction"`
	Seller         string       `json:"seller" cbor:"seller"`
	ListedAt       time.Time    `json:"listed_at" cbor:"listed_at"`
	Deadline       time.Time    `json:"deadline,omitempty" cbor:"deadline,omitempty"`
	State          AuctionState `json:"state" cbor:"state"`

	// Settlement outcome, populated on finalization only.
	Winner      string `json:"winner,omitempty" cbor:"winner,omitempty"`
	HammerPrice Amount `json:"hammer_price,omitempty" cbor:"hammer_price,omitempty"`
}

// Bid is one accepted bid in an item's append-only bid log. Sequence is the
// bid's position in that log, starting at 0.
type Bid struct {
	ItemID   uint64    `json:"item_id" cbor:"item_id"`
	Bidder   string    `json:"bidder" cbor:"bidder"`
	Amount   Amount    `json:"amount" cbor:"amount"`
	Sequence uint64    `json:"sequence" cbor:"sequence"`
	PlacedAt time.Time `json:"placed_at" cbor:"placed_at"`
}
