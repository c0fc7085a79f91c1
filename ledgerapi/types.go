// Package ledgerapi defines the JSON wire types of the auction ledger's
// HTTP surface and the conversion between display-unit decimal amounts and
// the ledger's integral base units.
package ledgerapi

import (
	"time"

	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledger"
)

// AccountHeader carries the caller's account identity. Authentication and
// signing happen outside this service.
const AccountHeader = "X-Account"

// GrantRoleRequest asks the ledger to add an account to a role's member set.
type GrantRoleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}

// ListItemRequest lists a new auction lot. StartingPrice is a display-unit
// decimal string. DurationSeconds of 0 means no bidding deadline.
type ListItemRequest struct {
	Description     string `json:"description"`
	StartingPrice   string `json:"starting_price"`
	ReserveAuction  bool   `json:"reserve_auction"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// ListItemResponse returns the sequential id assigned to the new lot.
type ListItemResponse struct {
	ItemID uint64 `json:"item_id"`
}

// PlaceBidRequest places a bid; Amount is the attached value as a
// display-unit decimal string.
type PlaceBidRequest struct {
	Amount string `json:"amount"`
}

// ItemResponse is the wire form of a ledger item.
type ItemResponse struct {
	ItemID         uint64 `json:"item_id"`
	Description    string `json:"description"`
	StartingPrice  string `json:"starting_price"`
	ReserveAuction bool   `json:"reserve_auction"`
	Seller         string `json:"seller"`
	State          string `json:"state"`
	Deadline       string `json:"deadline,omitempty"`
	Winner         string `json:"winner,omitempty"`
	HammerPrice    string `json:"hammer_price,omitempty"`
}

// BidResponse is the wire form of a bid in the log or the leading bid.
type BidResponse struct {
	ItemID   uint64 `json:"item_id"`
	Bidder   string `json:"bidder"`
	Amount   string `json:"amount"`
	Sequence uint64 `json:"sequence"`
	PlacedAt string `json:"placed_at"`
}

// LeadingBidResponse wraps the leading bid; Bid is null when the item has
// no bids yet.
type LeadingBidResponse struct {
	ItemID uint64       `json:"item_id"`
	Bid    *BidResponse `json:"bid"`
}

// BalanceResponse reports an account's credited (withdrawable) balance.
type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// WithdrawRequest debits the caller's credited balance.
type WithdrawRequest struct {
	Amount string `json:"amount"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ItemFromLedger converts a ledger item to its wire form.
func ItemFromLedger(item ledger.Item) ItemResponse {
	resp := ItemResponse{
		ItemID:         item.ID,
		Description:    item.Description,
		StartingPrice:  FormatAmount(item.StartingPrice),
		ReserveAuction: item.ReserveAuction,
		Seller:         item.Seller,
		State:          item.State.String(),
	}
	if !item.Deadline.IsZero() {
		resp.Deadline = item.Deadline.UTC().Format(time.RFC3339)
	}
	if item.State == ledger.StateFinalized {
		resp.Winner = item.Winner
		resp.HammerPrice = FormatAmount(item.HammerPrice)
	}
	return resp
}

// BidFromLedger converts a ledger bid to its wire form.
func BidFromLedger(bid ledger.Bid) BidResponse {
	return BidResponse{
		ItemID:   bid.ItemID,
		Bidder:   bid.Bidder,
		Amount:   FormatAmount(bid.Amount),
		Sequence: bid.Sequence,
		PlacedAt: bid.PlacedAt.UTC().Format(time.RFC3339),
	}
}
