package ledger

import "fmt"

// PlaceBid records a bid of amount on itemID by bidder. The amount is the
// value attached to the bid and is taken into the ledger's escrow when the
// bid is accepted; the previously leading bidder, if any, is refunded to
// their credited balance in the same atomic step, so no account ever has two
// escrowed bids outstanding on one item.
//
// Acceptance rules: the bidder must hold RoleBidder, the item must be Active
// and before its deadline, and the amount must strictly exceed the current
// leading bid. With no prior bid the amount must meet the starting price,
// except on reserve auctions where any positive opening bid is accepted.
func (l *Ledger) PlaceBid(bidder string, itemID uint64, amount Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRole(RoleBidder, bidder); err != nil {
		return fmt.Errorf("place bid: %w", err)
	}
	item, err := l.item(itemID)
	if err != nil {
		return fmt.Errorf("place bid: %w", err)
	}
	if item.State != StateActive {
		return fmt.Errorf("place bid on item %d (%s): %w", itemID, item.State, ErrAuctionNotActive)
	}
	if !item.Deadline.IsZero() && l.clock().After(item.Deadline) {
		return fmt.Errorf("place bid on item %d past deadline: %w", itemID, ErrAuctionNotActive)
	}

	prev, hasPrev := l.leadingBid(itemID)
	if hasPrev {
		if amount <= prev.Amount {
			return fmt.Errorf("bid %d does not beat leading bid %d: %w", amount, prev.Amount, ErrBidTooLow)
		}
	} else {
		floor := item.StartingPrice
		if item.ReserveAuction {
			floor = 1
		}
		if amount < floor {
			return fmt.Errorf("opening bid %d below %d: %w", amount, floor, ErrBidTooLow)
		}
	}

	// Validate the refund credit before mutating anything.
	if hasPrev {
		if _, err := checkedAdd(l.balances[prev.Bidder], prev.Amount); err != nil {
			return fmt.Errorf("refund previous leader %s: %w", prev.Bidder, err)
		}
	}

	log := l.bidLogs[itemID]
	bid := Bid{
		ItemID:   itemID,
		Bidder:   bidder,
		Amount:   amount,
		Sequence: uint64(len(log)),
		PlacedAt: l.clock(),
	}

	if hasPrev {
		// checked above, cannot fail here
		l.balances[prev.Bidder] += prev.Amount
		l.emit(EventBidRefunded, Event{ItemID: itemID, Bidder: prev.Bidder, Amount: prev.Amount})
	}

	l.bidLogs[itemID] = append(log, bid)
	l.leading[itemID] = int(bid.Sequence)
	l.escrow[itemID] = amount

	l.emit(EventBidAccepted, Event{ItemID: itemID, Bidder: bidder, Amount: amount})
	return nil
}

// GetLeadingBid returns the current leading bid for itemID. The second
// return is false when the item has no bids yet.
func (l *Ledger) GetLeadingBid(itemID uint64) (Bid, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.item(itemID); err != nil {
		return Bid{}, false, err
	}
	bid, ok := l.leadingBid(itemID)
	return bid, ok, nil
}

// BidHistory returns the item's full append-only bid log, superseded bids
// included, in acceptance order.
func (l *Ledger) BidHistory(itemID uint64) ([]Bid, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.item(itemID); err != nil {
		return nil, err
	}
	log := l.bidLogs[itemID]
	out := make([]Bid, len(log))
	copy(out, log)
	return out, nil
}

// Escrowed returns the amount currently held in escrow for itemID.
func (l *Ledger) Escrowed(itemID uint64) (Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.item(itemID); err != nil {
		return 0, err
	}
	return l.escrow[itemID], nil
}

func (l *Ledger) leadingBid(itemID uint64) (Bid, bool) {
	idx, ok := l.leading[itemID]
	if !ok {
		return Bid{}, false
	}
	return l.bidLogs[itemID][idx], true
}
