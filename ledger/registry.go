package ledger

import (
	"fmt"
	"time"
)

// ListItem creates a new auction lot and opens it for bidding immediately.
// The caller must hold RoleAuctioneer and becomes the lot's seller. Ids are
// assigned sequentially starting at 0. A duration of 0 means the auction has
// no bidding deadline; otherwise bids are accepted until ListedAt+duration.
//
// For a reserve auction the starting price acts as the reserve: any positive
// opening bid is accepted, but finalization below the reserve cancels and
// refunds instead of settling.
func (l *Ledger) ListItem(caller, description string, startingPrice Amount, reserveAuction bool, duration time.Duration) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRole(RoleAuctioneer, caller); err != nil {
		return 0, fmt.Errorf("list item: %w", err)
	}
	if description == "" {
		return 0, fmt.Errorf("list item: empty description: %w", ErrInvalidItem)
	}

	now := l.clock()
	item := &Item{
		ID:             uint64(len(l.items)),
		Description:    description,
		StartingPrice:  startingPrice,
		ReserveAuction: reserveAuction,
		Seller:         caller,
		ListedAt:       now,
		State:          StateActive,
	}
	if duration > 0 {
		item.Deadline = now.Add(duration)
	}
	l.items = append(l.items, item)

	l.emit(EventItemListed, Event{ItemID: item.ID, Seller: caller, Amount: startingPrice})
	return item.ID, nil
}

// GetItem returns a copy of the item with the given id.
func (l *Ledger) GetItem(itemID uint64) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, err := l.item(itemID)
	if err != nil {
		return Item{}, err
	}
	return *item, nil
}

func (l *Ledger) item(itemID uint64) (*Item, error) {
	if itemID >= uint64(len(l.items)) {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return l.items[itemID], nil
}
