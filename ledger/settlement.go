package ledger

import "fmt"

// FinalizeAuction settles itemID. The caller must hold RoleAuctioneer and
// the item must be Active; a repeated finalization fails with
// ErrAuctionNotActive and moves no funds. With no accepted bid the call
// fails with ErrNoBids.
//
// On settlement the escrowed leading amount is credited to the seller, the
// winner and hammer price are recorded and the item becomes Finalized, all
// as one atomic unit. On a reserve auction whose leading bid is below the
// starting price the escrow is refunded to the leading bidder instead and
// the item becomes Cancelled.
func (l *Ledger) FinalizeAuction(caller string, itemID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRole(RoleAuctioneer, caller); err != nil {
		return fmt.Errorf("finalize item %d: %w", itemID, err)
	}
	item, err := l.item(itemID)
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	if item.State != StateActive {
		return fmt.Errorf("finalize item %d (%s): %w", itemID, item.State, ErrAuctionNotActive)
	}
	winning, ok := l.leadingBid(itemID)
	if !ok {
		return fmt.Errorf("finalize item %d: %w", itemID, ErrNoBids)
	}

	if item.ReserveAuction && winning.Amount < item.StartingPrice {
		if err := l.credit(winning.Bidder, winning.Amount); err != nil {
			return fmt.Errorf("finalize item %d: %w", itemID, err)
		}
		delete(l.escrow, itemID)
		item.State = StateCancelled
		l.emit(EventAuctionCancelled, Event{ItemID: itemID, Bidder: winning.Bidder, Amount: winning.Amount})
		return nil
	}

	if err := l.credit(item.Seller, winning.Amount); err != nil {
		return fmt.Errorf("finalize item %d: %w", itemID, err)
	}
	delete(l.escrow, itemID)
	item.State = StateFinalized
	item.Winner = winning.Bidder
	item.HammerPrice = winning.Amount

	l.emit(EventAuctionFinalized, Event{
		ItemID: itemID,
		Bidder: winning.Bidder,
		Seller: item.Seller,
		Amount: winning.Amount,
	})
	return nil
}
