package ledger

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// snapshotState is the CBOR shape of a full ledger snapshot.
type snapshotState struct {
	Admin    string            `cbor:"admin"`
	Roles    map[Role][]string `cbor:"roles"`
	Items    []Item            `cbor:"items"`
	BidLogs  map[uint64][]Bid  `cbor:"bid_logs"`
	Leading  map[uint64]int    `cbor:"leading"`
	Escrow   map[uint64]Amount `cbor:"escrow"`
	Balances map[string]Amount `cbor:"balances"`
}

// Snapshot encodes the full ledger state as CBOR, suitable for Restore
// after a restart.
func (l *Ledger) Snapshot() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := snapshotState{
		Admin:    l.admin,
		Roles:    make(map[Role][]string, len(l.roles)),
		Items:    make([]Item, len(l.items)),
		BidLogs:  l.bidLogs,
		Leading:  l.leading,
		Escrow:   l.escrow,
		Balances: l.balances,
	}
	for role, members := range l.roles {
		accounts := make([]string, 0, len(members))
		for account := range members {
			accounts = append(accounts, account)
		}
		state.Roles[role] = accounts
	}
	for i, item := range l.items {
		state.Items[i] = *item
	}

	data, err := cbor.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Restore rebuilds a ledger from a Snapshot payload. Clock and sink follow
// the same defaulting rules as New.
func Restore(data []byte, clock Clock, sink EventSink) (*Ledger, error) {
	var state snapshotState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	l := New(state.Admin, clock, sink)
	for role, accounts := range state.Roles {
		for _, account := range accounts {
			l.addRole(role, account)
		}
	}
	l.items = make([]*Item, len(state.Items))
	for i := range state.Items {
		item := state.Items[i]
		l.items[i] = &item
	}
	if state.BidLogs != nil {
		l.bidLogs = state.BidLogs
	}
	if state.Leading != nil {
		l.leading = state.Leading
	}
	if state.Escrow != nil {
		l.escrow = state.Escrow
	}
	if state.Balances != nil {
		l.balances = state.Balances
	}
	return l, nil
}
