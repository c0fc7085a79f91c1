// Package ledger implements a deterministic auction ledger: role-gated item
// listing, escrowed bidding with an append-only bid log, and one-shot
// settlement of the winning amount to the seller.
//
// The ledger is a single-writer state machine. Every mutating operation runs
// to completion under one mutex, validates fully before touching state, and
// either applies all of its effects or none of them. Value enters the ledger
// at bid time (the bid amount is taken into escrow), leaves it through
// Withdraw, and in between is tracked as per-item escrow plus per-account
// credited balances.
package ledger

import (
	"fmt"
	"sync"
	"time"
)

// Clock supplies the current time. Injected so tests can drive deadlines
// deterministically.
type Clock func() time.Time

// Ledger holds all auction state: role membership, items, bid logs, escrow
// and credited balances.
type Ledger struct {
	mu    sync.Mutex
	clock Clock
	sink  EventSink

	admin    string
	roles    map[Role]map[string]struct{}
	items    []*Item
	bidLogs  map[uint64][]Bid
	leading  map[uint64]int // index of the leading bid in bidLogs[itemID]
	escrow   map[uint64]Amount
	balances map[string]Amount
}

// New creates an empty ledger. The admin account receives RoleAdmin and is
// the only account that can grant roles. A nil clock defaults to time.Now
// and a nil sink discards events.
func New(admin string, clock Clock, sink EventSink) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	if sink == nil {
		sink = discardSink{}
	}
	l := &Ledger{
		clock:    clock,
		sink:     sink,
		admin:    admin,
		roles:    make(map[Role]map[string]struct{}),
		bidLogs:  make(map[uint64][]Bid),
		leading:  make(map[uint64]int),
		escrow:   make(map[uint64]Amount),
		balances: make(map[string]Amount),
	}
	l.addRole(RoleAdmin, admin)
	return l
}

// Admin returns the account holding the ledger's admin capability.
func (l *Ledger) Admin() string {
	return l.admin
}

// GrantRole adds account to role's member set. Only an admin may grant
// roles. Granting a role an account already holds is a no-op.
func (l *Ledger) GrantRole(caller string, role Role, account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRole(RoleAdmin, caller); err != nil {
		return fmt.Errorf("grant %s: %w", role, err)
	}
	if l.hasRole(role, account) {
		return nil
	}
	l.addRole(role, account)
	l.emit(EventRoleGranted, Event{Role: role, Account: account})
	return nil
}

// HasRole reports whether account is a member of role.
func (l *Ledger) HasRole(role Role, account string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasRole(role, account)
}

func (l *Ledger) hasRole(role Role, account string) bool {
	_, ok := l.roles[role][account]
	return ok
}

func (l *Ledger) addRole(role Role, account string) {
	members, ok := l.roles[role]
	if !ok {
		members = make(map[string]struct{})
		l.roles[role] = members
	}
	members[account] = struct{}{}
}

// requireRole is the guard composed into every gated operation's entry path.
func (l *Ledger) requireRole(role Role, account string) error {
	if !l.hasRole(role, account) {
		return fmt.Errorf("account %s lacks %s: %w", account, role, ErrUnauthorized)
	}
	return nil
}

// Balance returns the account's credited (withdrawable) balance. Escrowed
// bid amounts are not part of it until refunded or settled.
func (l *Ledger) Balance(account string) Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Withdraw debits amount from the account's credited balance. The external
// value transfer itself happens outside the ledger; this only releases the
// claim.
func (l *Ledger) Withdraw(account string, amount Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[account]
	if amount > balance {
		return fmt.Errorf("withdraw %d from %s (balance %d): %w", amount, account, balance, ErrInsufficientBalance)
	}
	l.balances[account] = balance - amount
	l.emit(EventWithdrawal, Event{Account: account, Amount: amount})
	return nil
}

// credit adds amount to the account's balance, overflow-checked.
func (l *Ledger) credit(account string, amount Amount) error {
	total, err := checkedAdd(l.balances[account], amount)
	if err != nil {
		return fmt.Errorf("credit %d to %s: %w", amount, account, err)
	}
	l.balances[account] = total
	return nil
}
