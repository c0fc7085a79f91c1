package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledger"
	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledgerapi"
)

// LedgerServer exposes the auction ledger over HTTP. Caller identity comes
// from the X-Account header; the ledger enforces all role checks.
type LedgerServer struct {
	ledger    *ledger.Ledger
	snapshots *SnapshotFile
}

func NewLedgerServer(l *ledger.Ledger, snapshots *SnapshotFile) *LedgerServer {
	return &LedgerServer{ledger: l, snapshots: snapshots}
}

func (s *LedgerServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/roles/grant", s.handleGrantRole).Methods(http.MethodPost)
	r.HandleFunc("/v1/accounts/{account}/roles/{role}", s.handleHasRole).Methods(http.MethodGet)
	r.HandleFunc("/v1/accounts/{account}/balance", s.handleBalance).Methods(http.MethodGet)
	r.HandleFunc("/v1/accounts/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	r.HandleFunc("/v1/items", s.handleListItem).Methods(http.MethodPost)
	r.HandleFunc("/v1/items/{id}", s.handleGetItem).Methods(http.MethodGet)
	r.HandleFunc("/v1/items/{id}/bids", s.handlePlaceBid).Methods(http.MethodPost)
	r.HandleFunc("/v1/items/{id}/bids", s.handleBidHistory).Methods(http.MethodGet)
	r.HandleFunc("/v1/items/{id}/bids/leading", s.handleLeadingBid).Methods(http.MethodGet)
	r.HandleFunc("/v1/items/{id}/finalize", s.handleFinalize).Methods(http.MethodPost)
	return r
}

func (s *LedgerServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

func (s *LedgerServer) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerapi.GrantRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.ledger.GrantRole(caller, ledger.Role(req.Role), req.Account); err != nil {
		writeLedgerError(w, err)
		return
	}
	s.persist()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *LedgerServer) handleHasRole(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	has := s.ledger.HasRole(ledger.Role(vars["role"]), vars["account"])
	writeJSON(w, http.StatusOK, map[string]bool{"has_role": has})
}

func (s *LedgerServer) handleListItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerapi.ListItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	startingPrice, err := ledgerapi.ParseAmount(req.StartingPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.DurationSeconds < 0 {
		writeError(w, http.StatusBadRequest, errors.New("duration_seconds must not be negative"))
		return
	}

	id, err := s.ledger.ListItem(caller, req.Description, startingPrice, req.ReserveAuction, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.persist()
	writeJSON(w, http.StatusCreated, ledgerapi.ListItemResponse{ItemID: id})
}

func (s *LedgerServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	item, err := s.ledger.GetItem(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerapi.ItemFromLedger(item))
}

func (s *LedgerServer) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req ledgerapi.PlaceBidRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := ledgerapi.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.ledger.PlaceBid(caller, id, amount); err != nil {
		writeLedgerError(w, err)
		return
	}
	s.persist()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *LedgerServer) handleBidHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	history, err := s.ledger.BidHistory(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	bids := make([]ledgerapi.BidResponse, len(history))
	for i, bid := range history {
		bids[i] = ledgerapi.BidFromLedger(bid)
	}
	writeJSON(w, http.StatusOK, bids)
}

func (s *LedgerServer) handleLeadingBid(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	bid, hasBid, err := s.ledger.GetLeadingBid(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	resp := ledgerapi.LeadingBidResponse{ItemID: id}
	if hasBid {
		wire := ledgerapi.BidFromLedger(bid)
		resp.Bid = &wire
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *LedgerServer) handleFinalize(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.FinalizeAuction(caller, id); err != nil {
		writeLedgerError(w, err)
		return
	}
	s.persist()

	item, err := s.ledger.GetItem(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerapi.ItemFromLedger(item))
}

func (s *LedgerServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	balance := s.ledger.Balance(account)
	writeJSON(w, http.StatusOK, ledgerapi.BalanceResponse{
		Account: account,
		Balance: ledgerapi.FormatAmount(balance),
	})
}

func (s *LedgerServer) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req ledgerapi.WithdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := ledgerapi.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.Withdraw(caller, amount); err != nil {
		writeLedgerError(w, err)
		return
	}
	s.persist()
	writeJSON(w, http.StatusNoContent, nil)
}

// persist saves a snapshot after a successful mutation. Snapshot failures
// are logged, not surfaced: the mutation has already been applied.
func (s *LedgerServer) persist() {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(s.ledger); err != nil {
		log.Printf("ERROR: Failed to save ledger snapshot: %v", err)
	}
}

func callerAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	account := r.Header.Get(ledgerapi.AccountHeader)
	if account == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing "+ledgerapi.AccountHeader+" header"))
		return "", false
	}
	return account, true
}

func itemID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid item id"))
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ledgerapi.ErrorResponse{Error: err.Error()})
}

// writeLedgerError maps the ledger's error taxonomy onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrAuctionNotActive),
		errors.Is(err, ledger.ErrNoBids),
		errors.Is(err, ledger.ErrInsufficientBalance):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrBidTooLow),
		errors.Is(err, ledger.ErrInvalidItem),
		errors.Is(err, ledger.ErrOverflow):
		status = http.StatusBadRequest
	}
	writeError(w, status, err)
}
