package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledger"
	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledgerapi"
)

func newTestServer(t *testing.T) (*LedgerServer, *httptest.Server) {
	t.Helper()
	srv := NewLedgerServer(ledger.New("owner", nil, nil), nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, account string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.Nil(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	assert.Nil(t, err)
	if account != "" {
		req.Header.Set(ledgerapi.AccountHeader, account)
	}
	resp, err := http.DefaultClient.Do(req)
	assert.Nil(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	assert.Nil(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHTTP_FullAuctionFlow(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/v1/roles/grant", "owner",
		ledgerapi.GrantRoleRequest{Role: string(ledger.RoleAuctioneer), Account: "owner"})
	check.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, ts, http.MethodPost, "/v1/items", "owner", ledgerapi.ListItemRequest{
		Description:   "Painting",
		StartingPrice: "1",
	})
	check.Equal(t, http.StatusCreated, resp.StatusCode)
	listed := decodeBody[ledgerapi.ListItemResponse](t, resp)
	check.Equal(t, uint64(0), listed.ItemID)

	resp = doRequest(t, ts, http.MethodPost, "/v1/roles/grant", "owner",
		ledgerapi.GrantRoleRequest{Role: string(ledger.RoleBidder), Account: "addr1"})
	check.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, ts, http.MethodPost, "/v1/items/0/bids", "addr1",
		ledgerapi.PlaceBidRequest{Amount: "2"})
	check.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, ts, http.MethodGet, "/v1/items/0/bids/leading", "", nil)
	check.Equal(t, http.StatusOK, resp.StatusCode)
	leading := decodeBody[ledgerapi.LeadingBidResponse](t, resp)
	assert.NotNil(t, leading.Bid)
	check.Equal(t, "addr1", leading.Bid.Bidder)
	check.Equal(t, "2", leading.Bid.Amount)

	resp = doRequest(t, ts, http.MethodPost, "/v1/items/0/finalize", "owner", nil)
	check.Equal(t, http.StatusOK, resp.StatusCode)
	item := decodeBody[ledgerapi.ItemResponse](t, resp)
	check.Equal(t, "finalized", item.State)
	check.Equal(t, "addr1", item.Winner)
	check.Equal(t, "2", item.HammerPrice)

	// Seller balance increased by exactly the winning amount.
	resp = doRequest(t, ts, http.MethodGet, "/v1/accounts/owner/balance", "", nil)
	check.Equal(t, http.StatusOK, resp.StatusCode)
	balance := decodeBody[ledgerapi.BalanceResponse](t, resp)
	check.Equal(t, "2", balance.Balance)

	resp = doRequest(t, ts, http.MethodPost, "/v1/accounts/withdraw", "owner",
		ledgerapi.WithdrawRequest{Amount: "1.5"})
	check.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, ts, http.MethodGet, "/v1/accounts/owner/balance", "", nil)
	balance = decodeBody[ledgerapi.BalanceResponse](t, resp)
	check.Equal(t, "0.5", balance.Balance)
}

func TestHTTP_ErrorStatuses(t *testing.T) {
	_, ts := newTestServer(t)

	// Missing caller header.
	resp := doRequest(t, ts, http.MethodPost, "/v1/items", "", ledgerapi.ListItemRequest{
		Description:   "Painting",
		StartingPrice: "1",
	})
	check.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Caller without AUCTIONEER role.
	resp = doRequest(t, ts, http.MethodPost, "/v1/items", "mallory", ledgerapi.ListItemRequest{
		Description:   "Painting",
		StartingPrice: "1",
	})
	check.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Negative starting price is rejected at parse time.
	doRequest(t, ts, http.MethodPost, "/v1/roles/grant", "owner",
		ledgerapi.GrantRoleRequest{Role: string(ledger.RoleAuctioneer), Account: "owner"})
	resp = doRequest(t, ts, http.MethodPost, "/v1/items", "owner", ledgerapi.ListItemRequest{
		Description:   "Painting",
		StartingPrice: "-1",
	})
	check.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown item.
	resp = doRequest(t, ts, http.MethodGet, "/v1/items/42", "", nil)
	check.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Finalizing with no bids conflicts.
	resp = doRequest(t, ts, http.MethodPost, "/v1/items", "owner", ledgerapi.ListItemRequest{
		Description:   "Painting",
		StartingPrice: "1",
	})
	check.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = doRequest(t, ts, http.MethodPost, "/v1/items/0/finalize", "owner", nil)
	check.Equal(t, http.StatusConflict, resp.StatusCode)

	// Underbid.
	doRequest(t, ts, http.MethodPost, "/v1/roles/grant", "owner",
		ledgerapi.GrantRoleRequest{Role: string(ledger.RoleBidder), Account: "addr1"})
	resp = doRequest(t, ts, http.MethodPost, "/v1/items/0/bids", "addr1",
		ledgerapi.PlaceBidRequest{Amount: "0.5"})
	check.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[ledgerapi.ErrorResponse](t, resp)
	check.True(t, body.Error != "")
}

func TestHTTP_LeadingBidNullWhenNoBids(t *testing.T) {
	_, ts := newTestServer(t)

	doRequest(t, ts, http.MethodPost, "/v1/roles/grant", "owner",
		ledgerapi.GrantRoleRequest{Role: string(ledger.RoleAuctioneer), Account: "owner"})
	doRequest(t, ts, http.MethodPost, "/v1/items", "owner", ledgerapi.ListItemRequest{
		Description:   "Painting",
		StartingPrice: "1",
	})

	resp := doRequest(t, ts, http.MethodGet, "/v1/items/0/bids/leading", "", nil)
	check.Equal(t, http.StatusOK, resp.StatusCode)
	leading := decodeBody[ledgerapi.LeadingBidResponse](t, resp)
	check.Nil(t, leading.Bid)
}

func TestHTTP_HasRole(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/v1/accounts/owner/roles/ADMIN_ROLE", "", nil)
	check.Equal(t, http.StatusOK, resp.StatusCode)
	has := decodeBody[map[string]bool](t, resp)
	check.True(t, has["has_role"])

	resp = doRequest(t, ts, http.MethodGet, "/v1/accounts/mallory/roles/BIDDER_ROLE", "", nil)
	has = decodeBody[map[string]bool](t, resp)
	check.False(t, has["has_role"])
}

func TestSnapshotFile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "ledger.cbor")
	snapshots := NewSnapshotFile(path)

	// No snapshot yet.
	restored, err := snapshots.Load(nil)
	check.Nil(t, err)
	check.Nil(t, restored)

	l := ledger.New("owner", nil, nil)
	assert.Nil(t, l.GrantRole("owner", ledger.RoleAuctioneer, "owner"))
	_, err = l.ListItem("owner", "Painting", 100, false, 0)
	assert.Nil(t, err)
	assert.Nil(t, snapshots.Save(l))

	restored, err = snapshots.Load(nil)
	assert.Nil(t, err)
	assert.NotNil(t, restored)
	item, err := restored.GetItem(0)
	check.Nil(t, err)
	check.Equal(t, "Painting", item.Description)
}

func TestLimitInFlight_RejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	busy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
	})

	ts := httptest.NewServer(limitInFlight(busy, 1))
	defer ts.Close()

	errc := make(chan error, 1)
	go func() {
		resp, err := http.Get(ts.URL)
		if resp != nil {
			resp.Body.Close()
		}
		errc <- err
	}()
	<-started

	// Pool of 1 is occupied: the second request is rejected immediately.
	resp, err := http.Get(ts.URL)
	assert.Nil(t, err)
	defer resp.Body.Close()
	check.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	close(release)
	check.Nil(t, <-errc)
}
