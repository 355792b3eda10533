package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowonarc/internal/model"
)

func TestStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"totalTransactions": 1234,
			"totalVolume": 56789.5,
			"swaps": 600, "supplies": 300, "withdraws": 150,
			"borrows": 100, "repays": 50, "claims": 34,
			"lastUpdated": "2026-01-02T03:04:05Z"
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTransactions != 1234 {
		t.Fatalf("transactions = %d", stats.TotalTransactions)
	}
	if stats.TotalVolumeUSD != 56789.5 {
		t.Fatalf("volume = %f", stats.TotalVolumeUSD)
	}
	if stats.Breakdown.Swaps != 600 || stats.Breakdown.Claims != 34 {
		t.Fatalf("breakdown = %+v", stats.Breakdown)
	}
	if stats.LastUpdated.IsZero() {
		t.Fatalf("lastUpdated not parsed")
	}
}

func TestTransactionsQueryAndPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "20" || q.Get("offset") != "40" || q.Get("type") != "swap" {
			t.Fatalf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{
			"transactions": [
				{"tx_hash": "0xabc", "tx_type": "swap", "wallet_address": "0x1",
				 "token_symbol": "CAT", "amount": "400", "amount_usd": 6.0,
				 "timestamp": "2026-01-02T03:04:05Z"}
			],
			"total": 321, "limit": 20, "offset": 40
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	page, err := client.Transactions(context.Background(), 20, 40, "swap")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if page.Total != 321 || page.Limit != 20 || page.Offset != 40 {
		t.Fatalf("page = %+v", page)
	}
	if page.Source != model.SourceBackend {
		t.Fatalf("source = %s", page.Source)
	}
	if len(page.Transactions) != 1 {
		t.Fatalf("records = %d", len(page.Transactions))
	}
	rec := page.Transactions[0]
	if rec.Hash != "0xabc" || rec.Type != "swap" || rec.AmountUSD != 6.0 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Fatalf("timestamp not parsed")
	}
}

func TestTransactionsOmitsEmptyTypeFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("type") {
			t.Fatalf("type param should be absent, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"transactions": [], "total": 0, "limit": 50, "offset": 0}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	if _, err := client.Transactions(context.Background(), 50, 0, ""); err != nil {
		t.Fatalf("transactions: %v", err)
	}
}

func TestWalletTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/transactions/wallet/0xCAFE" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"transactions": [{"tx_hash": "0x1"}, {"tx_hash": "0x2"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	records, err := client.WalletTransactions(context.Background(), "0xCAFE", 20)
	if err != nil {
		t.Fatalf("wallet transactions: %v", err)
	}
	if len(records) != 2 || records[1].Hash != "0x2" {
		t.Fatalf("records = %+v", records)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "healthy", "database": "connected", "indexer": "running"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !health.Healthy || health.Database != "connected" {
		t.Fatalf("health = %+v", health)
	}
}

func TestNon2xxIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Stats(context.Background())
	if !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
}

func TestUnreachableBackendIsNetworkError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)
	_, err := client.Stats(context.Background())
	if !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
}
