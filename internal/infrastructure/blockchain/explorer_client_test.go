package blockchain_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-persona-engine/internal/infrastructure/blockchain"
	"wallet-persona-engine/internal/infrastructure/config"
	"wallet-persona-engine/internal/infrastructure/logger"
)

func newExplorerClient(t *testing.T, baseURL string) *blockchain.ExplorerClient {
	t.Helper()
	log, err := logger.NewLogger("development", "error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return blockchain.NewExplorerClient(&config.ExplorerConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
		Enabled: true,
	}, log)
}

func TestFetchTransactions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/wallets/0xabc/transactions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("expected API key header, got %q", r.Header.Get("X-API-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"wallet_address": "0xabc",
			"transactions": [
				{"hash": "0x1", "timestamp": "2024-02-01T10:00:00Z", "type": "swap", "details": {"protocol": "Uniswap"}}
			]
		}`))
	}))
	defer ts.Close()

	client := newExplorerClient(t, ts.URL)

	transactions, err := client.FetchTransactions(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(transactions))
	}
	if transactions[0].Hash != "0x1" || transactions[0].Type != "swap" {
		t.Errorf("unexpected transaction %+v", transactions[0])
	}
}

func TestFetchTransactionsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := newExplorerClient(t, ts.URL)

	if _, err := client.FetchTransactions(context.Background(), "0xabc"); err == nil {
		t.Error("expected an error for non-200 response")
	}
}

func TestFetchTransactionsWithoutBaseURL(t *testing.T) {
	client := newExplorerClient(t, "")

	if _, err := client.FetchTransactions(context.Background(), "0xabc"); err == nil {
		t.Error("expected an error when the base URL is not configured")
	}
}
