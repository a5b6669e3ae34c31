package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	app_service "wallet-persona-engine/internal/application/service"
	"wallet-persona-engine/internal/domain/service"
	http_handler "wallet-persona-engine/internal/handlers/http"
	"wallet-persona-engine/internal/infrastructure/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log, err := logger.NewLogger("development", "error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	analysisService := app_service.NewPersonaAnalysisApplicationService(
		service.NewTransactionValidator(),
		service.NewPersonaAnalyzer(),
		nil, nil, nil,
		log,
	)

	server := http_handler.NewServer(0, analysisService, log)
	return httptest.NewServer(server.Handler())
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	body := `{
		"walletAddress": "0xabc",
		"transactions": [
			{"hash": "0x1", "timestamp": "2024-02-01T10:00:00Z", "type": "swap", "details": {"protocol": "Uniswap"}},
			{"hash": "0x2", "timestamp": "2024-02-02T10:00:00Z", "type": "nft_mint", "details": {"protocol": "OpenSea"}}
		]
	}`

	resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("expected a request id header")
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["walletAddress"] != "0xabc" {
		t.Errorf("expected wallet address in response, got %v", result["walletAddress"])
	}
	if result["personaTitle"] == "" {
		t.Error("expected a persona title in response")
	}
}

func TestAnalyzeEndpointRejectsInvalidTransactions(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	body := `{
		"walletAddress": "0xabc",
		"transactions": [
			{"hash": "", "timestamp": "not-a-date", "type": "teleport"}
		]
	}`

	resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var payload struct {
		Violations []string `json:"violations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Violations) != 3 {
		t.Errorf("expected 3 violations listed, got %v", payload.Violations)
	}
}

func TestAnalyzeEndpointRejectsMissingWallet(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json", strings.NewReader(`{"transactions": []}`))
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetPersonaNotFound(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/personas/0xmissing")
	if err != nil {
		t.Fatalf("persona request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
