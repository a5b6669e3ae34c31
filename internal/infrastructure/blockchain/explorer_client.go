package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"wallet-persona-engine/internal/domain/entity"
	"wallet-persona-engine/internal/domain/service"
	"wallet-persona-engine/internal/infrastructure/config"
	"wallet-persona-engine/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ExplorerClient implements TransactionFetcher against a blockchain
// explorer HTTP API that serves a wallet's labeled transaction history.
type ExplorerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

// Ensure ExplorerClient implements the TransactionFetcher interface
var _ service.TransactionFetcher = (*ExplorerClient)(nil)

// NewExplorerClient creates a new explorer client
func NewExplorerClient(cfg *config.ExplorerConfig, logger *logger.Logger) *ExplorerClient {
	return &ExplorerClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.WithComponent("explorer-client"),
	}
}

// explorerResponse is the explorer API envelope for a transaction listing.
type explorerResponse struct {
	WalletAddress string                  `json:"wallet_address"`
	Transactions  []entity.RawTransaction `json:"transactions"`
}

// FetchTransactions returns the raw transaction records for a wallet
func (c *ExplorerClient) FetchTransactions(ctx context.Context, walletAddress string) ([]entity.RawTransaction, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("explorer base URL is not configured")
	}

	endpoint := fmt.Sprintf("%s/api/v1/wallets/%s/transactions", c.baseURL, url.PathEscape(walletAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build explorer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	c.logger.Debug("Fetching wallet transactions from explorer",
		zap.String("wallet_address", walletAddress))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("explorer returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload explorerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode explorer response: %w", err)
	}

	c.logger.Debug("Fetched wallet transactions",
		zap.String("wallet_address", walletAddress),
		zap.Int("count", len(payload.Transactions)))

	return payload.Transactions, nil
}
