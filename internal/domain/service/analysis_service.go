package service

import (
	"context"
	"errors"

	"wallet-persona-engine/internal/domain/entity"
)

// ErrPersonaNotFound is returned when no analyzed persona exists for a
// wallet in the cache or datastore.
var ErrPersonaNotFound = errors.New("persona not found")

// PersonaAnalysisService defines the interface for persona analysis operations
type PersonaAnalysisService interface {
	// AnalyzeWallet validates raw transactions, runs the analysis pipeline
	// and stores the result
	AnalyzeWallet(ctx context.Context, walletAddress string, raw []entity.RawTransaction) (*entity.PersonaResult, error)

	// GetPersona retrieves a previously analyzed persona from cache or store
	GetPersona(ctx context.Context, walletAddress string) (*entity.PersonaResult, error)

	// RefreshPersona fetches the wallet's transactions from the explorer
	// and re-runs the analysis
	RefreshPersona(ctx context.Context, walletAddress string) (*entity.PersonaResult, error)
}

// TransactionFetcher defines the interface for retrieving a wallet's raw
// transaction history from an external explorer source.
type TransactionFetcher interface {
	// FetchTransactions returns the raw transaction records for a wallet
	FetchTransactions(ctx context.Context, walletAddress string) ([]entity.RawTransaction, error)
}
