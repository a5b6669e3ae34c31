package repository

import (
	"context"

	"wallet-persona-engine/internal/domain/entity"
)

// PersonaRepository defines the interface for persona persistence
type PersonaRepository interface {
	// SavePersona stores an analyzed persona with its metadata
	SavePersona(ctx context.Context, record *entity.PersonaRecord) error

	// GetPersona retrieves the stored persona for a wallet
	GetPersona(ctx context.Context, walletAddress string) (*entity.PersonaRecord, error)

	// GetWalletsByTitle retrieves wallets sharing a persona title
	GetWalletsByTitle(ctx context.Context, title string, limit int) ([]string, error)

	// GetTopProtocols retrieves protocols ranked by how many stored
	// personas use them
	GetTopProtocols(ctx context.Context, limit int) ([]string, error)
}

// PersonaCache defines the interface for short-lived persona result caching
type PersonaCache interface {
	// Get retrieves a cached persona result; a miss returns (nil, nil)
	Get(ctx context.Context, walletAddress string) (*entity.PersonaResult, error)

	// Set stores a persona result under the wallet address
	Set(ctx context.Context, result *entity.PersonaResult) error

	// Invalidate removes a wallet's cached result
	Invalidate(ctx context.Context, walletAddress string) error
}
