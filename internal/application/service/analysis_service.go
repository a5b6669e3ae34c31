package service

import (
	"context"
	"fmt"
	"time"

	"wallet-persona-engine/internal/domain/entity"
	"wallet-persona-engine/internal/domain/repository"
	"wallet-persona-engine/internal/domain/service"
	"wallet-persona-engine/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// PersonaAnalysisApplicationService implements PersonaAnalysisService. It
// wraps the pure analysis pipeline with validation, caching and
// persistence; the cache, repository and fetcher are optional and may be
// nil when the corresponding backend is disabled.
type PersonaAnalysisApplicationService struct {
	validator   *service.TransactionValidator
	analyzer    *service.PersonaAnalyzer
	cache       repository.PersonaCache
	personaRepo repository.PersonaRepository
	fetcher     service.TransactionFetcher
	logger      *logger.Logger
}

// NewPersonaAnalysisApplicationService creates a new persona analysis application service
func NewPersonaAnalysisApplicationService(
	validator *service.TransactionValidator,
	analyzer *service.PersonaAnalyzer,
	cache repository.PersonaCache,
	personaRepo repository.PersonaRepository,
	fetcher service.TransactionFetcher,
	logger *logger.Logger,
) service.PersonaAnalysisService {
	return &PersonaAnalysisApplicationService{
		validator:   validator,
		analyzer:    analyzer,
		cache:       cache,
		personaRepo: personaRepo,
		fetcher:     fetcher,
		logger:      logger.WithComponent("analysis-service"),
	}
}

// AnalyzeWallet validates the raw records, runs the pipeline against a
// single captured evaluation instant, then stores the result.
func (s *PersonaAnalysisApplicationService) AnalyzeWallet(ctx context.Context, walletAddress string, raw []entity.RawTransaction) (*entity.PersonaResult, error) {
	s.logger.Info("Analyzing wallet",
		zap.String("wallet_address", walletAddress),
		zap.Int("transaction_count", len(raw)))

	transactions, err := s.validator.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to validate transactions: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.analyzer.Analyze(walletAddress, transactions, now)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze wallet %s: %w", walletAddress, err)
	}

	s.storePersona(ctx, result, now, len(transactions))

	s.logger.Info("Successfully analyzed wallet",
		zap.String("wallet_address", walletAddress),
		zap.String("persona_title", result.PersonaTitle))
	return result, nil
}

// GetPersona checks the cache first, then the datastore.
func (s *PersonaAnalysisApplicationService) GetPersona(ctx context.Context, walletAddress string) (*entity.PersonaResult, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, walletAddress)
		if err != nil {
			s.logger.Warn("Persona cache lookup failed",
				zap.String("wallet_address", walletAddress),
				zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	if s.personaRepo != nil {
		record, err := s.personaRepo.GetPersona(ctx, walletAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to load persona for %s: %w", walletAddress, err)
		}
		if record != nil {
			return &record.PersonaResult, nil
		}
	}

	return nil, service.ErrPersonaNotFound
}

// RefreshPersona pulls the wallet's history from the explorer and re-runs
// the analysis.
func (s *PersonaAnalysisApplicationService) RefreshPersona(ctx context.Context, walletAddress string) (*entity.PersonaResult, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("explorer fetching is disabled, cannot refresh persona for %s", walletAddress)
	}

	raw, err := s.fetcher.FetchTransactions(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for %s: %w", walletAddress, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, walletAddress); err != nil {
			s.logger.Warn("Failed to invalidate cached persona",
				zap.String("wallet_address", walletAddress),
				zap.Error(err))
		}
	}

	return s.AnalyzeWallet(ctx, walletAddress, raw)
}

// storePersona writes the result to the cache and datastore. Storage
// failures are logged, not returned; the analysis itself succeeded.
func (s *PersonaAnalysisApplicationService) storePersona(ctx context.Context, result *entity.PersonaResult, analyzedAt time.Time, totalTransactions int) {
	if s.cache != nil {
		if err := s.cache.Set(ctx, result); err != nil {
			s.logger.Warn("Failed to cache persona result",
				zap.String("wallet_address", result.WalletAddress),
				zap.Error(err))
		}
	}

	if s.personaRepo != nil {
		record := &entity.PersonaRecord{
			PersonaResult:     *result,
			AnalyzedAt:        analyzedAt,
			TotalTransactions: totalTransactions,
		}
		if err := s.personaRepo.SavePersona(ctx, record); err != nil {
			s.logger.Warn("Failed to persist persona result",
				zap.String("wallet_address", result.WalletAddress),
				zap.Error(err))
		}
	}
}
