package database

import (
	"context"
	"fmt"
	"time"

	"wallet-persona-engine/internal/domain/entity"
	"wallet-persona-engine/internal/domain/repository"
	"wallet-persona-engine/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4JPersonaRepository implements PersonaRepository, persisting each
// persona as a Wallet node plus ranked USES_PROTOCOL relationships to
// Protocol nodes.
type Neo4JPersonaRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JPersonaRepository creates a new Neo4J persona repository
func NewNeo4JPersonaRepository(client *Neo4JClient, logger *logger.Logger) repository.PersonaRepository {
	return &Neo4JPersonaRepository{
		client: client,
		logger: logger.WithComponent("neo4j-persona-repo"),
	}
}

// SavePersona stores an analyzed persona, replacing the wallet's previous
// protocol relationships with the new ranking.
func (r *Neo4JPersonaRepository) SavePersona(ctx context.Context, record *entity.PersonaRecord) error {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MERGE (w:Wallet {address: $address})
		SET
			w.persona_title = $persona_title,
			w.summary = $summary,
			w.risk_appetite = $risk_appetite,
			w.loyalty = $loyalty,
			w.activity = $activity,
			w.key_traits = $key_traits,
			w.total_transactions = $total_transactions,
			w.analyzed_at = datetime($analyzed_at)
		WITH w
		OPTIONAL MATCH (w)-[old:USES_PROTOCOL]->(:Protocol)
		DELETE old
		WITH DISTINCT w
		UNWIND range(0, size($protocols) - 1) AS i
		MERGE (p:Protocol {name: $protocols[i]})
		MERGE (w)-[rel:USES_PROTOCOL]->(p)
		SET rel.rank = i
	`

	params := map[string]interface{}{
		"address":            record.WalletAddress,
		"persona_title":      record.PersonaTitle,
		"summary":            record.Summary,
		"risk_appetite":      record.Scores.RiskAppetite,
		"loyalty":            record.Scores.Loyalty,
		"activity":           record.Scores.Activity,
		"key_traits":         record.KeyTraits,
		"total_transactions": record.TotalTransactions,
		"analyzed_at":        record.AnalyzedAt.Format("2006-01-02T15:04:05.000Z"),
		"protocols":          record.NotableProtocols,
	}

	// UNWIND over an empty range would drop the write entirely, so wallets
	// without notable protocols are written without the relationship part.
	if len(record.NotableProtocols) == 0 {
		query = `
			MERGE (w:Wallet {address: $address})
			SET
				w.persona_title = $persona_title,
				w.summary = $summary,
				w.risk_appetite = $risk_appetite,
				w.loyalty = $loyalty,
				w.activity = $activity,
				w.key_traits = $key_traits,
				w.total_transactions = $total_transactions,
				w.analyzed_at = datetime($analyzed_at)
			WITH w
			OPTIONAL MATCH (w)-[old:USES_PROTOCOL]->(:Protocol)
			DELETE old
		`
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})

	if err != nil {
		return fmt.Errorf("failed to save persona: %w", err)
	}

	return nil
}

// GetPersona retrieves the stored persona for a wallet, or nil when the
// wallet has never been analyzed.
func (r *Neo4JPersonaRepository) GetPersona(ctx context.Context, walletAddress string) (*entity.PersonaRecord, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (w:Wallet {address: $address})
		WHERE w.persona_title IS NOT NULL
		OPTIONAL MATCH (w)-[rel:USES_PROTOCOL]->(p:Protocol)
		WITH w, p, rel ORDER BY rel.rank
		RETURN
			w.persona_title AS persona_title,
			w.summary AS summary,
			w.risk_appetite AS risk_appetite,
			w.loyalty AS loyalty,
			w.activity AS activity,
			w.key_traits AS key_traits,
			w.total_transactions AS total_transactions,
			w.analyzed_at AS analyzed_at,
			collect(p.name) AS protocols
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]interface{}{"address": walletAddress})
		if err != nil {
			return nil, err
		}

		rec, err := res.Single(ctx)
		if err != nil {
			return nil, nil // no stored persona
		}

		record := &entity.PersonaRecord{}
		record.WalletAddress = walletAddress
		record.PersonaTitle = stringField(rec, "persona_title")
		record.Summary = stringField(rec, "summary")
		record.Scores.RiskAppetite = intField(rec, "risk_appetite")
		record.Scores.Loyalty = intField(rec, "loyalty")
		record.Scores.Activity = intField(rec, "activity")
		record.KeyTraits = stringSliceField(rec, "key_traits")
		record.NotableProtocols = stringSliceField(rec, "protocols")
		record.TotalTransactions = intField(rec, "total_transactions")
		if v, ok := rec.Get("analyzed_at"); ok {
			if ts, ok := v.(time.Time); ok {
				record.AnalyzedAt = ts
			}
		}
		return record, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.(*entity.PersonaRecord), nil
}

// GetWalletsByTitle retrieves wallets sharing a persona title
func (r *Neo4JPersonaRepository) GetWalletsByTitle(ctx context.Context, title string, limit int) ([]string, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (w:Wallet {persona_title: $title})
		RETURN w.address AS address
		ORDER BY w.analyzed_at DESC
		LIMIT $limit
	`

	return r.collectStrings(ctx, session, query, map[string]interface{}{
		"title": title,
		"limit": limit,
	}, "address")
}

// GetTopProtocols retrieves protocols ranked by how many stored personas
// use them
func (r *Neo4JPersonaRepository) GetTopProtocols(ctx context.Context, limit int) ([]string, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
		MATCH (:Wallet)-[:USES_PROTOCOL]->(p:Protocol)
		RETURN p.name AS name, count(*) AS usage
		ORDER BY usage DESC, name ASC
		LIMIT $limit
	`

	return r.collectStrings(ctx, session, query, map[string]interface{}{
		"limit": limit,
	}, "name")
}

func (r *Neo4JPersonaRepository) collectStrings(ctx context.Context, session neo4j.SessionWithContext,
	query string, params map[string]interface{}, field string) ([]string, error) {

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		values := []string{}
		for res.Next(ctx) {
			if v, ok := res.Record().Get(field); ok {
				if s, ok := v.(string); ok {
					values = append(values, s)
				}
			}
		}
		return values, res.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	return result.([]string), nil
}

func stringField(rec *neo4j.Record, field string) string {
	v, _ := rec.Get(field)
	s, _ := v.(string)
	return s
}

func intField(rec *neo4j.Record, field string) int {
	v, _ := rec.Get(field)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func stringSliceField(rec *neo4j.Record, field string) []string {
	v, _ := rec.Get(field)
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}
