package service

import (
	"fmt"

	"wallet-persona-engine/internal/domain/entity"
)

// ResultAssembler combines the pipeline outputs into the final
// PersonaResult and enforces the output invariants. A violation here means
// an upstream stage broke its contract, so it surfaces as a hard error
// naming the violated field instead of being silently corrected.
type ResultAssembler struct{}

// NewResultAssembler creates a new result assembler.
func NewResultAssembler() *ResultAssembler {
	return &ResultAssembler{}
}

// Assemble builds and validates the final result. The trait and protocol
// slices are copied so the result shares no state with earlier stages.
func (a *ResultAssembler) Assemble(
	walletAddress string,
	scores entity.Scores,
	title string,
	summary string,
	keyTraits []string,
	notableProtocols []string,
) (*entity.PersonaResult, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("assemble persona: walletAddress must be a non-empty string")
	}
	if err := validateScoreRange("riskAppetite", scores.RiskAppetite); err != nil {
		return nil, err
	}
	if err := validateScoreRange("loyalty", scores.Loyalty); err != nil {
		return nil, err
	}
	if err := validateScoreRange("activity", scores.Activity); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("assemble persona: personaTitle must be a non-empty string")
	}
	if len(keyTraits) < 3 || len(keyTraits) > 5 {
		return nil, fmt.Errorf("assemble persona: keyTraits length must be in [3,5], got %d", len(keyTraits))
	}
	seen := make(map[string]struct{}, len(keyTraits))
	for _, trait := range keyTraits {
		if _, dup := seen[trait]; dup {
			return nil, fmt.Errorf("assemble persona: keyTraits contains duplicate %q", trait)
		}
		seen[trait] = struct{}{}
	}
	if len(notableProtocols) > 5 {
		return nil, fmt.Errorf("assemble persona: notableProtocols length must be in [0,5], got %d", len(notableProtocols))
	}

	traits := make([]string, len(keyTraits))
	copy(traits, keyTraits)
	protocols := make([]string, len(notableProtocols))
	copy(protocols, notableProtocols)

	return &entity.PersonaResult{
		WalletAddress:    walletAddress,
		PersonaTitle:     title,
		Summary:          summary,
		Scores:           scores,
		KeyTraits:        traits,
		NotableProtocols: protocols,
	}, nil
}

func validateScoreRange(field string, score int) error {
	if score < 1 || score > 100 {
		return fmt.Errorf("assemble persona: %s must be an integer in [1,100], got %d", field, score)
	}
	return nil
}
