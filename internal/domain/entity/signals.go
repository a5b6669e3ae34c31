package entity

import (
	"time"
)

// LiquidityProvision represents one provide_liquidity event. A provision is
// volatile unless both legs are stablecoins or blue-chip assets.
type LiquidityProvision struct {
	Token1     string `json:"token1"`
	Token2     string `json:"token2"`
	Protocol   string `json:"protocol,omitempty"`
	IsVolatile bool   `json:"is_volatile"`
}

// TokenHolding represents a blue-chip position derived from a token_hold event.
type TokenHolding struct {
	Token        string  `json:"token"`
	DurationDays float64 `json:"duration_days"`
	IsBlueChip   bool    `json:"is_blue_chip"`
}

// StakePosition represents a stake on an established protocol in a
// blue-chip or stablecoin asset.
type StakePosition struct {
	Token         string `json:"token"`
	Protocol      string `json:"protocol"`
	IsEstablished bool   `json:"is_established"`
}

// GovernanceVote represents one governance_vote event.
type GovernanceVote struct {
	Protocol  string    `json:"protocol,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AirdropFlip represents an airdropped token swapped away within 24 hours.
type AirdropFlip struct {
	Token      string        `json:"token"`
	ReceivedAt time.Time     `json:"received_at"`
	SwappedAt  time.Time     `json:"swapped_at"`
	TimeDelta  time.Duration `json:"time_delta"`
}

// SignalRecord holds the behavioral signals extracted from one pass over a
// wallet's transaction history. It is produced once per analysis run and
// never mutated by later pipeline stages.
type SignalRecord struct {
	SwapFrequency           int                  `json:"swap_frequency"`
	NewProtocolInteractions int                  `json:"new_protocol_interactions"`
	LiquidityProvisions     []LiquidityProvision `json:"liquidity_provisions"`
	BlueChipHoldings        []TokenHolding       `json:"blue_chip_holdings"`
	StableStakes            []StakePosition      `json:"stable_stakes"`
	HoldDurations           map[string]float64   `json:"hold_durations"`
	GovernanceVotes         []GovernanceVote     `json:"governance_votes"`
	AirdropFlips            []AirdropFlip        `json:"airdrop_flips"`
	ProtocolFrequency       map[string]int       `json:"protocol_frequency"`
	NFTTransactions         int                  `json:"nft_transactions"`
	RecentActivityCount     int                  `json:"recent_activity_count"`
	TotalTransactions       int                  `json:"total_transactions"`
	DormancyPeriods         []float64            `json:"dormancy_periods"`

	// ProtocolOrder records each protocol's first appearance in chronological
	// order. It is the tie-break key when ranking protocols of equal frequency.
	ProtocolOrder []string `json:"protocol_order"`

	// EvaluatedAt is the instant captured once per analysis run; recent
	// activity and open-ended hold durations are measured against it.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// VolatileLiquidityCount returns the number of volatile liquidity provisions.
func (s *SignalRecord) VolatileLiquidityCount() int {
	count := 0
	for _, lp := range s.LiquidityProvisions {
		if lp.IsVolatile {
			count++
		}
	}
	return count
}

// RepeatedProtocolCount returns the number of protocols used more than once.
func (s *SignalRecord) RepeatedProtocolCount() int {
	count := 0
	for _, freq := range s.ProtocolFrequency {
		if freq > 1 {
			count++
		}
	}
	return count
}

// UniqueFlipTokenCount returns the number of distinct tokens flipped after
// an airdrop.
func (s *SignalRecord) UniqueFlipTokenCount() int {
	seen := make(map[string]struct{}, len(s.AirdropFlips))
	for _, flip := range s.AirdropFlips {
		seen[flip.Token] = struct{}{}
	}
	return len(seen)
}
