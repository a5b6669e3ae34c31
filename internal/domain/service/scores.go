package service

import (
	"math"

	"wallet-persona-engine/internal/domain/entity"
)

// ScoreEngine turns a signal record into the three bounded behavioral
// scores. Each score is computed independently as a weighted sum with
// per-factor caps, rounded to the nearest integer, then clamped to [1,100].
type ScoreEngine struct{}

// NewScoreEngine creates a new score engine.
func NewScoreEngine() *ScoreEngine {
	return &ScoreEngine{}
}

// Compute returns all three scores for the given signal record.
func (e *ScoreEngine) Compute(signals *entity.SignalRecord) entity.Scores {
	return entity.Scores{
		RiskAppetite: e.RiskAppetite(signals),
		Loyalty:      e.Loyalty(signals),
		Activity:     e.Activity(signals),
	}
}

// RiskAppetite scores how much risk the wallet takes on. Swaps, new
// protocols and volatile liquidity raise it; blue-chip holdings and
// established stakes lower it.
func (e *ScoreEngine) RiskAppetite(signals *entity.SignalRecord) int {
	score := 50.0
	score += cappedFactor(float64(signals.SwapFrequency), 5, 30)
	score += cappedFactor(float64(signals.NewProtocolInteractions), 10, 20)
	score += cappedFactor(float64(signals.VolatileLiquidityCount()), 8, 20)
	score -= cappedFactor(float64(len(signals.BlueChipHoldings)), 10, 30)
	score -= cappedFactor(float64(len(signals.StableStakes)), 8, 20)
	return clampScore(score)
}

// Loyalty scores how long the wallet sticks with its positions and
// protocols. Hold time, governance and repeated protocol use raise it;
// airdrop flips and short holds lower it.
func (e *ScoreEngine) Loyalty(signals *entity.SignalRecord) int {
	totalHoldDays := 0.0
	shortHoldDays := 0.0
	for _, days := range signals.HoldDurations {
		totalHoldDays += days
		if days < 7 {
			shortHoldDays += days
		}
	}

	score := 50.0
	score += cappedFactor(totalHoldDays, 0.1, 30)
	score += cappedFactor(float64(len(signals.GovernanceVotes)), 8, 20)
	score += cappedFactor(float64(signals.RepeatedProtocolCount()), 5, 20)
	score -= cappedFactor(float64(len(signals.AirdropFlips)), 15, 30)
	score -= cappedFactor(shortHoldDays, 0.5, 20)
	return clampScore(score)
}

// Activity scores how busy the wallet is. Total volume and recent activity
// raise it; long dormancy periods lower it.
func (e *ScoreEngine) Activity(signals *entity.SignalRecord) int {
	longDormancies := 0
	for _, gapDays := range signals.DormancyPeriods {
		if gapDays > DormancyThresholdDays {
			longDormancies++
		}
	}

	score := 30.0
	score += cappedFactor(float64(signals.TotalTransactions), 1, 40)
	score += cappedFactor(float64(signals.RecentActivityCount), 2, 30)
	score -= cappedFactor(float64(longDormancies), 5, 20)
	return clampScore(score)
}

// cappedFactor applies the factor's weight and cap in isolation, before the
// terms are summed.
func cappedFactor(value, weight, cap float64) float64 {
	weighted := value * weight
	if weighted > cap {
		return cap
	}
	return weighted
}

// clampScore rounds to the nearest integer and clamps to [1,100]. Clamping
// happens once, after all factors are summed.
func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < 1 {
		return 1
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
