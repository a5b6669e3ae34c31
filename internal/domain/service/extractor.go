package service

import (
	"sort"
	"time"

	"wallet-persona-engine/internal/domain/entity"
)

const (
	// RecentActivityWindowDays is the lookback window for recent activity.
	RecentActivityWindowDays = 30

	// DormancyThresholdDays is the minimum gap between consecutive
	// transactions that counts as a dormancy period.
	DormancyThresholdDays = 90

	// AirdropFlipWindow is the maximum delay between receiving an airdrop
	// and swapping it away for the pair to count as a flip.
	AirdropFlipWindow = 24 * time.Hour
)

// SignalExtractor scans a wallet's transaction history once and produces
// the behavioral signals consumed by the score engine and persona composer.
type SignalExtractor struct {
	blueChipTokens       map[string]struct{}
	stablecoins          map[string]struct{}
	establishedProtocols map[string]struct{}
}

// NewSignalExtractor creates a new signal extractor with the fixed
// blue-chip, stablecoin and established-protocol allow-lists.
func NewSignalExtractor() *SignalExtractor {
	extractor := &SignalExtractor{
		blueChipTokens:       make(map[string]struct{}),
		stablecoins:          make(map[string]struct{}),
		establishedProtocols: make(map[string]struct{}),
	}
	extractor.initializeAllowLists()
	return extractor
}

// initializeAllowLists populates the fixed token and protocol allow-lists.
// Membership checks are exact, case-sensitive string matches.
func (e *SignalExtractor) initializeAllowLists() {
	for _, token := range []string{"ETH", "WETH", "WBTC", "BTC"} {
		e.blueChipTokens[token] = struct{}{}
	}
	for _, token := range []string{"USDC", "USDT", "DAI"} {
		e.stablecoins[token] = struct{}{}
	}
	for _, protocol := range []string{"Uniswap", "Aave", "Compound", "Curve", "Lido", "MakerDAO"} {
		e.establishedProtocols[protocol] = struct{}{}
	}
}

// Extract produces a SignalRecord from the given transaction list. The
// caller's slice is never mutated; the extractor sorts an internal copy by
// timestamp ascending. The now parameter is the evaluation instant used for
// recent-activity and open-ended hold-duration calculations.
func (e *SignalExtractor) Extract(transactions []*entity.Transaction, now time.Time) *entity.SignalRecord {
	sorted := make([]*entity.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	record := &entity.SignalRecord{
		LiquidityProvisions: []entity.LiquidityProvision{},
		BlueChipHoldings:    []entity.TokenHolding{},
		StableStakes:        []entity.StakePosition{},
		HoldDurations:       make(map[string]float64),
		GovernanceVotes:     []entity.GovernanceVote{},
		AirdropFlips:        []entity.AirdropFlip{},
		ProtocolFrequency:   make(map[string]int),
		DormancyPeriods:     []float64{},
		ProtocolOrder:       []string{},
		TotalTransactions:   len(sorted),
		EvaluatedAt:         now,
	}

	recentCutoff := now.AddDate(0, 0, -RecentActivityWindowDays)

	for _, tx := range sorted {
		// Protocol frequency counts every transaction carrying a protocol
		// detail, regardless of type. A missing protocol emits no entry.
		if protocol, ok := tx.DetailString(entity.DetailProtocol); ok {
			if _, seen := record.ProtocolFrequency[protocol]; !seen {
				record.ProtocolOrder = append(record.ProtocolOrder, protocol)
			}
			record.ProtocolFrequency[protocol]++
		}

		if tx.DetailBool(entity.DetailIsNewProtocol) {
			record.NewProtocolInteractions++
		}

		if !tx.Timestamp.Before(recentCutoff) {
			record.RecentActivityCount++
		}

		switch tx.Type {
		case entity.TxTypeSwap:
			record.SwapFrequency++
		case entity.TxTypeNFTMint:
			record.NFTTransactions++
		case entity.TxTypeStake:
			e.recordStake(record, tx)
		case entity.TxTypeProvideLiquidity:
			e.recordLiquidityProvision(record, tx)
		case entity.TxTypeGovernanceVote:
			protocol, _ := tx.DetailString(entity.DetailProtocol)
			record.GovernanceVotes = append(record.GovernanceVotes, entity.GovernanceVote{
				Protocol:  protocol,
				Timestamp: tx.Timestamp,
			})
		case entity.TxTypeTokenHold:
			e.recordHolding(record, tx, now)
		}
	}

	record.AirdropFlips = matchAirdropFlips(sorted)
	record.DormancyPeriods = dormancyPeriods(sorted)

	return record
}

// recordStake keeps a stake position only when the protocol is established
// and the token is a blue-chip or stablecoin asset.
func (e *SignalExtractor) recordStake(record *entity.SignalRecord, tx *entity.Transaction) {
	token := tokenOrUnknown(tx, entity.DetailToken)
	protocol, _ := tx.DetailString(entity.DetailProtocol)

	if _, established := e.establishedProtocols[protocol]; !established {
		return
	}
	if !e.isStableOrBlueChip(token) {
		return
	}

	record.StableStakes = append(record.StableStakes, entity.StakePosition{
		Token:         token,
		Protocol:      protocol,
		IsEstablished: true,
	})
}

// recordLiquidityProvision marks a provision volatile unless both legs are
// in the combined stablecoin and blue-chip set.
func (e *SignalExtractor) recordLiquidityProvision(record *entity.SignalRecord, tx *entity.Transaction) {
	token1 := tokenOrUnknown(tx, entity.DetailToken1)
	token2 := tokenOrUnknown(tx, entity.DetailToken2)
	protocol, _ := tx.DetailString(entity.DetailProtocol)

	record.LiquidityProvisions = append(record.LiquidityProvisions, entity.LiquidityProvision{
		Token1:     token1,
		Token2:     token2,
		Protocol:   protocol,
		IsVolatile: !(e.isStableOrBlueChip(token1) && e.isStableOrBlueChip(token2)),
	})
}

// recordHolding accumulates hold duration for every token_hold transaction
// and keeps a separate holding entry for blue-chip tokens. An open-ended
// hold (no end_date) runs until the evaluation instant.
func (e *SignalExtractor) recordHolding(record *entity.SignalRecord, tx *entity.Transaction, now time.Time) {
	token := tokenOrUnknown(tx, entity.DetailToken)

	start, ok := tx.DetailTime(entity.DetailStartDate)
	if !ok {
		start = tx.Timestamp
	}
	end, ok := tx.DetailTime(entity.DetailEndDate)
	if !ok {
		end = now
	}

	durationDays := end.Sub(start).Hours() / 24
	if durationDays < 0 {
		durationDays = 0
	}

	record.HoldDurations[token] += durationDays

	if _, blueChip := e.blueChipTokens[token]; blueChip {
		record.BlueChipHoldings = append(record.BlueChipHoldings, entity.TokenHolding{
			Token:        token,
			DurationDays: durationDays,
			IsBlueChip:   true,
		})
	}
}

func (e *SignalExtractor) isStableOrBlueChip(token string) bool {
	if _, ok := e.stablecoins[token]; ok {
		return true
	}
	_, ok := e.blueChipTokens[token]
	return ok
}

// tokenOrUnknown returns the token detail or the UNKNOWN placeholder when
// the transaction omits it.
func tokenOrUnknown(tx *entity.Transaction, key string) string {
	if token, ok := tx.DetailString(key); ok {
		return token
	}
	return entity.UnknownToken
}

// matchAirdropFlips pairs each airdrop with the chronologically first later
// swap whose token_from matches the airdropped token. The pair counts as a
// flip only when the swap happens within 24 hours. Each airdrop searches
// independently; no global exclusivity between airdrops is enforced.
func matchAirdropFlips(sorted []*entity.Transaction) []entity.AirdropFlip {
	flips := []entity.AirdropFlip{}

	for _, airdrop := range sorted {
		if airdrop.Type != entity.TxTypeReceiveAirdrop {
			continue
		}
		token := tokenOrUnknown(airdrop, entity.DetailToken)

		for _, swap := range sorted {
			if swap.Type != entity.TxTypeSwap || !swap.Timestamp.After(airdrop.Timestamp) {
				continue
			}
			from, ok := swap.DetailString(entity.DetailTokenFrom)
			if !ok || from != token {
				continue
			}

			// The list is sorted, so the first match is the earliest swap.
			if delta := swap.Timestamp.Sub(airdrop.Timestamp); delta <= AirdropFlipWindow {
				flips = append(flips, entity.AirdropFlip{
					Token:      token,
					ReceivedAt: airdrop.Timestamp,
					SwappedAt:  swap.Timestamp,
					TimeDelta:  delta,
				})
			}
			break
		}
	}

	return flips
}

// dormancyPeriods returns the gap lengths in days between chronologically
// adjacent transactions where the gap is at least the dormancy threshold.
func dormancyPeriods(sorted []*entity.Transaction) []float64 {
	periods := []float64{}

	for i := 1; i < len(sorted); i++ {
		gapDays := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Hours() / 24
		if gapDays >= DormancyThresholdDays {
			periods = append(periods, gapDays)
		}
	}

	return periods
}
