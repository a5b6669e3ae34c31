package service_test

import (
	"testing"
	"time"

	"wallet-persona-engine/internal/domain/entity"
	"wallet-persona-engine/internal/domain/service"
)

var evaluationInstant = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func makeTx(hash string, timestamp time.Time, txType entity.TransactionType, details map[string]any) *entity.Transaction {
	return &entity.Transaction{
		Hash:      hash,
		Timestamp: timestamp,
		Type:      txType,
		Details:   details,
	}
}

func TestExtractEmptyList(t *testing.T) {
	extractor := service.NewSignalExtractor()

	signals := extractor.Extract([]*entity.Transaction{}, evaluationInstant)

	if signals.TotalTransactions != 0 {
		t.Errorf("expected 0 total transactions, got %d", signals.TotalTransactions)
	}
	if signals.SwapFrequency != 0 || signals.NFTTransactions != 0 || signals.RecentActivityCount != 0 {
		t.Errorf("expected all counts to be zero, got swaps=%d nfts=%d recent=%d",
			signals.SwapFrequency, signals.NFTTransactions, signals.RecentActivityCount)
	}
	if len(signals.LiquidityProvisions) != 0 || len(signals.BlueChipHoldings) != 0 ||
		len(signals.StableStakes) != 0 || len(signals.GovernanceVotes) != 0 ||
		len(signals.AirdropFlips) != 0 || len(signals.DormancyPeriods) != 0 {
		t.Error("expected all signal lists to be empty")
	}
	if len(signals.HoldDurations) != 0 || len(signals.ProtocolFrequency) != 0 {
		t.Error("expected all signal maps to be empty")
	}
}

func TestExtractCountsAndProtocolFrequency(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(0, 0, -10)

	txs := []*entity.Transaction{
		makeTx("0x1", base, entity.TxTypeSwap, map[string]any{"protocol": "Uniswap"}),
		makeTx("0x2", base.Add(1*time.Hour), entity.TxTypeSwap, map[string]any{"protocol": "Uniswap"}),
		makeTx("0x3", base.Add(2*time.Hour), entity.TxTypeNFTMint, map[string]any{"protocol": "OpenSea"}),
		makeTx("0x4", base.Add(3*time.Hour), entity.TxTypeSwap, map[string]any{"is_new_protocol": true, "protocol": "NewDEX"}),
		makeTx("0x5", base.Add(4*time.Hour), entity.TxTypeGovernanceVote, map[string]any{"protocol": "Aave"}),
		makeTx("0x6", base.Add(5*time.Hour), entity.TxTypeSwap, nil), // no protocol detail
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if signals.TotalTransactions != 6 {
		t.Errorf("expected 6 total transactions, got %d", signals.TotalTransactions)
	}
	if signals.SwapFrequency != 4 {
		t.Errorf("expected 4 swaps, got %d", signals.SwapFrequency)
	}
	if signals.NFTTransactions != 1 {
		t.Errorf("expected 1 NFT mint, got %d", signals.NFTTransactions)
	}
	if signals.NewProtocolInteractions != 1 {
		t.Errorf("expected 1 new-protocol interaction, got %d", signals.NewProtocolInteractions)
	}
	if len(signals.GovernanceVotes) != 1 || signals.GovernanceVotes[0].Protocol != "Aave" {
		t.Errorf("expected one Aave governance vote, got %+v", signals.GovernanceVotes)
	}

	// The protocol-less swap must not emit a frequency entry.
	if len(signals.ProtocolFrequency) != 4 {
		t.Errorf("expected 4 distinct protocols, got %d", len(signals.ProtocolFrequency))
	}
	if signals.ProtocolFrequency["Uniswap"] != 2 {
		t.Errorf("expected Uniswap frequency 2, got %d", signals.ProtocolFrequency["Uniswap"])
	}

	wantOrder := []string{"Uniswap", "OpenSea", "NewDEX", "Aave"}
	if len(signals.ProtocolOrder) != len(wantOrder) {
		t.Fatalf("expected protocol order %v, got %v", wantOrder, signals.ProtocolOrder)
	}
	for i, name := range wantOrder {
		if signals.ProtocolOrder[i] != name {
			t.Errorf("protocol order[%d]: expected %s, got %s", i, name, signals.ProtocolOrder[i])
		}
	}

	// All six transactions are within the last 30 days of the evaluation instant.
	if signals.RecentActivityCount != 6 {
		t.Errorf("expected 6 recent transactions, got %d", signals.RecentActivityCount)
	}
}

func TestExtractRecentActivityWindow(t *testing.T) {
	extractor := service.NewSignalExtractor()

	txs := []*entity.Transaction{
		makeTx("0x1", evaluationInstant.AddDate(0, 0, -45), entity.TxTypeSwap, nil),
		makeTx("0x2", evaluationInstant.AddDate(0, 0, -29), entity.TxTypeSwap, nil),
		makeTx("0x3", evaluationInstant.AddDate(0, 0, -1), entity.TxTypeSwap, nil),
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if signals.RecentActivityCount != 2 {
		t.Errorf("expected 2 recent transactions, got %d", signals.RecentActivityCount)
	}
}

func TestExtractLiquidityVolatility(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(0, 0, -5)

	txs := []*entity.Transaction{
		makeTx("0x1", base, entity.TxTypeProvideLiquidity, map[string]any{
			"token1": "USDC", "token2": "ETH", "protocol": "Uniswap",
		}),
		makeTx("0x2", base.Add(time.Hour), entity.TxTypeProvideLiquidity, map[string]any{
			"token1": "USDC", "token2": "PEPE", "protocol": "Uniswap",
		}),
		makeTx("0x3", base.Add(2*time.Hour), entity.TxTypeProvideLiquidity, nil),
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if len(signals.LiquidityProvisions) != 3 {
		t.Fatalf("expected 3 liquidity provisions, got %d", len(signals.LiquidityProvisions))
	}
	if signals.LiquidityProvisions[0].IsVolatile {
		t.Error("USDC/ETH provision should not be volatile: both legs are allow-listed")
	}
	if !signals.LiquidityProvisions[1].IsVolatile {
		t.Error("USDC/PEPE provision should be volatile")
	}
	if signals.LiquidityProvisions[2].Token1 != entity.UnknownToken ||
		signals.LiquidityProvisions[2].Token2 != entity.UnknownToken {
		t.Errorf("missing tokens should fall back to UNKNOWN, got %+v", signals.LiquidityProvisions[2])
	}
	if !signals.LiquidityProvisions[2].IsVolatile {
		t.Error("UNKNOWN/UNKNOWN provision should be volatile")
	}
	if signals.VolatileLiquidityCount() != 2 {
		t.Errorf("expected 2 volatile provisions, got %d", signals.VolatileLiquidityCount())
	}
}

func TestExtractHoldingsAndDurations(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(0, 0, -100)

	txs := []*entity.Transaction{
		// Closed blue-chip hold of 30 days.
		makeTx("0x1", base, entity.TxTypeTokenHold, map[string]any{
			"token":      "ETH",
			"start_date": base.Format(time.RFC3339),
			"end_date":   base.AddDate(0, 0, 30).Format(time.RFC3339),
		}),
		// Open-ended hold runs until the evaluation instant: 10 days.
		makeTx("0x2", evaluationInstant.AddDate(0, 0, -10), entity.TxTypeTokenHold, map[string]any{
			"token": "ETH",
		}),
		// Non-blue-chip token still accumulates hold duration.
		makeTx("0x3", base, entity.TxTypeTokenHold, map[string]any{
			"token":      "SHIB",
			"start_date": base.Format(time.RFC3339),
			"end_date":   base.AddDate(0, 0, 3).Format(time.RFC3339),
		}),
		// end before start floors at zero.
		makeTx("0x4", base, entity.TxTypeTokenHold, map[string]any{
			"token":      "WBTC",
			"start_date": base.Format(time.RFC3339),
			"end_date":   base.AddDate(0, 0, -5).Format(time.RFC3339),
		}),
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if len(signals.BlueChipHoldings) != 3 {
		t.Fatalf("expected 3 blue-chip holdings (ETH x2, WBTC), got %d", len(signals.BlueChipHoldings))
	}

	eth := signals.HoldDurations["ETH"]
	if eth < 39.9 || eth > 40.1 {
		t.Errorf("expected cumulative ETH hold of ~40 days, got %f", eth)
	}
	shib := signals.HoldDurations["SHIB"]
	if shib < 2.9 || shib > 3.1 {
		t.Errorf("expected SHIB hold of ~3 days, got %f", shib)
	}
	if signals.HoldDurations["WBTC"] != 0 {
		t.Errorf("expected WBTC hold floored at 0, got %f", signals.HoldDurations["WBTC"])
	}
}

func TestExtractStableStakes(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(0, 0, -5)

	txs := []*entity.Transaction{
		makeTx("0x1", base, entity.TxTypeStake, map[string]any{"token": "ETH", "protocol": "Lido"}),
		makeTx("0x2", base, entity.TxTypeStake, map[string]any{"token": "USDC", "protocol": "Aave"}),
		// Established protocol but volatile token: dropped.
		makeTx("0x3", base, entity.TxTypeStake, map[string]any{"token": "PEPE", "protocol": "Aave"}),
		// Safe token but unknown protocol: dropped.
		makeTx("0x4", base, entity.TxTypeStake, map[string]any{"token": "ETH", "protocol": "RugFarm"}),
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if len(signals.StableStakes) != 2 {
		t.Fatalf("expected 2 stable stakes, got %d: %+v", len(signals.StableStakes), signals.StableStakes)
	}
	for _, stake := range signals.StableStakes {
		if !stake.IsEstablished {
			t.Errorf("kept stake should be marked established: %+v", stake)
		}
	}
}

func TestExtractAirdropFlips(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(0, 0, -20)

	txs := []*entity.Transaction{
		// Flipped within 6 hours.
		makeTx("0x1", base, entity.TxTypeReceiveAirdrop, map[string]any{"token": "ARB"}),
		makeTx("0x2", base.Add(6*time.Hour), entity.TxTypeSwap, map[string]any{"token_from": "ARB"}),
		// A later matching swap must not override the earliest one.
		makeTx("0x3", base.Add(12*time.Hour), entity.TxTypeSwap, map[string]any{"token_from": "ARB"}),
		// Swapped after 3 days: not a flip.
		makeTx("0x4", base.Add(24*time.Hour), entity.TxTypeReceiveAirdrop, map[string]any{"token": "OP"}),
		makeTx("0x5", base.Add(4*24*time.Hour), entity.TxTypeSwap, map[string]any{"token_from": "OP"}),
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if len(signals.AirdropFlips) != 1 {
		t.Fatalf("expected 1 airdrop flip, got %d: %+v", len(signals.AirdropFlips), signals.AirdropFlips)
	}
	flip := signals.AirdropFlips[0]
	if flip.Token != "ARB" {
		t.Errorf("expected flipped token ARB, got %s", flip.Token)
	}
	if flip.TimeDelta != 6*time.Hour {
		t.Errorf("expected the earliest matching swap (6h delta), got %v", flip.TimeDelta)
	}
}

func TestExtractAirdropFlipAtExactWindowBoundary(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(0, 0, -20)

	txs := []*entity.Transaction{
		makeTx("0x1", base, entity.TxTypeReceiveAirdrop, map[string]any{"token": "ARB"}),
		makeTx("0x2", base.Add(24*time.Hour), entity.TxTypeSwap, map[string]any{"token_from": "ARB"}),
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if len(signals.AirdropFlips) != 1 {
		t.Errorf("a swap exactly 24h after the airdrop still counts as a flip, got %d flips", len(signals.AirdropFlips))
	}
}

func TestExtractDormancyPeriods(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(-2, 0, 0)

	txs := []*entity.Transaction{
		makeTx("0x1", base, entity.TxTypeSwap, nil),
		makeTx("0x2", base.AddDate(0, 0, 100), entity.TxTypeSwap, nil), // 100 day gap
		makeTx("0x3", base.AddDate(0, 0, 130), entity.TxTypeSwap, nil), // 30 day gap
		makeTx("0x4", base.AddDate(0, 0, 220), entity.TxTypeSwap, nil), // 90 day gap, inclusive threshold
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if len(signals.DormancyPeriods) != 2 {
		t.Fatalf("expected 2 dormancy periods, got %d: %v", len(signals.DormancyPeriods), signals.DormancyPeriods)
	}
	if signals.DormancyPeriods[0] < 99.9 || signals.DormancyPeriods[0] > 100.1 {
		t.Errorf("expected first dormancy of ~100 days, got %f", signals.DormancyPeriods[0])
	}
}

func TestExtractSortsWithoutMutatingInput(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(0, 0, -200)

	// Deliberately out of order, with a 120-day gap once sorted.
	txs := []*entity.Transaction{
		makeTx("0x2", base.AddDate(0, 0, 120), entity.TxTypeSwap, nil),
		makeTx("0x1", base, entity.TxTypeSwap, nil),
	}

	signals := extractor.Extract(txs, evaluationInstant)

	if len(signals.DormancyPeriods) != 1 {
		t.Errorf("expected dormancy computed on sorted order, got %v", signals.DormancyPeriods)
	}
	if txs[0].Hash != "0x2" || txs[1].Hash != "0x1" {
		t.Error("extractor must not reorder the caller's slice")
	}
}

func TestExtractMalformedDetailsDegradeGracefully(t *testing.T) {
	extractor := service.NewSignalExtractor()
	base := evaluationInstant.AddDate(0, 0, -5)

	txs := []*entity.Transaction{
		// Unparseable dates fall back to tx timestamp / evaluation instant.
		makeTx("0x1", base, entity.TxTypeTokenHold, map[string]any{
			"token":      "ETH",
			"start_date": "not-a-date",
			"end_date":   12345,
		}),
		// String booleans are accepted.
		makeTx("0x2", base, entity.TxTypeSwap, map[string]any{"is_new_protocol": "true"}),
	}

	signals := extractor.Extract(txs, evaluationInstant)

	eth := signals.HoldDurations["ETH"]
	if eth < 4.9 || eth > 5.1 {
		t.Errorf("expected ~5 day fallback hold duration, got %f", eth)
	}
	if signals.NewProtocolInteractions != 1 {
		t.Errorf("expected string \"true\" to count as a new-protocol interaction, got %d", signals.NewProtocolInteractions)
	}
}
