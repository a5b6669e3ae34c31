package service

import (
	"fmt"
	"sort"
	"strings"

	"wallet-persona-engine/internal/domain/entity"
)

// Persona title vocabulary. Every title selection is deterministic: where
// several titles fit a category, a secondary score threshold decides.
const (
	TitleNFTMaximalist         = "NFT Maximalist"
	TitleNFTCollector          = "NFT Collector"
	TitleHighStakesDegen       = "High-Stakes Degen"
	TitleActiveDeFiTrader      = "Active DeFi Trader"
	TitleDiamondHandedHolder   = "Diamond-Handed Holder"
	TitleSteadyStacker         = "Steady Stacker"
	TitlePatientObserver       = "Patient Observer"
	TitleDormantWallet         = "Dormant Wallet"
	TitleCalculatedRiskTaker   = "Calculated Risk Taker"
	TitleLoyalGeneralist       = "Loyal Generalist"
	TitleConsistentParticipant = "Consistent Participant"
	TitleBalancedExplorer      = "Balanced Explorer"
)

// Trait labels with their selection priorities.
const (
	TraitAirdropHunter         = "Airdrop Hunter"
	TraitEarlyAdopter          = "Early Adopter"
	TraitDiamondHands          = "Diamond Hands"
	TraitProtocolSpecialist    = "Protocol Specialist"
	TraitGovernanceParticipant = "Governance Participant"
	TraitNFTEnthusiast         = "NFT Enthusiast"
	TraitActiveTrader          = "Active Trader"
	TraitLiquidityProvider     = "Liquidity Provider"
	TraitRiskTaker             = "Risk Taker"
	TraitPassiveHolder         = "Passive Holder"
)

// fillerTraits pad the trait list to the minimum of three when too few
// behavioral traits qualify. Order is fixed.
var fillerTraits = []string{"DeFi Participant", "Crypto Explorer", "Onchain Curious"}

const (
	minTraits           = 3
	maxTraits           = 5
	maxNotableProtocols = 5
)

// PersonaComposer turns scores and signals into the persona's title,
// summary, trait list and ranked protocol list.
type PersonaComposer struct{}

// NewPersonaComposer creates a new persona composer.
func NewPersonaComposer() *PersonaComposer {
	return &PersonaComposer{}
}

// personaBand is the shared score-band classification driving both the
// title decision table and the summary's first sentence.
type personaBand int

const (
	bandNFTDominant personaBand = iota
	bandActiveTrader
	bandStableHolder
	bandDormant
	bandBalanced
)

// classify applies the ordered decision table; the first matching band wins.
func classify(scores entity.Scores, signals *entity.SignalRecord) personaBand {
	if signals.TotalTransactions > 0 {
		nftRatio := float64(signals.NFTTransactions) / float64(signals.TotalTransactions)
		if nftRatio > 0.5 {
			return bandNFTDominant
		}
	}
	if scores.RiskAppetite > 70 && scores.Activity > 70 {
		return bandActiveTrader
	}
	if scores.Loyalty > 70 && scores.RiskAppetite < 40 {
		return bandStableHolder
	}
	if scores.Activity < 30 {
		return bandDormant
	}
	return bandBalanced
}

// Title returns the persona title for the given scores and signals.
func (c *PersonaComposer) Title(scores entity.Scores, signals *entity.SignalRecord) string {
	switch classify(scores, signals) {
	case bandNFTDominant:
		nftRatio := float64(signals.NFTTransactions) / float64(signals.TotalTransactions)
		if nftRatio > 0.8 {
			return TitleNFTMaximalist
		}
		return TitleNFTCollector
	case bandActiveTrader:
		if scores.RiskAppetite > 85 {
			return TitleHighStakesDegen
		}
		return TitleActiveDeFiTrader
	case bandStableHolder:
		if scores.Loyalty > 85 {
			return TitleDiamondHandedHolder
		}
		return TitleSteadyStacker
	case bandDormant:
		if scores.Loyalty > 60 {
			return TitlePatientObserver
		}
		return TitleDormantWallet
	}

	// Balanced category: branch on whichever score exceeds 60, in
	// risk, loyalty, activity priority order.
	switch {
	case scores.RiskAppetite > 60:
		return TitleCalculatedRiskTaker
	case scores.Loyalty > 60:
		return TitleLoyalGeneralist
	case scores.Activity > 60:
		return TitleConsistentParticipant
	}
	return TitleBalancedExplorer
}

// Summary assembles a two or three sentence description: a characterization
// sentence, a dominant-activity sentence, and an optional context sentence.
func (c *PersonaComposer) Summary(scores entity.Scores, signals *entity.SignalRecord) string {
	sentences := []string{
		characterizationSentence(scores, signals),
		c.dominantActivitySentence(signals),
	}
	if context, ok := contextSentence(signals); ok {
		sentences = append(sentences, context)
	}
	return strings.Join(sentences, " ")
}

func characterizationSentence(scores entity.Scores, signals *entity.SignalRecord) string {
	switch classify(scores, signals) {
	case bandNFTDominant:
		return "This wallet lives for NFTs, with mints making up most of its history."
	case bandActiveTrader:
		return "This wallet trades aggressively and rarely sits still."
	case bandStableHolder:
		return "This wallet favors long-term positions over short-term plays."
	case bandDormant:
		return "This wallet has gone quiet, with little recent activity to show."
	}
	return "This wallet keeps a balanced mix of onchain activity."
}

// dominantActivitySentence names the largest transaction category and the
// top one or two notable protocols.
func (c *PersonaComposer) dominantActivitySentence(signals *entity.SignalRecord) string {
	// Swap is the fixed default; later categories win only on a strictly
	// greater count.
	label := "token swaps"
	best := signals.SwapFrequency
	for _, candidate := range []struct {
		label string
		count int
	}{
		{"NFT mints", signals.NFTTransactions},
		{"staking positions", len(signals.StableStakes)},
		{"liquidity provisions", len(signals.LiquidityProvisions)},
	} {
		if candidate.count > best {
			label = candidate.label
			best = candidate.count
		}
	}

	protocols := c.NotableProtocols(signals)
	if len(protocols) > 2 {
		protocols = protocols[:2]
	}
	for i, protocol := range protocols {
		protocols[i] = sanitizeProtocolName(protocol)
	}

	switch len(protocols) {
	case 1:
		return fmt.Sprintf("Most of its activity comes from %s, centered on %s.", label, protocols[0])
	case 2:
		return fmt.Sprintf("Most of its activity comes from %s, centered on %s and %s.", label, protocols[0], protocols[1])
	}
	return fmt.Sprintf("Most of its activity comes from %s.", label)
}

// contextSentence emits at most one extra sentence, checking conditions in
// fixed priority order.
func contextSentence(signals *entity.SignalRecord) (string, bool) {
	switch {
	case len(signals.GovernanceVotes) > 0:
		return fmt.Sprintf("It also takes part in governance, with %d votes on record.", len(signals.GovernanceVotes)), true
	case signals.UniqueFlipTokenCount()+len(signals.GovernanceVotes)/2 >= 5:
		return "Its history shows a systematic hunt for airdrops.", true
	case signals.NewProtocolInteractions > 3:
		return "It is quick to try newly launched protocols.", true
	case len(signals.DormancyPeriods) > 2:
		return "Long dormant stretches separate its bursts of activity.", true
	}
	return "", false
}

// sanitizeProtocolName strips sentence terminators from a protocol name so
// it cannot fragment the summary's sentence count.
func sanitizeProtocolName(name string) string {
	replacer := strings.NewReplacer(".", "", "!", "", "?", "")
	return replacer.Replace(name)
}

// traitCandidate pairs a trait label with its priority and predicate.
// Enumeration order is the tie-break for equal priorities.
type traitCandidate struct {
	name     string
	priority int
	matches  func(entity.Scores, *entity.SignalRecord) bool
}

var traitCandidates = []traitCandidate{
	{TraitAirdropHunter, 10, func(_ entity.Scores, s *entity.SignalRecord) bool {
		return s.UniqueFlipTokenCount()+len(s.GovernanceVotes)/2 >= 5
	}},
	{TraitEarlyAdopter, 9, func(_ entity.Scores, s *entity.SignalRecord) bool {
		return s.NewProtocolInteractions > 0
	}},
	{TraitDiamondHands, 10, func(scores entity.Scores, _ *entity.SignalRecord) bool {
		return scores.Loyalty > 85
	}},
	{TraitProtocolSpecialist, 8, func(_ entity.Scores, s *entity.SignalRecord) bool {
		if s.TotalTransactions == 0 {
			return false
		}
		for _, freq := range s.ProtocolFrequency {
			if float64(freq) > 0.6*float64(s.TotalTransactions) {
				return true
			}
		}
		return false
	}},
	{TraitGovernanceParticipant, 7, func(_ entity.Scores, s *entity.SignalRecord) bool {
		return len(s.GovernanceVotes) > 0
	}},
	{TraitNFTEnthusiast, 6, func(_ entity.Scores, s *entity.SignalRecord) bool {
		return s.TotalTransactions > 0 && float64(s.NFTTransactions) > 0.3*float64(s.TotalTransactions)
	}},
	{TraitActiveTrader, 5, func(_ entity.Scores, s *entity.SignalRecord) bool {
		return s.SwapFrequency > 10
	}},
	{TraitLiquidityProvider, 5, func(_ entity.Scores, s *entity.SignalRecord) bool {
		return len(s.LiquidityProvisions) > 3
	}},
	{TraitRiskTaker, 4, func(scores entity.Scores, _ *entity.SignalRecord) bool {
		return scores.RiskAppetite > 75
	}},
	{TraitPassiveHolder, 3, func(scores entity.Scores, _ *entity.SignalRecord) bool {
		return scores.Activity < 30
	}},
}

// Traits selects three to five trait labels: qualifying candidates ranked
// by descending priority (stable on ties), capped at five, padded with
// generic fillers up to three.
func (c *PersonaComposer) Traits(scores entity.Scores, signals *entity.SignalRecord) []string {
	qualified := make([]traitCandidate, 0, len(traitCandidates))
	for _, candidate := range traitCandidates {
		if candidate.matches(scores, signals) {
			qualified = append(qualified, candidate)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].priority > qualified[j].priority
	})
	if len(qualified) > maxTraits {
		qualified = qualified[:maxTraits]
	}

	traits := make([]string, 0, maxTraits)
	for _, candidate := range qualified {
		traits = append(traits, candidate.name)
	}
	for i := 0; len(traits) < minTraits && i < len(fillerTraits); i++ {
		traits = append(traits, fillerTraits[i])
	}
	return traits
}

// NotableProtocols ranks protocols by descending frequency, breaking ties
// by first-appearance order, and returns at most five.
func (c *PersonaComposer) NotableProtocols(signals *entity.SignalRecord) []string {
	type rankedProtocol struct {
		name  string
		count int
		order int
	}

	ranked := make([]rankedProtocol, 0, len(signals.ProtocolOrder))
	for order, name := range signals.ProtocolOrder {
		ranked = append(ranked, rankedProtocol{
			name:  name,
			count: signals.ProtocolFrequency[name],
			order: order,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].order < ranked[j].order
	})

	limit := len(ranked)
	if limit > maxNotableProtocols {
		limit = maxNotableProtocols
	}

	protocols := make([]string, 0, limit)
	for _, protocol := range ranked[:limit] {
		protocols = append(protocols, protocol.name)
	}
	return protocols
}
