package entity

import (
	"time"
)

// Scores holds the three bounded behavioral scores. Each value is an
// integer in [1,100].
type Scores struct {
	RiskAppetite int `json:"riskAppetite"`
	Loyalty      int `json:"loyalty"`
	Activity     int `json:"activity"`
}

// PersonaResult is the final output of an analysis run. Field order matches
// the wire format: exactly six top-level keys, in this order.
type PersonaResult struct {
	WalletAddress    string   `json:"walletAddress"`
	PersonaTitle     string   `json:"personaTitle"`
	Summary          string   `json:"summary"`
	Scores           Scores   `json:"scores"`
	KeyTraits        []string `json:"keyTraits"`
	NotableProtocols []string `json:"notableProtocols"`
}

// PersonaRecord wraps a PersonaResult with storage metadata for the
// persona datastore.
type PersonaRecord struct {
	PersonaResult
	AnalyzedAt        time.Time `json:"analyzedAt"`
	TotalTransactions int       `json:"totalTransactions"`
}
