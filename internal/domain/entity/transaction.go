package entity

import (
	"time"
)

// TransactionType classifies a wallet transaction event.
type TransactionType string

const (
	TxTypeSwap             TransactionType = "swap"
	TxTypeNFTMint          TransactionType = "nft_mint"
	TxTypeStake            TransactionType = "stake"
	TxTypeProvideLiquidity TransactionType = "provide_liquidity"
	TxTypeReceiveAirdrop   TransactionType = "receive_airdrop"
	TxTypeGovernanceVote   TransactionType = "governance_vote"
	TxTypeTokenHold        TransactionType = "token_hold"
)

// AllTransactionTypes returns the closed set of valid transaction types.
func AllTransactionTypes() []TransactionType {
	return []TransactionType{
		TxTypeSwap,
		TxTypeNFTMint,
		TxTypeStake,
		TxTypeProvideLiquidity,
		TxTypeReceiveAirdrop,
		TxTypeGovernanceVote,
		TxTypeTokenHold,
	}
}

// IsValid reports whether the type belongs to the closed transaction type set.
func (t TransactionType) IsValid() bool {
	switch t {
	case TxTypeSwap, TxTypeNFTMint, TxTypeStake, TxTypeProvideLiquidity,
		TxTypeReceiveAirdrop, TxTypeGovernanceVote, TxTypeTokenHold:
		return true
	}
	return false
}

// Detail keys recognized by the signal extractor. The details map is open;
// unknown keys are carried through untouched.
const (
	DetailProtocol      = "protocol"
	DetailIsNewProtocol = "is_new_protocol"
	DetailToken         = "token"
	DetailToken1        = "token1"
	DetailToken2        = "token2"
	DetailStartDate     = "start_date"
	DetailEndDate       = "end_date"
	DetailTokenFrom     = "token_from"
)

// UnknownToken is the placeholder used when a transaction omits a token detail.
const UnknownToken = "UNKNOWN"

// RawTransaction represents an unvalidated transaction record as received
// from an explorer API, NATS message or request body.
type RawTransaction struct {
	Hash      string         `json:"hash"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	Details   map[string]any `json:"details,omitempty"`
}

// Transaction represents a validated wallet transaction event. It is
// constructed once by the validator and read-only thereafter.
type Transaction struct {
	Hash      string          `json:"hash"`
	Timestamp time.Time       `json:"timestamp"`
	Type      TransactionType `json:"type"`
	Details   map[string]any  `json:"details,omitempty"`
}

// DetailString returns the string value stored under key, reporting false
// when the key is absent, not a string, or empty.
func (t *Transaction) DetailString(key string) (string, bool) {
	if t.Details == nil {
		return "", false
	}
	v, ok := t.Details[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// DetailBool returns the boolean value stored under key. String values
// "true"/"false" are accepted since explorer payloads are loosely typed.
func (t *Transaction) DetailBool(key string) bool {
	if t.Details == nil {
		return false
	}
	switch v := t.Details[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// DetailTime parses an ISO-8601 timestamp stored under key. Malformed or
// missing values report false rather than failing the analysis.
func (t *Transaction) DetailTime(key string) (time.Time, bool) {
	s, ok := t.DetailString(key)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
