package service

import (
	"fmt"
	"strings"
	"time"

	"wallet-persona-engine/internal/domain/entity"
)

// ValidationError aggregates every violation found in a raw transaction
// batch. Validation never stops at the first problem.
type ValidationError struct {
	Violations []string
}

// Error lists all violations in one message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction input (%d violations): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

// TransactionValidator checks raw transaction records for structural
// validity and converts them into immutable Transaction values. The
// analysis core assumes its input already passed through here.
type TransactionValidator struct{}

// NewTransactionValidator creates a new transaction validator.
func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{}
}

// Validate converts raw records into transactions, collecting every
// violation across the whole batch. On any violation it returns a
// *ValidationError describing all of them and no transactions.
func (v *TransactionValidator) Validate(raw []entity.RawTransaction) ([]*entity.Transaction, error) {
	violations := []string{}
	transactions := make([]*entity.Transaction, 0, len(raw))

	for i, record := range raw {
		if record.Hash == "" {
			violations = append(violations, fmt.Sprintf("transaction %d: hash must be a non-empty string", i))
		}

		timestamp, err := time.Parse(time.RFC3339, record.Timestamp)
		if err != nil {
			violations = append(violations, fmt.Sprintf("transaction %d: timestamp %q is not a valid ISO-8601 instant", i, record.Timestamp))
		}

		txType := entity.TransactionType(record.Type)
		if !txType.IsValid() {
			violations = append(violations, fmt.Sprintf("transaction %d: type %q is not one of %v", i, record.Type, entity.AllTransactionTypes()))
		}

		for key, value := range record.Details {
			switch value.(type) {
			case string, bool, float64, int, int64, nil:
			default:
				violations = append(violations, fmt.Sprintf("transaction %d: details.%s must be a primitive value, got %T", i, key, value))
			}
		}

		transactions = append(transactions, &entity.Transaction{
			Hash:      record.Hash,
			Timestamp: timestamp,
			Type:      txType,
			Details:   record.Details,
		})
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return transactions, nil
}
