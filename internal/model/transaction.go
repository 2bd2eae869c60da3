package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnknownPayer is the payer name used when no payer text can be recovered.
const UnknownPayer = "Unknown"

// Transaction represents a single incoming payment recorded from a notification.
type Transaction struct {
	OccurredAt  time.Time       `json:"occurred_at"`
	ID          string          `json:"id"`
	SourceID    string          `json:"source_id"` // Package identifier of the payment application
	PayerName   string          `json:"payer_name"`
	RawEvidence string          `json:"raw_evidence"` // Original "title | body" text the amount was read from
	Amount      decimal.Decimal `json:"amount"`
}

// NewTransaction builds a transaction with a fresh identifier.
func NewTransaction(amount decimal.Decimal, sourceID, payerName, evidence string, at time.Time) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		SourceID:    sourceID,
		PayerName:   payerName,
		OccurredAt:  at,
		RawEvidence: evidence,
	}
}

// HasKnownPayer reports whether the payer name is worth announcing.
func (t *Transaction) HasKnownPayer() bool {
	return t.PayerName != "" && t.PayerName != UnknownPayer
}
