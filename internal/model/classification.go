// Package model defines the core domain models used throughout the application.
package model

import "github.com/shopspring/decimal"

// Classification is the outcome of reading one notification.
// A zero value is a rejection.
type Classification struct {
	PayerName string
	Evidence  string
	Amount    decimal.Decimal
	Accepted  bool
}

// Rejected is the classification returned for anything that is not a confirmed credit.
var Rejected = Classification{}

// Accept builds an accepted classification.
func Accept(amount decimal.Decimal, payerName, evidence string) Classification {
	if payerName == "" {
		payerName = UnknownPayer
	}
	return Classification{
		Accepted:  true,
		Amount:    amount,
		PayerName: payerName,
		Evidence:  evidence,
	}
}
