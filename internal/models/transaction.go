// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes money in from money out.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Valid reports whether the kind is one of the two persisted values.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single user-scoped ledger entry.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      int64           `json:"userId"`
	Kind        TransactionKind `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ExtractedMessage is the structured result of the language-understanding
// call on one free-form user message.
type ExtractedMessage struct {
	Kind        string  `json:"kind"` // "income", "expense", "query", "none"
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Period      string  `json:"period"`  // only set for kind "query"
	Subject     string  `json:"subject"` // query subject: "balance", "totals", "categories"
}

// IsTransaction reports whether the extraction produced a persistable entry.
func (e *ExtractedMessage) IsTransaction() bool {
	return e.Kind == string(KindIncome) || e.Kind == string(KindExpense)
}
