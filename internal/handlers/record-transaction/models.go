// internal/handlers/record-transaction/models.go
package recordtransaction

import (
	"fintrack-bot/internal/models"

	"github.com/shopspring/decimal"
)

// Operation selects which user-scoped row mutation to run.
type Operation string

const (
	OpInsert     Operation = "insert"
	OpAmendLast  Operation = "amend_last"
	OpDeleteLast Operation = "delete_last"
)

type Input struct {
	Operation   Operation       `json:"operation"`
	UserID      int64           `json:"userId"`
	Kind        string          `json:"kind"`   // insert only
	Amount      decimal.Decimal `json:"amount"` // insert and amend_last
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

type Output struct {
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Removed     bool                `json:"removed,omitempty"`
}
