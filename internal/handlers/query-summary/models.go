// internal/handlers/query-summary/models.go
package querysummary

import (
	"fintrack-bot/internal/models"

	"github.com/shopspring/decimal"
)

type Input struct {
	UserID      int64                `json:"userId"`
	SummaryType models.SummaryType   `json:"summaryType"`
	Period      models.SummaryPeriod `json:"period"`
}

type Output struct {
	SummaryType models.SummaryType   `json:"summaryType"`
	Period      models.SummaryPeriod `json:"period"`
	Balance     decimal.Decimal      `json:"balance"`
	Totals      *PeriodTotals        `json:"totals,omitempty"`
	Categories  []CategoryTotal      `json:"categories,omitempty"`
	Cached      bool                 `json:"-"`
}

type PeriodTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
