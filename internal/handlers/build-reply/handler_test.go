package buildreply

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	querysummary "fintrack-bot/internal/handlers/query-summary"
	"fintrack-bot/internal/models"
)

func newTestBuilder() *Builder {
	return NewBuilder(&Config{CurrencySymbol: "$"})
}

func TestBuilder_ConfirmPrompt(t *testing.T) {
	b := newTestBuilder()

	text := b.ConfirmPrompt(&models.PendingTransaction{
		UserID:      42,
		Kind:        "expense",
		Amount:      250,
		Description: "groceries",
		Category:    "food",
	})

	assert.Contains(t, text, "Expense: $250.00")
	assert.Contains(t, text, "groceries")
	assert.Contains(t, text, "food")
	assert.Contains(t, text, "Save it?")
}

func TestBuilder_ConfirmPrompt_Income_NoCategory(t *testing.T) {
	b := newTestBuilder()

	text := b.ConfirmPrompt(&models.PendingTransaction{
		UserID: 42,
		Kind:   "income",
		Amount: 5000.5,
	})

	assert.Contains(t, text, "Income: $5000.50")
	assert.NotContains(t, text, "Category:")
}

func TestBuilder_TransactionRecorded(t *testing.T) {
	b := newTestBuilder()

	text := b.TransactionRecorded(&models.Transaction{
		ID:          uuid.New(),
		UserID:      42,
		Kind:        models.KindExpense,
		Amount:      decimal.NewFromFloat(15.5),
		Description: "lunch",
		CreatedAt:   time.Now(),
	})

	assert.Contains(t, text, "Expense recorded")
	assert.Contains(t, text, "$15.50")
	assert.Contains(t, text, "lunch")
}

func TestBuilder_AmountAmended(t *testing.T) {
	b := newTestBuilder()

	text := b.AmountAmended(&models.Transaction{
		ID:          uuid.New(),
		UserID:      42,
		Kind:        models.KindExpense,
		Amount:      decimal.NewFromInt(30),
		Description: "groceries",
		CreatedAt:   time.Now(),
	})

	assert.Contains(t, text, "Updated")
	assert.Contains(t, text, "$30.00")
	assert.Contains(t, text, "groceries")
}

func TestBuilder_Summary_Balance(t *testing.T) {
	b := newTestBuilder()

	text := b.Summary(&querysummary.Output{
		SummaryType: models.SummaryTypeBalance,
		Period:      models.PeriodAll,
		Balance:     decimal.NewFromFloat(1234.56),
	})

	assert.Contains(t, text, "Balance: $1234.56")
}

func TestBuilder_Summary_PeriodTotals(t *testing.T) {
	b := newTestBuilder()

	text := b.Summary(&querysummary.Output{
		SummaryType: models.SummaryTypePeriodTotals,
		Period:      models.PeriodWeek,
		Totals: &querysummary.PeriodTotals{
			Income:  decimal.NewFromInt(5000),
			Expense: decimal.NewFromFloat(1250.50),
			Net:     decimal.NewFromFloat(3749.50),
		},
	})

	assert.Contains(t, text, "last 7 days")
	assert.Contains(t, text, "Income:  $5000.00")
	assert.Contains(t, text, "Expense: $1250.50")
	assert.Contains(t, text, "Net:     $3749.50")
}

func TestBuilder_Summary_Categories(t *testing.T) {
	b := newTestBuilder()

	text := b.Summary(&querysummary.Output{
		SummaryType: models.SummaryTypeCategoryBreakdown,
		Period:      models.PeriodMonth,
		Categories: []querysummary.CategoryTotal{
			{Category: "food", Total: decimal.NewFromInt(420)},
			{Category: "transport", Total: decimal.NewFromInt(120)},
		},
	})

	assert.Contains(t, text, "food: $420.00")
	assert.Contains(t, text, "transport: $120.00")
}

func TestBuilder_Summary_NoData(t *testing.T) {
	b := newTestBuilder()

	text := b.Summary(&querysummary.Output{
		SummaryType: models.SummaryTypeCategoryBreakdown,
		Period:      models.PeriodDay,
	})

	assert.Contains(t, text, "No transactions recorded for today")
}

func TestBuilder_CurrencySymbol(t *testing.T) {
	b := NewBuilder(&Config{CurrencySymbol: "€"})

	text := b.Summary(&querysummary.Output{
		SummaryType: models.SummaryTypeBalance,
		Balance:     decimal.NewFromInt(10),
	})

	assert.Contains(t, text, "€10.00")
}

func TestBuilder_StaticTexts(t *testing.T) {
	b := newTestBuilder()

	assert.Contains(t, b.Welcome(), "/summary")
	assert.Contains(t, b.Help(), "/undo")
	assert.Contains(t, b.Help(), "/edit")
	assert.Contains(t, b.EditUsage(), "/edit 30")
	assert.NotEmpty(t, b.Analyzing())
	assert.NotEmpty(t, b.NotATransaction())
	assert.NotEmpty(t, b.PendingExpired())
	assert.NotEmpty(t, b.SummaryMenu())
}
