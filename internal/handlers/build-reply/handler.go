// internal/handlers/build-reply/handler.go
package buildreply

import (
	"fmt"
	"strings"

	"fintrack-bot/internal/models"

	querysummary "fintrack-bot/internal/handlers/query-summary"

	"github.com/shopspring/decimal"
)

const TaskType = "build-reply"

// Builder renders every user-facing message the bot sends. Keeping the
// wording in one place makes the conversational surface testable without
// touching the transport.
type Builder struct {
	config *Config
}

func NewBuilder(config *Config) *Builder {
	return &Builder{config: config}
}

func (b *Builder) Welcome() string {
	return strings.Join([]string{
		"Hi! I'm your finance tracker.",
		"",
		"Tell me about money in plain words and I'll record it:",
		"  • \"spent 250 on groceries\"",
		"  • \"got paid 50000 salary\"",
		"  • \"coffee 4.50\"",
		"",
		"Ask me things like \"what's my balance?\" or \"how much did I spend this week?\".",
		"",
		"Commands: /summary, /edit, /undo, /help",
	}, "\n")
}

func (b *Builder) Help() string {
	return strings.Join([]string{
		"Send any message describing income or an expense and I'll extract the amount, description and category, then ask you to confirm before saving.",
		"",
		"/summary – balance and totals for a period",
		"/edit 30 – correct the amount of your last entry",
		"/undo – delete your most recent entry",
		"",
		"You can also just ask: \"balance?\", \"spending this month?\", \"top categories?\".",
	}, "\n")
}

// Analyzing is the placeholder sent immediately on a free-form message and
// later edited in place with the outcome.
func (b *Builder) Analyzing() string {
	return "Analyzing your message..."
}

// ConfirmPrompt asks the user to confirm an extracted transaction before it
// is persisted.
func (b *Builder) ConfirmPrompt(p *models.PendingTransaction) string {
	label := "Expense"
	if p.Kind == string(models.KindIncome) {
		label = "Income"
	}
	amount := decimal.NewFromFloat(p.Amount)
	lines := []string{
		fmt.Sprintf("%s: %s", label, b.money(amount)),
		fmt.Sprintf("Description: %s", orDash(p.Description)),
	}
	if p.Category != "" {
		lines = append(lines, fmt.Sprintf("Category: %s", p.Category))
	}
	lines = append(lines, "", "Save it?")
	return strings.Join(lines, "\n")
}

func (b *Builder) TransactionRecorded(tx *models.Transaction) string {
	verb := "Expense recorded"
	if tx.Kind == models.KindIncome {
		verb = "Income recorded"
	}
	return fmt.Sprintf("✅ %s: %s – %s", verb, b.money(tx.Amount), orDash(tx.Description))
}

func (b *Builder) TransactionCancelled() string {
	return "Okay, nothing was saved."
}

// PendingExpired covers a confirm/cancel tap arriving after the Redis entry
// was evicted.
func (b *Builder) PendingExpired() string {
	return "That one expired – send the message again if you still want to record it."
}

func (b *Builder) Undone(tx *models.Transaction) string {
	return fmt.Sprintf("↩️ Removed: %s %s – %s", tx.Kind, b.money(tx.Amount), orDash(tx.Description))
}

func (b *Builder) NothingToUndo() string {
	return "You have no recorded transactions yet."
}

func (b *Builder) AmountAmended(tx *models.Transaction) string {
	return fmt.Sprintf("✏️ Updated: %s %s – %s", tx.Kind, b.money(tx.Amount), orDash(tx.Description))
}

// EditUsage is sent when /edit arrives without a usable amount.
func (b *Builder) EditUsage() string {
	return "Send the corrected amount after the command, e.g. /edit 30."
}

// SummaryMenu captions the inline period keyboard for /summary.
func (b *Builder) SummaryMenu() string {
	return "Summary for which period?"
}

// Summary renders an aggregation result. The shape depends on SummaryType:
// balance is a single figure, period totals show income/expense/net, and a
// category breakdown lists per-category spending.
func (b *Builder) Summary(out *querysummary.Output) string {
	switch out.SummaryType {
	case models.SummaryTypeBalance:
		return fmt.Sprintf("\U0001f4b0 Balance: %s", b.money(out.Balance))
	case models.SummaryTypePeriodTotals:
		if out.Totals == nil {
			return b.noData(out.Period)
		}
		return strings.Join([]string{
			fmt.Sprintf("\U0001f4ca Summary (%s)", periodLabel(out.Period)),
			fmt.Sprintf("Income:  %s", b.money(out.Totals.Income)),
			fmt.Sprintf("Expense: %s", b.money(out.Totals.Expense)),
			fmt.Sprintf("Net:     %s", b.money(out.Totals.Net)),
		}, "\n")
	case models.SummaryTypeCategoryBreakdown:
		if len(out.Categories) == 0 {
			return b.noData(out.Period)
		}
		lines := []string{fmt.Sprintf("\U0001f4ca Spending by category (%s)", periodLabel(out.Period))}
		for _, c := range out.Categories {
			lines = append(lines, fmt.Sprintf("  %s: %s", c.Category, b.money(c.Total)))
		}
		return strings.Join(lines, "\n")
	}
	return b.noData(out.Period)
}

func (b *Builder) noData(period models.SummaryPeriod) string {
	return fmt.Sprintf("No transactions recorded for %s.", periodLabel(period))
}

func (b *Builder) NotATransaction() string {
	return "I couldn't find a transaction in that. Try something like \"spent 250 on groceries\"."
}

func (b *Builder) ExtractionFailed() string {
	return "Sorry, I couldn't understand that right now. Please try again."
}

func (b *Builder) StorageFailed() string {
	return "Something went wrong while saving. Your entry was not recorded – please try again."
}

func (b *Builder) QueryFailed() string {
	return "Something went wrong while fetching your summary. Please try again."
}

func (b *Builder) money(d decimal.Decimal) string {
	return b.config.CurrencySymbol + d.StringFixed(2)
}

func periodLabel(p models.SummaryPeriod) string {
	switch p {
	case models.PeriodDay:
		return "today"
	case models.PeriodWeek:
		return "last 7 days"
	case models.PeriodMonth:
		return "last 30 days"
	}
	return "all time"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "–"
	}
	return s
}
