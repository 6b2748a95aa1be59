// internal/models/query_types.go
package models

// SummaryType identifies one of the bounded aggregation queries.
type SummaryType string

const (
	SummaryTypeBalance           SummaryType = "balance"
	SummaryTypePeriodTotals      SummaryType = "period_totals"
	SummaryTypeCategoryBreakdown SummaryType = "category_breakdown"
)

// SummaryPeriod bounds an aggregation window.
type SummaryPeriod string

const (
	PeriodDay   SummaryPeriod = "day"
	PeriodWeek  SummaryPeriod = "week"
	PeriodMonth SummaryPeriod = "month"
	PeriodAll   SummaryPeriod = "all"
)

// ParsePeriod maps free-form period words from the extractor to a bounded
// window, defaulting to month.
func ParsePeriod(s string) SummaryPeriod {
	switch SummaryPeriod(s) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return SummaryPeriod(s)
	}
	switch s {
	case "today", "daily":
		return PeriodDay
	case "weekly", "this week":
		return PeriodWeek
	case "monthly", "this month":
		return PeriodMonth
	case "total", "all time", "alltime", "":
		return PeriodAll
	}
	return PeriodMonth
}
