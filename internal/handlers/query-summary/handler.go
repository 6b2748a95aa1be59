// internal/handlers/query-summary/handler.go
package querysummary

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fintrack-bot/internal/common/logger"
	"fintrack-bot/internal/common/metrics"
	"fintrack-bot/internal/models"
)

const (
	TaskType = "query-summary"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
	ErrInvalidSummaryType   = errors.New("INVALID_SUMMARY_TYPE")
)

// periodIntervals maps a bounded window to the PostgreSQL interval literal
// used in the aggregation predicate. PeriodAll has no predicate.
var periodIntervals = map[models.SummaryPeriod]string{
	models.PeriodDay:   "1 day",
	models.PeriodWeek:  "7 days",
	models.PeriodMonth: "30 days",
}

type Handler struct {
	config *Config
	db     *sql.DB
	cache  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, cache *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}

	switch input.SummaryType {
	case models.SummaryTypeBalance, models.SummaryTypePeriodTotals, models.SummaryTypeCategoryBreakdown:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSummaryType, input.SummaryType)
	}

	if cached := h.cacheGet(ctx, input); cached != nil {
		return cached, nil
	}

	output := &Output{
		SummaryType: input.SummaryType,
		Period:      input.Period,
	}

	var err error
	switch input.SummaryType {
	case models.SummaryTypeBalance:
		err = h.queryBalance(ctx, input.UserID, output)
	case models.SummaryTypePeriodTotals:
		err = h.queryPeriodTotals(ctx, input, output)
	case models.SummaryTypeCategoryBreakdown:
		err = h.queryCategoryBreakdown(ctx, input, output)
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	h.cacheSet(ctx, input, output)
	return output, nil
}

// queryBalance delegates to the user_balance stored function: income minus
// expense with missing rows coalesced to zero.
func (h *Handler) queryBalance(ctx context.Context, userID int64, out *Output) error {
	return h.db.QueryRowContext(ctx,
		`SELECT user_balance($1)`, userID,
	).Scan(&out.Balance)
}

func (h *Handler) queryPeriodTotals(ctx context.Context, input *Input, out *Output) error {
	totals := &PeriodTotals{}

	var err error
	if interval, bounded := periodIntervals[input.Period]; bounded {
		err = h.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0),
			       COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0)
			FROM transactions
			WHERE user_id = $1 AND created_at >= NOW() - $2::interval`,
			input.UserID, interval,
		).Scan(&totals.Income, &totals.Expense)
	} else {
		err = h.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0),
			       COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0)
			FROM transactions
			WHERE user_id = $1`,
			input.UserID,
		).Scan(&totals.Income, &totals.Expense)
	}
	if err != nil {
		return err
	}

	totals.Net = totals.Income.Sub(totals.Expense)
	out.Totals = totals
	return nil
}

func (h *Handler) queryCategoryBreakdown(ctx context.Context, input *Input, out *Output) error {
	var rows *sql.Rows
	var err error

	if interval, bounded := periodIntervals[input.Period]; bounded {
		rows, err = h.db.QueryContext(ctx, `
			SELECT COALESCE(NULLIF(category, ''), 'other'), COALESCE(SUM(amount), 0)
			FROM transactions
			WHERE user_id = $1 AND kind = 'expense' AND created_at >= NOW() - $2::interval
			GROUP BY 1 ORDER BY 2 DESC LIMIT $3`,
			input.UserID, interval, h.config.MaxCategories,
		)
	} else {
		rows, err = h.db.QueryContext(ctx, `
			SELECT COALESCE(NULLIF(category, ''), 'other'), COALESCE(SUM(amount), 0)
			FROM transactions
			WHERE user_id = $1 AND kind = 'expense'
			GROUP BY 1 ORDER BY 2 DESC LIMIT $2`,
			input.UserID, h.config.MaxCategories,
		)
	}
	if err != nil {
		return err
	}
	defer rows.Close()

	categories := []CategoryTotal{}
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return err
		}
		categories = append(categories, ct)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	out.Categories = categories
	return nil
}

// --- cache ---

func cacheKey(userID int64, typ models.SummaryType, period models.SummaryPeriod) string {
	return fmt.Sprintf("summary:%d:%s:%s", userID, typ, period)
}

func (h *Handler) cacheGet(ctx context.Context, input *Input) *Output {
	if h.cache == nil {
		return nil
	}

	raw, err := h.cache.Get(ctx, cacheKey(input.UserID, input.SummaryType, input.Period)).Result()
	if err != nil {
		metrics.SummaryCacheHits.WithLabelValues("miss").Inc()
		return nil
	}

	var out Output
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		metrics.SummaryCacheHits.WithLabelValues("miss").Inc()
		return nil
	}

	metrics.SummaryCacheHits.WithLabelValues("hit").Inc()
	out.Cached = true
	return &out
}

func (h *Handler) cacheSet(ctx context.Context, input *Input, out *Output) {
	if h.cache == nil {
		return
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return
	}

	if err := h.cache.Set(ctx, cacheKey(input.UserID, input.SummaryType, input.Period), raw, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("summary cache write failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
	}
}

// Invalidate drops every cached summary for the user. Called after any write
// to the user's transactions. The key space is a small bounded enumeration,
// so no SCAN is needed.
func (h *Handler) Invalidate(ctx context.Context, userID int64) {
	if h.cache == nil {
		return
	}

	periods := []models.SummaryPeriod{models.PeriodDay, models.PeriodWeek, models.PeriodMonth, models.PeriodAll}
	keys := make([]string, 0, 3*len(periods))
	for _, p := range periods {
		keys = append(keys, cacheKey(userID, models.SummaryTypeBalance, p))
		keys = append(keys, cacheKey(userID, models.SummaryTypePeriodTotals, p))
		keys = append(keys, cacheKey(userID, models.SummaryTypeCategoryBreakdown, p))
	}

	if err := h.cache.Del(ctx, keys...).Err(); err != nil {
		h.logger.Warn("summary cache invalidation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}
