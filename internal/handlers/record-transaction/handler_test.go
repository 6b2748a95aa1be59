package recordtransaction

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fintrack-bot/internal/common/logger"
	"fintrack-bot/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	h := NewHandler(createTestConfig(), db, createTestLogger(t))
	return h, mock, func() { db.Close() }
}

// ==========================
// Insert Tests
// ==========================

func TestHandler_Execute_Insert(t *testing.T) {
	h, mock, cleanup := newTestHandler(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs(sqlmock.AnyArg(), int64(42), models.KindExpense, decimal.NewFromFloat(250), "groceries", "food").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	output, err := h.Execute(context.Background(), &Input{
		Operation:   OpInsert,
		UserID:      42,
		Kind:        "expense",
		Amount:      decimal.NewFromFloat(250),
		Description: "groceries",
		Category:    "food",
	})
	require.NoError(t, err)
	require.NotNil(t, output.Transaction)

	assert.Equal(t, int64(42), output.Transaction.UserID)
	assert.Equal(t, models.KindExpense, output.Transaction.Kind)
	assert.True(t, output.Transaction.Amount.Equal(decimal.NewFromFloat(250)))
	assert.Equal(t, "groceries", output.Transaction.Description)
	assert.NotEqual(t, uuid.Nil, output.Transaction.ID)
	assert.Equal(t, now, output.Transaction.CreatedAt)
	assert.False(t, output.Removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Insert_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{
			name:  "unknown kind",
			input: &Input{Operation: OpInsert, UserID: 42, Kind: "transfer", Amount: decimal.NewFromInt(10)},
		},
		{
			name:  "zero amount",
			input: &Input{Operation: OpInsert, UserID: 42, Kind: "expense", Amount: decimal.Zero},
		},
		{
			name:  "negative amount",
			input: &Input{Operation: OpInsert, UserID: 42, Kind: "income", Amount: decimal.NewFromInt(-5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, cleanup := newTestHandler(t)
			defer cleanup()

			output, err := h.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			assert.ErrorIs(t, err, ErrInvalidTransaction)
		})
	}
}

// ==========================
// Amend / Delete Tests
// ==========================

func TestHandler_Execute_AmendLast(t *testing.T) {
	h, mock, cleanup := newTestHandler(t)
	defer cleanup()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`UPDATE transactions SET amount`).
		WithArgs(int64(42), decimal.NewFromFloat(99.90)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "amount", "description", "category", "created_at"}).
			AddRow(id.String(), "expense", "99.90", "groceries", "food", now))

	output, err := h.Execute(context.Background(), &Input{
		Operation: OpAmendLast,
		UserID:    42,
		Amount:    decimal.NewFromFloat(99.90),
	})
	require.NoError(t, err)

	assert.Equal(t, id, output.Transaction.ID)
	assert.True(t, output.Transaction.Amount.Equal(decimal.NewFromFloat(99.90)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DeleteLast(t *testing.T) {
	h, mock, cleanup := newTestHandler(t)
	defer cleanup()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`DELETE FROM transactions`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "amount", "description", "category", "created_at"}).
			AddRow(id.String(), "income", "5000", "salary", "salary", now))

	output, err := h.Execute(context.Background(), &Input{
		Operation: OpDeleteLast,
		UserID:    42,
	})
	require.NoError(t, err)

	assert.True(t, output.Removed)
	assert.Equal(t, models.KindIncome, output.Transaction.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DeleteLast_Empty(t *testing.T) {
	h, mock, cleanup := newTestHandler(t)
	defer cleanup()

	mock.ExpectQuery(`DELETE FROM transactions`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	output, err := h.Execute(context.Background(), &Input{
		Operation: OpDeleteLast,
		UserID:    42,
	})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestHandler_Execute_AmendLast_Empty(t *testing.T) {
	h, mock, cleanup := newTestHandler(t)
	defer cleanup()

	mock.ExpectQuery(`UPDATE transactions SET amount`).
		WithArgs(int64(42), decimal.NewFromInt(10)).
		WillReturnError(sql.ErrNoRows)

	output, err := h.Execute(context.Background(), &Input{
		Operation: OpAmendLast,
		UserID:    42,
		Amount:    decimal.NewFromInt(10),
	})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrNoTransactions)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidOperation(t *testing.T) {
	h, _, cleanup := newTestHandler(t)
	defer cleanup()

	output, err := h.Execute(context.Background(), &Input{Operation: "upsert", UserID: 42})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestHandler_Execute_MissingUser(t *testing.T) {
	h, _, cleanup := newTestHandler(t)
	defer cleanup()

	output, err := h.Execute(context.Background(), &Input{Operation: OpInsert, Kind: "expense", Amount: decimal.NewFromInt(10)})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestHandler_Execute_StorageFailure(t *testing.T) {
	h, mock, cleanup := newTestHandler(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnError(errors.New("connection reset"))

	output, err := h.Execute(context.Background(), &Input{
		Operation: OpInsert,
		UserID:    42,
		Kind:      "expense",
		Amount:    decimal.NewFromInt(10),
	})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrStorageFailed)
}
