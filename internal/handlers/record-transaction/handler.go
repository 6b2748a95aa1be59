// internal/handlers/record-transaction/handler.go
package recordtransaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fintrack-bot/internal/common/logger"
	"fintrack-bot/internal/models"
)

const (
	TaskType = "record-transaction"
)

var (
	ErrStorageFailed      = errors.New("STORAGE_FAILED")
	ErrStorageTimeout     = errors.New("STORAGE_TIMEOUT")
	ErrInvalidOperation   = errors.New("INVALID_OPERATION")
	ErrInvalidTransaction = errors.New("INVALID_TRANSACTION")
	ErrNoTransactions     = errors.New("NO_TRANSACTIONS")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
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
	if input.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidTransaction)
	}

	switch input.Operation {
	case OpInsert:
		return h.insert(ctx, input)
	case OpAmendLast:
		return h.amendLast(ctx, input)
	case OpDeleteLast:
		return h.deleteLast(ctx, input)
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidOperation, input.Operation)
}

func (h *Handler) insert(ctx context.Context, input *Input) (*Output, error) {
	kind := models.TransactionKind(input.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidTransaction, input.Kind)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}

	tx := models.Transaction{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Kind:        kind,
		Amount:      input.Amount,
		Description: input.Description,
		Category:    input.Category,
	}

	err := h.db.QueryRowContext(ctx, `
		INSERT INTO transactions (id, user_id, kind, amount, description, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		tx.ID, tx.UserID, tx.Kind, tx.Amount, tx.Description, tx.Category,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return nil, h.storageErr(err)
	}

	h.logger.Info("transaction recorded", map[string]interface{}{
		"userId": tx.UserID,
		"kind":   tx.Kind,
		"id":     tx.ID.String(),
	})

	return &Output{Transaction: &tx}, nil
}

func (h *Handler) amendLast(ctx context.Context, input *Input) (*Output, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}

	var tx models.Transaction
	tx.UserID = input.UserID

	err := h.db.QueryRowContext(ctx, `
		UPDATE transactions SET amount = $2
		WHERE id = (SELECT id FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1)
		RETURNING id, kind, amount, description, category, created_at`,
		input.UserID, input.Amount,
	).Scan(&tx.ID, &tx.Kind, &tx.Amount, &tx.Description, &tx.Category, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoTransactions
		}
		return nil, h.storageErr(err)
	}

	h.logger.Info("last transaction amended", map[string]interface{}{
		"userId": tx.UserID,
		"id":     tx.ID.String(),
	})

	return &Output{Transaction: &tx}, nil
}

func (h *Handler) deleteLast(ctx context.Context, input *Input) (*Output, error) {
	var tx models.Transaction
	tx.UserID = input.UserID

	err := h.db.QueryRowContext(ctx, `
		DELETE FROM transactions
		WHERE id = (SELECT id FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1)
		RETURNING id, kind, amount, description, category, created_at`,
		input.UserID,
	).Scan(&tx.ID, &tx.Kind, &tx.Amount, &tx.Description, &tx.Category, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoTransactions
		}
		return nil, h.storageErr(err)
	}

	h.logger.Info("last transaction removed", map[string]interface{}{
		"userId": tx.UserID,
		"id":     tx.ID.String(),
	})

	return &Output{Transaction: &tx, Removed: true}, nil
}

func (h *Handler) storageErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStorageTimeout
	}
	return fmt.Errorf("%w: %v", ErrStorageFailed, err)
}
