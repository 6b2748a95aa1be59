// internal/bot/router.go
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"fintrack-bot/internal/common/logger"
	"fintrack-bot/internal/common/metrics"
	"fintrack-bot/internal/models"

	buildreply "fintrack-bot/internal/handlers/build-reply"
	extractmessage "fintrack-bot/internal/handlers/extract-message"
	querysummary "fintrack-bot/internal/handlers/query-summary"
	recordtransaction "fintrack-bot/internal/handlers/record-transaction"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const (
	callbackConfirm       = "confirm"
	callbackCancel        = "cancel"
	callbackSummaryPrefix = "summary:"
)

// BotAPI is the slice of the Telegram client the router needs. The concrete
// *tgbotapi.BotAPI satisfies it; tests substitute a fake.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Extractor interface {
	Execute(ctx context.Context, input *extractmessage.Input) (*extractmessage.Output, error)
}

type Recorder interface {
	Execute(ctx context.Context, input *recordtransaction.Input) (*recordtransaction.Output, error)
}

type Summarizer interface {
	Execute(ctx context.Context, input *querysummary.Input) (*querysummary.Output, error)
	Invalidate(ctx context.Context, userID int64)
}

// Router dispatches Telegram updates to the task handlers and sends the
// rendered replies back through the bot API.
type Router struct {
	api      BotAPI
	extract  Extractor
	record   Recorder
	summary  Summarizer
	replies  *buildreply.Builder
	sessions *SessionStore
	logger   logger.Logger
}

func NewRouter(api BotAPI, extract Extractor, record Recorder, summary Summarizer, replies *buildreply.Builder, sessions *SessionStore, log logger.Logger) *Router {
	return &Router{
		api:      api,
		extract:  extract,
		record:   record,
		summary:  summary,
		replies:  replies,
		sessions: sessions,
		logger:   log.WithFields(map[string]interface{}{"component": "router"}),
	}
}

// HandleUpdate processes one long-poll update. Unknown update types are
// silently ignored.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	case update.Message == nil || update.Message.From == nil:
		// channel posts and edits carry no sender; nothing to do
	case update.Message.IsCommand():
		r.handleCommand(ctx, update.Message)
	case strings.TrimSpace(update.Message.Text) != "":
		r.handleText(ctx, update.Message)
	}
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	metrics.MessagesProcessed.WithLabelValues("command").Inc()

	switch msg.Command() {
	case "start":
		r.send(msg.Chat.ID, r.replies.Welcome())
	case "help":
		r.send(msg.Chat.ID, r.replies.Help())
	case "summary":
		reply := tgbotapi.NewMessage(msg.Chat.ID, r.replies.SummaryMenu())
		reply.ReplyMarkup = summaryKeyboard()
		if _, err := r.api.Send(reply); err != nil {
			r.logger.WithError(err).Error("send summary menu", nil)
		}
	case "edit":
		r.handleEdit(ctx, msg)
	case "undo":
		r.handleUndo(ctx, msg)
	default:
		r.send(msg.Chat.ID, r.replies.Help())
	}
}

// handleEdit corrects the amount of the user's most recent entry, e.g.
// "/edit 30" after a confirmed transaction came out wrong.
func (r *Router) handleEdit(ctx context.Context, msg *tgbotapi.Message) {
	amount, err := decimal.NewFromString(strings.TrimSpace(msg.CommandArguments()))
	if err != nil || !amount.IsPositive() {
		r.send(msg.Chat.ID, r.replies.EditUsage())
		return
	}

	out, err := r.recordExecute(ctx, &recordtransaction.Input{
		Operation: recordtransaction.OpAmendLast,
		UserID:    msg.From.ID,
		Amount:    amount,
	})
	if err != nil {
		if errors.Is(err, recordtransaction.ErrNoTransactions) {
			r.send(msg.Chat.ID, r.replies.NothingToUndo())
			return
		}
		r.logger.WithError(err).Error("amend failed", map[string]interface{}{"userId": msg.From.ID})
		r.send(msg.Chat.ID, r.replies.StorageFailed())
		return
	}

	r.summary.Invalidate(ctx, msg.From.ID)
	r.send(msg.Chat.ID, r.replies.AmountAmended(out.Transaction))
}

func (r *Router) handleUndo(ctx context.Context, msg *tgbotapi.Message) {
	out, err := r.recordExecute(ctx, &recordtransaction.Input{
		Operation: recordtransaction.OpDeleteLast,
		UserID:    msg.From.ID,
	})
	if err != nil {
		if errors.Is(err, recordtransaction.ErrNoTransactions) {
			r.send(msg.Chat.ID, r.replies.NothingToUndo())
			return
		}
		r.logger.WithError(err).Error("undo failed", map[string]interface{}{"userId": msg.From.ID})
		r.send(msg.Chat.ID, r.replies.StorageFailed())
		return
	}

	r.summary.Invalidate(ctx, msg.From.ID)
	r.send(msg.Chat.ID, r.replies.Undone(out.Transaction))
}

// handleText runs the free-form flow: send a placeholder, extract, then edit
// the placeholder in place with the outcome.
func (r *Router) handleText(ctx context.Context, msg *tgbotapi.Message) {
	metrics.MessagesProcessed.WithLabelValues("text").Inc()

	placeholder, err := r.api.Send(tgbotapi.NewMessage(msg.Chat.ID, r.replies.Analyzing()))
	if err != nil {
		r.logger.WithError(err).Error("send placeholder", map[string]interface{}{"chatId": msg.Chat.ID})
		return
	}

	out, err := r.extractExecute(ctx, &extractmessage.Input{
		UserID: msg.From.ID,
		Text:   msg.Text,
	})
	if err != nil {
		r.logger.WithError(err).Error("extraction failed", map[string]interface{}{"userId": msg.From.ID})
		r.edit(msg.Chat.ID, placeholder.MessageID, r.replies.ExtractionFailed())
		return
	}

	extraction := out.Extraction
	switch {
	case extraction.Kind == "query":
		r.answerQuery(ctx, msg.Chat.ID, placeholder.MessageID, msg.From.ID, extraction)
	case extraction.IsTransaction():
		r.promptConfirm(ctx, msg.Chat.ID, placeholder.MessageID, msg.From.ID, extraction)
	default:
		r.edit(msg.Chat.ID, placeholder.MessageID, r.replies.NotATransaction())
	}
}

func (r *Router) answerQuery(ctx context.Context, chatID int64, messageID int, userID int64, extraction models.ExtractedMessage) {
	summaryType := summaryTypeForSubject(extraction.Subject)
	period := models.ParsePeriod(extraction.Period)
	if summaryType == models.SummaryTypeBalance {
		// Balance is period-independent; pinning it keeps the cache key
		// stable no matter how the question was phrased.
		period = models.PeriodAll
	}

	input := &querysummary.Input{
		UserID:      userID,
		SummaryType: summaryType,
		Period:      period,
	}

	out, err := r.summaryExecute(ctx, input)
	if err != nil {
		r.logger.WithError(err).Error("summary query failed", map[string]interface{}{"userId": userID})
		r.edit(chatID, messageID, r.replies.QueryFailed())
		return
	}

	r.edit(chatID, messageID, r.replies.Summary(out))
}

func (r *Router) promptConfirm(ctx context.Context, chatID int64, messageID int, userID int64, extraction models.ExtractedMessage) {
	pending := &models.PendingTransaction{
		UserID:      userID,
		ChatID:      chatID,
		MessageID:   messageID,
		Kind:        extraction.Kind,
		Amount:      extraction.Amount,
		Description: extraction.Description,
		Category:    extraction.Category,
	}

	if err := r.sessions.Put(ctx, pending); err != nil {
		r.logger.WithError(err).Error("store pending transaction", map[string]interface{}{"userId": userID})
		r.edit(chatID, messageID, r.replies.StorageFailed())
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, r.replies.ConfirmPrompt(pending), confirmKeyboard())
	if _, err := r.api.Send(edit); err != nil {
		r.logger.WithError(err).Error("edit confirm prompt", map[string]interface{}{"chatId": chatID})
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	metrics.MessagesProcessed.WithLabelValues("callback").Inc()
	defer r.ackCallback(cb.ID)

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	switch {
	case cb.Data == callbackConfirm:
		r.confirmPending(ctx, chatID, messageID, userID)
	case cb.Data == callbackCancel:
		if err := r.sessions.Drop(ctx, userID); err != nil {
			r.logger.WithError(err).Warn("drop pending transaction", map[string]interface{}{"userId": userID})
		}
		r.edit(chatID, messageID, r.replies.TransactionCancelled())
	case strings.HasPrefix(cb.Data, callbackSummaryPrefix):
		period := models.ParsePeriod(strings.TrimPrefix(cb.Data, callbackSummaryPrefix))
		out, err := r.summaryExecute(ctx, &querysummary.Input{
			UserID:      userID,
			SummaryType: models.SummaryTypePeriodTotals,
			Period:      period,
		})
		if err != nil {
			r.logger.WithError(err).Error("summary callback failed", map[string]interface{}{"userId": userID})
			r.edit(chatID, messageID, r.replies.QueryFailed())
			return
		}
		r.edit(chatID, messageID, r.replies.Summary(out))
	}
}

func (r *Router) confirmPending(ctx context.Context, chatID int64, messageID int, userID int64) {
	pending, err := r.sessions.Take(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoPending) {
			r.edit(chatID, messageID, r.replies.PendingExpired())
			return
		}
		r.logger.WithError(err).Error("take pending transaction", map[string]interface{}{"userId": userID})
		r.edit(chatID, messageID, r.replies.StorageFailed())
		return
	}

	out, err := r.recordExecute(ctx, &recordtransaction.Input{
		Operation:   recordtransaction.OpInsert,
		UserID:      userID,
		Kind:        pending.Kind,
		Amount:      decimal.NewFromFloat(pending.Amount),
		Description: pending.Description,
		Category:    pending.Category,
	})
	if err != nil {
		r.logger.WithError(err).Error("record transaction failed", map[string]interface{}{"userId": userID})
		r.edit(chatID, messageID, r.replies.StorageFailed())
		return
	}

	r.summary.Invalidate(ctx, userID)
	r.edit(chatID, messageID, r.replies.TransactionRecorded(out.Transaction))
}

// Execute wrappers record duration and failure metrics per handler.

func (r *Router) extractExecute(ctx context.Context, input *extractmessage.Input) (*extractmessage.Output, error) {
	start := time.Now()
	out, err := r.extract.Execute(ctx, input)
	observeHandler(extractmessage.TaskType, start, err)
	return out, err
}

func (r *Router) recordExecute(ctx context.Context, input *recordtransaction.Input) (*recordtransaction.Output, error) {
	start := time.Now()
	out, err := r.record.Execute(ctx, input)
	observeHandler(recordtransaction.TaskType, start, err)
	return out, err
}

func (r *Router) summaryExecute(ctx context.Context, input *querysummary.Input) (*querysummary.Output, error) {
	start := time.Now()
	out, err := r.summary.Execute(ctx, input)
	observeHandler(querysummary.TaskType, start, err)
	return out, err
}

func observeHandler(task string, start time.Time, err error) {
	metrics.HandlerDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HandlerFailures.WithLabelValues(task, errorCode(err)).Inc()
	}
}

// errorCode walks the wrap chain down to the sentinel so failure metrics get
// bounded codes like STORAGE_FAILED rather than full messages. Roots that are
// not sentinel-shaped collapse to INTERNAL to keep the label cardinality fixed.
func errorCode(err error) string {
	for {
		u := errors.Unwrap(err)
		if u == nil {
			break
		}
		err = u
	}

	code := err.Error()
	if code == "" {
		return "INTERNAL"
	}
	for _, r := range code {
		if r != '_' && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "INTERNAL"
		}
	}
	return code
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger.WithError(err).Error("send message", map[string]interface{}{"chatId": chatID})
	}
}

func (r *Router) edit(chatID int64, messageID int, text string) {
	if _, err := r.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		r.logger.WithError(err).Error("edit message", map[string]interface{}{"chatId": chatID})
	}
}

func (r *Router) ackCallback(id string) {
	if _, err := r.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		r.logger.WithError(err).Warn("ack callback", map[string]interface{}{"callbackId": id})
	}
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", callbackConfirm),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", callbackCancel),
		),
	)
}

func summaryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Today", callbackSummaryPrefix+"day"),
			tgbotapi.NewInlineKeyboardButtonData("Week", callbackSummaryPrefix+"week"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Month", callbackSummaryPrefix+"month"),
			tgbotapi.NewInlineKeyboardButtonData("All time", callbackSummaryPrefix+"all"),
		),
	)
}

func summaryTypeForSubject(subject string) models.SummaryType {
	switch strings.ToLower(strings.TrimSpace(subject)) {
	case "balance":
		return models.SummaryTypeBalance
	case "categories", "category":
		return models.SummaryTypeCategoryBreakdown
	}
	return models.SummaryTypePeriodTotals
}
