// internal/handlers/extract-message/handler.go
package extractmessage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"fintrack-bot/internal/common/genai"
	"fintrack-bot/internal/common/metrics"
	"fintrack-bot/internal/models"
)

const (
	TaskType = "extract-message"
)

var (
	ErrExtractionFailed = errors.New("EXTRACTION_FAILED")
	ErrModelTimeout     = errors.New("MODEL_TIMEOUT")
	ErrInvalidPayload   = errors.New("INVALID_PAYLOAD")
)

// payloadSchema bounds what we accept from the model before any field is
// trusted. Conditional rules (amount > 0 for transactions) are enforced in
// code after decoding.
const payloadSchema = `{
	"type": "object",
	"properties": {
		"kind": {"type": "string", "enum": ["income", "expense", "query", "none"]},
		"amount": {"type": "number", "minimum": 0},
		"description": {"type": "string", "maxLength": 256},
		"category": {"type": "string", "maxLength": 64},
		"period": {"type": "string", "maxLength": 32},
		"subject": {"type": "string", "maxLength": 32}
	},
	"required": ["kind"],
	"additionalProperties": false
}`

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Generator is the single model call this handler depends on.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Handler struct {
	config    *Config
	generator Generator
	schema    *gojsonschema.Schema
	logger    Logger
}

func NewHandler(config *Config, gen Generator, log Logger) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
	if err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}

	return &Handler{
		config:    config,
		generator: gen,
		schema:    schema,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Text == "" {
		return nil, fmt.Errorf("%w: empty message text", ErrInvalidPayload)
	}

	raw, err := h.generate(ctx, buildPrompt(input.Text))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrModelTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	clean := genai.CleanModelJSON(raw)

	result, err := h.schema.Validate(gojsonschema.NewStringLoader(clean))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable model response", ErrInvalidPayload)
	}
	if !result.Valid() {
		h.logger.Warn("model payload rejected by schema", map[string]interface{}{
			"violations": len(result.Errors()),
			"first":      result.Errors()[0].String(),
		})
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, result.Errors()[0].String())
	}

	var extraction models.ExtractedMessage
	if err := json.Unmarshal([]byte(clean), &extraction); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrInvalidPayload, err)
	}

	// A transaction without a positive amount is not usable; treat it the
	// same as "not a transaction" rather than failing the message.
	if extraction.IsTransaction() && extraction.Amount <= 0 {
		extraction = models.ExtractedMessage{Kind: "none"}
	}

	metrics.ExtractionOutcomes.WithLabelValues(extraction.Kind).Inc()

	h.logger.Info("message extracted", map[string]interface{}{
		"userId": input.UserID,
		"kind":   extraction.Kind,
	})

	return &Output{Extraction: extraction}, nil
}

// generate calls the model up to MaxRetries+1 times. Context errors stop the
// loop immediately since the handler deadline has already expired.
func (h *Handler) generate(ctx context.Context, prompt string) (string, error) {
	var raw string
	var err error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			h.logger.Warn("retrying model call", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		raw, err = h.generator.GenerateText(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
	}

	return "", err
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`You are the natural-language processing API of a personal finance-tracking bot.
Turn the raw user message into structured JSON.

User message: %q

Output STRICT JSON only (no comments, no extra text) with these fields:
- "kind": "income" for money received, "expense" for money spent, "query" when the user asks about past spending or balance, "none" otherwise.
- "amount": number, the transaction amount (0 when not a transaction).
- "description": short description of the transaction.
- "category": one word spending category such as "food", "transport", "salary", "shopping", "health", "other".
- "period": for queries only, one of "day", "week", "month", "all".
- "subject": for queries only, one of "balance", "totals", "categories".

Examples:
- "lunch at the diner 15.50" -> {"kind": "expense", "amount": 15.50, "description": "lunch at the diner", "category": "food"}
- "got my monthly salary 5000" -> {"kind": "income", "amount": 5000, "description": "monthly salary", "category": "salary"}
- "how much did I spend this week" -> {"kind": "query", "amount": 0, "description": "", "category": "", "period": "week", "subject": "totals"}
- "what is my balance" -> {"kind": "query", "amount": 0, "description": "", "category": "", "period": "all", "subject": "balance"}
- "hey how are you" -> {"kind": "none", "amount": 0, "description": ""}

Return ONLY valid raw JSON.
Do NOT wrap the response in code fences.
Do NOT use markdown.`, text)
}
