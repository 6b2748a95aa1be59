package extractmessage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fintrack-bot/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	}
}

type testLoggerAdapter struct {
	logger.Logger
}

func (a *testLoggerAdapter) With(fields map[string]interface{}) Logger {
	return &testLoggerAdapter{a.Logger.With(fields)}
}

func createTestLogger(t *testing.T) Logger {
	return &testLoggerAdapter{logger.NewZapAdapter(zaptest.NewLogger(t))}
}

type fakeGenerator struct {
	response string
	err      error
	failures int
	prompts  []string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.failures > 0 {
		f.failures--
		return "", errors.New("model unavailable")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestHandler(t *testing.T, gen *fakeGenerator) *Handler {
	h, err := NewHandler(createTestConfig(), gen, createTestLogger(t))
	require.NoError(t, err)
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Transaction(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantKind string
		wantAmt  float64
		wantDesc string
		wantCat  string
	}{
		{
			name:     "plain expense",
			response: `{"kind": "expense", "amount": 250, "description": "groceries", "category": "food"}`,
			wantKind: "expense",
			wantAmt:  250,
			wantDesc: "groceries",
			wantCat:  "food",
		},
		{
			name:     "income with decimal amount",
			response: `{"kind": "income", "amount": 5000.50, "description": "salary", "category": "salary"}`,
			wantKind: "income",
			wantAmt:  5000.50,
			wantDesc: "salary",
			wantCat:  "salary",
		},
		{
			name:     "markdown fenced response",
			response: "```json\n{\"kind\": \"expense\", \"amount\": 15.5, \"description\": \"lunch\", \"category\": \"food\"}\n```",
			wantKind: "expense",
			wantAmt:  15.5,
			wantDesc: "lunch",
			wantCat:  "food",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &fakeGenerator{response: tt.response})

			output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: "whatever"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, output.Extraction.Kind)
			assert.Equal(t, tt.wantAmt, output.Extraction.Amount)
			assert.Equal(t, tt.wantDesc, output.Extraction.Description)
			assert.Equal(t, tt.wantCat, output.Extraction.Category)
			assert.True(t, output.Extraction.IsTransaction())
		})
	}
}

func TestHandler_Execute_Query(t *testing.T) {
	h := newTestHandler(t, &fakeGenerator{
		response: `{"kind": "query", "amount": 0, "description": "", "category": "", "period": "week", "subject": "totals"}`,
	})

	output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: "spending this week?"})
	require.NoError(t, err)

	assert.Equal(t, "query", output.Extraction.Kind)
	assert.Equal(t, "week", output.Extraction.Period)
	assert.Equal(t, "totals", output.Extraction.Subject)
	assert.False(t, output.Extraction.IsTransaction())
}

func TestHandler_Execute_NotATransaction(t *testing.T) {
	h := newTestHandler(t, &fakeGenerator{
		response: `{"kind": "none", "amount": 0, "description": ""}`,
	})

	output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: "hello there"})
	require.NoError(t, err)
	assert.Equal(t, "none", output.Extraction.Kind)
}

func TestHandler_Execute_ZeroAmountTransactionBecomesNone(t *testing.T) {
	h := newTestHandler(t, &fakeGenerator{
		response: `{"kind": "expense", "amount": 0, "description": "something"}`,
	})

	output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: "spent nothing"})
	require.NoError(t, err)
	assert.Equal(t, "none", output.Extraction.Kind)
	assert.False(t, output.Extraction.IsTransaction())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidPayload(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json at all", response: "I think you spent money on food"},
		{name: "unknown kind", response: `{"kind": "transfer", "amount": 10}`},
		{name: "negative amount", response: `{"kind": "expense", "amount": -5, "description": "x"}`},
		{name: "missing kind", response: `{"amount": 10, "description": "x"}`},
		{name: "unexpected field", response: `{"kind": "expense", "amount": 10, "note": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &fakeGenerator{response: tt.response})

			output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: "msg"})
			assert.Nil(t, output)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestHandler_Execute_EmptyText(t *testing.T) {
	h := newTestHandler(t, &fakeGenerator{response: "{}"})

	output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: ""})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestHandler_Execute_GeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	h := newTestHandler(t, gen)

	output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: "msg"})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	// MaxRetries 1 means one retry after the first failure.
	assert.Len(t, gen.prompts, 2)
}

func TestHandler_Execute_RetriesTransientFailure(t *testing.T) {
	gen := &fakeGenerator{
		failures: 1,
		response: `{"kind": "expense", "amount": 10, "description": "coffee", "category": "food"}`,
	}
	h := newTestHandler(t, gen)

	output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: "coffee 10"})
	require.NoError(t, err)
	assert.Equal(t, "expense", output.Extraction.Kind)
	assert.Len(t, gen.prompts, 2)
}

func TestHandler_Execute_GeneratorTimeout(t *testing.T) {
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	h := newTestHandler(t, gen)

	output, err := h.Execute(context.Background(), &Input{UserID: 42, Text: "msg"})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrModelTimeout)
	// Context errors are not retried.
	assert.Len(t, gen.prompts, 1)
}

func TestBuildPrompt_ContainsUserText(t *testing.T) {
	h := newTestHandler(t, &fakeGenerator{
		response: `{"kind": "none", "amount": 0}`,
	})

	gen := h.generator.(*fakeGenerator)
	_, err := h.Execute(context.Background(), &Input{UserID: 1, Text: "coffee 4.50"})
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "coffee 4.50")
	assert.Contains(t, gen.prompts[0], "STRICT JSON")
}
