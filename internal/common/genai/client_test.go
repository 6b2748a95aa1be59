package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "already clean",
			raw:  `{"kind": "expense", "amount": 10}`,
			want: `{"kind": "expense", "amount": 10}`,
		},
		{
			name: "json code fence",
			raw:  "```json\n{\"kind\": \"expense\"}\n```",
			want: `{"kind": "expense"}`,
		},
		{
			name: "bare code fence",
			raw:  "```\n{\"kind\": \"income\"}\n```",
			want: `{"kind": "income"}`,
		},
		{
			name: "leading prose",
			raw:  "Here is the result:\n{\"kind\": \"none\"}",
			want: `{"kind": "none"}`,
		},
		{
			name: "trailing prose",
			raw:  "{\"kind\": \"none\"}\nLet me know if you need anything else.",
			want: `{"kind": "none"}`,
		},
		{
			name: "surrounding whitespace",
			raw:  "   \n {\"a\": 1} \n  ",
			want: `{"a": 1}`,
		},
		{
			name: "array payload",
			raw:  "```json\n[1, 2, 3]\n```",
			want: `[1, 2, 3]`,
		},
		{
			name: "no json at all",
			raw:  "I could not parse that message",
			want: "I could not parse that message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanModelJSON(tt.raw))
		})
	}
}
