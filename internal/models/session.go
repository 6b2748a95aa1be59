// internal/models/session.go
package models

// PendingTransaction is an extracted transaction awaiting the user's
// confirm/cancel decision. It lives in Redis under a per-user key with a TTL;
// expiry silently drops it.
type PendingTransaction struct {
	UserID      int64   `json:"userId"`
	ChatID      int64   `json:"chatId"`
	MessageID   int     `json:"messageId"` // placeholder message to edit on resolution
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}
