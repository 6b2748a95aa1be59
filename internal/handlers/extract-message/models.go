// internal/handlers/extract-message/models.go
package extractmessage

import "fintrack-bot/internal/models"

type Input struct {
	UserID int64  `json:"userId"`
	Text   string `json:"text"`
}

type Output struct {
	Extraction models.ExtractedMessage `json:"extraction"`
}
