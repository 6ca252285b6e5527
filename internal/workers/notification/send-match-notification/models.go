// internal/workers/notification/send-match-notification/models.go
package sendmatchnotification

import "dealmatch-workers/internal/models"

type Input struct {
	RecipientType string         `json:"recipientType"` // "buyer" or "seller"
	RecipientID   string         `json:"recipientId"`
	Matches       []MatchSummary `json:"matches"`
	// Channels restricts delivery; empty means every enabled channel.
	Channels []string `json:"channels,omitempty"`
}

type MatchSummary struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Score int    `json:"score"`
}

type Output struct {
	Notifications []models.Notification `json:"notifications"`
	SentCount     int                   `json:"sentCount"`
	Skipped       bool                  `json:"skipped"`
}

// Notification types
const (
	TypeBuyerMatches   = "buyer_matches"
	TypeListingMatches = "listing_matches"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Recipient types
const (
	RecipientTypeBuyer  = "buyer"
	RecipientTypeSeller = "seller"
)
