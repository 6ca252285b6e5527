// internal/workers/notification/send-match-notification/config.go
package sendmatchnotification

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
	// HighScoreAlert is the top score at which an SMS is sent alongside the email.
	HighScoreAlert int
	// MaxListed caps how many matches are written into a message body.
	MaxListed int
	// SendRate limits outbound messages per second across channels; zero means unlimited.
	SendRate float64
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		HighScoreAlert: 90,
		MaxListed:      5,
		SendRate:       14,
		Timeout:        30 * time.Second,
	}
}
