// internal/workers/matching/calculate-match-score/models.go
package calculatematchscore

import (
	"dealmatch-workers/internal/matching"
	"dealmatch-workers/internal/models"
)

type Input struct {
	BuyerID   string          `json:"buyerId,omitempty"`
	Buyer     *models.Buyer   `json:"buyer,omitempty"`
	ListingID string          `json:"listingId,omitempty"`
	Listing   *models.Listing `json:"listing,omitempty"`
}

type Output struct {
	BuyerID    string             `json:"buyerId"`
	ListingID  string             `json:"listingId"`
	MatchScore int                `json:"matchScore"`
	Breakdown  matching.Breakdown `json:"breakdown"`
	IsMatch    bool               `json:"isMatch"`
	Reasons    []string           `json:"reasons"`
	Threshold  int                `json:"threshold"`
}
