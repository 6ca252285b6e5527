// internal/workers/matching/match-buyer-to-listings/models.go
package matchbuyertolistings

import (
	"dealmatch-workers/internal/matching"
	"dealmatch-workers/internal/models"
)

type Input struct {
	BuyerID    string           `json:"buyerId,omitempty"`
	Buyer      *models.Buyer    `json:"buyer,omitempty"`
	ListingIDs []string         `json:"listingIds,omitempty"`
	Listings   []models.Listing `json:"listings,omitempty"`
	Limit      int              `json:"limit,omitempty"`
}

type ListingMatch struct {
	Listing   models.Listing     `json:"listing"`
	Score     int                `json:"score"`
	Breakdown matching.Breakdown `json:"breakdown"`
	Reasons   []string           `json:"reasons"`
}

type Output struct {
	BuyerID         string         `json:"buyerId"`
	Matches         []ListingMatch `json:"matches"`
	MatchCount      int            `json:"matchCount"`
	TotalMatches    int            `json:"totalMatches"`
	CandidateCount  int            `json:"candidateCount"`
	CandidateSource string         `json:"candidateSource"`
	TopScore        int            `json:"topScore"`
	Threshold       int            `json:"threshold"`
}
