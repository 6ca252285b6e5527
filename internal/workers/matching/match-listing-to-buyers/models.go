// internal/workers/matching/match-listing-to-buyers/models.go
package matchlistingtobuyers

import (
	"dealmatch-workers/internal/matching"
	"dealmatch-workers/internal/models"
)

type Input struct {
	ListingID string          `json:"listingId,omitempty"`
	Listing   *models.Listing `json:"listing,omitempty"`
	BuyerIDs  []string        `json:"buyerIds,omitempty"`
	Buyers    []models.Buyer  `json:"buyers,omitempty"`
	Limit     int             `json:"limit,omitempty"`
}

type BuyerMatch struct {
	Buyer     models.Buyer       `json:"buyer"`
	Score     int                `json:"score"`
	Breakdown matching.Breakdown `json:"breakdown"`
	Reasons   []string           `json:"reasons"`
}

type Output struct {
	ListingID       string       `json:"listingId"`
	Matches         []BuyerMatch `json:"matches"`
	MatchCount      int          `json:"matchCount"`
	TotalMatches    int          `json:"totalMatches"`
	CandidateCount  int          `json:"candidateCount"`
	CandidateSource string       `json:"candidateSource"`
	TopScore        int          `json:"topScore"`
	Threshold       int          `json:"threshold"`
}
