// internal/matching/matcher.go
package matching

import (
	"sort"

	"dealmatch-workers/internal/models"
)

// Match pairs a candidate with the score that ranked it.
type Match[T any] struct {
	Candidate T         `json:"candidate"`
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// RankListingsForBuyer scores every listing against the buyer, drops those below
// Threshold and returns the rest best-first. Ties keep their input order.
func RankListingsForBuyer(buyer models.Buyer, listings []models.Listing) []Match[models.Listing] {
	return rank(listings, func(l models.Listing) Breakdown {
		return Score(buyer, l)
	})
}

// RankBuyersForListing is the listing-side counterpart of RankListingsForBuyer.
func RankBuyersForListing(listing models.Listing, buyers []models.Buyer) []Match[models.Buyer] {
	return rank(buyers, func(b models.Buyer) Breakdown {
		return Score(b, listing)
	})
}

// MatchBuyerToListings returns the listings that match the buyer, best first.
func MatchBuyerToListings(buyer models.Buyer, listings []models.Listing) []models.Listing {
	return candidates(RankListingsForBuyer(buyer, listings))
}

// MatchListingToBuyers returns the buyers that match the listing, best first.
func MatchListingToBuyers(listing models.Listing, buyers []models.Buyer) []models.Buyer {
	return candidates(RankBuyersForListing(listing, buyers))
}

func rank[T any](pool []T, score func(T) Breakdown) []Match[T] {
	out := make([]Match[T], 0, len(pool))
	for _, c := range pool {
		bd := score(c)
		if !bd.IsMatch() {
			continue
		}
		out = append(out, Match[T]{Candidate: c, Score: bd.Total, Breakdown: bd})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func candidates[T any](matches []Match[T]) []T {
	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = m.Candidate
	}
	return out
}
