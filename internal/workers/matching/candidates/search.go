// internal/workers/matching/candidates/search.go
package candidates

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sony/gobreaker"

	"dealmatch-workers/internal/models"
	"dealmatch-workers/internal/workers/data-access/query-elasticsearch/queries"
)

// ElasticsearchSearcher runs the candidate pre-filter queries. Calls go through a
// circuit breaker so a struggling cluster is skipped while the resolver falls back
// to the active set.
type ElasticsearchSearcher struct {
	client        *elasticsearch.Client
	listingsIndex string
	buyersIndex   string
	breaker       *gobreaker.CircuitBreaker
}

func NewElasticsearchSearcher(client *elasticsearch.Client, listingsIndex, buyersIndex string) *ElasticsearchSearcher {
	return &ElasticsearchSearcher{
		client:        client,
		listingsIndex: listingsIndex,
		buyersIndex:   buyersIndex,
		breaker:       newBreaker("candidate-search"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			return counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.25
		},
	})
}

func (s *ElasticsearchSearcher) ListingIDsForBuyer(ctx context.Context, buyer models.Buyer, size int) ([]string, error) {
	return s.ids(ctx, s.listingsIndex, queries.QueryTypeListingCandidates, queries.ListingFiltersForBuyer(buyer), size)
}

func (s *ElasticsearchSearcher) BuyerIDsForListing(ctx context.Context, listing models.Listing, size int) ([]string, error) {
	return s.ids(ctx, s.buyersIndex, queries.QueryTypeBuyerCandidates, queries.BuyerFiltersForListing(listing), size)
}

func (s *ElasticsearchSearcher) ids(ctx context.Context, index, queryType string, filters map[string]interface{}, size int) ([]string, error) {
	sr := queries.SearchRequest{Index: index, QueryType: queryType, Filters: filters}
	sr.Pagination.Size = size

	out, err := s.breaker.Execute(func() (interface{}, error) {
		res, err := queries.Execute(ctx, s.client, sr)
		if err != nil {
			return nil, err
		}
		return res.IDs, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}
