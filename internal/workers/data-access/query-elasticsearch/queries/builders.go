package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"dealmatch-workers/internal/models"
)

const (
	QueryTypeListingCandidates = "listing_candidates"
	QueryTypeBuyerCandidates   = "buyer_candidates"
	QueryTypeListingKeyword    = "listing_keyword"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// SearchRequest defines the structure of a query request
type SearchRequest struct {
	Index      string
	QueryType  string
	Filters    map[string]interface{}
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(sr SearchRequest) (*esapi.SearchRequest, error) {
	if sr.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch sr.QueryType {
	case QueryTypeListingCandidates:
		queryBody = buildListingCandidatesQuery(sr.Filters)
	case QueryTypeBuyerCandidates:
		queryBody = buildBuyerCandidatesQuery(sr.Filters)
	case QueryTypeListingKeyword:
		queryBody = buildListingKeywordQuery(sr.Filters)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, sr.QueryType)
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, err
	}

	return &esapi.SearchRequest{
		Index: []string{sr.Index},
		Body:  bytes.NewReader(body),
		From:  &sr.Pagination.From,
		Size:  &sr.Pagination.Size,
	}, nil
}

// ListingFiltersForBuyer derives listing_candidates filters from a buyer profile.
func ListingFiltersForBuyer(b models.Buyer) map[string]interface{} {
	f := map[string]interface{}{
		"industries": b.Industries,
		"country":    b.Country,
		"state":      b.State,
		"city":       b.City,
	}
	if b.BudgetRangeLower != nil && b.BudgetRangeHigher != nil {
		f["budget"] = map[string]interface{}{"min": *b.BudgetRangeLower, "max": *b.BudgetRangeHigher}
	}
	return f
}

// BuyerFiltersForListing derives buyer_candidates filters from a listing.
func BuyerFiltersForListing(l models.Listing) map[string]interface{} {
	f := map[string]interface{}{
		"industry": l.Industry,
		"country":  l.Country,
		"state":    l.State,
		"city":     l.City,
	}
	if l.AskingPriceLowerBound != nil && l.AskingPriceUpperBound != nil {
		f["budget"] = map[string]interface{}{"min": *l.AskingPriceLowerBound, "max": *l.AskingPriceUpperBound}
	}
	return f
}

// buildListingCandidatesQuery keeps active listings that share an industry with the
// buyer or whose asking range overlaps the budget. A pair with neither cannot reach
// the match threshold, so the pre-filter never drops a real match. Location only boosts.
func buildListingCandidatesQuery(filters map[string]interface{}) map[string]interface{} {
	var gate []interface{}
	if industries := stringList(filters["industries"]); len(industries) > 0 {
		gate = append(gate, term("terms", "industry", industries))
	}
	if lo, hi, ok := rangeOf(filters["budget"]); ok {
		gate = append(gate, overlap("askingPriceLowerBound", "askingPriceUpperBound", lo, hi))
	}

	return candidateQuery(gate, filters, term("term", "status", "active"))
}

func buildBuyerCandidatesQuery(filters map[string]interface{}) map[string]interface{} {
	var gate []interface{}
	if industry, _ := filters["industry"].(string); industry != "" {
		gate = append(gate, term("term", "industries", industry))
	}
	if lo, hi, ok := rangeOf(filters["budget"]); ok {
		gate = append(gate, overlap("budgetRangeLower", "budgetRangeHigher", lo, hi))
	}

	return candidateQuery(gate, filters, term("term", "active", true))
}

// locationBoosts mirror the location points of the scoring rubric.
var locationBoosts = []struct {
	field string
	boost int
}{
	{"city", 10},
	{"state", 7},
	{"country", 3},
}

func candidateQuery(gate []interface{}, filters map[string]interface{}, status interface{}) map[string]interface{} {
	if len(gate) == 0 {
		// nothing can score high enough
		return map[string]interface{}{
			"query": map[string]interface{}{"match_none": map[string]interface{}{}},
		}
	}
	filterClauses := []interface{}{status, map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               gate,
			"minimum_should_match": 1,
		},
	}}

	var boosts []interface{}
	for _, b := range locationBoosts {
		if v, _ := filters[b.field].(string); v != "" {
			boosts = append(boosts, map[string]interface{}{
				"term": map[string]interface{}{b.field: map[string]interface{}{"value": v, "boost": b.boost}},
			})
		}
	}

	boolQuery := map[string]interface{}{"filter": filterClauses}
	if len(boosts) > 0 {
		boolQuery["should"] = boosts
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{"_score", map[string]interface{}{"id": "asc"}},
	}
}

func buildListingKeywordQuery(filters map[string]interface{}) map[string]interface{} {
	keywords, _ := filters["keywords"].(string)
	if strings.TrimSpace(keywords) == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_none": map[string]interface{}{}},
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  keywords,
						"fields": []string{"title^2", "description"},
						"type":   "best_fields",
					},
				}},
				"filter": []interface{}{term("term", "status", "active")},
			},
		},
	}
}

func term(kind, field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{kind: map[string]interface{}{field: value}}
}

// overlap matches documents whose [lowField, highField] range intersects [lo, hi].
func overlap(lowField, highField string, lo, hi float64) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": []interface{}{
				map[string]interface{}{"range": map[string]interface{}{lowField: map[string]interface{}{"lte": hi}}},
				map[string]interface{}{"range": map[string]interface{}{highField: map[string]interface{}{"gte": lo}}},
			},
		},
	}
}

func stringList(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func rangeOf(v interface{}) (float64, float64, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return 0, 0, false
	}
	lo, okLo := number(m["min"])
	hi, okHi := number(m["max"])
	if !okLo || !okHi || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
