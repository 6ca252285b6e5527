// internal/workers/matching/candidates/resolver.go
package candidates

import (
	"context"
	"errors"
	"strings"

	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/common/logger"
	"dealmatch-workers/internal/models"
)

// Where a candidate pool came from.
const (
	SourceInline = "inline"
	SourceIDs    = "ids"
	SourceSearch = "search"
	SourceActive = "active"
)

var errNoStore = errors.New("no profile store configured")

// ProfileSource is the read side of repository.ProfileStore.
type ProfileSource interface {
	GetBuyer(ctx context.Context, id string) (*models.Buyer, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ActiveListings(ctx context.Context, limit int) ([]models.Listing, error)
	ActiveBuyers(ctx context.Context, limit int) ([]models.Buyer, error)
	ListingsByIDs(ctx context.Context, ids []string) ([]models.Listing, error)
	BuyersByIDs(ctx context.Context, ids []string) ([]models.Buyer, error)
}

// Searcher narrows a candidate pool to ids worth scoring.
type Searcher interface {
	ListingIDsForBuyer(ctx context.Context, buyer models.Buyer, size int) ([]string, error)
	BuyerIDsForListing(ctx context.Context, listing models.Listing, size int) ([]string, error)
}

// Resolver turns job input into the records handed to the scorer.
type Resolver struct {
	store         ProfileSource
	search        Searcher
	maxCandidates int
	logger        logger.Logger
}

// NewResolver builds a Resolver. search may be nil to always use the active set.
func NewResolver(store ProfileSource, search Searcher, maxCandidates int, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Resolver{store: store, search: search, maxCandidates: maxCandidates, logger: log}
}

// Buyer returns inline when given, otherwise loads id.
func (r *Resolver) Buyer(ctx context.Context, id string, inline *models.Buyer) (models.Buyer, error) {
	if inline != nil {
		return *inline, nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Buyer{}, apperrors.NewInvalidInputError("buyerId or buyer is required")
	}
	if r.store == nil {
		return models.Buyer{}, apperrors.NewCandidateLoadError("store", errNoStore)
	}
	b, err := r.store.GetBuyer(ctx, id)
	if err != nil {
		return models.Buyer{}, err
	}
	return *b, nil
}

func (r *Resolver) Listing(ctx context.Context, id string, inline *models.Listing) (models.Listing, error) {
	if inline != nil {
		return *inline, nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Listing{}, apperrors.NewInvalidInputError("listingId or listing is required")
	}
	if r.store == nil {
		return models.Listing{}, apperrors.NewCandidateLoadError("store", errNoStore)
	}
	l, err := r.store.GetListing(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	return *l, nil
}

// ListingsFor assembles the listing pool for buyer: inline records, then explicit
// ids, then a search pre-filter, then the active set.
func (r *Resolver) ListingsFor(ctx context.Context, buyer models.Buyer, ids []string, inline []models.Listing) ([]models.Listing, string, error) {
	if len(inline) > 0 {
		return capPool(r, inline), SourceInline, nil
	}
	if r.store == nil {
		return nil, "", apperrors.NewCandidateLoadError("store", errNoStore)
	}
	if len(ids) > 0 {
		out, err := r.store.ListingsByIDs(ctx, capPool(r, ids))
		return out, SourceIDs, candidateErr(SourceIDs, err)
	}
	if r.search != nil {
		found, err := r.search.ListingIDsForBuyer(ctx, buyer, r.maxCandidates)
		if err == nil {
			out, err := r.store.ListingsByIDs(ctx, found)
			return out, SourceSearch, candidateErr(SourceSearch, err)
		}
		r.logger.Warn("search pre-filter failed, using active listings", map[string]interface{}{
			"buyerId": buyer.ID,
			"error":   err.Error(),
		})
	}
	out, err := r.store.ActiveListings(ctx, r.maxCandidates)
	return out, SourceActive, candidateErr(SourceActive, err)
}

func (r *Resolver) BuyersFor(ctx context.Context, listing models.Listing, ids []string, inline []models.Buyer) ([]models.Buyer, string, error) {
	if len(inline) > 0 {
		return capPool(r, inline), SourceInline, nil
	}
	if r.store == nil {
		return nil, "", apperrors.NewCandidateLoadError("store", errNoStore)
	}
	if len(ids) > 0 {
		out, err := r.store.BuyersByIDs(ctx, capPool(r, ids))
		return out, SourceIDs, candidateErr(SourceIDs, err)
	}
	if r.search != nil {
		found, err := r.search.BuyerIDsForListing(ctx, listing, r.maxCandidates)
		if err == nil {
			out, err := r.store.BuyersByIDs(ctx, found)
			return out, SourceSearch, candidateErr(SourceSearch, err)
		}
		r.logger.Warn("search pre-filter failed, using active buyers", map[string]interface{}{
			"listingId": listing.ID,
			"error":     err.Error(),
		})
	}
	out, err := r.store.ActiveBuyers(ctx, r.maxCandidates)
	return out, SourceActive, candidateErr(SourceActive, err)
}

func capPool[T any](r *Resolver, pool []T) []T {
	if r.maxCandidates > 0 && len(pool) > r.maxCandidates {
		r.logger.Warn("candidate pool truncated", map[string]interface{}{
			"requested": len(pool),
			"max":       r.maxCandidates,
		})
		return pool[:r.maxCandidates]
	}
	return pool
}

func candidateErr(source string, err error) error {
	if err == nil {
		return nil
	}
	if std, ok := apperrors.AsStandardError(err); ok && !std.Retryable {
		return err
	}
	return apperrors.NewCandidateLoadError(source, err)
}
