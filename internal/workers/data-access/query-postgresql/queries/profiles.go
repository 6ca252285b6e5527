// internal/workers/data-access/query-postgresql/queries/profiles.go
package queries

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dealmatch-workers/internal/repository"
)

func BuyerProfile(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	id, ok := params["buyerId"].(string)
	if !ok || id == "" {
		return nil, 0, 0, fmt.Errorf("%w: buyerId", ErrMissingParam)
	}

	start := time.Now()
	buyer, err := repository.LoadBuyer(ctx, db, id)
	if err != nil {
		return nil, 0, 0, err
	}
	return buyer, 1, time.Since(start).Milliseconds(), nil
}

func ListingDetails(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	id, ok := params["listingId"].(string)
	if !ok || id == "" {
		return nil, 0, 0, fmt.Errorf("%w: listingId", ErrMissingParam)
	}

	start := time.Now()
	listing, err := repository.LoadListing(ctx, db, id)
	if err != nil {
		return nil, 0, 0, err
	}
	return listing, 1, time.Since(start).Milliseconds(), nil
}

func ActiveListings(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	limit, ok := params["limit"].(int)
	if !ok || limit <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: limit", ErrMissingParam)
	}

	start := time.Now()
	listings, err := repository.LoadActiveListings(ctx, db, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	return listings, len(listings), time.Since(start).Milliseconds(), nil
}

func ActiveBuyers(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	limit, ok := params["limit"].(int)
	if !ok || limit <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: limit", ErrMissingParam)
	}

	start := time.Now()
	buyers, err := repository.LoadActiveBuyers(ctx, db, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	return buyers, len(buyers), time.Since(start).Milliseconds(), nil
}
