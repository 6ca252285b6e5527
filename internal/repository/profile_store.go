// internal/repository/profile_store.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/common/logger"
	"dealmatch-workers/internal/common/metrics"
	"dealmatch-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	KindBuyer   = "buyer"
	KindListing = "listing"
)

// ProfileStore reads buyers and listings from Postgres through an optional Redis cache.
type ProfileStore struct {
	db     *sql.DB
	cache  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewProfileStore returns a store. cache may be nil, in which case every read hits Postgres.
func NewProfileStore(db *sql.DB, cache *redis.Client, ttl time.Duration, log logger.Logger) *ProfileStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ProfileStore{db: db, cache: cache, ttl: ttl, logger: log}
}

func CacheKey(kind, id string) string {
	return fmt.Sprintf("%s:profile:%s", kind, id)
}

func (s *ProfileStore) GetBuyer(ctx context.Context, id string) (*models.Buyer, error) {
	var b models.Buyer
	if s.fromCache(ctx, KindBuyer, id, &b) {
		return &b, nil
	}

	found, err := LoadBuyer(ctx, s.db, id)
	if err != nil {
		return nil, mapLoadError(KindBuyer, id, string(models.QueryTypeBuyerProfile), err)
	}
	s.toCache(ctx, KindBuyer, id, found)
	return found, nil
}

func (s *ProfileStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if s.fromCache(ctx, KindListing, id, &l) {
		return &l, nil
	}

	found, err := LoadListing(ctx, s.db, id)
	if err != nil {
		return nil, mapLoadError(KindListing, id, string(models.QueryTypeListingDetails), err)
	}
	s.toCache(ctx, KindListing, id, found)
	return found, nil
}

// ActiveListings is not cached; candidate sets change too often to be worth it.
func (s *ProfileStore) ActiveListings(ctx context.Context, limit int) ([]models.Listing, error) {
	out, err := LoadActiveListings(ctx, s.db, limit)
	if err != nil {
		return nil, mapQueryError(string(models.QueryTypeActiveListings), err)
	}
	return out, nil
}

func (s *ProfileStore) ActiveBuyers(ctx context.Context, limit int) ([]models.Buyer, error) {
	out, err := LoadActiveBuyers(ctx, s.db, limit)
	if err != nil {
		return nil, mapQueryError(string(models.QueryTypeActiveBuyers), err)
	}
	return out, nil
}

func (s *ProfileStore) ListingsByIDs(ctx context.Context, ids []string) ([]models.Listing, error) {
	out, err := LoadListingsByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, mapQueryError("listings_by_ids", err)
	}
	return out, nil
}

func (s *ProfileStore) BuyersByIDs(ctx context.Context, ids []string) ([]models.Buyer, error) {
	out, err := LoadBuyersByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, mapQueryError("buyers_by_ids", err)
	}
	return out, nil
}

// SellerContact returns RECIPIENT_NOT_FOUND when the seller row is missing.
func (s *ProfileStore) SellerContact(ctx context.Context, sellerID string) (*models.Contact, error) {
	c, err := LoadSellerContact(ctx, s.db, sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewRecipientNotFoundError("seller", sellerID)
	}
	if err != nil {
		return nil, mapQueryError("seller_contact", err)
	}
	return c, nil
}

// Invalidate drops a cached profile so the next read goes to Postgres.
func (s *ProfileStore) Invalidate(ctx context.Context, kind, id string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, CacheKey(kind, id)).Err(); err != nil {
		return apperrors.NewCacheUnavailableError(err)
	}
	return nil
}

func (s *ProfileStore) fromCache(ctx context.Context, kind, id string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, CacheKey(kind, id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.ProfileCacheRequests.WithLabelValues(kind, "miss").Inc()
		return false
	case err != nil:
		metrics.ProfileCacheRequests.WithLabelValues(kind, "error").Inc()
		s.logger.Warn("profile cache read failed", map[string]interface{}{
			"kind": kind, "id": id, "error": err.Error(),
		})
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		metrics.ProfileCacheRequests.WithLabelValues(kind, "error").Inc()
		s.logger.Warn("discarding corrupt cached profile", map[string]interface{}{
			"kind": kind, "id": id, "error": err.Error(),
		})
		return false
	}
	metrics.ProfileCacheRequests.WithLabelValues(kind, "hit").Inc()
	return true
}

func (s *ProfileStore) toCache(ctx context.Context, kind, id string, v interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, CacheKey(kind, id), data, s.ttl).Err(); err != nil {
		s.logger.Warn("profile cache write failed", map[string]interface{}{
			"kind": kind, "id": id, "error": err.Error(),
		})
	}
}

func mapLoadError(kind, id, queryType string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewProfileNotFoundError(kind, id)
	}
	return mapQueryError(queryType, err)
}

func mapQueryError(queryType string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(queryType)
	}
	return apperrors.NewQueryExecutionFailedError(queryType, err)
}
