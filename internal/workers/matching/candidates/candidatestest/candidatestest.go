// Package candidatestest provides in-memory profile sources for worker tests.
package candidatestest

import (
	"context"
	"sort"
	"sync"

	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/models"
)

// Store is an in-memory candidates.ProfileSource. Active sets are returned in id order.
type Store struct {
	Buyers   map[string]models.Buyer
	Listings map[string]models.Listing
	// Err, when set, is returned by every pool query.
	Err error

	mu          sync.Mutex
	calls       []string
	activeLimit int
}

func NewStore(buyers []models.Buyer, listings []models.Listing) *Store {
	s := &Store{Buyers: map[string]models.Buyer{}, Listings: map[string]models.Listing{}}
	for _, b := range buyers {
		s.Buyers[b.ID] = b
	}
	for _, l := range listings {
		s.Listings[l.ID] = l
	}
	return s
}

func (s *Store) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

// Calls lists the methods invoked so far, in order.
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// ActiveLimit is the limit passed to the last Active* call.
func (s *Store) ActiveLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLimit
}

func (s *Store) GetBuyer(_ context.Context, id string) (*models.Buyer, error) {
	s.record("GetBuyer")
	b, ok := s.Buyers[id]
	if !ok {
		return nil, apperrors.NewProfileNotFoundError("buyer", id)
	}
	return &b, nil
}

func (s *Store) GetListing(_ context.Context, id string) (*models.Listing, error) {
	s.record("GetListing")
	l, ok := s.Listings[id]
	if !ok {
		return nil, apperrors.NewProfileNotFoundError("listing", id)
	}
	return &l, nil
}

func (s *Store) ActiveListings(_ context.Context, limit int) ([]models.Listing, error) {
	s.record("ActiveListings")
	s.mu.Lock()
	s.activeLimit = limit
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.listingsIn(sortedKeys(s.Listings)), nil
}

func (s *Store) ActiveBuyers(_ context.Context, limit int) ([]models.Buyer, error) {
	s.record("ActiveBuyers")
	s.mu.Lock()
	s.activeLimit = limit
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.buyersIn(sortedKeys(s.Buyers)), nil
}

func (s *Store) ListingsByIDs(_ context.Context, ids []string) ([]models.Listing, error) {
	s.record("ListingsByIDs")
	if s.Err != nil {
		return nil, s.Err
	}
	return s.listingsIn(ids), nil
}

func (s *Store) BuyersByIDs(_ context.Context, ids []string) ([]models.Buyer, error) {
	s.record("BuyersByIDs")
	if s.Err != nil {
		return nil, s.Err
	}
	return s.buyersIn(ids), nil
}

// listingsIn looks ids up without recording a call; unknown ids are skipped.
func (s *Store) listingsIn(ids []string) []models.Listing {
	var out []models.Listing
	for _, id := range ids {
		if l, ok := s.Listings[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) buyersIn(ids []string) []models.Buyer {
	var out []models.Buyer
	for _, id := range ids {
		if b, ok := s.Buyers[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Searcher returns fixed ids, or Err, for both directions.
type Searcher struct {
	IDs []string
	Err error
}

func (f *Searcher) ListingIDsForBuyer(context.Context, models.Buyer, int) ([]string, error) {
	return f.IDs, f.Err
}

func (f *Searcher) BuyerIDsForListing(context.Context, models.Listing, int) ([]string, error) {
	return f.IDs, f.Err
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
