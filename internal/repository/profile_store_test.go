package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/common/logger"
	"dealmatch-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buyerCols = []string{"id", "name", "email", "phone", "country", "state", "city", "industries",
	"budget_range_lower", "budget_range_higher", "size_preference", "about", "timeline"}

var listingCols = []string{"id", "title", "seller_id", "country", "state", "city", "industry",
	"asking_price_lower_bound", "asking_price_upper_bound", "employees", "monthly_revenue",
	"description", "timeline", "updated_at"}

func buyerRow(rows *sqlmock.Rows, id string) *sqlmock.Rows {
	return rows.AddRow(id, "Jane", "jane@example.com", "+15550100", "USA", "Florida", "Miami",
		[]byte(`["Food & Beverage"]`), 100000.0, 200000.0, "Small", "family bakery operator", 6.0)
}

func listingRow(rows *sqlmock.Rows, id string, employees interface{}) *sqlmock.Rows {
	return rows.AddRow(id, "Corner Bakery", "seller-1", "USA", "Florida", "Miami", "Food & Beverage",
		150000.0, 250000.0, employees, nil, "established bakery", nil,
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func newStore(t *testing.T, cache *redis.Client) (*ProfileStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProfileStore(db, cache, 10*time.Minute, logger.NewTestLogger(t)), mock
}

func TestGetBuyer_LoadsFromPostgresAndCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, mock := newStore(t, rdb)

	mock.ExpectQuery(`FROM buyers WHERE id = \$1`).
		WithArgs("buyer-1").
		WillReturnRows(buyerRow(sqlmock.NewRows(buyerCols), "buyer-1"))

	b, err := store.GetBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, "Miami", b.City)
	assert.Equal(t, []string{"Food & Beverage"}, b.Industries)
	require.NotNil(t, b.BudgetRangeHigher)
	assert.Equal(t, 200000.0, *b.BudgetRangeHigher)
	require.NotNil(t, b.Timeline)
	assert.Equal(t, 6.0, *b.Timeline)

	assert.True(t, mr.Exists("buyer:profile:buyer-1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("buyer:profile:buyer-1"))

	// second read is served from redis; sqlmock would fail on an unexpected query
	again, err := store.GetBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, b, again)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBuyer_NotFound(t *testing.T) {
	store, mock := newStore(t, nil)
	mock.ExpectQuery(`FROM buyers WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(buyerCols))

	_, err := store.GetBuyer(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeProfileNotFound))
}

func TestGetListing_QueryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"driver failure", errors.New("connection reset"), apperrors.ErrCodeQueryExecutionFailed},
		{"deadline", context.DeadlineExceeded, apperrors.ErrCodeQueryTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newStore(t, nil)
			mock.ExpectQuery(`FROM listings WHERE id = \$1`).WillReturnError(tt.err)

			_, err := store.GetListing(context.Background(), "listing-1")
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestGetListing_NullableColumns(t *testing.T) {
	store, mock := newStore(t, nil)
	mock.ExpectQuery(`FROM listings WHERE id = \$1`).
		WillReturnRows(listingRow(sqlmock.NewRows(listingCols), "listing-1", nil))

	l, err := store.GetListing(context.Background(), "listing-1")
	require.NoError(t, err)
	assert.Nil(t, l.Employees)
	assert.Nil(t, l.MonthlyRevenue)
	assert.Nil(t, l.Timeline)
	require.NotNil(t, l.AskingPriceLowerBound)
	assert.Equal(t, 150000.0, *l.AskingPriceLowerBound)
	assert.Equal(t, "2026-03-01T12:00:00Z", l.UpdatedAt)
}

func TestGetListing_CacheReadErrorFallsThrough(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	store, mock := newStore(t, rdb)

	redisMock.ExpectGet("listing:profile:listing-1").SetErr(errors.New("redis down"))
	mock.ExpectQuery(`FROM listings WHERE id = \$1`).
		WillReturnRows(listingRow(sqlmock.NewRows(listingCols), "listing-1", int64(12)))

	l, err := store.GetListing(context.Background(), "listing-1")
	require.NoError(t, err)
	require.NotNil(t, l.Employees)
	assert.Equal(t, 12, *l.Employees)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBuyer_CorruptCacheEntryIsIgnored(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("buyer:profile:buyer-1", "{not json"))
	store, mock := newStore(t, redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	mock.ExpectQuery(`FROM buyers WHERE id = \$1`).
		WillReturnRows(buyerRow(sqlmock.NewRows(buyerCols), "buyer-1"))

	b, err := store.GetBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", b.ID)

	cached, err := mr.Get("buyer:profile:buyer-1")
	require.NoError(t, err)
	var round models.Buyer
	require.NoError(t, json.Unmarshal([]byte(cached), &round))
	assert.Equal(t, "buyer-1", round.ID)
}

func TestListingsByIDs_PreservesRequestOrder(t *testing.T) {
	store, mock := newStore(t, nil)
	rows := sqlmock.NewRows(listingCols)
	listingRow(rows, "b", int64(10))
	listingRow(rows, "a", int64(10))
	mock.ExpectQuery(`FROM listings WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := store.ListingsByIDs(context.Background(), []string{"a", "missing", "b", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestListingsByIDs_TrimsPaddedIDs(t *testing.T) {
	store, mock := newStore(t, nil)
	rows := sqlmock.NewRows(listingCols)
	listingRow(rows, "a", int64(10))
	listingRow(rows, "b", int64(10))
	mock.ExpectQuery(`FROM listings WHERE id = ANY\(\$1\)`).
		WithArgs(`{"a","b"}`).
		WillReturnRows(rows)

	got, err := store.ListingsByIDs(context.Background(), []string{" a ", "b\t", "  "})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyersByIDs_BlankIDsSkipQuery(t *testing.T) {
	store, mock := newStore(t, nil)
	got, err := store.BuyersByIDs(context.Background(), []string{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyersByIDs_EmptyInputSkipsQuery(t *testing.T) {
	store, mock := newStore(t, nil)
	got, err := store.BuyersByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveSets(t *testing.T) {
	store, mock := newStore(t, nil)

	listings := sqlmock.NewRows(listingCols)
	listingRow(listings, "l1", int64(5))
	mock.ExpectQuery(`FROM listings WHERE status = 'active'`).WithArgs(50).WillReturnRows(listings)

	buyers := sqlmock.NewRows(buyerCols)
	buyerRow(buyers, "b1")
	buyerRow(buyers, "b2")
	mock.ExpectQuery(`FROM buyers WHERE active = TRUE`).WithArgs(50).WillReturnRows(buyers)

	ls, err := store.ActiveListings(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, ls, 1)

	bs, err := store.ActiveBuyers(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, bs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveSets_NoLimitWhenUncapped(t *testing.T) {
	store, mock := newStore(t, nil)

	listings := sqlmock.NewRows(listingCols)
	listingRow(listings, "l1", int64(5))
	listingRow(listings, "l2", int64(5))
	mock.ExpectQuery(`FROM listings WHERE status = 'active' ORDER BY updated_at DESC$`).WillReturnRows(listings)

	buyers := sqlmock.NewRows(buyerCols)
	buyerRow(buyers, "b1")
	mock.ExpectQuery(`FROM buyers WHERE active = TRUE ORDER BY updated_at DESC$`).WillReturnRows(buyers)

	ls, err := store.ActiveListings(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, ls, 2)

	bs, err := store.ActiveBuyers(context.Background(), -1)
	require.NoError(t, err)
	assert.Len(t, bs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSellerContact(t *testing.T) {
	store, mock := newStore(t, nil)
	mock.ExpectQuery(`SELECT name, email, phone FROM sellers WHERE id = \$1`).
		WithArgs("seller-1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "email", "phone"}).
			AddRow("Sam", "sam@example.com", "+15550111"))
	mock.ExpectQuery(`FROM sellers`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	c, err := store.SellerContact(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", c.Email)

	_, err = store.SellerContact(context.Background(), "ghost")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecipientNotFound))
}

func TestInvalidate(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	store, _ := newStore(t, rdb)

	redisMock.ExpectDel("buyer:profile:buyer-1").SetVal(1)
	require.NoError(t, store.Invalidate(context.Background(), KindBuyer, "buyer-1"))

	redisMock.ExpectDel("listing:profile:l1").SetErr(errors.New("redis down"))
	err := store.Invalidate(context.Background(), KindListing, "l1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCacheUnavailable))
	assert.NoError(t, redisMock.ExpectationsWereMet())

	noCache, _ := newStore(t, nil)
	assert.NoError(t, noCache.Invalidate(context.Background(), KindBuyer, "x"))
}
