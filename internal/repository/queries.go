// internal/repository/queries.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dealmatch-workers/internal/models"

	"github.com/lib/pq"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const buyerColumns = `id, name, email, phone, country, state, city, industries,
	budget_range_lower, budget_range_higher, size_preference, about, timeline`

const listingColumns = `id, title, seller_id, country, state, city, industry,
	asking_price_lower_bound, asking_price_upper_bound, employees, monthly_revenue,
	description, timeline, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBuyer(s scanner) (*models.Buyer, error) {
	var (
		b                     models.Buyer
		industries            []byte
		lower, higher, months sql.NullFloat64
	)
	if err := s.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.Country, &b.State, &b.City, &industries,
		&lower, &higher, &b.SizePreference, &b.About, &months); err != nil {
		return nil, err
	}
	if len(industries) > 0 {
		if err := json.Unmarshal(industries, &b.Industries); err != nil {
			return nil, fmt.Errorf("buyer %s industries: %w", b.ID, err)
		}
	}
	b.BudgetRangeLower = floatPtr(lower)
	b.BudgetRangeHigher = floatPtr(higher)
	b.Timeline = floatPtr(months)
	return &b, nil
}

func scanListing(s scanner) (*models.Listing, error) {
	var (
		l                         models.Listing
		lower, upper, revenue, tl sql.NullFloat64
		employees                 sql.NullInt64
		updatedAt                 sql.NullTime
	)
	if err := s.Scan(&l.ID, &l.Title, &l.SellerID, &l.Country, &l.State, &l.City, &l.Industry,
		&lower, &upper, &employees, &revenue, &l.Description, &tl, &updatedAt); err != nil {
		return nil, err
	}
	l.AskingPriceLowerBound = floatPtr(lower)
	l.AskingPriceUpperBound = floatPtr(upper)
	l.MonthlyRevenue = floatPtr(revenue)
	l.Timeline = floatPtr(tl)
	if employees.Valid {
		n := int(employees.Int64)
		l.Employees = &n
	}
	if updatedAt.Valid {
		l.UpdatedAt = updatedAt.Time.UTC().Format(time.RFC3339)
	}
	return &l, nil
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// LoadBuyer reads one buyer. sql.ErrNoRows is returned unchanged when absent.
func LoadBuyer(ctx context.Context, db Querier, id string) (*models.Buyer, error) {
	row := db.QueryRowContext(ctx, `SELECT `+buyerColumns+` FROM buyers WHERE id = $1`, id)
	return scanBuyer(row)
}

// LoadListing reads one listing regardless of status.
func LoadListing(ctx context.Context, db Querier, id string) (*models.Listing, error) {
	row := db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

// LoadActiveListings returns up to limit active listings, most recently updated first.
// A limit of zero or less returns every active listing.
func LoadActiveListings(ctx context.Context, db Querier, limit int) ([]models.Listing, error) {
	query, args := withLimit(`SELECT `+listingColumns+`
		FROM listings WHERE status = 'active'
		ORDER BY updated_at DESC`, limit)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func LoadActiveBuyers(ctx context.Context, db Querier, limit int) ([]models.Buyer, error) {
	query, args := withLimit(`SELECT `+buyerColumns+`
		FROM buyers WHERE active = TRUE
		ORDER BY updated_at DESC`, limit)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectBuyers(rows)
}

func withLimit(query string, limit int) (string, []interface{}) {
	if limit <= 0 {
		return query, nil
	}
	return query + ` LIMIT $1`, []interface{}{limit}
}

// LoadListingsByIDs returns the listings in ids order; unknown ids are skipped.
func LoadListingsByIDs(ctx context.Context, db Querier, ids []string) ([]models.Listing, error) {
	ids = trimIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	found, err := collectListings(rows)
	if err != nil {
		return nil, err
	}
	return inOrder(ids, found, func(l models.Listing) string { return l.ID }), nil
}

func LoadBuyersByIDs(ctx context.Context, db Querier, ids []string) ([]models.Buyer, error) {
	ids = trimIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `SELECT `+buyerColumns+` FROM buyers WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	found, err := collectBuyers(rows)
	if err != nil {
		return nil, err
	}
	return inOrder(ids, found, func(b models.Buyer) string { return b.ID }), nil
}

// LoadSellerContact reads the contact details of a listing's seller.
func LoadSellerContact(ctx context.Context, db Querier, sellerID string) (*models.Contact, error) {
	var c models.Contact
	err := db.QueryRowContext(ctx, `SELECT name, email, phone FROM sellers WHERE id = $1`, sellerID).
		Scan(&c.Name, &c.Email, &c.Phone)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectListings(rows *sql.Rows) ([]models.Listing, error) {
	defer rows.Close()
	var out []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func collectBuyers(rows *sql.Rows) ([]models.Buyer, error) {
	defer rows.Close()
	var out []models.Buyer
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func inOrder[T any](ids []string, items []T, key func(T) string) []T {
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[key(it)] = it
	}
	out := make([]T, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if it, ok := byID[id]; ok {
			out = append(out, it)
			seen[id] = true
		}
	}
	return out
}

// trimIDs strips padding and drops blank ids.
func trimIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
