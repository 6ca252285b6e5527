// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dealmatch-workers/internal/common/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS buyers (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL DEFAULT '',
		email               TEXT NOT NULL DEFAULT '',
		phone               TEXT NOT NULL DEFAULT '',
		country             TEXT NOT NULL DEFAULT '',
		state               TEXT NOT NULL DEFAULT '',
		city                TEXT NOT NULL DEFAULT '',
		industries          JSONB NOT NULL DEFAULT '[]',
		budget_range_lower  NUMERIC,
		budget_range_higher NUMERIC,
		size_preference     TEXT NOT NULL DEFAULT '',
		about               TEXT NOT NULL DEFAULT '',
		timeline            NUMERIC,
		active              BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sellers (
		id    TEXT PRIMARY KEY,
		name  TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id                       TEXT PRIMARY KEY,
		title                    TEXT NOT NULL DEFAULT '',
		seller_id                TEXT NOT NULL DEFAULT '',
		country                  TEXT NOT NULL DEFAULT '',
		state                    TEXT NOT NULL DEFAULT '',
		city                     TEXT NOT NULL DEFAULT '',
		industry                 TEXT NOT NULL DEFAULT '',
		asking_price_lower_bound NUMERIC,
		asking_price_upper_bound NUMERIC,
		employees                INTEGER,
		monthly_revenue          NUMERIC,
		description              TEXT NOT NULL DEFAULT '',
		timeline                 NUMERIC,
		status                   TEXT NOT NULL DEFAULT 'active',
		updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings (status, updated_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_buyers_active ON buyers (active, updated_at DESC)`,
}

// Migrate creates the buyer, seller and listing tables when missing.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
