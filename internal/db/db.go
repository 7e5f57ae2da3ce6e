package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the pgx pool behind the durable ledger implementations. The
// shop runs fully in memory unless DATABASE_URL is set.
type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations runs database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			customer TEXT NOT NULL,
			package TEXT NOT NULL,
			amount BIGINT NOT NULL,
			recipient TEXT NOT NULL DEFAULT '',
			payment TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			remark TEXT NOT NULL DEFAULT '',
			bonus_credited BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer);

		CREATE TABLE IF NOT EXISTS referrals (
			owner TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			earnings BIGINT NOT NULL DEFAULT 0 CHECK (earnings >= 0),
			pin TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS referred_users (
			referred TEXT PRIMARY KEY,
			owner TEXT NOT NULL REFERENCES referrals(owner),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_referred_users_owner ON referred_users(owner);

		CREATE TABLE IF NOT EXISTS withdrawals (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL REFERENCES referrals(owner),
			amount BIGINT NOT NULL,
			mpesa_number TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			remarks TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_withdrawals_owner ON withdrawals(owner);
	`)
	return err
}
