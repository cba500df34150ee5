package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			email TEXT,
			name TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			user_id BIGINT REFERENCES users(id),
			deleted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE NULLS NOT DISTINCT (name, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			category_id INTEGER REFERENCES categories(id),
			amount DECIMAL(12, 2) NOT NULL CHECK (amount > 0),
			description TEXT NOT NULL DEFAULT '',
			merchant TEXT NOT NULL DEFAULT '',
			transaction_id TEXT NOT NULL DEFAULT '',
			expense_date DATE NOT NULL,
			is_auto_created BOOLEAN NOT NULL DEFAULT FALSE,
			source TEXT NOT NULL DEFAULT '',
			notification_type TEXT NOT NULL DEFAULT '',
			requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
			auto_created_at TIMESTAMPTZ,
			approved_at TIMESTAMPTZ,
			rejected_at TIMESTAMPTZ,
			rejection_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_expenses_user_id ON expenses(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, expense_date)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_requires_approval ON expenses(requires_approval)`,

		`CREATE TABLE IF NOT EXISTS auto_created_expenses (
			id SERIAL PRIMARY KEY,
			expense_id INTEGER NOT NULL UNIQUE REFERENCES expenses(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id),
			source TEXT NOT NULL DEFAULT '',
			notification_type TEXT NOT NULL DEFAULT '',
			raw_data JSONB NOT NULL DEFAULT '{}',
			confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending_approval',
			approved_at TIMESTAMPTZ,
			rejected_at TIMESTAMPTZ,
			rejection_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_auto_created_user_status ON auto_created_expenses(user_id, status)`,

		`CREATE TABLE IF NOT EXISTS merchant_category_mappings (
			id SERIAL PRIMARY KEY,
			merchant TEXT NOT NULL UNIQUE,
			category_id INTEGER NOT NULL REFERENCES categories(id),
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			usage_count INTEGER NOT NULL DEFAULT 0,
			last_used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// SeedCategories inserts the default shared expense categories.
func SeedCategories(ctx context.Context, pool *pgxpool.Pool) error {
	categories := []string{
		"Food & Dining",
		"Travel & Transportation",
		"Shopping",
		"Health & Medical",
		"Entertainment & Fitness",
		"Utilities & Bills",
		"Education",
		"Insurance",
		"Investment & Savings",
		"Others",
	}

	for _, cat := range categories {
		_, err := pool.Exec(ctx,
			`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name, user_id) DO NOTHING`,
			cat,
		)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat, err)
		}
	}

	return nil
}
