// Package repository provides database access for domain entities.
package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/models"
)

// CategoryRepository handles category database operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, name, user_id, deleted_at, created_at`

// GetAll retrieves all categories, soft-deleted rows included. Keyword
// binding and historical mapping resolution both need deleted rows.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.UserID, &cat.DeletedAt, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category by ID. Soft-deleted categories are
// returned deliberately: merchant mappings learned before a deletion must
// keep resolving.
func (r *CategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE id = $1
	`, id).Scan(&cat.ID, &cat.Name, &cat.UserID, &cat.DeletedAt, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

// FirstOwnedByUser retrieves the user's first owned, non-deleted category,
// or nil when the user owns none.
func (r *CategoryRepository) FirstOwnedByUser(ctx context.Context, userID int64) (*models.Category, error) {
	cat, err := r.scanFirst(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY id LIMIT 1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get first owned category: %w", err)
	}
	return cat, nil
}

// FirstAvailable retrieves any non-deleted category, or nil when none exist.
func (r *CategoryRepository) FirstAvailable(ctx context.Context) (*models.Category, error) {
	cat, err := r.scanFirst(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE deleted_at IS NULL
		ORDER BY id LIMIT 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get first available category: %w", err)
	}
	return cat, nil
}

// Create adds a new category, optionally owned by a user.
func (r *CategoryRepository) Create(ctx context.Context, name string, userID *int64) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (name, user_id) VALUES ($1, $2)
		RETURNING `+categoryColumns+`
	`, name, userID).Scan(&cat.ID, &cat.Name, &cat.UserID, &cat.DeletedAt, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &cat, nil
}

// SoftDelete marks a category as deleted without removing it, preserving
// historical references from expenses and merchant mappings.
func (r *CategoryRepository) SoftDelete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE categories SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) scanFirst(ctx context.Context, sql string, args ...any) (*models.Category, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var cat models.Category
	if err := rows.Scan(&cat.ID, &cat.Name, &cat.UserID, &cat.DeletedAt, &cat.CreatedAt); err != nil {
		return nil, err
	}
	return &cat, nil
}
