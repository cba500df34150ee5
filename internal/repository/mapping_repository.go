package repository

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/models"
)

// MerchantMappingRepository handles the learned merchant→category
// associations.
type MerchantMappingRepository struct {
	db database.PGXDB
}

// NewMerchantMappingRepository creates a new MerchantMappingRepository.
func NewMerchantMappingRepository(db database.PGXDB) *MerchantMappingRepository {
	return &MerchantMappingRepository{db: db}
}

const mappingColumns = `id, merchant, category_id, confidence, usage_count, last_used_at, created_at, updated_at`

// GetAll retrieves every mapping. The categorization cache snapshots this.
func (r *MerchantMappingRepository) GetAll(ctx context.Context) ([]models.MerchantCategoryMapping, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mappingColumns+` FROM merchant_category_mappings ORDER BY merchant
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.MerchantCategoryMapping
	for rows.Next() {
		var m models.MerchantCategoryMapping
		if err := rows.Scan(&m.ID, &m.Merchant, &m.CategoryID, &m.Confidence,
			&m.UsageCount, &m.LastUsedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan merchant mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating merchant mappings: %w", err)
	}
	return mappings, nil
}

// Upsert creates or updates the mapping for a merchant key, bumping the
// usage counter and the last-used timestamp on conflict.
func (r *MerchantMappingRepository) Upsert(ctx context.Context, merchant string, categoryID int, confidence float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO merchant_category_mappings (merchant, category_id, confidence, usage_count, last_used_at)
		VALUES ($1, $2, $3, 1, NOW())
		ON CONFLICT (merchant) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			confidence = EXCLUDED.confidence,
			usage_count = merchant_category_mappings.usage_count + 1,
			last_used_at = NOW(),
			updated_at = NOW()
	`, merchant, categoryID, confidence)
	if err != nil {
		return fmt.Errorf("failed to upsert merchant mapping: %w", err)
	}
	return nil
}

// GetByMerchant retrieves the mapping for a normalized merchant key, or
// nil when none exists.
func (r *MerchantMappingRepository) GetByMerchant(ctx context.Context, merchant string) (*models.MerchantCategoryMapping, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mappingColumns+` FROM merchant_category_mappings WHERE merchant = $1
	`, merchant)
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant mapping: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var m models.MerchantCategoryMapping
	if err := rows.Scan(&m.ID, &m.Merchant, &m.CategoryID, &m.Confidence,
		&m.UsageCount, &m.LastUsedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan merchant mapping: %w", err)
	}
	return &m, nil
}

// Statistics summarizes the mapping table: total rows, rows used in the
// last 30 days, and rows with confidence at or above 0.8.
func (r *MerchantMappingRepository) Statistics(ctx context.Context) (*models.MappingStatistics, error) {
	cutoff := time.Now().AddDate(0, 0, -30)
	var stats models.MappingStatistics
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE last_used_at >= $1),
			COUNT(*) FILTER (WHERE confidence >= 0.8)
		FROM merchant_category_mappings
	`, cutoff).Scan(&stats.TotalMappings, &stats.RecentMappings, &stats.HighConfidenceMappings)
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping statistics: %w", err)
	}
	if stats.TotalMappings > 0 {
		stats.AccuracyRate = float64(stats.HighConfidenceMappings) / float64(stats.TotalMappings) * 100
	}
	return &stats, nil
}
