package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/models"
)

// AutoCreatedExpenseRepository handles the audit records paired with
// auto-created expenses.
type AutoCreatedExpenseRepository struct {
	db database.PGXDB
}

// NewAutoCreatedExpenseRepository creates a new AutoCreatedExpenseRepository.
func NewAutoCreatedExpenseRepository(db database.PGXDB) *AutoCreatedExpenseRepository {
	return &AutoCreatedExpenseRepository{db: db}
}

// Create adds the audit record for an auto-created expense. The
// expense_id unique constraint enforces the one-to-one pairing.
func (r *AutoCreatedExpenseRepository) Create(ctx context.Context, rec *models.AutoCreatedExpense) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO auto_created_expenses
			(expense_id, user_id, source, notification_type, raw_data, confidence_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, rec.ExpenseID, rec.UserID, rec.Source, rec.NotificationType,
		rec.RawData, rec.ConfidenceScore, rec.Status,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create auto-created expense record: %w", err)
	}
	return nil
}

// GetByExpenseID retrieves the audit record paired with an expense.
func (r *AutoCreatedExpenseRepository) GetByExpenseID(ctx context.Context, expenseID int) (*models.AutoCreatedExpense, error) {
	var rec models.AutoCreatedExpense
	err := r.db.QueryRow(ctx, `
		SELECT id, expense_id, user_id, source, notification_type, raw_data,
			confidence_score, status, approved_at, rejected_at, rejection_reason, created_at
		FROM auto_created_expenses WHERE expense_id = $1
	`, expenseID).Scan(
		&rec.ID, &rec.ExpenseID, &rec.UserID, &rec.Source, &rec.NotificationType,
		&rec.RawData, &rec.ConfidenceScore, &rec.Status, &rec.ApprovedAt,
		&rec.RejectedAt, &rec.RejectionReason, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get auto-created expense record: %w", err)
	}
	return &rec, nil
}

// UpdateStatus applies an approval decision to the audit record.
func (r *AutoCreatedExpenseRepository) UpdateStatus(ctx context.Context, rec *models.AutoCreatedExpense) error {
	_, err := r.db.Exec(ctx, `
		UPDATE auto_created_expenses SET
			status = $2,
			approved_at = $3,
			rejected_at = $4,
			rejection_reason = $5
		WHERE id = $1
	`, rec.ID, rec.Status, rec.ApprovedAt, rec.RejectedAt, rec.RejectionReason)
	if err != nil {
		return fmt.Errorf("failed to update auto-created expense status: %w", err)
	}
	return nil
}

// StatisticsByUser summarizes a user's auto-created expenses by status.
func (r *AutoCreatedExpenseRepository) StatisticsByUser(ctx context.Context, userID int64) (*models.ExpenseStatistics, error) {
	var stats models.ExpenseStatistics
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE status = $4)
		FROM auto_created_expenses WHERE user_id = $1
	`, userID, models.StatusPendingApproval, models.StatusApproved, models.StatusRejected).Scan(
		&stats.Total, &stats.Pending, &stats.Approved, &stats.Rejected,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense statistics: %w", err)
	}
	if stats.Total > 0 {
		stats.ApprovalRate = float64(stats.Approved) / float64(stats.Total) * 100
	}
	return &stats, nil
}
