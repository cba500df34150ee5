package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/models"
)

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseColumns = `id, user_id, category_id, amount, description, merchant, transaction_id,
	expense_date, is_auto_created, source, notification_type, requires_approval,
	auto_created_at, approved_at, rejected_at, rejection_reason, created_at, updated_at`

// Create adds a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (user_id, category_id, amount, description, merchant, transaction_id,
			expense_date, is_auto_created, source, notification_type, requires_approval, auto_created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, expense.UserID, expense.CategoryID, expense.Amount, expense.Description,
		expense.Merchant, expense.TransactionID, expense.ExpenseDate, expense.IsAutoCreated,
		expense.Source, expense.NotificationType, expense.RequiresApproval, expense.AutoCreatedAt,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense by ID.
func (r *ExpenseRepository) GetByID(ctx context.Context, id int) (*models.Expense, error) {
	var exp models.Expense
	err := r.db.QueryRow(ctx, `
		SELECT `+expenseColumns+` FROM expenses WHERE id = $1
	`, id).Scan(
		&exp.ID, &exp.UserID, &exp.CategoryID, &exp.Amount, &exp.Description, &exp.Merchant,
		&exp.TransactionID, &exp.ExpenseDate, &exp.IsAutoCreated, &exp.Source,
		&exp.NotificationType, &exp.RequiresApproval, &exp.AutoCreatedAt, &exp.ApprovedAt,
		&exp.RejectedAt, &exp.RejectionReason, &exp.CreatedAt, &exp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &exp, nil
}

// ExistsSimilar reports whether the user already has an expense with the
// same amount on the same date whose description contains the given
// fragment. This backs duplicate detection: a substring heuristic, not a
// transactional uniqueness guarantee.
func (r *ExpenseRepository) ExistsSimilar(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
	date time.Time,
	descriptionFragment string,
) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM expenses
			WHERE user_id = $1 AND amount = $2 AND expense_date = $3
			  AND description LIKE '%' || $4 || '%'
		)
	`, userID, amount, date, descriptionFragment).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for similar expense: %w", err)
	}
	return exists, nil
}

// UpdateApproval applies an approval decision to an expense.
func (r *ExpenseRepository) UpdateApproval(ctx context.Context, expense *models.Expense) error {
	_, err := r.db.Exec(ctx, `
		UPDATE expenses SET
			category_id = $2,
			requires_approval = $3,
			approved_at = $4,
			rejected_at = $5,
			rejection_reason = $6,
			updated_at = NOW()
		WHERE id = $1
	`, expense.ID, expense.CategoryID, expense.RequiresApproval,
		expense.ApprovedAt, expense.RejectedAt, expense.RejectionReason)
	if err != nil {
		return fmt.Errorf("failed to update expense approval: %w", err)
	}
	return nil
}

// GetAutoCreatedByUser retrieves a user's auto-created expenses, newest
// first, optionally filtered by the paired audit record's status.
func (r *ExpenseRepository) GetAutoCreatedByUser(ctx context.Context, userID int64, status string) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.user_id, e.category_id, e.amount, e.description, e.merchant, e.transaction_id,
			e.expense_date, e.is_auto_created, e.source, e.notification_type, e.requires_approval,
			e.auto_created_at, e.approved_at, e.rejected_at, e.rejection_reason, e.created_at, e.updated_at,
			c.id, c.name, c.user_id, c.deleted_at, c.created_at
		FROM expenses e
		JOIN auto_created_expenses a ON a.expense_id = e.id
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.user_id = $1 AND e.is_auto_created AND ($2 = '' OR a.status = $2)
		ORDER BY e.created_at DESC, e.id DESC
	`, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query auto-created expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var exp models.Expense
		var catID *int
		var catName *string
		var catUserID *int64
		var catDeletedAt, catCreatedAt *time.Time

		if err := rows.Scan(
			&exp.ID, &exp.UserID, &exp.CategoryID, &exp.Amount, &exp.Description, &exp.Merchant,
			&exp.TransactionID, &exp.ExpenseDate, &exp.IsAutoCreated, &exp.Source,
			&exp.NotificationType, &exp.RequiresApproval, &exp.AutoCreatedAt, &exp.ApprovedAt,
			&exp.RejectedAt, &exp.RejectionReason, &exp.CreatedAt, &exp.UpdatedAt,
			&catID, &catName, &catUserID, &catDeletedAt, &catCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan auto-created expense: %w", err)
		}

		if catID != nil {
			exp.Category = &models.Category{
				ID:        *catID,
				Name:      *catName,
				UserID:    catUserID,
				DeletedAt: catDeletedAt,
				CreatedAt: *catCreatedAt,
			}
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auto-created expenses: %w", err)
	}
	return expenses, nil
}
