package ingest

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/logger"
	"gitlab.com/yelinaung/paynotify/internal/models"
	"gitlab.com/yelinaung/paynotify/internal/notification"
	"gitlab.com/yelinaung/paynotify/internal/repository"
)

// ApprovalWorkflow applies approval decisions to auto-created expenses
// and feeds category corrections back into the categorization engine.
//
// Transitions are permissive: an already-approved or already-rejected
// record can be re-decided, and the record ends up in the state of the
// last call. Ownership checks belong to the caller.
type ApprovalWorkflow struct {
	db     database.DB
	engine Categorizer
	now    func() time.Time
}

// NewApprovalWorkflow creates an approval workflow.
func NewApprovalWorkflow(db database.DB, engine Categorizer) *ApprovalWorkflow {
	return &ApprovalWorkflow{db: db, engine: engine, now: time.Now}
}

// Approve marks an auto-created expense approved, optionally overriding
// its category. When the override differs from the prior category the
// correction is learned; this is the only feedback loop back into
// categorization.
func (w *ApprovalWorkflow) Approve(ctx context.Context, expenseID int, overrideCategoryID *int) (*models.Expense, error) {
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	expenses := repository.NewExpenseRepository(tx)
	audits := repository.NewAutoCreatedExpenseRepository(tx)
	categories := repository.NewCategoryRepository(tx)
	mappings := repository.NewMerchantMappingRepository(tx)

	expense, audit, err := loadPair(ctx, expenses, audits, expenseID)
	if err != nil {
		return nil, err
	}

	var correction *models.Category
	if overrideCategoryID != nil {
		if expense.CategoryID == nil || *expense.CategoryID != *overrideCategoryID {
			if correction, err = categories.GetByID(ctx, *overrideCategoryID); err != nil {
				return nil, err
			}
		}
		expense.CategoryID = overrideCategoryID
	}

	now := w.now()
	expense.RequiresApproval = false
	expense.ApprovedAt = &now
	expense.RejectedAt = nil
	expense.RejectionReason = ""
	if err := expenses.UpdateApproval(ctx, expense); err != nil {
		return nil, err
	}

	audit.Status = models.StatusApproved
	audit.ApprovedAt = &now
	audit.RejectedAt = nil
	audit.RejectionReason = ""
	if err := audits.UpdateStatus(ctx, audit); err != nil {
		return nil, err
	}

	if correction != nil && expense.Merchant != "" && expense.Merchant != notification.UnknownMerchant {
		if err := w.engine.LearnWith(ctx, mappings, expense.Merchant, expense.Description, correction); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	logger.Log.Info().
		Str("user", logger.HashUserID(expense.UserID)).
		Int("expense_id", expense.ID).
		Bool("category_corrected", correction != nil).
		Msg("expense approved")
	return expense, nil
}

// Reject marks an auto-created expense rejected with a reason.
func (w *ApprovalWorkflow) Reject(ctx context.Context, expenseID int, reason string) (*models.Expense, error) {
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	expenses := repository.NewExpenseRepository(tx)
	audits := repository.NewAutoCreatedExpenseRepository(tx)

	expense, audit, err := loadPair(ctx, expenses, audits, expenseID)
	if err != nil {
		return nil, err
	}

	now := w.now()
	expense.RequiresApproval = false
	expense.RejectedAt = &now
	expense.ApprovedAt = nil
	expense.RejectionReason = reason
	if err := expenses.UpdateApproval(ctx, expense); err != nil {
		return nil, err
	}

	audit.Status = models.StatusRejected
	audit.RejectedAt = &now
	audit.ApprovedAt = nil
	audit.RejectionReason = reason
	if err := audits.UpdateStatus(ctx, audit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	logger.Log.Info().
		Str("user", logger.HashUserID(expense.UserID)).
		Int("expense_id", expense.ID).
		Msg("expense rejected")
	return expense, nil
}

func loadPair(ctx context.Context, expenses *repository.ExpenseRepository, audits *repository.AutoCreatedExpenseRepository, expenseID int) (*models.Expense, *models.AutoCreatedExpense, error) {
	expense, err := expenses.GetByID(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	if !expense.IsAutoCreated {
		return nil, nil, fmt.Errorf("expense %d is not auto-created", expenseID)
	}
	audit, err := audits.GetByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	return expense, audit, nil
}
