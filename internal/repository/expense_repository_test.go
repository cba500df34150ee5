package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/models"
)

func setupExpenseTest(t *testing.T) (*ExpenseRepository, *AutoCreatedExpenseRepository, *CategoryRepository, int64, context.Context) {
	t.Helper()

	db := database.TestTx(t)
	ctx := context.Background()

	const userID = int64(7001)
	err := NewUserRepository(db).UpsertUser(ctx, &models.User{
		ID:    userID,
		Email: "expense-tests@example.com",
		Name:  "Expense Tests",
	})
	require.NoError(t, err)

	return NewExpenseRepository(db),
		NewAutoCreatedExpenseRepository(db),
		NewCategoryRepository(db),
		userID,
		ctx
}

func TestExpenseRepository_Create(t *testing.T) {
	expenseRepo, _, categoryRepo, userID, ctx := setupExpenseTest(t)

	cat, err := categoryRepo.Create(ctx, "Create Test Category", &userID)
	require.NoError(t, err)

	t.Run("creates expense with category", func(t *testing.T) {
		expense := &models.Expense{
			UserID:      userID,
			Amount:      decimal.NewFromFloat(500.00),
			Description: "Payment to ABC Store via eSewa",
			Merchant:    "ABC Store",
			ExpenseDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			CategoryID:  &cat.ID,
		}

		err := expenseRepo.Create(ctx, expense)
		require.NoError(t, err)
		require.NotZero(t, expense.ID)
		require.False(t, expense.CreatedAt.IsZero())
	})

	t.Run("creates auto-created expense with provenance", func(t *testing.T) {
		now := time.Now()
		expense := &models.Expense{
			UserID:           userID,
			Amount:           decimal.NewFromFloat(1500.00),
			Description:      "Debited for Petrol Pump ABC (TXN: TX99)",
			Merchant:         "Petrol Pump ABC",
			TransactionID:    "TX99",
			ExpenseDate:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			IsAutoCreated:    true,
			Source:           "bank",
			NotificationType: "sms",
			RequiresApproval: true,
			AutoCreatedAt:    &now,
		}

		err := expenseRepo.Create(ctx, expense)
		require.NoError(t, err)

		fetched, err := expenseRepo.GetByID(ctx, expense.ID)
		require.NoError(t, err)
		require.True(t, fetched.IsAutoCreated)
		require.True(t, fetched.RequiresApproval)
		require.Equal(t, "bank", fetched.Source)
		require.Equal(t, "sms", fetched.NotificationType)
		require.Equal(t, "TX99", fetched.TransactionID)
		require.NotNil(t, fetched.AutoCreatedAt)
	})

}

// A failed statement aborts the enclosing test transaction, so the
// constraint case gets its own setup.
func TestExpenseRepository_CreateRejectsNonPositiveAmount(t *testing.T) {
	expenseRepo, _, _, userID, ctx := setupExpenseTest(t)

	expense := &models.Expense{
		UserID:      userID,
		Amount:      decimal.Zero,
		Description: "bad",
		ExpenseDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	err := expenseRepo.Create(ctx, expense)
	require.Error(t, err)
}

func TestExpenseRepository_GetByID(t *testing.T) {
	expenseRepo, _, _, userID, ctx := setupExpenseTest(t)

	expense := &models.Expense{
		UserID:      userID,
		Amount:      decimal.NewFromFloat(250.00),
		Description: "Coffee",
		ExpenseDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, expenseRepo.Create(ctx, expense))

	t.Run("retrieves existing expense", func(t *testing.T) {
		fetched, err := expenseRepo.GetByID(ctx, expense.ID)
		require.NoError(t, err)
		require.Equal(t, expense.ID, fetched.ID)
		require.True(t, expense.Amount.Equal(fetched.Amount))
		require.Equal(t, "Coffee", fetched.Description)
	})

	t.Run("returns error for non-existent expense", func(t *testing.T) {
		_, err := expenseRepo.GetByID(ctx, 99999999)
		require.Error(t, err)
	})
}

func TestExpenseRepository_ExistsSimilar(t *testing.T) {
	expenseRepo, _, _, userID, ctx := setupExpenseTest(t)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	expense := &models.Expense{
		UserID:      userID,
		Amount:      decimal.NewFromFloat(500.00),
		Description: "Payment to ABC Store via eSewa (TXN: ES123456789)",
		Merchant:    "ABC Store",
		ExpenseDate: date,
	}
	require.NoError(t, expenseRepo.Create(ctx, expense))

	t.Run("matches by transaction tag", func(t *testing.T) {
		exists, err := expenseRepo.ExistsSimilar(ctx, userID, decimal.NewFromFloat(500.00), date, "(TXN: ES123456789)")
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("matches by merchant fragment", func(t *testing.T) {
		exists, err := expenseRepo.ExistsSimilar(ctx, userID, decimal.NewFromFloat(500.00), date, "ABC Store")
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("different amount does not match", func(t *testing.T) {
		exists, err := expenseRepo.ExistsSimilar(ctx, userID, decimal.NewFromFloat(501.00), date, "ABC Store")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("different date does not match", func(t *testing.T) {
		exists, err := expenseRepo.ExistsSimilar(ctx, userID, decimal.NewFromFloat(500.00), date.AddDate(0, 0, 1), "ABC Store")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("different user does not match", func(t *testing.T) {
		exists, err := expenseRepo.ExistsSimilar(ctx, userID+1, decimal.NewFromFloat(500.00), date, "ABC Store")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("absent fragment does not match", func(t *testing.T) {
		exists, err := expenseRepo.ExistsSimilar(ctx, userID, decimal.NewFromFloat(500.00), date, "(TXN: OTHER)")
		require.NoError(t, err)
		require.False(t, exists)
	})
}

func TestExpenseRepository_UpdateApproval(t *testing.T) {
	expenseRepo, _, categoryRepo, userID, ctx := setupExpenseTest(t)

	cat, err := categoryRepo.Create(ctx, "Approval Test Category", &userID)
	require.NoError(t, err)

	expense := &models.Expense{
		UserID:           userID,
		Amount:           decimal.NewFromFloat(100.00),
		Description:      "pending item",
		ExpenseDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		IsAutoCreated:    true,
		RequiresApproval: true,
	}
	require.NoError(t, expenseRepo.Create(ctx, expense))

	now := time.Now()
	expense.CategoryID = &cat.ID
	expense.RequiresApproval = false
	expense.ApprovedAt = &now

	require.NoError(t, expenseRepo.UpdateApproval(ctx, expense))

	fetched, err := expenseRepo.GetByID(ctx, expense.ID)
	require.NoError(t, err)
	require.False(t, fetched.RequiresApproval)
	require.NotNil(t, fetched.CategoryID)
	require.Equal(t, cat.ID, *fetched.CategoryID)
	require.NotNil(t, fetched.ApprovedAt)
	require.Nil(t, fetched.RejectedAt)
	require.Empty(t, fetched.RejectionReason)
}

func TestExpenseRepository_GetAutoCreatedByUser(t *testing.T) {
	expenseRepo, auditRepo, categoryRepo, userID, ctx := setupExpenseTest(t)

	cat, err := categoryRepo.Create(ctx, "Listing Test Category", &userID)
	require.NoError(t, err)

	createAudited := func(desc, status string) *models.Expense {
		t.Helper()
		now := time.Now()
		expense := &models.Expense{
			UserID:           userID,
			Amount:           decimal.NewFromFloat(75.00),
			Description:      desc,
			ExpenseDate:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			IsAutoCreated:    true,
			Source:           "esewa",
			NotificationType: "email",
			RequiresApproval: status == models.StatusPendingApproval,
			AutoCreatedAt:    &now,
			CategoryID:       &cat.ID,
		}
		require.NoError(t, expenseRepo.Create(ctx, expense))
		require.NoError(t, auditRepo.Create(ctx, &models.AutoCreatedExpense{
			ExpenseID:        expense.ID,
			UserID:           userID,
			Source:           "esewa",
			NotificationType: "email",
			RawData:          []byte(`{}`),
			Status:           status,
		}))
		return expense
	}

	pending := createAudited("pending one", models.StatusPendingApproval)
	createAudited("approved one", models.StatusApproved)

	// A manual expense must never appear in the auto-created listing.
	manual := &models.Expense{
		UserID:      userID,
		Amount:      decimal.NewFromFloat(12.00),
		Description: "manual entry",
		ExpenseDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, expenseRepo.Create(ctx, manual))

	t.Run("empty status returns all auto-created expenses", func(t *testing.T) {
		expenses, err := expenseRepo.GetAutoCreatedByUser(ctx, userID, "")
		require.NoError(t, err)
		require.Len(t, expenses, 2)
	})

	t.Run("status filter narrows the listing", func(t *testing.T) {
		expenses, err := expenseRepo.GetAutoCreatedByUser(ctx, userID, models.StatusPendingApproval)
		require.NoError(t, err)
		require.Len(t, expenses, 1)
		require.Equal(t, pending.ID, expenses[0].ID)
	})

	t.Run("joined category is populated", func(t *testing.T) {
		expenses, err := expenseRepo.GetAutoCreatedByUser(ctx, userID, models.StatusPendingApproval)
		require.NoError(t, err)
		require.NotNil(t, expenses[0].Category)
		require.Equal(t, "Listing Test Category", expenses[0].Category.Name)
	})

	t.Run("unknown user returns empty", func(t *testing.T) {
		expenses, err := expenseRepo.GetAutoCreatedByUser(ctx, 424242, "")
		require.NoError(t, err)
		require.Empty(t, expenses)
	})
}
