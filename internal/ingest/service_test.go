package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/paynotify/internal/categorize"
	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/models"
	"gitlab.com/yelinaung/paynotify/internal/notification"
	"gitlab.com/yelinaung/paynotify/internal/repository"
)

func setupIngestTest(t *testing.T) (database.DB, *Service, int64, context.Context) {
	t.Helper()

	db := database.TestTx(t)
	ctx := context.Background()

	user := &models.User{ID: 9001, Email: "ingest@example.com", Name: "Ingest Tester"}
	require.NoError(t, repository.NewUserRepository(db).UpsertUser(ctx, user))

	engine := categorize.NewEngine(
		repository.NewCategoryRepository(db),
		repository.NewMerchantMappingRepository(db),
	)
	return db, NewService(db, engine), user.ID, ctx
}

func esewaCandidate(merchant, txnID string, amount string) *notification.TransactionCandidate {
	return &notification.TransactionCandidate{
		Amount:        decimal.RequireFromString(amount),
		Merchant:      merchant,
		TransactionID: txnID,
		Description:   "Payment to " + merchant + " via eSewa",
		Source:        notification.ChannelEmail,
		Provider:      notification.ProviderEsewa,
		RawText:       "Payment of Rs. " + amount + " to " + merchant + " successful.",
	}
}

func TestService_CreateExpense(t *testing.T) {
	db, svc, userID, ctx := setupIngestTest(t)

	candidate := esewaCandidate("Restaurant XYZ", "ES123456789", "500.00")
	expense, err := svc.CreateExpense(ctx, userID, candidate, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, expense)
	require.NotZero(t, expense.ID)

	require.True(t, expense.IsAutoCreated)
	require.True(t, expense.RequiresApproval)
	require.NotNil(t, expense.AutoCreatedAt)
	require.True(t, decimal.RequireFromString("500.00").Equal(expense.Amount))
	require.Contains(t, expense.Description, "(TXN: ES123456789)")

	// The keyword tier categorizes a restaurant merchant.
	require.NotNil(t, expense.CategoryID)
	cat, err := repository.NewCategoryRepository(db).GetByID(ctx, *expense.CategoryID)
	require.NoError(t, err)
	require.Equal(t, "Food & Dining", cat.Name)

	audit, err := repository.NewAutoCreatedExpenseRepository(db).GetByExpenseID(ctx, expense.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingApproval, audit.Status)
	require.Equal(t, "email", audit.Source)
	require.Equal(t, "esewa", audit.NotificationType)
	require.Equal(t, categorize.ConfidenceKeyword, audit.ConfidenceScore)

	// The audit snapshot round-trips to the original candidate.
	var restored notification.TransactionCandidate
	require.NoError(t, json.Unmarshal(audit.RawData, &restored))
	require.True(t, candidate.Amount.Equal(restored.Amount))
	require.Equal(t, candidate.Merchant, restored.Merchant)
	require.Equal(t, candidate.TransactionID, restored.TransactionID)
	require.Equal(t, candidate.RawText, restored.RawText)
}

func TestService_CreateExpenseWithoutApproval(t *testing.T) {
	db, svc, userID, ctx := setupIngestTest(t)

	opts := DefaultOptions()
	opts.RequiresApproval = false

	expense, err := svc.CreateExpense(ctx, userID, esewaCandidate("Cafe One", "", "120"), opts)
	require.NoError(t, err)
	require.False(t, expense.RequiresApproval)

	audit, err := repository.NewAutoCreatedExpenseRepository(db).GetByExpenseID(ctx, expense.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, audit.Status)
}

func TestService_DuplicateSkipped(t *testing.T) {
	db, svc, userID, ctx := setupIngestTest(t)

	candidate := esewaCandidate("Restaurant XYZ", "ES123456789", "500.00")
	first, err := svc.CreateExpense(ctx, userID, candidate, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, first)

	dup, err := NewDuplicateDetector(repository.NewExpenseRepository(db)).
		IsDuplicate(ctx, userID, candidate, time.Now())
	require.NoError(t, err)
	require.True(t, dup)

	second, err := svc.CreateExpense(ctx, userID, candidate, DefaultOptions())
	require.NoError(t, err)
	require.Nil(t, second)
}

func TestService_DuplicateMatchesUntaggedDescription(t *testing.T) {
	db, _, userID, ctx := setupIngestTest(t)

	// A manually recorded expense mentions the transaction ID in plain
	// text rather than in the auto-created marker.
	when := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	existing := &models.Expense{
		UserID:      userID,
		Amount:      decimal.RequireFromString("500.00"),
		Description: "Dinner, ref ES123456789",
		Merchant:    "Restaurant XYZ",
		ExpenseDate: when,
		Source:      "manual",
	}
	require.NoError(t, repository.NewExpenseRepository(db).Create(ctx, existing))

	candidate := esewaCandidate("Restaurant XYZ", "ES123456789", "500.00")
	dup, err := NewDuplicateDetector(repository.NewExpenseRepository(db)).
		IsDuplicate(ctx, userID, candidate, when)
	require.NoError(t, err)
	require.True(t, dup)
}

func TestService_DuplicateByMerchantWithoutTransactionID(t *testing.T) {
	_, svc, userID, ctx := setupIngestTest(t)

	candidate := esewaCandidate("Corner Bakery", "", "75.25")
	first, err := svc.CreateExpense(ctx, userID, candidate, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.CreateExpense(ctx, userID, candidate, DefaultOptions())
	require.NoError(t, err)
	require.Nil(t, second)
}

func TestService_ValidationErrors(t *testing.T) {
	_, svc, userID, ctx := setupIngestTest(t)

	t.Run("non-positive amount", func(t *testing.T) {
		bad := esewaCandidate("Shop", "", "10")
		bad.Amount = decimal.Zero
		_, err := svc.CreateExpense(ctx, userID, bad, DefaultOptions())
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("empty merchant", func(t *testing.T) {
		bad := esewaCandidate(" ", "", "10")
		_, err := svc.CreateExpense(ctx, userID, bad, DefaultOptions())
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, 0, esewaCandidate("Shop", "", "10"), DefaultOptions())
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("nil candidate", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, userID, nil, DefaultOptions())
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestService_FallbackCategory(t *testing.T) {
	db, svc, userID, ctx := setupIngestTest(t)

	// No mapping, no keyword hit: ingestion falls back to the first
	// available category with zero confidence.
	expense, err := svc.CreateExpense(ctx, userID, esewaCandidate("Zq Ltd", "", "42"), DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, expense.CategoryID)

	audit, err := repository.NewAutoCreatedExpenseRepository(db).GetByExpenseID(ctx, expense.ID)
	require.NoError(t, err)
	require.Equal(t, categorize.ConfidenceNone, audit.ConfidenceScore)
}

func TestService_LearnFromCategorization(t *testing.T) {
	db, svc, userID, ctx := setupIngestTest(t)

	opts := DefaultOptions()
	opts.LearnFromCategorization = true

	_, err := svc.CreateExpense(ctx, userID, esewaCandidate("Restaurant XYZ", "", "300"), opts)
	require.NoError(t, err)

	mapping, err := repository.NewMerchantMappingRepository(db).GetByMerchant(ctx, "restaurant xyz")
	require.NoError(t, err)
	require.NotNil(t, mapping)
	require.Equal(t, 1.0, mapping.Confidence)
}

func TestService_CreateExpensesBatch(t *testing.T) {
	_, svc, userID, ctx := setupIngestTest(t)

	invalid := esewaCandidate("Shop", "", "10")
	invalid.Amount = decimal.Zero

	candidates := []*notification.TransactionCandidate{
		esewaCandidate("Restaurant XYZ", "ES1", "100"),
		invalid,
		esewaCandidate("Cafe One", "KH2", "200"),
		esewaCandidate("Restaurant XYZ", "ES1", "100"), // duplicate of the first
	}

	result := svc.CreateExpensesBatch(ctx, userID, candidates, DefaultOptions())
	require.Len(t, result.Created, 2)
	require.Len(t, result.Failed, 1)
	require.Equal(t, 1, result.Skipped)
	require.Contains(t, result.Failed[0].Reason, "amount")
}
