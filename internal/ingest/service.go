package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/paynotify/internal/categorize"
	"gitlab.com/yelinaung/paynotify/internal/database"
	"gitlab.com/yelinaung/paynotify/internal/logger"
	"gitlab.com/yelinaung/paynotify/internal/models"
	"gitlab.com/yelinaung/paynotify/internal/notification"
	"gitlab.com/yelinaung/paynotify/internal/repository"
)

// Categorizer is the categorization surface ingestion depends on.
// *categorize.Engine satisfies this.
type Categorizer interface {
	Categorize(ctx context.Context, merchant, description string) (*models.Category, error)
	GetConfidenceScore(ctx context.Context, merchant, description string) float64
	LearnWith(ctx context.Context, store categorize.MappingStore, merchant, description string, category *models.Category) error
}

// Options controls expense creation behavior.
type Options struct {
	RequiresApproval        bool
	LearnFromCategorization bool
}

// DefaultOptions returns the standard ingestion options: approval
// required, no learning from automatic categorization.
func DefaultOptions() Options {
	return Options{RequiresApproval: true}
}

// ValidationError reports a candidate that failed pre-ingestion checks.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid transaction: " + strings.Join(e.Problems, "; ")
}

// BatchFailure records one candidate that a batch could not ingest.
type BatchFailure struct {
	Candidate *notification.TransactionCandidate
	Reason    string
}

// BatchResult summarizes a batch ingestion run.
type BatchResult struct {
	Created []*models.Expense
	Failed  []BatchFailure
	Skipped int
}

// Service creates expenses from transaction candidates. Each candidate
// is processed in its own database transaction.
type Service struct {
	db     database.DB
	engine Categorizer
	now    func() time.Time
}

// NewService creates an ingestion service.
func NewService(db database.DB, engine Categorizer) *Service {
	return &Service{db: db, engine: engine, now: time.Now}
}

// CreateExpense validates, deduplicates, categorizes and persists one
// candidate as an auto-created expense with its paired audit record, all
// in one transaction. A duplicate candidate is skipped: it returns
// (nil, nil), not an error.
func (s *Service) CreateExpense(ctx context.Context, userID int64, candidate *notification.TransactionCandidate, opts Options) (*models.Expense, error) {
	if err := validateCandidate(userID, candidate); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	expenses := repository.NewExpenseRepository(tx)
	audits := repository.NewAutoCreatedExpenseRepository(tx)
	categories := repository.NewCategoryRepository(tx)
	mappings := repository.NewMerchantMappingRepository(tx)

	now := s.now()

	dup, err := NewDuplicateDetector(expenses).IsDuplicate(ctx, userID, candidate, now)
	if err != nil {
		return nil, err
	}
	if dup {
		logger.Log.Info().
			Str("user", logger.HashUserID(userID)).
			Str("merchant", logger.SanitizeText(candidate.Merchant)).
			Msg("skipping duplicate transaction")
		return nil, nil
	}

	category, resolved, err := s.resolveCategory(ctx, userID, candidate, categories)
	if err != nil {
		return nil, err
	}

	expense := buildExpense(userID, candidate, category, opts, now)
	if err := expenses.Create(ctx, expense); err != nil {
		return nil, err
	}

	rawData, err := json.Marshal(candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot candidate: %w", err)
	}

	status := models.StatusPendingApproval
	if !opts.RequiresApproval {
		status = models.StatusApproved
	}
	audit := &models.AutoCreatedExpense{
		ExpenseID:        expense.ID,
		UserID:           userID,
		Source:           string(candidate.Source),
		NotificationType: string(candidate.Provider),
		RawData:          rawData,
		ConfidenceScore:  s.engine.GetConfidenceScore(ctx, candidate.Merchant, candidate.Description),
		Status:           status,
	}
	if err := audits.Create(ctx, audit); err != nil {
		return nil, err
	}

	if opts.LearnFromCategorization && resolved {
		if err := s.engine.LearnWith(ctx, mappings, candidate.Merchant, candidate.Description, category); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Int("expense_id", expense.ID).
		Str("amount", expense.Amount.String()).
		Str("status", status).
		Msg("auto-created expense")
	return expense, nil
}

// CreateExpensesBatch ingests candidates one by one. A failed or skipped
// candidate never aborts the batch.
func (s *Service) CreateExpensesBatch(ctx context.Context, userID int64, candidates []*notification.TransactionCandidate, opts Options) *BatchResult {
	result := &BatchResult{}
	for _, candidate := range candidates {
		expense, err := s.CreateExpense(ctx, userID, candidate, opts)
		switch {
		case err != nil:
			result.Failed = append(result.Failed, BatchFailure{Candidate: candidate, Reason: err.Error()})
		case expense == nil:
			result.Skipped++
		default:
			result.Created = append(result.Created, expense)
		}
	}
	return result
}

// resolveCategory runs the categorization cascade and, when it comes up
// empty, falls back to the user's first owned category, then any
// category. resolved is true only for a cascade match; fallback picks do
// not feed learning.
func (s *Service) resolveCategory(ctx context.Context, userID int64, candidate *notification.TransactionCandidate, categories *repository.CategoryRepository) (*models.Category, bool, error) {
	category, err := s.engine.Categorize(ctx, candidate.Merchant, candidate.Description)
	if err != nil {
		return nil, false, err
	}
	if category != nil {
		return category, true, nil
	}

	category, err = categories.FirstOwnedByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if category == nil {
		if category, err = categories.FirstAvailable(ctx); err != nil {
			return nil, false, err
		}
	}
	return category, false, nil
}

func buildExpense(userID int64, candidate *notification.TransactionCandidate, category *models.Category, opts Options, now time.Time) *models.Expense {
	description := candidate.Description
	if candidate.TransactionID != "" {
		description += " " + transactionTag(candidate.TransactionID)
	}

	expense := &models.Expense{
		UserID:           userID,
		Amount:           candidate.Amount,
		Description:      description,
		Merchant:         candidate.Merchant,
		TransactionID:    candidate.TransactionID,
		ExpenseDate:      candidateDate(candidate, now),
		IsAutoCreated:    true,
		Source:           string(candidate.Source),
		NotificationType: string(candidate.Provider),
		RequiresApproval: opts.RequiresApproval,
		AutoCreatedAt:    &now,
	}
	if category != nil {
		expense.CategoryID = &category.ID
		expense.Category = category
	}
	return expense
}

func validateCandidate(userID int64, candidate *notification.TransactionCandidate) error {
	var problems []string
	if userID <= 0 {
		problems = append(problems, "user is required")
	}
	if candidate == nil {
		return &ValidationError{Problems: append(problems, "candidate is required")}
	}
	if !candidate.Amount.IsPositive() {
		problems = append(problems, "amount must be positive")
	}
	if strings.TrimSpace(candidate.Merchant) == "" {
		problems = append(problems, "merchant is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
