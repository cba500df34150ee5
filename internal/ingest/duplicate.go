// Package ingest turns parsed transaction candidates into persisted
// expenses: validation, duplicate detection, categorization and the
// approval workflow, each unit of work in a single database transaction.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/paynotify/internal/notification"
)

// similaritySource is the query surface duplicate detection needs.
// *repository.ExpenseRepository satisfies this.
type similaritySource interface {
	ExistsSimilar(ctx context.Context, userID int64, amount decimal.Decimal, date time.Time, descriptionFragment string) (bool, error)
}

// DuplicateDetector decides whether a candidate matches an expense the
// user already has. The check is a heuristic, not a uniqueness
// guarantee: identical amount and date, plus a description substring
// match on the transaction ID when present, else on the merchant.
type DuplicateDetector struct {
	expenses similaritySource
}

// NewDuplicateDetector creates a DuplicateDetector over an expense store.
func NewDuplicateDetector(expenses similaritySource) *DuplicateDetector {
	return &DuplicateDetector{expenses: expenses}
}

// IsDuplicate reports whether the candidate appears already recorded for
// the user. A candidate without a date is compared against the given
// ingestion date.
func (d *DuplicateDetector) IsDuplicate(ctx context.Context, userID int64, candidate *notification.TransactionCandidate, ingestionDate time.Time) (bool, error) {
	date := candidateDate(candidate, ingestionDate)

	fragment := candidate.Merchant
	if candidate.TransactionID != "" {
		fragment = candidate.TransactionID
	}

	dup, err := d.expenses.ExistsSimilar(ctx, userID, candidate.Amount, date, fragment)
	if err != nil {
		return false, fmt.Errorf("duplicate check failed: %w", err)
	}
	return dup, nil
}

// transactionTag is the marker appended to auto-created expense
// descriptions. The duplicate check matches on the bare transaction ID,
// so a tagged description matches too.
func transactionTag(transactionID string) string {
	return "(TXN: " + transactionID + ")"
}

// candidateDate resolves the effective expense date, truncated to a
// calendar day.
func candidateDate(candidate *notification.TransactionCandidate, ingestionDate time.Time) time.Time {
	t := ingestionDate
	if candidate.Date != nil {
		t = candidate.Date.Time
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
