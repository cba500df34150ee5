// Package models defines the domain entities for the payment notification pipeline.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Approval statuses for auto-created expenses. These literals are persisted
// and must serialize exactly as written.
const (
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// User represents an account that owns expenses and categories.
type User struct {
	ID        int64
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category represents an expense category. Categories may be owned by a
// user (UserID set) or shared (UserID nil), and may be soft-deleted.
// Historical merchant mappings still resolve to soft-deleted rows.
type Category struct {
	ID        int
	Name      string
	UserID    *int64
	DeletedAt *time.Time
	CreatedAt time.Time
}

// Expense represents a single expense entry. Auto-created expenses carry
// provenance fields and an approval lifecycle.
type Expense struct {
	ID               int
	UserID           int64
	CategoryID       *int
	Category         *Category
	Amount           decimal.Decimal
	Description      string
	Merchant         string
	TransactionID    string
	ExpenseDate      time.Time
	IsAutoCreated    bool
	Source           string
	NotificationType string
	RequiresApproval bool
	AutoCreatedAt    *time.Time
	ApprovedAt       *time.Time
	RejectedAt       *time.Time
	RejectionReason  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AutoCreatedExpense is the audit record paired one-to-one with an
// auto-created Expense. RawData snapshots the originating transaction
// candidate as JSON and must round-trip losslessly.
type AutoCreatedExpense struct {
	ID               int
	ExpenseID        int
	UserID           int64
	Source           string
	NotificationType string
	RawData          []byte
	ConfidenceScore  float64
	Status           string
	ApprovedAt       *time.Time
	RejectedAt       *time.Time
	RejectionReason  string
	CreatedAt        time.Time
}

// MerchantCategoryMapping associates a normalized (lower-cased) merchant
// string with a category. It is both a lookup cache and a simple learned
// model; the merchant key is unique.
type MerchantCategoryMapping struct {
	ID         int
	Merchant   string
	CategoryID int
	Category   *Category
	Confidence float64
	UsageCount int
	LastUsedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MappingStatistics summarizes the learned merchant mappings.
type MappingStatistics struct {
	TotalMappings          int     `json:"total_mappings"`
	RecentMappings         int     `json:"recent_mappings"`
	HighConfidenceMappings int     `json:"high_confidence_mappings"`
	AccuracyRate           float64 `json:"accuracy_rate"`
}

// ExpenseStatistics summarizes a user's auto-created expenses.
type ExpenseStatistics struct {
	Total        int     `json:"total"`
	Pending      int     `json:"pending"`
	Approved     int     `json:"approved"`
	Rejected     int     `json:"rejected"`
	ApprovalRate float64 `json:"approval_rate"`
}
