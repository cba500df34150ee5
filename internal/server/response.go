package server

import (
	"time"

	"gitlab.com/yelinaung/paynotify/internal/models"
)

// expenseResponse shapes an expense for the API. Amounts serialize as
// strings to avoid float rounding in clients.
func expenseResponse(e *models.Expense) map[string]any {
	resp := map[string]any{
		"id":                e.ID,
		"user_id":           e.UserID,
		"amount":            e.Amount.String(),
		"description":       e.Description,
		"merchant":          e.Merchant,
		"expense_date":      e.ExpenseDate.Format("2006-01-02"),
		"is_auto_created":   e.IsAutoCreated,
		"source":            e.Source,
		"notification_type": e.NotificationType,
		"requires_approval": e.RequiresApproval,
	}
	if e.TransactionID != "" {
		resp["transaction_id"] = e.TransactionID
	}
	if e.CategoryID != nil {
		resp["category_id"] = *e.CategoryID
	}
	if e.Category != nil {
		resp["category"] = e.Category.Name
	}
	if e.ApprovedAt != nil {
		resp["approved_at"] = e.ApprovedAt.Format(time.RFC3339)
	}
	if e.RejectedAt != nil {
		resp["rejected_at"] = e.RejectedAt.Format(time.RFC3339)
	}
	if e.RejectionReason != "" {
		resp["rejection_reason"] = e.RejectionReason
	}
	return resp
}
