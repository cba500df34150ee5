// Package server exposes the notification pipeline over a JSON HTTP API.
// Authentication and per-user authorization are a deployment concern and
// sit in front of this handler.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yelinaung/paynotify/internal/models"
	"gitlab.com/yelinaung/paynotify/internal/notification"
	"gitlab.com/yelinaung/paynotify/internal/orchestrator"
)

// Pipeline is the orchestration surface the API exposes.
// *orchestrator.Orchestrator satisfies this.
type Pipeline interface {
	ProcessEmails(ctx context.Context, userID int64, max int) (*orchestrator.BatchOutcome, error)
	ProcessSMS(ctx context.Context, userID int64, messages []orchestrator.Message) (*orchestrator.BatchOutcome, error)
	ProcessWebhook(ctx context.Context, userID int64, payload orchestrator.WebhookPayload) (*orchestrator.WebhookOutcome, error)
	TestParsing(ctx context.Context, content string, channel notification.Channel) (*orchestrator.ParseOutcome, error)
}

// Approver applies approval decisions. *ingest.ApprovalWorkflow
// satisfies this.
type Approver interface {
	Approve(ctx context.Context, expenseID int, overrideCategoryID *int) (*models.Expense, error)
	Reject(ctx context.Context, expenseID int, reason string) (*models.Expense, error)
}

// MappingManager manages explicit merchant mappings.
// *categorize.Engine satisfies this.
type MappingManager interface {
	AddMapping(ctx context.Context, merchant string, categoryID int, confidence float64) error
}

// ExpenseDirectory lists auto-created expenses.
// *repository.ExpenseRepository satisfies this.
type ExpenseDirectory interface {
	GetAutoCreatedByUser(ctx context.Context, userID int64, status string) ([]models.Expense, error)
}

// StatsProvider summarizes pipeline activity.
type StatsProvider interface {
	StatisticsByUser(ctx context.Context, userID int64) (*models.ExpenseStatistics, error)
}

// MappingStatsProvider summarizes the learned mappings.
type MappingStatsProvider interface {
	Statistics(ctx context.Context) (*models.MappingStatistics, error)
}

// Server holds the API dependencies.
type Server struct {
	pipeline     Pipeline
	approver     Approver
	mappings     MappingManager
	expenses     ExpenseDirectory
	expenseStats StatsProvider
	mappingStats MappingStatsProvider
	maxEmails    int
}

// New creates an API server. maxEmails is the batch size used when a
// process-emails request does not name one.
func New(pipeline Pipeline, approver Approver, mappings MappingManager,
	expenses ExpenseDirectory, expenseStats StatsProvider, mappingStats MappingStatsProvider,
	maxEmails int) *Server {
	return &Server{
		pipeline:     pipeline,
		approver:     approver,
		mappings:     mappings,
		expenses:     expenses,
		expenseStats: expenseStats,
		mappingStats: mappingStats,
		maxEmails:    maxEmails,
	}
}

// Handler returns the routed, instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/notifications/process-emails", s.handleProcessEmails)
	mux.HandleFunc("POST /api/notifications/process-sms", s.handleProcessSMS)
	mux.HandleFunc("POST /api/notifications/webhook", s.handleWebhook)
	mux.HandleFunc("POST /api/notifications/test-parse", s.handleTestParse)

	mux.HandleFunc("POST /api/expenses/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /api/expenses/{id}/reject", s.handleReject)
	mux.HandleFunc("GET /api/expenses/auto-created", s.handleListAutoCreated)
	mux.HandleFunc("GET /api/expenses/statistics", s.handleExpenseStatistics)

	mux.HandleFunc("POST /api/mappings", s.handleAddMapping)
	mux.HandleFunc("GET /api/mappings/statistics", s.handleMappingStatistics)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return otelhttp.NewHandler(mux, "paynotify-api")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return 0, false
	}
	return id, true
}
