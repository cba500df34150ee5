package server

import (
	"errors"
	"net/http"
	"strconv"

	"gitlab.com/yelinaung/paynotify/internal/ingest"
	"gitlab.com/yelinaung/paynotify/internal/logger"
	"gitlab.com/yelinaung/paynotify/internal/notification"
	"gitlab.com/yelinaung/paynotify/internal/orchestrator"
)

type processEmailsRequest struct {
	UserID int64 `json:"user_id"`
	Max    int   `json:"max"`
}

func (s *Server) handleProcessEmails(w http.ResponseWriter, r *http.Request) {
	var req processEmailsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	max := req.Max
	if max <= 0 {
		max = s.maxEmails
	}

	outcome, err := s.pipeline.ProcessEmails(r.Context(), req.UserID, max)
	if err != nil {
		serverError(w, err, "process emails failed")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type processSMSRequest struct {
	UserID   int64 `json:"user_id"`
	Messages []struct {
		ID   string `json:"id"`
		Body string `json:"body"`
	} `json:"messages"`
}

func (s *Server) handleProcessSMS(w http.ResponseWriter, r *http.Request) {
	var req processSMSRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	messages := make([]orchestrator.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, orchestrator.Message{ID: m.ID, Body: m.Body})
	}

	outcome, err := s.pipeline.ProcessSMS(r.Context(), req.UserID, messages)
	if err != nil {
		serverError(w, err, "process sms failed")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type webhookRequest struct {
	UserID           int64  `json:"user_id"`
	Source           string `json:"source"`
	NotificationType string `json:"notification_type"`
	Content          string `json:"content"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || req.Content == "" {
		writeError(w, http.StatusBadRequest, "user_id and content are required")
		return
	}
	source := notification.Channel(req.Source)
	switch source {
	case "", notification.ChannelEmail, notification.ChannelSMS:
	default:
		writeError(w, http.StatusBadRequest, "source must be email or sms")
		return
	}

	outcome, err := s.pipeline.ProcessWebhook(r.Context(), req.UserID, orchestrator.WebhookPayload{
		Source:   source,
		Provider: notification.Provider(req.NotificationType),
		Content:  req.Content,
	})
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		serverError(w, err, "webhook ingestion failed")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type testParseRequest struct {
	Content string `json:"content"`
	Channel string `json:"channel"`
}

func (s *Server) handleTestParse(w http.ResponseWriter, r *http.Request) {
	var req testParseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	channel := notification.Channel(req.Channel)
	if channel == "" {
		channel = notification.ChannelEmail
	}

	outcome, err := s.pipeline.TestParsing(r.Context(), req.Content, channel)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type approveRequest struct {
	CategoryID *int `json:"category_id"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req approveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	expense, err := s.approver.Approve(r.Context(), id, req.CategoryID)
	if err != nil {
		serverError(w, err, "approve failed")
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse(expense))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	expense, err := s.approver.Reject(r.Context(), id, req.Reason)
	if err != nil {
		serverError(w, err, "reject failed")
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse(expense))
}

func (s *Server) handleListAutoCreated(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")

	expenses, err := s.expenses.GetAutoCreatedByUser(r.Context(), userID, status)
	if err != nil {
		serverError(w, err, "list auto-created expenses failed")
		return
	}

	items := make([]map[string]any, 0, len(expenses))
	for i := range expenses {
		items = append(items, expenseResponse(&expenses[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": items})
}

func (s *Server) handleExpenseStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.expenseStats.StatisticsByUser(r.Context(), userID)
	if err != nil {
		serverError(w, err, "expense statistics failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type addMappingRequest struct {
	Merchant   string  `json:"merchant"`
	CategoryID int     `json:"category_id"`
	Confidence float64 `json:"confidence"`
}

func (s *Server) handleAddMapping(w http.ResponseWriter, r *http.Request) {
	var req addMappingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Merchant == "" || req.CategoryID <= 0 {
		writeError(w, http.StatusBadRequest, "merchant and category_id are required")
		return
	}

	if err := s.mappings.AddMapping(r.Context(), req.Merchant, req.CategoryID, req.Confidence); err != nil {
		serverError(w, err, "add mapping failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (s *Server) handleMappingStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.mappingStats.Statistics(r.Context())
	if err != nil {
		serverError(w, err, "mapping statistics failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func queryUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return 0, false
	}
	return userID, true
}

func serverError(w http.ResponseWriter, err error, msg string) {
	logger.Log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}
