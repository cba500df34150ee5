// Package orchestrator ties the pipeline together: fetch raw messages,
// classify and parse them, ingest the resulting candidates, and mark the
// source messages consumed.
package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gitlab.com/yelinaung/paynotify/internal/categorize"
	"gitlab.com/yelinaung/paynotify/internal/ingest"
	"gitlab.com/yelinaung/paynotify/internal/logger"
	"gitlab.com/yelinaung/paynotify/internal/models"
	"gitlab.com/yelinaung/paynotify/internal/notification"
)

// Message is one raw notification fetched from a message source.
type Message struct {
	ID   string
	Body string
}

// MessageSource supplies raw notification messages. MarkConsumed is
// idempotent and best-effort; a failure there never fails a batch.
type MessageSource interface {
	Fetch(ctx context.Context, max int) ([]Message, error)
	MarkConsumed(ctx context.Context, id string) error
}

// ExpenseCreator is the ingestion surface the orchestrator depends on.
// *ingest.Service satisfies this.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, userID int64, candidate *notification.TransactionCandidate, opts ingest.Options) (*models.Expense, error)
}

// Suggester provides category suggestions for dry runs.
// *categorize.Engine satisfies this.
type Suggester interface {
	GetSuggestedCategories(ctx context.Context, merchant, description string) ([]categorize.Suggestion, error)
}

// ProcessedItem records the outcome for one message in a batch.
type ProcessedItem struct {
	MessageID string `json:"message_id,omitempty"`
	Merchant  string `json:"merchant,omitempty"`
	ExpenseID int    `json:"expense_id,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchOutcome is the result of an email or SMS batch run.
type BatchOutcome struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	ExpensesCreated int             `json:"expenses_created"`
	Processed       []ProcessedItem `json:"processed"`
}

// WebhookPayload is one caller-supplied notification. Source declares
// which text shape the content carries; an empty source defaults to the
// email shape. Provider, when set, skips classification and selects the
// parser variant directly.
type WebhookPayload struct {
	Source   notification.Channel
	Provider notification.Provider
	Content  string
}

// WebhookOutcome is the result of a single webhook ingestion.
type WebhookOutcome struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExpenseID int    `json:"expense_id,omitempty"`
}

// ParseOutcome is the result of a dry-run parse; nothing is persisted.
type ParseOutcome struct {
	Candidate   *notification.TransactionCandidate `json:"candidate"`
	Suggestions []categorize.Suggestion            `json:"suggestions"`
}

// Orchestrator sequences fetch, parse, ingest and mark-consumed.
type Orchestrator struct {
	emails    MessageSource
	ingestor  ExpenseCreator
	suggester Suggester

	expensesCreated metric.Int64Counter
}

// New creates an orchestrator. emails may be nil when no email source is
// configured; ProcessEmails then fails cleanly.
func New(emails MessageSource, ingestor ExpenseCreator, suggester Suggester) *Orchestrator {
	meter := otel.Meter("paynotify/orchestrator")
	counter, err := meter.Int64Counter("expenses_created",
		metric.WithDescription("Expenses auto-created from payment notifications"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("failed to create expenses_created counter")
	}
	return &Orchestrator{
		emails:          emails,
		ingestor:        ingestor,
		suggester:       suggester,
		expensesCreated: counter,
	}
}

// ProcessEmails fetches up to max email bodies and runs each through the
// pipeline. A fetch failure fails the whole batch; a single message
// failing to parse or ingest does not.
func (o *Orchestrator) ProcessEmails(ctx context.Context, userID int64, max int) (*BatchOutcome, error) {
	if o.emails == nil {
		return nil, fmt.Errorf("no email source configured")
	}

	messages, err := o.emails.Fetch(ctx, max)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emails: %w", err)
	}

	outcome := o.processBatch(ctx, userID, messages, notification.ChannelEmail, o.emails)
	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Int("fetched", len(messages)).
		Int("created", outcome.ExpensesCreated).
		Msg("processed email batch")
	return outcome, nil
}

// ProcessSMS runs caller-supplied SMS messages through the pipeline.
func (o *Orchestrator) ProcessSMS(ctx context.Context, userID int64, messages []Message) (*BatchOutcome, error) {
	outcome := o.processBatch(ctx, userID, messages, notification.ChannelSMS, nil)
	logger.Log.Info().
		Str("user", logger.HashUserID(userID)).
		Int("received", len(messages)).
		Int("created", outcome.ExpensesCreated).
		Msg("processed sms batch")
	return outcome, nil
}

// ProcessWebhook ingests a single caller-supplied notification, parsing
// it with the declared source's parser variant. Webhook sources are
// treated as pre-vetted, so the expense is created approved.
func (o *Orchestrator) ProcessWebhook(ctx context.Context, userID int64, payload WebhookPayload) (*WebhookOutcome, error) {
	channel := payload.Source
	if channel == "" || channel == notification.ChannelWebhook {
		channel = notification.ChannelEmail
	}

	var candidate *notification.TransactionCandidate
	var err error
	if payload.Provider != notification.ProviderNone {
		parser, ok := notification.ParserFor(payload.Provider, channel)
		if !ok {
			return &WebhookOutcome{Message: fmt.Sprintf("no %s parser for provider %s", channel, payload.Provider)}, nil
		}
		candidate, err = parser.Parse(payload.Content)
	} else {
		candidate, err = notification.Parse(payload.Content, channel)
	}
	if err != nil {
		return &WebhookOutcome{Message: fmt.Sprintf("could not parse notification: %v", err)}, nil
	}
	candidate.Source = notification.ChannelWebhook

	opts := ingest.DefaultOptions()
	opts.RequiresApproval = false

	expense, err := o.ingestor.CreateExpense(ctx, userID, candidate, opts)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return &WebhookOutcome{Success: true, Message: "duplicate transaction skipped"}, nil
	}

	o.countCreated(ctx, notification.ChannelWebhook)
	return &WebhookOutcome{
		Success:   true,
		Message:   "expense created",
		ExpenseID: expense.ID,
	}, nil
}

// TestParsing parses content and suggests categories without persisting
// anything.
func (o *Orchestrator) TestParsing(ctx context.Context, content string, channel notification.Channel) (*ParseOutcome, error) {
	candidate, err := notification.Parse(content, channel)
	if err != nil {
		return nil, err
	}

	suggestions, err := o.suggester.GetSuggestedCategories(ctx, candidate.Merchant, candidate.Description)
	if err != nil {
		return nil, err
	}
	return &ParseOutcome{Candidate: candidate, Suggestions: suggestions}, nil
}

func (o *Orchestrator) processBatch(ctx context.Context, userID int64, messages []Message, channel notification.Channel, source MessageSource) *BatchOutcome {
	outcome := &BatchOutcome{Success: true}

	for _, msg := range messages {
		item := ProcessedItem{MessageID: msg.ID}

		candidate, err := notification.Parse(msg.Body, channel)
		if err != nil {
			logger.Log.Debug().Err(err).
				Str("message_id", msg.ID).
				Msg("skipping unparseable message")
			item.Error = err.Error()
			item.Skipped = true
			outcome.Processed = append(outcome.Processed, item)
			continue
		}
		item.Merchant = candidate.Merchant

		opts := ingest.DefaultOptions()
		opts.LearnFromCategorization = true
		expense, err := o.ingestor.CreateExpense(ctx, userID, candidate, opts)
		switch {
		case err != nil:
			item.Error = err.Error()
		case expense == nil:
			item.Skipped = true
		default:
			item.ExpenseID = expense.ID
			outcome.ExpensesCreated++
			o.countCreated(ctx, channel)
			if source != nil {
				if err := source.MarkConsumed(ctx, msg.ID); err != nil {
					logger.Log.Warn().Err(err).
						Str("message_id", msg.ID).
						Msg("failed to mark message consumed")
				}
			}
		}
		outcome.Processed = append(outcome.Processed, item)
	}

	outcome.Message = fmt.Sprintf("created %d expense(s) from %d message(s)", outcome.ExpensesCreated, len(messages))
	return outcome
}

func (o *Orchestrator) countCreated(ctx context.Context, channel notification.Channel) {
	if o.expensesCreated == nil {
		return
	}
	o.expensesCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", string(channel)),
	))
}
