package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"momentum/internal/core"
	"momentum/internal/log"
	"momentum/internal/mailparse"
	"momentum/internal/storage"
)

// ErrEmailSyncDisabled is returned by Run when the email_sync setting is off.
var ErrEmailSyncDisabled = errors.New("email sync is disabled")

// MailSource fetches candidate bank alert emails from a mailbox.
type MailSource interface {
	Fetch(ctx context.Context, limit int) ([]mailparse.Email, error)
}

// IngestService turns bank alert emails into transactions.
type IngestService struct {
	storage      *storage.SQLiteRepository
	transactions *TransactionService
	source       MailSource
	registry     *mailparse.Registry
	categorizer  *mailparse.Categorizer
	batchSize    int
	now          func() time.Time
}

func NewIngestService(
	storage *storage.SQLiteRepository,
	transactions *TransactionService,
	source MailSource,
	registry *mailparse.Registry,
	categorizer *mailparse.Categorizer,
	batchSize int,
) *IngestService {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &IngestService{
		storage:      storage,
		transactions: transactions,
		source:       source,
		registry:     registry,
		categorizer:  categorizer,
		batchSize:    batchSize,
		now:          time.Now,
	}
}

// HasSource reports whether a mailbox is configured.
func (s *IngestService) HasSource() bool {
	return s.source != nil
}

// Run fetches one batch and processes it sequentially, one email at a time.
// Duplicates, excluded and unsupported emails only bump counters. The first
// infrastructure error aborts the rest of the batch; the run is recorded
// either way.
func (s *IngestService) Run(ctx context.Context) (core.IngestRun, error) {
	if s.source == nil {
		return core.IngestRun{}, errors.New("no mail source configured")
	}
	settings, err := s.storage.GetSettings(ctx)
	if err != nil {
		return core.IngestRun{}, err
	}
	if !settings.EmailSync {
		return core.IngestRun{}, ErrEmailSyncDisabled
	}

	run := core.IngestRun{ID: uuid.NewString(), StartedAt: s.now().UTC()}
	runErr := s.process(ctx, &run, settings)

	run.FinishedAt = s.now().UTC()
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := s.storage.SaveIngestRun(ctx, run); err != nil {
		slog.ErrorContext(ctx, "Failed to record ingest run", "run_id", run.ID, "error", err)
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogIngestRun(ctx, run)
	return run, runErr
}

func (s *IngestService) process(ctx context.Context, run *core.IngestRun, settings core.Settings) error {
	emails, err := s.source.Fetch(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("fetch emails: %w", err)
	}
	run.Fetched = len(emails)

	for _, e := range emails {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.ingest(ctx, run, e, settings); err != nil {
			return fmt.Errorf("email %s: %w", e.ID, err)
		}
	}
	return nil
}

func (s *IngestService) ingest(ctx context.Context, run *core.IngestRun, e mailparse.Email, settings core.Settings) error {
	seen, err := s.storage.HasSourceEmail(ctx, e.ID)
	if err != nil {
		return err
	}
	if seen {
		run.Duplicates++
		return nil
	}

	res, outcome := s.registry.Parse(e)
	switch outcome {
	case mailparse.OutcomeExcluded:
		run.Excluded++
		return nil
	case mailparse.OutcomeUnsupported:
		run.Unsupported++
		return nil
	case mailparse.OutcomeNoAmount:
		slog.WarnContext(ctx, "Bank alert without amount", "email_id", e.ID, "subject", e.Subject)
		run.Failed++
		return nil
	}
	run.Parsed++

	t, err := s.transactionFor(e, res, settings)
	if err == nil {
		_, err = s.transactions.CreateTransaction(ctx, t)
	}
	switch {
	case errors.Is(err, core.ErrDuplicate):
		run.Duplicates++
	case core.IsValidation(err):
		slog.WarnContext(ctx, "Parsed email produced an invalid transaction", "email_id", e.ID, "error", err)
		run.Failed++
	case err != nil:
		return err
	default:
		run.Inserted++
	}
	return nil
}

func (s *IngestService) transactionFor(e mailparse.Email, res *mailparse.Result, settings core.Settings) (core.Transaction, error) {
	amount, err := res.Money()
	if err != nil {
		return core.Transaction{}, err
	}
	category := mailparse.OtherCategory
	if settings.AutoCategorize && s.categorizer != nil {
		category = s.categorizer.Categorize(res.MerchantName)
	}
	return core.Transaction{
		Type:          core.Expense,
		Date:          res.DateOr(e.ReceivedAt),
		Amount:        amount,
		Category:      category,
		Description:   fmt.Sprintf("%s card spend", res.Bank),
		Merchant:      res.MerchantName,
		CardLast4:     res.CardLast4,
		SourceEmailID: e.ID,
	}, nil
}

// Preview is the registry's verdict on one email, without side effects.
type Preview struct {
	Outcome  string            `json:"outcome"`
	Result   *mailparse.Result `json:"result,omitempty"`
	Category string            `json:"category,omitempty"`
}

// Preview parses e and categorizes the merchant but stores nothing.
func (s *IngestService) Preview(e mailparse.Email) Preview {
	res, outcome := s.registry.Parse(e)
	p := Preview{Outcome: outcome.String(), Result: res}
	if res != nil && s.categorizer != nil {
		p.Category = s.categorizer.Categorize(res.MerchantName)
	}
	return p
}

func (s *IngestService) Runs(ctx context.Context, limit int) ([]core.IngestRun, error) {
	return s.storage.ListIngestRuns(ctx, limit)
}
