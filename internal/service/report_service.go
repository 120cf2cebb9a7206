package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
	"github.com/campushub/ums-api/pkg/export"
	"github.com/campushub/ums-api/pkg/jobs"
	"github.com/campushub/ums-api/pkg/storage"
)

type reportRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListByRequester(ctx context.Context, userID string) ([]models.ReportJob, error)
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type reportLoanLister interface {
	List(ctx context.Context, filter models.BorrowingFilter) ([]models.BorrowingDetail, int, error)
}

// ReportBorrowings is the loan ledger export.
const ReportBorrowings = "borrowings"

// CreateReportRequest queues an export.
type CreateReportRequest struct {
	Type   string              `json:"type" validate:"required,oneof=borrowings"`
	Format models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportConfig tunes export generation.
type ReportConfig struct {
	Workers       int
	Retries       int
	SigningSecret string
	LinkTTL       time.Duration
	Retention     time.Duration
}

// ReportService generates exports asynchronously. Requests return a
// queued job immediately; a worker pool renders the file and flips the
// job to COMPLETED or FAILED.
type ReportService struct {
	repo      reportRepository
	loans     reportLoanLister
	store     *storage.LocalStorage
	signer    *storage.DownloadSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     *jobs.Queue
	config    ReportConfig
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(repo reportRepository, loans reportLoanLister, store *storage.LocalStorage, config ReportConfig, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Retention <= 0 {
		config.Retention = 7 * 24 * time.Hour
	}

	s := &ReportService{
		repo:      repo,
		loans:     loans,
		store:     store,
		signer:    storage.NewDownloadSigner(config.SigningSecret, config.LinkTTL),
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		config:    config,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    config.Workers,
		MaxRetries: config.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Request records a report job and hands it to the worker pool.
func (s *ReportService) Request(ctx context.Context, requestedBy string, req CreateReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	job := &models.ReportJob{
		Type:        req.Type,
		Format:      req.Format,
		State:       models.ReportQueued,
		RequestedBy: requestedBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: job.Type}); err != nil {
		reason := "worker pool unavailable"
		if markErr := s.repo.MarkFailed(ctx, job.ID, reason); markErr != nil {
			s.logger.Error("failed to fail report job", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report")
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob("queued")
	}
	return job, nil
}

// Get returns one job, visible only to its requester.
func (s *ReportService) Get(ctx context.Context, id, requesterID string) (*models.ReportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if job.RequestedBy != requesterID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another user")
	}
	return job, nil
}

// ListMine returns the caller's jobs, newest first.
func (s *ReportService) ListMine(ctx context.Context, userID string) ([]models.ReportJob, error) {
	list, err := s.repo.ListByRequester(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return list, nil
}

// process renders one queued export. Failures are terminal: the job is
// marked FAILED rather than retried, since rendering is deterministic.
func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.FindByID(ctx, job.ID)
	if err != nil {
		s.logger.Error("report job vanished", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	output, err := s.render(ctx, record)
	if err != nil {
		s.fail(ctx, record.ID, err)
		return nil
	}

	name := fmt.Sprintf("%s-%s.%s", record.Type, record.ID, record.Format)
	if _, err := s.store.Save(name, output); err != nil {
		s.fail(ctx, record.ID, fmt.Errorf("write export file: %w", err))
		return nil
	}

	if err := s.repo.MarkCompleted(ctx, record.ID, name); err != nil {
		s.logger.Error("failed to complete report job", zap.String("job_id", record.ID), zap.Error(err))
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob("completed")
	}
	s.logger.Info("report generated", zap.String("job_id", record.ID), zap.String("file", name))
	return nil
}

// Link mints a signed download token for a completed job. Only the
// requester may create one.
func (s *ReportService) Link(ctx context.Context, id, requesterID string) (string, time.Time, error) {
	job, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return "", time.Time{}, err
	}
	if job.State != models.ReportCompleted || job.FilePath == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "report is not ready for download")
	}
	token, expires, err := s.signer.Sign(job.ID, *job.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expires, nil
}

// Download resolves a signed token to the export file it names.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, name, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if job.FilePath == nil || *job.FilePath != name {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	f, err := s.store.Open(name)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return f, name, nil
}

// CleanupFiles removes export files older than the retention window.
func (s *ReportService) CleanupFiles(ctx context.Context) (int, error) {
	return s.store.CleanupOlderThan(s.config.Retention)
}

func (s *ReportService) fail(ctx context.Context, id string, cause error) {
	s.logger.Warn("report generation failed", zap.String("job_id", id), zap.Error(cause))
	if err := s.repo.MarkFailed(ctx, id, cause.Error()); err != nil {
		s.logger.Error("failed to fail report job", zap.String("job_id", id), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob("failed")
	}
}

func (s *ReportService) render(ctx context.Context, job *models.ReportJob) ([]byte, error) {
	var data export.Dataset
	switch job.Type {
	case ReportBorrowings:
		var err error
		data, err = s.borrowingsDataset(ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown report type %q", job.Type)
	}

	switch job.Format {
	case models.ReportCSV:
		return s.csv.Render(data)
	case models.ReportPDF:
		return s.pdf.Render(data, "Borrowing Ledger")
	default:
		return nil, fmt.Errorf("unknown report format %q", job.Format)
	}
}

func (s *ReportService) borrowingsDataset(ctx context.Context) (export.Dataset, error) {
	filter := models.BorrowingFilter{Page: 1, PageSize: 100}
	data := export.Dataset{
		Headers: []string{"Book", "Copy", "Borrower", "Type", "Status", "Borrowed", "Due", "Fine"},
	}
	for {
		loans, total, err := s.loans.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, fmt.Errorf("list borrowings: %w", err)
		}
		for _, loan := range loans {
			data.Rows = append(data.Rows, map[string]string{
				"Book":     loan.BookTitle,
				"Copy":     strconv.Itoa(loan.CopyNumber),
				"Borrower": loan.BorrowerName,
				"Type":     string(loan.BorrowerType),
				"Status":   string(loan.Status),
				"Borrowed": loan.BorrowedAt.Format("2006-01-02"),
				"Due":      loan.DueDate.Format("2006-01-02"),
				"Fine":     strconv.FormatFloat(loan.FineAmount, 'f', 2, 64),
			})
		}
		if len(data.Rows) >= total || len(loans) == 0 {
			return data, nil
		}
		filter.Page++
	}
}
