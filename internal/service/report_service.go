package service

import (
	"context"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-report-service/internal/domain"
	"github.com/spec-kit/repair-report-service/internal/events"
	"github.com/spec-kit/repair-report-service/internal/repository"
	"github.com/spec-kit/repair-report-service/internal/storage"
	apperrors "github.com/spec-kit/repair-report-service/pkg/util"
)

// ReportService coordinates the report lifecycle: create, list, status
// transitions and deletion, with live-update publication after each
// successful mutation.
type ReportService struct {
	reports     repository.ReportRepository
	blobs       storage.BlobStore
	broadcaster events.Broadcaster
	logger      *zap.Logger
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	ReportRepo  repository.ReportRepository
	BlobStore   storage.BlobStore
	Broadcaster events.Broadcaster
	Logger      *zap.Logger
}

// ReportCreateInput describes a submission payload.
type ReportCreateInput struct {
	Name       string
	Building   domain.Building
	RoomNumber string
	Details    string
	Category   domain.Category
}

// AttachmentInput carries an uploaded image stream.
type AttachmentInput struct {
	FileName string
	Size     int64
	Content  io.Reader
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		reports:     deps.ReportRepo,
		blobs:       deps.BlobStore,
		broadcaster: deps.Broadcaster,
		logger:      deps.Logger,
	}
}

// Create validates and persists a new report for the authenticated actor.
// CreatedBy is forced to the actor's identity regardless of any
// client-supplied value. On success a newReport event is published.
func (s *ReportService) Create(ctx context.Context, actor *domain.User, input ReportCreateInput, attachment *AttachmentInput) (*domain.Report, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	report := &domain.Report{
		Name:       strings.TrimSpace(input.Name),
		Building:   input.Building,
		RoomNumber: strings.TrimSpace(input.RoomNumber),
		Details:    strings.TrimSpace(input.Details),
		Category:   input.Category,
		CreatedBy:  actor.ID,
	}

	if attachment != nil {
		path, err := s.blobs.Save(ctx, attachment.FileName, attachment.Size, attachment.Content)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		report.ImagePath = path
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(events.KindNewReport, report)
	return report, nil
}

// List returns all reports, newest first. Listing carries no access
// control; report visibility was never restricted.
func (s *ReportService) List(ctx context.Context) ([]domain.Report, error) {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	return reports, nil
}

// Transition applies an admin status/note change. The role check runs
// before any store access, so a non-admin never learns whether the id
// exists. A nil note leaves the stored note unchanged; an empty string
// clears it. UpdatedAt is refreshed as part of the same statement.
func (s *ReportService) Transition(ctx context.Context, actor *domain.User, id string, status domain.ReportStatus, note *string) (*domain.Report, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin rights required")
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
	}

	report, err := s.reports.UpdateStatus(ctx, id, status, note)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("report")
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(events.KindUpdateReport, report)
	return report, nil
}

// Delete removes a report permanently. Admin only; the role check runs
// before any store access.
func (s *ReportService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin rights required")
	}

	if err := s.reports.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("report")
		}
		return apperrors.MapError(err)
	}

	s.publish(events.KindDeleteReport, id)
	return nil
}

// publish is fire-and-forget after a successful persist; a missed
// broadcast is acceptable since clients reconcile via List.
func (s *ReportService) publish(kind events.Kind, payload any) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(events.NewEvent(kind, payload))
}

func validateCreateInput(input ReportCreateInput) error {
	missing := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		missing["name"] = "required"
	}
	if strings.TrimSpace(input.RoomNumber) == "" {
		missing["roomNumber"] = "required"
	}
	if strings.TrimSpace(input.Details) == "" {
		missing["details"] = "required"
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", missing)
	}
	if !input.Building.Valid() {
		return apperrors.NewValidationError("unknown building", map[string]any{"building": string(input.Building)})
	}
	if !input.Category.Valid() {
		return apperrors.NewValidationError("unknown category", map[string]any{"category": string(input.Category)})
	}
	return nil
}
