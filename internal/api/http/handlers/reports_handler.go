package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/spec-kit/repair-report-service/internal/api/dto"
	"github.com/spec-kit/repair-report-service/internal/auth"
	"github.com/spec-kit/repair-report-service/internal/domain"
	"github.com/spec-kit/repair-report-service/internal/service"
	apperrors "github.com/spec-kit/repair-report-service/pkg/util"
)

// ReportsHandler manages report lifecycle endpoints.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Create POST /api/reports. Accepts JSON or multipart/form-data with an
// optional image part.
func (h *ReportsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateReportRequest
	var attachment *service.AttachmentInput

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req = dto.CreateReportRequest{
			Name:       c.FormValue("name"),
			Building:   c.FormValue("building"),
			RoomNumber: c.FormValue("roomNumber"),
			Details:    c.FormValue("details"),
			Category:   c.FormValue("category"),
		}
		header, err := c.FormFile("image")
		switch {
		case err == nil && header != nil:
			file, err := header.Open()
			if err != nil {
				return apperrors.NewValidationError("unreadable image upload", nil)
			}
			defer file.Close()
			attachment = &service.AttachmentInput{
				FileName: header.Filename,
				Size:     header.Size,
				Content:  file,
			}
		case errors.Is(err, fasthttp.ErrMissingFile):
			// no attachment
		default:
			return apperrors.NewValidationError("unreadable image upload", nil)
		}
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	input := service.ReportCreateInput{
		Name:       req.Name,
		Building:   domain.Building(req.Building),
		RoomNumber: req.RoomNumber,
		Details:    req.Details,
		Category:   domain.Category(req.Category),
	}
	report, err := h.service.Create(c.UserContext(), actor, input, attachment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(report)
}

// List GET /api/reports. No authentication; visibility of reports was
// never restricted.
func (h *ReportsHandler) List(c *fiber.Ctx) error {
	reports, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(reports)
}

// Update PATCH /api/reports/:id. Admin only.
func (h *ReportsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	report, err := h.service.Transition(c.UserContext(), actor, c.Params("id"), domain.ReportStatus(req.Status), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// Delete DELETE /api/reports/:id. Admin only.
func (h *ReportsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Report deleted successfully"})
}
