package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-report-service/internal/api/dto"
	"github.com/spec-kit/repair-report-service/internal/service"
	apperrors "github.com/spec-kit/repair-report-service/pkg/util"
)

// AuthHandler manages registration, login and token verification.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	if _, err := h.service.Register(c.UserContext(), req.Email, req.Password); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{Message: "ลงทะเบียนผู้ใช้สำเร็จ"})
}

// CheckEmail POST /api/auth/check-email. A malformed address responds 400
// but keeps the {available, message} shape.
func (h *AuthHandler) CheckEmail(c *fiber.Ctx) error {
	var req dto.CheckEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	available, err := h.service.CheckEmail(c.UserContext(), req.Email)
	if err != nil {
		if de := apperrors.ToDomainError(err); de.HTTPStatus == http.StatusBadRequest {
			return c.Status(http.StatusBadRequest).JSON(dto.CheckEmailResponse{
				Available: false,
				Message:   "กรุณาใช้อีเมลสถาบันเท่านั้น",
			})
		}
		return err
	}

	message := "อีเมลนี้สามารถใช้ได้"
	if !available {
		message = "อีเมลนี้ถูกใช้แล้ว"
	}
	return c.JSON(dto.CheckEmailResponse{Available: available, Message: message})
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	user, token, _, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{Token: token, User: dto.NewUserResponse(user)})
}

// Verify GET /api/auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	user, err := h.service.Verify(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(dto.VerifyResponse{User: dto.NewUserResponse(user)})
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}
