package handlers

import (
	"errors"

	"retire-rag/internal/dto"
	"retire-rag/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	authService *service.AuthService
	planService *service.PlanService
	logger      *zap.Logger
}

func NewAdminHandler(authService *service.AuthService, planService *service.PlanService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		authService: authService,
		planService: planService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/retirement/admin/login [post]
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewErrorResponse("Invalid request body"))
	}

	resp, err := h.authService.Login(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.NewErrorResponse("Invalid credentials"))
		}
		h.logger.Error("Login failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.NewErrorResponse("Login failed"))
	}

	return c.JSON(resp)
}

// ListProfiles godoc
// @Summary List stored user profiles
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ProfilesResponse
// @Router /api/retirement/user_profiles [get]
func (h *AdminHandler) ListProfiles(c *fiber.Ctx) error {
	profiles, err := h.planService.ListProfiles(c.Context())
	if err != nil {
		h.logger.Error("Failed to list profiles", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.NewErrorResponse("Failed to list profiles"))
	}

	return c.JSON(dto.ProfilesResponse{Profiles: profiles, Count: len(profiles)})
}

// RebuildIndex godoc
// @Summary Force a rebuild of the semantic index
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.IndexStatusResponse
// @Router /api/retirement/admin/index/rebuild [post]
func (h *AdminHandler) RebuildIndex(c *fiber.Ctx) error {
	status, err := h.authService.RebuildIndex(c.Context())
	if err != nil {
		h.logger.Error("Index rebuild failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.NewErrorResponse("Index rebuild failed"))
	}

	return c.JSON(status)
}

func (h *AdminHandler) IndexStatus(c *fiber.Ctx) error {
	return c.JSON(h.authService.IndexStatus())
}

func (h *AdminHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"index":  h.authService.IndexStatus().State,
	})
}
