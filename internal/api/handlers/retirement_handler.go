package handlers

import (
	"errors"

	"retire-rag/internal/dto"
	"retire-rag/internal/repository"
	"retire-rag/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RetirementHandler struct {
	planService     *service.PlanService
	queryService    *service.QueryService
	feedbackService *service.FeedbackService
	logger          *zap.Logger
}

func NewRetirementHandler(
	planService *service.PlanService,
	queryService *service.QueryService,
	feedbackService *service.FeedbackService,
	logger *zap.Logger,
) *RetirementHandler {
	return &RetirementHandler{
		planService:     planService,
		queryService:    queryService,
		feedbackService: feedbackService,
		logger:          logger,
	}
}

// CreatePlan godoc
// @Summary Generate a retirement plan
// @Tags retirement
// @Accept json
// @Produce json
// @Param request body dto.RetirementInput true "Plan request"
// @Success 200 {object} dto.PlanResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/retirement/plan [post]
func (h *RetirementHandler) CreatePlan(c *fiber.Ctx) error {
	var req dto.RetirementInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewErrorResponse("Invalid request body"))
	}

	out, err := h.planService.CreatePlan(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.NewErrorResponse(err.Error()))
		}
		h.logger.Error("Plan generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.NewErrorResponse("Plan generation failed"))
	}

	resp := dto.NewPlanResponse(out.Plan, out.ProfileID)
	if out.ProfileErr != nil {
		resp.Error = "Plan generated but the user profile could not be saved"
	}
	return c.JSON(resp)
}

// SubmitFeedback godoc
// @Summary Rate a generated plan
// @Tags retirement
// @Accept json
// @Produce json
// @Param request body dto.FeedbackRequest true "Feedback"
// @Success 200 {object} dto.FeedbackResponse
// @Router /api/retirement/feedback [post]
func (h *RetirementHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.FeedbackResponse{Status: "error", Message: "Invalid request body"})
	}

	feedback, err := h.feedbackService.Submit(c.Context(), &req)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrInvalidInput) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(dto.FeedbackResponse{Status: "error", Message: err.Error()})
	}

	return c.JSON(dto.FeedbackResponse{Status: "success", FeedbackID: feedback.ID.String()})
}

// Query godoc
// @Summary Ask a retirement question
// @Tags retirement
// @Accept json
// @Produce json
// @Param request body dto.QueryRequest true "Query"
// @Success 200 {object} dto.QueryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/retirement/query [post]
func (h *RetirementHandler) Query(c *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewErrorResponse("Invalid request body"))
	}

	result, err := h.queryService.Query(c.Context(), req.Query, req.UserData)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewErrorResponse(err.Error()))
	}

	return c.JSON(dto.QueryResponse{Query: req.Query, Result: result, Status: "success"})
}

// IntermediateCalculations godoc
// @Summary Per-year projection of a generated plan
// @Tags retirement
// @Produce json
// @Param plan_id path string true "Plan ID"
// @Success 200 {object} dto.CalculationsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/retirement/intermediate_calculations/{plan_id} [get]
func (h *RetirementHandler) IntermediateCalculations(c *fiber.Ctx) error {
	planID := c.Params("plan_id")

	calc, err := h.planService.GetCalculations(c.Context(), planID)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewErrorResponse("Invalid plan id"))
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.NewErrorResponse("Plan not found"))
	case err != nil:
		h.logger.Error("Failed to load calculations", zap.String("plan_id", planID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.NewErrorResponse("Failed to load calculations"))
	}

	return c.JSON(dto.CalculationsResponse{PlanID: planID, Calculations: *calc, Status: "success"})
}
