package handlers

import (
	"github.com/freelance-marketplace/backend/internal/http/dto"
	"github.com/freelance-marketplace/backend/internal/middleware"
	"github.com/freelance-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type MilestoneHandler struct {
	milestoneService *services.MilestoneService
	log              *zap.Logger
}

func NewMilestoneHandler(milestoneService *services.MilestoneService, log *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService, log: log}
}

func (h *MilestoneHandler) CreateMilestone(c *fiber.Ctx) error {
	var req dto.CreateMilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid contract_id"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "title is required"})
	}

	var amount *decimal.Decimal
	if req.Amount != nil && *req.Amount != "" {
		d, ok := parseDecimal(*req.Amount)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
		}
		amount = &d
	}
	dueDate, ok := parseTimePtr(req.DueDate)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid due_date"})
	}

	milestone, err := h.milestoneService.Create(c.Context(), middleware.GetUserID(c), services.CreateMilestoneInput{
		ContractID:  contractID,
		Title:       req.Title,
		Description: req.Description,
		Amount:      amount,
		DueDate:     dueDate,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: milestone})
}

func (h *MilestoneHandler) UpdateMilestoneStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid milestone id"})
	}

	var req dto.UpdateMilestoneStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	milestone, err := h.milestoneService.UpdateStatus(c.Context(), middleware.GetUserID(c), id, req.Status)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: milestone})
}

func (h *MilestoneHandler) ListContractMilestones(c *fiber.Ctx) error {
	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid contract id"})
	}

	progress, err := h.milestoneService.ListForContract(c.Context(), middleware.GetUserID(c), contractID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: progress})
}
