package handlers

import (
	"github.com/freelance-marketplace/backend/internal/http/dto"
	"github.com/freelance-marketplace/backend/internal/middleware"
	"github.com/freelance-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BidHandler struct {
	bidService *services.BidService
	log        *zap.Logger
}

func NewBidHandler(bidService *services.BidService, log *zap.Logger) *BidHandler {
	return &BidHandler{bidService: bidService, log: log}
}

func (h *BidHandler) PlaceBid(c *fiber.Ctx) error {
	var req dto.PlaceBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project_id"})
	}
	amount, ok := parseDecimal(req.Amount)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	bid, err := h.bidService.Place(c.Context(), middleware.GetUserID(c), services.PlaceBidInput{
		ProjectID:    projectID,
		Amount:       amount,
		Proposal:     req.Proposal,
		DeliveryDays: req.DeliveryDays,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: bid})
}

func (h *BidHandler) ListProjectBids(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	bids, err := h.bidService.ListForProject(c.Context(), middleware.GetUserID(c), projectID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bids})
}

func (h *BidHandler) AcceptBid(c *fiber.Ctx) error {
	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bid id"})
	}

	contract, err := h.bidService.Accept(c.Context(), middleware.GetUserID(c), bidID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: contract})
}

func (h *BidHandler) RejectBid(c *fiber.Ctx) error {
	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bid id"})
	}

	if err := h.bidService.Reject(c.Context(), middleware.GetUserID(c), bidID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *BidHandler) WithdrawBid(c *fiber.Ctx) error {
	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bid id"})
	}

	if err := h.bidService.Withdraw(c.Context(), middleware.GetUserID(c), bidID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
