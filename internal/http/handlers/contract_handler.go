package handlers

import (
	"github.com/freelance-marketplace/backend/internal/http/dto"
	"github.com/freelance-marketplace/backend/internal/middleware"
	"github.com/freelance-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContractHandler struct {
	contractService *services.ContractService
	log             *zap.Logger
}

func NewContractHandler(contractService *services.ContractService, log *zap.Logger) *ContractHandler {
	return &ContractHandler{contractService: contractService, log: log}
}

func (h *ContractHandler) GetContract(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid contract id"})
	}

	contract, err := h.contractService.Get(c.Context(), middleware.GetUserID(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: contract})
}

func (h *ContractHandler) ListContracts(c *fiber.Ctx) error {
	limit, offset := pagination(c, 20)
	contracts, err := h.contractService.ListForUser(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		h.log.Error("list contracts failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: contracts})
}

func (h *ContractHandler) CompleteContract(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid contract id"})
	}

	contract, err := h.contractService.Complete(c.Context(), middleware.GetUserID(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: contract})
}
