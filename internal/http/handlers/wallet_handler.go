package handlers

import (
	"github.com/freelance-marketplace/backend/internal/http/dto"
	"github.com/freelance-marketplace/backend/internal/middleware"
	"github.com/freelance-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService *services.WalletService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, log: log}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	wallet, err := h.walletService.GetWallet(c.Context(), middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

// InitiateDeposit registers a gateway order; the wallet is credited only
// after ConfirmDeposit verifies the gateway signature.
func (h *WalletHandler) InitiateDeposit(c *fiber.Ctx) error {
	var req dto.InitiateDepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	amount, ok := parseDecimal(req.Amount)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	order, err := h.walletService.InitiateDeposit(c.Context(), middleware.GetUserID(c), middleware.GetRole(c), amount)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.DepositOrderResponse{
		OrderID:     order.ID,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		Receipt:     order.Receipt,
	}})
}

func (h *WalletHandler) ConfirmDeposit(c *fiber.Ctx) error {
	var req dto.ConfirmDepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "order_id, payment_id and signature are required"})
	}

	wallet, err := h.walletService.ConfirmDeposit(c.Context(), middleware.GetUserID(c), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	var req dto.WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	amount, ok := parseDecimal(req.Amount)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	wallet, err := h.walletService.Withdraw(c.Context(), middleware.GetUserID(c), middleware.GetRole(c), amount)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	limit, offset := pagination(c, 20)
	txs, err := h.walletService.GetTransactions(c.Context(), middleware.GetUserID(c), middleware.GetRole(c), limit, offset)
	if err != nil {
		h.log.Error("list transactions failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: txs})
}

func (h *WalletHandler) GetEarnings(c *fiber.Ctx) error {
	months := 6
	if v := c.QueryInt("months"); v > 0 && v <= 24 {
		months = v
	}

	report, err := h.walletService.GetEarnings(c.Context(), middleware.GetUserID(c), months)
	if err != nil {
		h.log.Error("earnings report failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}
