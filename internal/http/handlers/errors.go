package handlers

import (
	"errors"

	"github.com/freelance-marketplace/backend/internal/http/dto"
	"github.com/freelance-marketplace/backend/internal/middleware"
	"github.com/freelance-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// serviceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized is an internal error and stays opaque.
func serviceError(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrBidNotFound),
		errors.Is(err, services.ErrContractNotFound),
		errors.Is(err, services.ErrMilestoneNotFound),
		errors.Is(err, services.ErrChatRoomNotFound),
		errors.Is(err, services.ErrWalletNotFound),
		errors.Is(err, services.ErrDepositOrderNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrChatAccessDenied),
		errors.Is(err, services.ErrOwnProject):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrDuplicateBid),
		errors.Is(err, services.ErrDuplicatePayment),
		errors.Is(err, services.ErrChatTransitionConflict):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInsufficientFrozenFunds):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrPaymentVerificationFailed),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidBidStatus),
		errors.Is(err, services.ErrInvalidMilestoneStatus),
		errors.Is(err, services.ErrInvalidChatOperation),
		errors.Is(err, services.ErrProjectNotOpen),
		errors.Is(err, services.ErrContractNotActive),
		errors.Is(err, services.ErrMilestonesIncomplete):
		status = fiber.StatusBadRequest
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:     "internal error",
			RequestID: middleware.GetRequestID(c),
		})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}
