package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridehub/ridehub-backend/internal/services"
)

// statusForError maps service sentinel errors to HTTP status codes
func statusForError(err error) int {
	switch err {
	case services.ErrRideNotFound, services.ErrBookingNotFound,
		services.ErrWalletNotFound, services.ErrPaymentNotFound,
		services.ErrReviewNotFound:
		return http.StatusNotFound
	case services.ErrUnauthorized:
		return http.StatusForbidden
	case services.ErrInvalidStateTransition, services.ErrOutsideStartWindow,
		services.ErrFinalPriceNotSet, services.ErrAlreadyOnboarded:
		return http.StatusConflict
	case services.ErrInsufficientSeats, services.ErrAlreadyReviewed:
		return http.StatusConflict
	case services.ErrInvalidOTP, services.ErrOTPExpired,
		services.ErrInvalidAmount:
		return http.StatusBadRequest
	case services.ErrInsufficientAvailableBalance, services.ErrInsufficientLockedBalance:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a service error with its mapped status code.
// Internal errors are masked; everything else surfaces its message.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}
