package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridehub/ridehub-backend/internal/middleware"
	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/internal/services"
)

// TripHandler handles journey and boarding verification endpoints
type TripHandler struct {
	trips *services.TripService
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(trips *services.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// StartJourney moves the driver's ride into the pickup phase
func (h *TripHandler) StartJourney(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.trips.StartJourney(c.Param("id"), userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Journey started"})
}

// GenerateOnboardingOTP issues a pickup verification code for a booking
func (h *TripHandler) GenerateOnboardingOTP(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	record, err := h.trips.GenerateOnboardingOTP(c.Param("id"), userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Onboarding code sent to passenger",
		"expires_at": record.ExpiresAt,
	})
}

// ValidateOnboardingOTP spends a pickup verification code
func (h *TripHandler) ValidateOnboardingOTP(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ValidateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.trips.ValidateOnboardingOTP(c.Param("id"), userCtx.UserID, req.OTPCode); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Passenger onboarded"})
}

// GenerateDeboardingOTP issues a drop-off verification code for a booking
func (h *TripHandler) GenerateDeboardingOTP(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	record, err := h.trips.GenerateDeboardingOTP(c.Param("id"), userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Deboarding code sent to passenger",
		"expires_at": record.ExpiresAt,
	})
}

// ValidateDeboardingOTP spends a drop-off verification code
func (h *TripHandler) ValidateDeboardingOTP(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ValidateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.trips.ValidateDeboardingOTP(c.Param("id"), userCtx.UserID, req.OTPCode); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Passenger deboarded"})
}

// PassengerStartRide lets the passenger start their trip inside the
// departure window
func (h *TripHandler) PassengerStartRide(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.trips.PassengerStartRide(c.Param("id"), userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ride started"})
}

// PassengerEndRide lets the passenger confirm their own drop-off
func (h *TripHandler) PassengerEndRide(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.trips.PassengerEndRide(c.Param("id"), userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ride ended"})
}
