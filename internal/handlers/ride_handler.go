package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridehub/ridehub-backend/internal/middleware"
	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/internal/services"
)

// RideHandler handles ride publication and search endpoints
type RideHandler struct {
	rides    *services.RideService
	warnings services.WarningStore
}

// NewRideHandler creates a new RideHandler
func NewRideHandler(rides *services.RideService, warnings services.WarningStore) *RideHandler {
	return &RideHandler{rides: rides, warnings: warnings}
}

// CreateRide publishes a new ride for the authenticated driver
func (h *RideHandler) CreateRide(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ride, err := h.rides.CreateRide(userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ride)
}

// GetRide returns a single ride
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rides.GetRide(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ride)
}

// GetMyRides returns the authenticated driver's rides
func (h *RideHandler) GetMyRides(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rides, err := h.rides.GetDriverRides(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

// SearchRides returns bookable rides matching the passenger's route
func (h *RideHandler) SearchRides(c *gin.Context) {
	var req models.SearchRidesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search parameters", "details": err.Error()})
		return
	}

	rides, err := h.rides.SearchRides(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rides": rides, "count": len(rides)})
}

// GetMyWarnings returns the authenticated driver's disciplinary warnings
func (h *RideHandler) GetMyWarnings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	warnings, err := h.warnings.GetByDriverID(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"warnings": warnings})
}
