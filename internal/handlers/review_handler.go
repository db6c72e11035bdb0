package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridehub/ridehub-backend/internal/middleware"
	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/internal/services"
)

// ReviewHandler handles ride review endpoints
type ReviewHandler struct {
	reviews *services.ReviewService
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// SubmitReview records the authenticated passenger's review of a booking
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviews.SubmitReview(userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GetBookingReview returns the review left on a booking
func (h *ReviewHandler) GetBookingReview(c *gin.Context) {
	review, err := h.reviews.GetBookingReview(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// BookingReviewExists reports whether a booking has been reviewed
func (h *ReviewHandler) BookingReviewExists(c *gin.Context) {
	exists, err := h.reviews.HasBookingReview(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// GetDriverReviews returns all reviews of a driver
func (h *ReviewHandler) GetDriverReviews(c *gin.Context) {
	reviews, err := h.reviews.GetDriverReviews(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// GetDriverRating returns a driver's aggregated rating
func (h *ReviewHandler) GetDriverRating(c *gin.Context) {
	rating, err := h.reviews.GetDriverRating(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// GetRideReviews returns all reviews for a ride
func (h *ReviewHandler) GetRideReviews(c *gin.Context) {
	reviews, err := h.reviews.GetRideReviews(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
