package services

import (
	"math"
	"time"
)

// RefundCalculation is the outcome of applying the cancellation policy to a
// booking at a point in time.
type RefundCalculation struct {
	RefundPercentage  float64 `json:"refund_percentage"`
	PenaltyPercentage float64 `json:"penalty_percentage"`
	RefundAmount      float64 `json:"refund_amount"`
	PenaltyAmount     float64 `json:"penalty_amount"`
	HoursUntilTrip    float64 `json:"hours_until_trip"`
	Reason            string  `json:"reason"`
}

// RefundPolicy computes time-tiered cancellation refunds. Tier boundaries
// belong to the tier with the larger refund, so cancelling exactly 48 hours
// out still refunds in full.
type RefundPolicy struct{}

// NewRefundPolicy creates a new RefundPolicy
func NewRefundPolicy() *RefundPolicy {
	return &RefundPolicy{}
}

// Calculate applies the policy to an amount given the scheduled trip start
// and the cancellation instant. HoursUntilTrip goes negative once the trip
// has started.
func (p *RefundPolicy) Calculate(tripStart, cancelledAt time.Time, amount float64) RefundCalculation {
	until := tripStart.Sub(cancelledAt)
	hoursUntil := until.Hours()
	minutesUntil := until.Minutes()

	var refundPct, penaltyPct float64
	var reason string

	switch {
	case hoursUntil >= 48:
		refundPct, penaltyPct = 1.0, 0.0
		reason = "Cancellation more than 48 hours before trip"
	case hoursUntil >= 24:
		refundPct, penaltyPct = 0.90, 0.10
		reason = "Cancellation between 24-48 hours before trip"
	case hoursUntil >= 12:
		refundPct, penaltyPct = 0.75, 0.25
		reason = "Cancellation between 12-24 hours before trip"
	case minutesUntil >= 60:
		refundPct, penaltyPct = 0.50, 0.50
		reason = "Cancellation between 1-12 hours before trip"
	case minutesUntil >= 0:
		refundPct, penaltyPct = 0.25, 0.75
		reason = "Cancellation less than 1 hour before trip"
	case hoursUntil >= -1:
		refundPct, penaltyPct = 0.0, 1.0
		reason = "Cancellation after trip start time (no refund)"
	default:
		refundPct, penaltyPct = 0.0, 1.0
		reason = "No-show: Trip already started (no refund)"
	}

	return RefundCalculation{
		RefundPercentage:  refundPct,
		PenaltyPercentage: penaltyPct,
		RefundAmount:      roundMoney(amount * refundPct),
		PenaltyAmount:     roundMoney(amount * penaltyPct),
		HoursUntilTrip:    hoursUntil,
		Reason:            reason,
	}
}

// roundMoney rounds a rupee amount half-up to two decimals
func roundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
