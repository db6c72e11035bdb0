package services

import (
	"github.com/sirupsen/logrus"
)

// NotificationEvent is an outbound notification to a user. Delivery
// transport (push, email, SMS) sits behind the Notifier boundary; the
// services only emit events.
type NotificationEvent struct {
	UserID    string            `json:"user_id"`
	BookingID string            `json:"booking_id,omitempty"`
	RideID    string            `json:"ride_id,omitempty"`
	Kind      string            `json:"kind"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
}

// Notification kinds emitted by the services
const (
	NotifyBookingCreated   = "BOOKING_CREATED"
	NotifyPaymentRequested = "PAYMENT_REQUESTED"
	NotifyBookingConfirmed = "BOOKING_CONFIRMED"
	NotifyBookingCancelled = "BOOKING_CANCELLED"
	NotifyRideCancelled    = "RIDE_CANCELLED"
	NotifyTripStarted      = "TRIP_STARTED"
	NotifyBoardingOTP      = "BOARDING_OTP"
	NotifyOneHourWarning   = "ONE_HOUR_WARNING"
	NotifyTripCompleted    = "TRIP_COMPLETED"
	NotifyFundsReleased    = "FUNDS_RELEASED"
)

// Notifier delivers notification events. Implementations must not block
// business flows; send failures are logged and swallowed by callers.
type Notifier interface {
	Send(event NotificationEvent)
}

// LogNotifier is a Notifier that writes events to the structured log.
// It stands in until a real push/email transport is wired.
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Send logs the event
func (n *LogNotifier) Send(event NotificationEvent) {
	n.log.WithFields(logrus.Fields{
		"user_id":    event.UserID,
		"booking_id": event.BookingID,
		"ride_id":    event.RideID,
		"kind":       event.Kind,
	}).Info(event.Message)
}
