package services

import (
	"github.com/sirupsen/logrus"

	"github.com/ridehub/ridehub-backend/pkg/sms"
	"github.com/ridehub/ridehub-backend/pkg/validator"
)

// SMSNotifier delivers notification events over SMS. Events for users
// without a valid contact number fall back to the structured log. Delivery
// runs on a background goroutine so business flows never wait on the
// provider.
type SMSNotifier struct {
	gateway sms.Gateway
	users   UserStore
	phones  *validator.PhoneValidator
	log     *logrus.Logger
}

// NewSMSNotifier creates a new SMSNotifier
func NewSMSNotifier(gateway sms.Gateway, users UserStore, log *logrus.Logger) *SMSNotifier {
	return &SMSNotifier{
		gateway: gateway,
		users:   users,
		phones:  validator.NewPhoneValidator(),
		log:     log,
	}
}

// Send delivers the event to the user's contact number
func (n *SMSNotifier) Send(event NotificationEvent) {
	fields := logrus.Fields{
		"user_id":    event.UserID,
		"booking_id": event.BookingID,
		"ride_id":    event.RideID,
		"kind":       event.Kind,
	}

	user, err := n.users.GetByID(event.UserID)
	if err != nil {
		n.log.WithFields(fields).WithError(err).Warn("SMS notification skipped: user lookup failed")
		return
	}
	if user.Contact == nil {
		n.log.WithFields(fields).Info(event.Message)
		return
	}

	contact, err := n.phones.Validate(*user.Contact)
	if err != nil {
		n.log.WithFields(fields).WithError(err).Warn("SMS notification skipped: invalid contact number")
		return
	}

	go func() {
		if _, err := n.gateway.Send(contact, event.Message); err != nil {
			n.log.WithFields(fields).WithError(err).Error("Failed to send SMS notification")
			return
		}
		n.log.WithFields(fields).Debug("SMS notification sent")
	}()
}
