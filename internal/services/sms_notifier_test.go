package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridehub/ridehub-backend/internal/models"
)

type smsSend struct {
	phone   string
	message string
}

type fakeSMSGateway struct {
	sends   chan smsSend
	sendErr error
}

func newFakeSMSGateway() *fakeSMSGateway {
	return &fakeSMSGateway{sends: make(chan smsSend, 8)}
}

func (g *fakeSMSGateway) Send(phone, message string) (int64, error) {
	g.sends <- smsSend{phone: phone, message: message}
	if g.sendErr != nil {
		return 0, g.sendErr
	}
	return 1, nil
}

func (g *fakeSMSGateway) SendBulk(phones []string, message string) (int64, error) {
	for _, p := range phones {
		g.sends <- smsSend{phone: p, message: message}
	}
	return 1, nil
}

func (g *fakeSMSGateway) Name() string { return "fake" }

type fakeUserStore struct {
	users map[string]*models.User
}

func (s *fakeUserStore) GetByID(userID string) (*models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return user, nil
}

func strPtr(s string) *string { return &s }

func TestSMSNotifier_SendsToContact(t *testing.T) {
	gateway := newFakeSMSGateway()
	users := &fakeUserStore{users: map[string]*models.User{
		"user-1": {ID: "user-1", Name: "A Passenger", Contact: strPtr("+91 98765 43210")},
	}}
	notifier := NewSMSNotifier(gateway, users, quietLogger())

	notifier.Send(NotificationEvent{
		UserID:  "user-1",
		Kind:    NotifyBoardingOTP,
		Message: "Your boarding code is 123456",
	})

	select {
	case sent := <-gateway.sends:
		assert.Equal(t, "9876543210", sent.phone)
		assert.Equal(t, "Your boarding code is 123456", sent.message)
	case <-time.After(time.Second):
		require.Fail(t, "expected an SMS to be sent")
	}
}

func TestSMSNotifier_NoContactFallsBackToLog(t *testing.T) {
	gateway := newFakeSMSGateway()
	users := &fakeUserStore{users: map[string]*models.User{
		"user-1": {ID: "user-1", Name: "A Passenger"},
	}}
	notifier := NewSMSNotifier(gateway, users, quietLogger())

	notifier.Send(NotificationEvent{UserID: "user-1", Kind: NotifyBookingCreated, Message: "Booking created"})

	assert.Empty(t, gateway.sends)
}

func TestSMSNotifier_InvalidContactSkipped(t *testing.T) {
	gateway := newFakeSMSGateway()
	users := &fakeUserStore{users: map[string]*models.User{
		"user-1": {ID: "user-1", Name: "A Passenger", Contact: strPtr("12345")},
	}}
	notifier := NewSMSNotifier(gateway, users, quietLogger())

	notifier.Send(NotificationEvent{UserID: "user-1", Kind: NotifyBookingCreated, Message: "Booking created"})

	assert.Empty(t, gateway.sends)
}

func TestSMSNotifier_UnknownUserSkipped(t *testing.T) {
	gateway := newFakeSMSGateway()
	users := &fakeUserStore{users: map[string]*models.User{}}
	notifier := NewSMSNotifier(gateway, users, quietLogger())

	notifier.Send(NotificationEvent{UserID: "ghost", Kind: NotifyBookingCreated, Message: "Booking created"})

	assert.Empty(t, gateway.sends)
}
