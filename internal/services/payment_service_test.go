package services

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
)

type paymentFixture struct {
	service  *PaymentService
	rides    *fakeRideStore
	bookings *fakeBookingStore
	payments *fakePaymentStore
	wallets  *fakeWalletStore
	ledger   *fakeLedgerStore
	gateway  *fakeGateway
	notifier *fakeNotifier
	mock     sqlmock.Sqlmock
}

func newPaymentFixture(t *testing.T, rides *fakeRideStore, bookings *fakeBookingStore) *paymentFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &paymentFixture{
		rides:    rides,
		bookings: bookings,
		payments: newFakePaymentStore(),
		wallets:  newFakeWalletStore(),
		ledger:   &fakeLedgerStore{},
		gateway:  &fakeGateway{verifyOK: true},
		notifier: &fakeNotifier{},
		mock:     mock,
	}

	clk := clock.Fixed{Time: testNow}
	logger := quietLogger()
	wallet := NewWalletService(newMockDatabase(db), f.wallets, f.ledger, f.payments, clk, logger)
	bookingSvc := NewBookingService(bookings, rides, NewGeoService(), f.notifier, clk, logger)
	f.service = NewPaymentService(f.payments, bookings, rides, f.gateway, bookingSvc, wallet, "INR", clk, logger)
	return f
}

func pricedBooking() *models.Booking {
	finalPrice := 450.0
	return &models.Booking{
		ID: "booking-1", RideID: "ride-1", PassengerID: "passenger-1",
		SeatsBooked: 2, TotalTripCost: 500, MaximumPrice: 1000,
		FinalPrice: &finalPrice,
		Status:     models.BookingStatusPaymentPending,
	}
}

func TestCreateOrder(t *testing.T) {
	booking := pricedBooking()
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(booking))
	f.gateway.orderID = "order_xyz"

	payment, err := f.service.CreateOrder("booking-1", "passenger-1")
	require.NoError(t, err)

	assert.Equal(t, "order_xyz", payment.GatewayOrderID)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, 450.0, payment.Amount)
	assert.Equal(t, 225.0, payment.FinalSeatRate)
	assert.Equal(t, 2, payment.TotalBookedSeats)
	assert.Equal(t, "driver-1", payment.DriverID)
	assert.EqualValues(t, 45000, f.gateway.lastAmount)
}

func TestCreateOrder_Idempotent(t *testing.T) {
	booking := pricedBooking()
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(booking))

	first, err := f.service.CreateOrder("booking-1", "passenger-1")
	require.NoError(t, err)

	second, err := f.service.CreateOrder("booking-1", "passenger-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.payments.payments, 1)
}

func TestCreateOrder_NotPriced(t *testing.T) {
	booking := pricedBooking()
	booking.FinalPrice = nil
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(booking))

	_, err := f.service.CreateOrder("booking-1", "passenger-1")
	assert.Equal(t, ErrFinalPriceNotSet, err)
}

func TestCreateOrder_WrongState(t *testing.T) {
	booking := pricedBooking()
	booking.Status = models.BookingStatusTentative
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(booking))

	_, err := f.service.CreateOrder("booking-1", "passenger-1")
	assert.Equal(t, ErrInvalidStateTransition, err)
}

func TestCreateOrder_WrongPassenger(t *testing.T) {
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(pricedBooking()))

	_, err := f.service.CreateOrder("booking-1", "someone-else")
	assert.Equal(t, ErrUnauthorized, err)
}

func TestCreateOrder_GatewayFailure(t *testing.T) {
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(pricedBooking()))
	f.gateway.orderErr = fmt.Errorf("gateway unavailable")

	_, err := f.service.CreateOrder("booking-1", "passenger-1")
	require.Error(t, err)
	assert.Empty(t, f.payments.payments)
}

func TestVerifyAndComplete(t *testing.T) {
	booking := pricedBooking()
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(booking))
	f.payments.payments["payment-1"] = &models.Payment{
		ID: "payment-1", BookingID: "booking-1", PassengerID: "passenger-1",
		DriverID: "driver-1", GatewayOrderID: "order_xyz",
		Amount: 450, Status: models.PaymentStatusPending,
	}

	// Escrow credit runs in its own transaction
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	payment, err := f.service.VerifyAndComplete(&models.VerifyPaymentRequest{
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_xyz",
		GatewaySignature: "sig",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

	wallet, err := f.wallets.GetByDriverID("driver-1")
	require.NoError(t, err)
	assert.Equal(t, 450.0, wallet.LockedBalance)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, models.TxnCreditLocked, f.ledger.entries[0].Type)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyAndComplete_BadSignature(t *testing.T) {
	booking := pricedBooking()
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(booking))
	f.gateway.verifyOK = false
	f.payments.payments["payment-1"] = &models.Payment{
		ID: "payment-1", BookingID: "booking-1", PassengerID: "passenger-1",
		DriverID: "driver-1", GatewayOrderID: "order_xyz",
		Amount: 450, Status: models.PaymentStatusPending,
	}

	_, err := f.service.VerifyAndComplete(&models.VerifyPaymentRequest{
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_xyz",
		GatewaySignature: "bad",
	})
	require.Error(t, err)

	assert.Equal(t, models.PaymentStatusFailed, f.payments.payments["payment-1"].Status)
	assert.Equal(t, models.BookingStatusPaymentPending, booking.Status)
	assert.Empty(t, f.ledger.entries)
}

func TestVerifyAndComplete_UnknownOrder(t *testing.T) {
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore())

	_, err := f.service.VerifyAndComplete(&models.VerifyPaymentRequest{
		GatewayOrderID:   "order_missing",
		GatewayPaymentID: "pay_xyz",
		GatewaySignature: "sig",
	})
	assert.Equal(t, ErrPaymentNotFound, err)
}

func TestVerifyAndComplete_RetryAfterCreditFailure(t *testing.T) {
	booking := pricedBooking()
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(booking))
	f.payments.payments["payment-1"] = &models.Payment{
		ID: "payment-1", BookingID: "booking-1", PassengerID: "passenger-1",
		DriverID: "driver-1", GatewayOrderID: "order_xyz",
		Amount: 450, Status: models.PaymentStatusPending,
	}

	req := &models.VerifyPaymentRequest{
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_xyz",
		GatewaySignature: "sig",
	}

	// The wallet credit fails after the payment and booking already
	// committed.
	f.ledger.insertErr = fmt.Errorf("driver: bad connection")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.service.VerifyAndComplete(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to lock funds in escrow")
	assert.Equal(t, models.PaymentStatusCompleted, f.payments.payments["payment-1"].Status)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Empty(t, f.ledger.entries)

	// A second verify call picks up where the first one stopped and
	// lands the escrow credit.
	f.ledger.insertErr = nil
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	payment, err := f.service.VerifyAndComplete(req)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, models.TxnCreditLocked, entry.Type)
	require.NotNil(t, entry.PaymentID)
	assert.Equal(t, "payment-1", *entry.PaymentID)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyAndComplete_FullySettledIsNoOp(t *testing.T) {
	booking := pricedBooking()
	booking.Status = models.BookingStatusConfirmed
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(booking))

	gatewayPID := "pay_xyz"
	f.payments.payments["payment-1"] = &models.Payment{
		ID: "payment-1", BookingID: "booking-1", PassengerID: "passenger-1",
		DriverID: "driver-1", GatewayOrderID: "order_xyz", GatewayPaymentID: &gatewayPID,
		Amount: 450, Status: models.PaymentStatusCompleted,
	}
	paymentID := "payment-1"
	f.ledger.entries = append(f.ledger.entries, models.WalletTransaction{
		ID: "txn-1", WalletID: "wallet-1", PaymentID: &paymentID,
		Type: models.TxnCreditLocked, Amount: 450,
	})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	payment, err := f.service.VerifyAndComplete(&models.VerifyPaymentRequest{
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_xyz",
		GatewaySignature: "sig",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	// No second credit lands.
	assert.Len(t, f.ledger.entries, 1)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyAndComplete_RefundedPayment(t *testing.T) {
	f := newPaymentFixture(t, newFakeRideStore(testRide()), newFakeBookingStore(pricedBooking()))
	f.payments.payments["payment-1"] = &models.Payment{
		ID: "payment-1", BookingID: "booking-1", GatewayOrderID: "order_xyz",
		Amount: 450, Status: models.PaymentStatusRefunded,
	}

	_, err := f.service.VerifyAndComplete(&models.VerifyPaymentRequest{
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_xyz",
		GatewaySignature: "sig",
	})
	assert.Equal(t, ErrInvalidStateTransition, err)
}
