package services

import (
	"time"

	"github.com/ridehub/ridehub-backend/internal/database"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// Store interfaces consumed by the services. The concrete implementations
// live in internal/database; tests substitute hand-written fakes.

// RideStore is the ride persistence surface used by the services
type RideStore interface {
	Create(ride *models.Ride) error
	GetByID(rideID string) (*models.Ride, error)
	GetByDriverID(driverID string) ([]models.Ride, error)
	FindBookable(after time.Time, seats int) ([]models.Ride, error)
	FindPastUncompleted(cutoff time.Time) ([]models.Ride, error)
	FindStartingBetween(from, to time.Time) ([]models.Ride, error)
	ReserveSeats(rideID string, seats int) error
	RestoreSeats(rideID string, seats int) error
	UpdateTripStatus(rideID string, status models.TripStatus, startedAt, completedAt *time.Time) error
	UpdateStatus(rideID string, status models.RideStatus) error
	MarkOneHourWarningSent(rideID string) error
}

// BookingStore is the booking persistence surface used by the services
type BookingStore interface {
	Create(booking *models.Booking) error
	GetByID(bookingID string) (*models.Booking, error)
	GetByPassengerID(passengerID string) ([]models.Booking, error)
	GetByRideID(rideID string) ([]models.Booking, error)
	GetActiveByRideID(rideID string) ([]models.Booking, error)
	GetByRideIDAndStatus(rideID string, status models.BookingStatus) ([]models.Booking, error)
	FindNeedingPaymentRequest(now time.Time) ([]models.Booking, error)
	FindEndedWithLockedFunds() ([]models.Booking, error)
	SetFinalPrice(bookingID string, finalPrice float64) error
	TransitionStatus(bookingID string, from, to models.BookingStatus, at time.Time) error
	Cancel(bookingID string, reason string, at time.Time) error
	CancelRestoringSeats(bookingID, rideID string, seats int, reason string, at time.Time) error
	MarkPassengerStarted(bookingID string, at time.Time) error
	MarkDriverStarted(bookingID string, at time.Time) error
}

// PaymentStore is the payment persistence surface used by the services
type PaymentStore interface {
	Create(payment *models.Payment) error
	GetByGatewayOrderID(orderID string) (*models.Payment, error)
	GetPendingByBookingID(bookingID string) (*models.Payment, error)
	GetCompletedByBookingID(bookingID string) (*models.Payment, error)
	MarkCompleted(paymentID, gatewayPaymentID, gatewaySignature string, paidAt time.Time) error
	MarkFailed(paymentID, reason string) error
	MarkRefunded(paymentID string) error
}

// BoardingStore is the boarding-record persistence surface used by the services
type BoardingStore interface {
	Create(record *models.BoardingRecord) error
	FindUnvalidatedByCode(code string, boardingType models.BoardingType) (*models.BoardingRecord, error)
	HasValidated(bookingID string, boardingType models.BoardingType) (bool, error)
	CountValidatedByRide(rideID string, boardingType models.BoardingType) (int, error)
	MarkValidated(recordID string, at time.Time) error
}

// UserStore resolves users for authorization checks and notification delivery
type UserStore interface {
	GetByID(userID string) (*models.User, error)
}

// WarningStore records disciplinary warnings against drivers
type WarningStore interface {
	Create(warning *models.DriverWarning) error
	GetByDriverID(driverID string) ([]models.DriverWarning, error)
}

// WalletStore is the wallet persistence surface used by the wallet service.
// Mutations take an Execer so they run inside the service's transaction.
type WalletStore interface {
	GetByDriverID(driverID string) (*models.Wallet, error)
	GetOrCreate(q database.Execer, driverID string) (*models.Wallet, error)
	CreditLocked(q database.Execer, walletID string, amount float64) (float64, error)
	MoveLockedToAvailable(q database.Execer, walletID string, amount float64) (float64, error)
	DebitAvailable(q database.Execer, walletID string, amount float64) (float64, error)
}

// LedgerStore is the wallet-transaction persistence surface
type LedgerStore interface {
	Insert(q database.Execer, txn *models.WalletTransaction) error
	CreditExists(q database.Execer, paymentID string) (bool, error)
	SettlementExists(q database.Execer, bookingID string) (bool, error)
	GetByWalletID(walletID string) ([]models.WalletTransaction, error)
}

// ReviewStore is the review persistence surface
type ReviewStore interface {
	Create(review *models.Review) error
	ExistsForBooking(bookingID string) (bool, error)
	GetByBookingID(bookingID string) (*models.Review, error)
	GetByDriverID(driverID string) ([]models.Review, error)
	GetByRideID(rideID string) ([]models.Review, error)
	RatingSummary(driverID string) (float64, int, error)
	RatingDistribution(driverID string) (map[int]int, error)
}
