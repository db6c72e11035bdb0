package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ridehub/ridehub-backend/internal/database"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// mockDatabase adapts a sqlmock connection to the database.DB interface
type mockDatabase struct {
	db   *sql.DB
	sqlx *sqlx.DB
}

func newMockDatabase(db *sql.DB) *mockDatabase {
	return &mockDatabase{db: db, sqlx: sqlx.NewDb(db, "sqlmock")}
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return m.sqlx.Get(dest, query, args...)
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return m.sqlx.Select(dest, query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Beginx() (*sqlx.Tx, error) {
	return m.sqlx.Beginx()
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}

// fakeRideStore is an in-memory RideStore
type fakeRideStore struct {
	rides      map[string]*models.Ride
	bookable   []models.Ride
	past       []models.Ride
	upcoming   []models.Ride
	createErr  error
	reserveErr error
	nextID     int
}

func newFakeRideStore(rides ...*models.Ride) *fakeRideStore {
	f := &fakeRideStore{rides: make(map[string]*models.Ride)}
	for _, r := range rides {
		f.rides[r.ID] = r
	}
	return f
}

func (f *fakeRideStore) Create(ride *models.Ride) error {
	if f.createErr != nil {
		return f.createErr
	}
	if ride.ID == "" {
		f.nextID++
		ride.ID = fmt.Sprintf("ride-%d", f.nextID)
	}
	f.rides[ride.ID] = ride
	return nil
}

func (f *fakeRideStore) GetByID(rideID string) (*models.Ride, error) {
	ride, ok := f.rides[rideID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ride, nil
}

func (f *fakeRideStore) GetByDriverID(driverID string) ([]models.Ride, error) {
	var out []models.Ride
	for _, r := range f.rides {
		if r.DriverID == driverID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRideStore) FindBookable(after time.Time, seats int) ([]models.Ride, error) {
	return f.bookable, nil
}

func (f *fakeRideStore) FindPastUncompleted(cutoff time.Time) ([]models.Ride, error) {
	return f.past, nil
}

func (f *fakeRideStore) FindStartingBetween(from, to time.Time) ([]models.Ride, error) {
	return f.upcoming, nil
}

func (f *fakeRideStore) ReserveSeats(rideID string, seats int) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	ride, ok := f.rides[rideID]
	if !ok || ride.Status != models.RideStatusAvailable || ride.AvailableSeats < seats {
		return database.ErrNoSeats
	}
	ride.AvailableSeats -= seats
	if ride.AvailableSeats == 0 {
		ride.Status = models.RideStatusFull
	}
	return nil
}

func (f *fakeRideStore) RestoreSeats(rideID string, seats int) error {
	ride, ok := f.rides[rideID]
	if !ok {
		return sql.ErrNoRows
	}
	ride.AvailableSeats += seats
	if ride.Status == models.RideStatusFull {
		ride.Status = models.RideStatusAvailable
	}
	return nil
}

func (f *fakeRideStore) UpdateTripStatus(rideID string, status models.TripStatus, startedAt, completedAt *time.Time) error {
	ride, ok := f.rides[rideID]
	if !ok {
		return sql.ErrNoRows
	}
	ride.TripStatus = status
	return nil
}

func (f *fakeRideStore) UpdateStatus(rideID string, status models.RideStatus) error {
	ride, ok := f.rides[rideID]
	if !ok {
		return sql.ErrNoRows
	}
	ride.Status = status
	return nil
}

func (f *fakeRideStore) MarkOneHourWarningSent(rideID string) error {
	ride, ok := f.rides[rideID]
	if !ok {
		return sql.ErrNoRows
	}
	ride.OneHourWarningSent = true
	return nil
}

// fakeBookingStore is an in-memory BookingStore mirroring the repository's
// guarded update semantics.
type fakeBookingStore struct {
	bookings    map[string]*models.Booking
	rides       *fakeRideStore
	endedLocked []models.Booking
	createErr   error
	cancelTxErr error
	nextID      int
}

func newFakeBookingStore(bookings ...*models.Booking) *fakeBookingStore {
	f := &fakeBookingStore{bookings: make(map[string]*models.Booking)}
	for _, b := range bookings {
		f.bookings[b.ID] = b
	}
	return f
}

func (f *fakeBookingStore) Create(booking *models.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	if booking.ID == "" {
		f.nextID++
		booking.ID = fmt.Sprintf("booking-%d", f.nextID)
	}
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingStore) GetByID(bookingID string) (*models.Booking, error) {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return booking, nil
}

func (f *fakeBookingStore) GetByPassengerID(passengerID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.PassengerID == passengerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetByRideID(rideID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.RideID == rideID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetActiveByRideID(rideID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.RideID == rideID && b.IsActive() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetByRideIDAndStatus(rideID string, status models.BookingStatus) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.RideID == rideID && b.Status == status {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) FindNeedingPaymentRequest(now time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.Status == models.BookingStatusTentative && !b.PaymentRequestSent && !b.PaymentDueAt.After(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) FindEndedWithLockedFunds() ([]models.Booking, error) {
	return f.endedLocked, nil
}

func (f *fakeBookingStore) SetFinalPrice(bookingID string, finalPrice float64) error {
	booking, ok := f.bookings[bookingID]
	if !ok || booking.Status != models.BookingStatusTentative {
		return fmt.Errorf("booking %s is not awaiting pricing", bookingID)
	}
	booking.FinalPrice = &finalPrice
	booking.Status = models.BookingStatusPaymentPending
	booking.PaymentRequestSent = true
	return nil
}

func (f *fakeBookingStore) TransitionStatus(bookingID string, from, to models.BookingStatus, at time.Time) error {
	booking, ok := f.bookings[bookingID]
	if !ok || booking.Status != from {
		return fmt.Errorf("booking %s is not in status %s", bookingID, from)
	}
	booking.Status = to
	booking.UpdatedAt = &at
	return nil
}

func (f *fakeBookingStore) Cancel(bookingID string, reason string, at time.Time) error {
	booking, ok := f.bookings[bookingID]
	if !ok || booking.Status == models.BookingStatusCancelled || booking.Status == models.BookingStatusCompleted {
		return fmt.Errorf("booking %s cannot be cancelled", bookingID)
	}
	booking.Status = models.BookingStatusCancelled
	booking.CancellationReason = &reason
	booking.CancelledAt = &at
	return nil
}

func (f *fakeBookingStore) CancelRestoringSeats(bookingID, rideID string, seats int, reason string, at time.Time) error {
	if f.cancelTxErr != nil {
		return f.cancelTxErr
	}
	if err := f.Cancel(bookingID, reason, at); err != nil {
		return err
	}
	if f.rides != nil {
		if ride, ok := f.rides.rides[rideID]; ok {
			switch ride.Status {
			case models.RideStatusAvailable, models.RideStatusFull:
				ride.AvailableSeats += seats
				if ride.Status == models.RideStatusFull {
					ride.Status = models.RideStatusAvailable
				}
			}
		}
	}
	return nil
}

func (f *fakeBookingStore) MarkPassengerStarted(bookingID string, at time.Time) error {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return sql.ErrNoRows
	}
	booking.PassengerStarted = true
	booking.RideStartedAt = &at
	return nil
}

func (f *fakeBookingStore) MarkDriverStarted(bookingID string, at time.Time) error {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return sql.ErrNoRows
	}
	booking.DriverStartedRide = true
	booking.RideStartedAt = &at
	return nil
}

// fakeBoardingStore is an in-memory BoardingStore
type fakeBoardingStore struct {
	records []*models.BoardingRecord
	nextID  int
}

func (f *fakeBoardingStore) Create(record *models.BoardingRecord) error {
	if record.ID == "" {
		f.nextID++
		record.ID = fmt.Sprintf("boarding-%d", f.nextID)
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeBoardingStore) FindUnvalidatedByCode(code string, boardingType models.BoardingType) (*models.BoardingRecord, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.OTPCode == code && r.Type == boardingType && !r.Validated {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeBoardingStore) HasValidated(bookingID string, boardingType models.BoardingType) (bool, error) {
	for _, r := range f.records {
		if r.BookingID == bookingID && r.Type == boardingType && r.Validated {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBoardingStore) CountValidatedByRide(rideID string, boardingType models.BoardingType) (int, error) {
	seen := map[string]bool{}
	for _, r := range f.records {
		if r.RideID == rideID && r.Type == boardingType && r.Validated {
			seen[r.BookingID] = true
		}
	}
	return len(seen), nil
}

func (f *fakeBoardingStore) MarkValidated(recordID string, at time.Time) error {
	for _, r := range f.records {
		if r.ID == recordID && !r.Validated {
			r.Validated = true
			r.ValidatedAt = &at
			return nil
		}
	}
	return fmt.Errorf("boarding record %s already validated or missing", recordID)
}

// fakeWarningStore collects driver warnings
type fakeWarningStore struct {
	warnings []models.DriverWarning
}

func (f *fakeWarningStore) Create(warning *models.DriverWarning) error {
	f.warnings = append(f.warnings, *warning)
	return nil
}

func (f *fakeWarningStore) GetByDriverID(driverID string) ([]models.DriverWarning, error) {
	var out []models.DriverWarning
	for _, w := range f.warnings {
		if w.DriverID == driverID {
			out = append(out, w)
		}
	}
	return out, nil
}

// fakePaymentStore is an in-memory PaymentStore
type fakePaymentStore struct {
	payments map[string]*models.Payment
	nextID   int
}

func newFakePaymentStore(payments ...*models.Payment) *fakePaymentStore {
	f := &fakePaymentStore{payments: make(map[string]*models.Payment)}
	for _, p := range payments {
		f.payments[p.ID] = p
	}
	return f
}

func (f *fakePaymentStore) Create(payment *models.Payment) error {
	if payment.ID == "" {
		f.nextID++
		payment.ID = fmt.Sprintf("payment-%d", f.nextID)
	}
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakePaymentStore) GetByGatewayOrderID(orderID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.GatewayOrderID == orderID {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePaymentStore) GetPendingByBookingID(bookingID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.BookingID == bookingID && p.Status == models.PaymentStatusPending {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePaymentStore) GetCompletedByBookingID(bookingID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.BookingID == bookingID && p.Status == models.PaymentStatusCompleted {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePaymentStore) MarkCompleted(paymentID, gatewayPaymentID, gatewaySignature string, paidAt time.Time) error {
	p, ok := f.payments[paymentID]
	if !ok || p.Status != models.PaymentStatusPending {
		return fmt.Errorf("payment %s is not pending", paymentID)
	}
	p.Status = models.PaymentStatusCompleted
	p.GatewayPaymentID = &gatewayPaymentID
	p.GatewaySignature = &gatewaySignature
	p.PaidAt = &paidAt
	return nil
}

func (f *fakePaymentStore) MarkFailed(paymentID, reason string) error {
	p, ok := f.payments[paymentID]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = models.PaymentStatusFailed
	p.FailureReason = &reason
	return nil
}

func (f *fakePaymentStore) MarkRefunded(paymentID string) error {
	p, ok := f.payments[paymentID]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = models.PaymentStatusRefunded
	return nil
}

// fakeWalletStore is an in-memory WalletStore. The Execer is ignored;
// transaction boundaries are asserted through sqlmock expectations.
type fakeWalletStore struct {
	wallets map[string]*models.Wallet
	nextID  int
}

func newFakeWalletStore(wallets ...*models.Wallet) *fakeWalletStore {
	f := &fakeWalletStore{wallets: make(map[string]*models.Wallet)}
	for _, w := range wallets {
		f.wallets[w.DriverID] = w
	}
	return f
}

func (f *fakeWalletStore) GetByDriverID(driverID string) (*models.Wallet, error) {
	w, ok := f.wallets[driverID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return w, nil
}

func (f *fakeWalletStore) GetOrCreate(q database.Execer, driverID string) (*models.Wallet, error) {
	if w, ok := f.wallets[driverID]; ok {
		return w, nil
	}
	f.nextID++
	w := &models.Wallet{ID: fmt.Sprintf("wallet-%d", f.nextID), DriverID: driverID}
	f.wallets[driverID] = w
	return w, nil
}

func (f *fakeWalletStore) byID(walletID string) *models.Wallet {
	for _, w := range f.wallets {
		if w.ID == walletID {
			return w
		}
	}
	return nil
}

func (f *fakeWalletStore) CreditLocked(q database.Execer, walletID string, amount float64) (float64, error) {
	w := f.byID(walletID)
	if w == nil {
		return 0, sql.ErrNoRows
	}
	w.LockedBalance += amount
	w.TotalEarnings += amount
	return w.LockedBalance, nil
}

func (f *fakeWalletStore) MoveLockedToAvailable(q database.Execer, walletID string, amount float64) (float64, error) {
	w := f.byID(walletID)
	if w == nil {
		return 0, sql.ErrNoRows
	}
	if w.LockedBalance < amount {
		return 0, database.ErrLockedBalanceShort
	}
	w.LockedBalance -= amount
	w.AvailableBalance += amount
	return w.AvailableBalance, nil
}

func (f *fakeWalletStore) DebitAvailable(q database.Execer, walletID string, amount float64) (float64, error) {
	w := f.byID(walletID)
	if w == nil {
		return 0, sql.ErrNoRows
	}
	if w.AvailableBalance < amount {
		return 0, database.ErrAvailableBalanceShort
	}
	w.AvailableBalance -= amount
	return w.AvailableBalance, nil
}

// fakeLedgerStore collects wallet transactions
type fakeLedgerStore struct {
	entries   []models.WalletTransaction
	insertErr error
}

func (f *fakeLedgerStore) Insert(q database.Execer, txn *models.WalletTransaction) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, *txn)
	return nil
}

func (f *fakeLedgerStore) SettlementExists(q database.Execer, bookingID string) (bool, error) {
	for _, e := range f.entries {
		if e.BookingID != nil && *e.BookingID == bookingID &&
			(e.Type == models.TxnUnlockToAvailable || e.Type == models.TxnRelease) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerStore) CreditExists(q database.Execer, paymentID string) (bool, error) {
	for _, e := range f.entries {
		if e.PaymentID != nil && *e.PaymentID == paymentID && e.Type == models.TxnCreditLocked {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerStore) GetByWalletID(walletID string) ([]models.WalletTransaction, error) {
	var out []models.WalletTransaction
	for _, e := range f.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeGateway is a scriptable PaymentGateway
type fakeGateway struct {
	orderID    string
	orderErr   error
	refundID   string
	refundErr  error
	verifyOK   bool
	refunded   []string
	lastAmount int64
}

func (f *fakeGateway) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (string, error) {
	f.lastAmount = amountPaise
	if f.orderErr != nil {
		return "", f.orderErr
	}
	if f.orderID == "" {
		return "order_test", nil
	}
	return f.orderID, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return f.verifyOK
}

func (f *fakeGateway) Refund(paymentID string, amountPaise int64, notes map[string]string) (string, error) {
	f.lastAmount = amountPaise
	if f.refundErr != nil {
		return "", f.refundErr
	}
	f.refunded = append(f.refunded, paymentID)
	if f.refundID == "" {
		return "rfnd_test", nil
	}
	return f.refundID, nil
}

// fakeNotifier records emitted events
type fakeNotifier struct {
	events []NotificationEvent
}

func (f *fakeNotifier) Send(event NotificationEvent) {
	f.events = append(f.events, event)
}

func (f *fakeNotifier) kinds() []string {
	var out []string
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

// fakeReviewStore keeps reviews in memory
type fakeReviewStore struct {
	reviews   []*models.Review
	createErr error
	nextID    int
}

func (f *fakeReviewStore) Create(review *models.Review) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	review.ID = fmt.Sprintf("review-%d", f.nextID)
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeReviewStore) ExistsForBooking(bookingID string) (bool, error) {
	for _, r := range f.reviews {
		if r.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviewStore) GetByBookingID(bookingID string) (*models.Review, error) {
	for _, r := range f.reviews {
		if r.BookingID == bookingID {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReviewStore) GetByDriverID(driverID string) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.DriverID == driverID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) GetByRideID(rideID string) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.RideID == rideID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) RatingSummary(driverID string) (float64, int, error) {
	sum, count := 0, 0
	for _, r := range f.reviews {
		if r.DriverID == driverID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (f *fakeReviewStore) RatingDistribution(driverID string) (map[int]int, error) {
	dist := map[int]int{}
	for _, r := range f.reviews {
		if r.DriverID == driverID {
			dist[r.Rating]++
		}
	}
	return dist, nil
}
