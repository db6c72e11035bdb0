package services

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ridehub/ridehub-backend/internal/database"
	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/sirupsen/logrus"
)

// WalletService manages driver escrow wallets. Confirmed payments land in
// the locked balance; trip completion moves them to the available balance.
// Every balance change runs in a transaction together with its ledger entry.
type WalletService struct {
	db       database.DB
	wallets  WalletStore
	ledger   LedgerStore
	payments PaymentStore
	clock    clock.Clock
	logger   *logrus.Logger
}

// NewWalletService creates a new WalletService
func NewWalletService(
	db database.DB,
	wallets WalletStore,
	ledger LedgerStore,
	payments PaymentStore,
	clk clock.Clock,
	logger *logrus.Logger,
) *WalletService {
	return &WalletService{
		db:       db,
		wallets:  wallets,
		ledger:   ledger,
		payments: payments,
		clock:    clk,
		logger:   logger,
	}
}

// GetWallet retrieves a driver's wallet
func (s *WalletService) GetWallet(driverID string) (*models.Wallet, error) {
	wallet, err := s.wallets.GetByDriverID(driverID)
	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	return wallet, nil
}

// GetTransactions retrieves a driver's wallet ledger, newest first
func (s *WalletService) GetTransactions(driverID string) ([]models.WalletTransaction, error) {
	wallet, err := s.GetWallet(driverID)
	if err != nil {
		return nil, err
	}
	return s.ledger.GetByWalletID(wallet.ID)
}

// CreditLocked locks a verified payment amount in the driver's escrow. The
// wallet is created lazily on a driver's first earning. Idempotent per
// payment: a credit that already landed in the ledger is a no-op, so
// payment verification can retry after a partial failure.
func (s *WalletService) CreditLocked(driverID string, amount float64, paymentID, bookingID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	return s.inTx(func(tx *sqlx.Tx) error {
		credited, err := s.ledger.CreditExists(tx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to check ledger: %w", err)
		}
		if credited {
			s.logger.WithField("payment_id", paymentID).Debug("Escrow already credited, skipping")
			return nil
		}

		wallet, err := s.wallets.GetOrCreate(tx, driverID)
		if err != nil {
			return fmt.Errorf("failed to load wallet: %w", err)
		}

		lockedAfter, err := s.wallets.CreditLocked(tx, wallet.ID, amount)
		if err != nil {
			return fmt.Errorf("failed to credit locked balance: %w", err)
		}

		txn := &models.WalletTransaction{
			WalletID:     wallet.ID,
			BookingID:    &bookingID,
			PaymentID:    &paymentID,
			Type:         models.TxnCreditLocked,
			Amount:       amount,
			BalanceAfter: lockedAfter,
			Description:  fmt.Sprintf("Payment received for booking %s - Amount locked until ride completion", bookingID),
			CreatedAt:    s.clock.Now(),
		}
		if err := s.ledger.Insert(tx, txn); err != nil {
			return fmt.Errorf("failed to record ledger entry: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"driver_id":  driverID,
			"booking_id": bookingID,
			"amount":     amount,
		}).Info("Funds locked in escrow")

		return nil
	})
}

// UnlockFunds moves a completed booking's funds from locked to available.
// Idempotent per booking: if the escrow was already settled by either the
// unlock or the release path, this is a no-op.
func (s *WalletService) UnlockFunds(booking *models.Booking, driverID string) error {
	amount := booking.ChargeableAmount()
	description := fmt.Sprintf("Funds unlocked for completed booking %s", booking.ID)
	return s.settle(booking.ID, driverID, amount, nil, models.TxnUnlockToAvailable, description)
}

// ReleaseFunds moves a booking's funds from locked to available using the
// settled payment amount. Used by the fund-release safety net. Idempotent
// with the same settlement key as UnlockFunds.
func (s *WalletService) ReleaseFunds(booking *models.Booking, driverID string) error {
	payment, err := s.payments.GetCompletedByBookingID(booking.ID)
	if err == sql.ErrNoRows {
		return ErrPaymentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load payment: %w", err)
	}

	description := fmt.Sprintf("Funds released for booking %s after ride completion", booking.ID)
	return s.settle(booking.ID, driverID, payment.Amount, &payment.ID, models.TxnRelease, description)
}

// Withdraw debits available funds for transfer to the driver's bank
// account. Only the intent is recorded; actual disbursement is external.
func (s *WalletService) Withdraw(driverID string, amount float64, bankAccount, accountHolder string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	return s.inTx(func(tx *sqlx.Tx) error {
		wallet, err := s.wallets.GetOrCreate(tx, driverID)
		if err != nil {
			return fmt.Errorf("failed to load wallet: %w", err)
		}

		availableAfter, err := s.wallets.DebitAvailable(tx, wallet.ID, amount)
		if err == database.ErrAvailableBalanceShort {
			return ErrInsufficientAvailableBalance
		}
		if err != nil {
			return fmt.Errorf("failed to debit available balance: %w", err)
		}

		last4 := bankAccount
		if len(last4) > 4 {
			last4 = last4[len(last4)-4:]
		}

		txn := &models.WalletTransaction{
			WalletID:     wallet.ID,
			Type:         models.TxnWithdrawal,
			Amount:       amount,
			BalanceAfter: availableAfter,
			Description:  fmt.Sprintf("Withdrawal to %s (****%s)", accountHolder, last4),
			CreatedAt:    s.clock.Now(),
		}
		if err := s.ledger.Insert(tx, txn); err != nil {
			return fmt.Errorf("failed to record ledger entry: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"driver_id": driverID,
			"amount":    amount,
		}).Info("Withdrawal recorded")

		return nil
	})
}

// settle performs the locked-to-available move shared by the unlock and
// release paths, guarded by the per-booking settlement check.
func (s *WalletService) settle(bookingID, driverID string, amount float64, paymentID *string, txnType models.WalletTransactionType, description string) error {
	return s.inTx(func(tx *sqlx.Tx) error {
		settled, err := s.ledger.SettlementExists(tx, bookingID)
		if err != nil {
			return fmt.Errorf("failed to check settlement: %w", err)
		}
		if settled {
			s.logger.WithField("booking_id", bookingID).Debug("Escrow already settled, skipping")
			return nil
		}

		wallet, err := s.wallets.GetOrCreate(tx, driverID)
		if err != nil {
			return fmt.Errorf("failed to load wallet: %w", err)
		}

		availableAfter, err := s.wallets.MoveLockedToAvailable(tx, wallet.ID, amount)
		if err == database.ErrLockedBalanceShort {
			return ErrInsufficientLockedBalance
		}
		if err != nil {
			return fmt.Errorf("failed to unlock funds: %w", err)
		}

		txn := &models.WalletTransaction{
			WalletID:     wallet.ID,
			BookingID:    &bookingID,
			PaymentID:    paymentID,
			Type:         txnType,
			Amount:       amount,
			BalanceAfter: availableAfter,
			Description:  description,
			CreatedAt:    s.clock.Now(),
		}
		if err := s.ledger.Insert(tx, txn); err != nil {
			return fmt.Errorf("failed to record ledger entry: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"driver_id":  driverID,
			"booking_id": bookingID,
			"amount":     amount,
			"type":       txnType,
		}).Info("Escrow settled to available balance")

		return nil
	})
}

// inTx runs fn inside a database transaction
func (s *WalletService) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.WithError(rbErr).Error("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
