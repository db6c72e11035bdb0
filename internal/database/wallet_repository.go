package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// Execer is the subset of DB satisfied by both the pool and an open
// transaction. Wallet mutations run against a transaction so the balance
// guard and the ledger insert commit together.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// Errors returned by guarded balance updates
var (
	ErrLockedBalanceShort    = fmt.Errorf("locked balance is less than the requested amount")
	ErrAvailableBalanceShort = fmt.Errorf("available balance is less than the requested amount")
)

// WalletRepository handles database operations for the wallets table
type WalletRepository struct {
	db DB
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetByDriverID retrieves a driver's wallet
func (r *WalletRepository) GetByDriverID(driverID string) (*models.Wallet, error) {
	return r.getByDriverID(r.db, driverID)
}

// GetOrCreate retrieves a driver's wallet, creating an empty one on first
// use. Runs against the caller's transaction.
func (r *WalletRepository) GetOrCreate(q Execer, driverID string) (*models.Wallet, error) {
	wallet, err := r.getByDriverID(q, driverID)
	if err == nil {
		return wallet, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	query := `
		INSERT INTO wallets (id, driver_id, locked_balance, available_balance, total_earnings)
		VALUES ($1, $2, 0, 0, 0)
		ON CONFLICT (driver_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, driver_id, locked_balance, available_balance, total_earnings, created_at, updated_at
	`

	return r.scanWallet(q.QueryRow(query, uuid.New().String(), driverID))
}

// CreditLocked adds a payment amount to the locked balance and lifetime
// earnings, returning the locked balance after the credit.
func (r *WalletRepository) CreditLocked(q Execer, walletID string, amount float64) (float64, error) {
	query := `
		UPDATE wallets
		SET locked_balance = locked_balance + $2,
			total_earnings = total_earnings + $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING locked_balance
	`

	var lockedAfter float64
	if err := q.QueryRow(query, walletID, amount).Scan(&lockedAfter); err != nil {
		return 0, err
	}
	return lockedAfter, nil
}

// MoveLockedToAvailable shifts funds from the locked to the available
// balance, returning the available balance after the move. Fails with
// ErrLockedBalanceShort when the locked balance cannot cover the amount.
func (r *WalletRepository) MoveLockedToAvailable(q Execer, walletID string, amount float64) (float64, error) {
	query := `
		UPDATE wallets
		SET locked_balance = locked_balance - $2,
			available_balance = available_balance + $2,
			updated_at = NOW()
		WHERE id = $1
		  AND locked_balance >= $2
		RETURNING available_balance
	`

	var availableAfter float64
	err := q.QueryRow(query, walletID, amount).Scan(&availableAfter)
	if err == sql.ErrNoRows {
		return 0, ErrLockedBalanceShort
	}
	if err != nil {
		return 0, err
	}
	return availableAfter, nil
}

// DebitAvailable removes funds from the available balance, returning the
// available balance after the debit. Fails with ErrAvailableBalanceShort
// when the balance cannot cover the amount.
func (r *WalletRepository) DebitAvailable(q Execer, walletID string, amount float64) (float64, error) {
	query := `
		UPDATE wallets
		SET available_balance = available_balance - $2,
			updated_at = NOW()
		WHERE id = $1
		  AND available_balance >= $2
		RETURNING available_balance
	`

	var availableAfter float64
	err := q.QueryRow(query, walletID, amount).Scan(&availableAfter)
	if err == sql.ErrNoRows {
		return 0, ErrAvailableBalanceShort
	}
	if err != nil {
		return 0, err
	}
	return availableAfter, nil
}

func (r *WalletRepository) getByDriverID(q Execer, driverID string) (*models.Wallet, error) {
	query := `
		SELECT id, driver_id, locked_balance, available_balance, total_earnings, created_at, updated_at
		FROM wallets
		WHERE driver_id = $1
	`

	return r.scanWallet(q.QueryRow(query, driverID))
}

func (r *WalletRepository) scanWallet(row scanner) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	var updatedAt sql.NullTime

	err := row.Scan(
		&wallet.ID, &wallet.DriverID,
		&wallet.LockedBalance, &wallet.AvailableBalance, &wallet.TotalEarnings,
		&wallet.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		wallet.UpdatedAt = &updatedAt.Time
	}

	return wallet, nil
}
