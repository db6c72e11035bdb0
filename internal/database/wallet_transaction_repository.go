package database

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// WalletTransactionRepository handles the append-only wallet ledger
type WalletTransactionRepository struct {
	db DB
}

// NewWalletTransactionRepository creates a new WalletTransactionRepository
func NewWalletTransactionRepository(db DB) *WalletTransactionRepository {
	return &WalletTransactionRepository{db: db}
}

// Insert appends a ledger entry. Runs against the caller's transaction so
// the entry commits with the balance change it records.
func (r *WalletTransactionRepository) Insert(q Execer, txn *models.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (
			id, wallet_id, booking_id, payment_id,
			type, amount, balance_after, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}

	_, err := q.Exec(
		query,
		txn.ID, txn.WalletID, txn.BookingID, txn.PaymentID,
		txn.Type, txn.Amount, txn.BalanceAfter, txn.Description, txn.CreatedAt,
	)
	return err
}

// CreditExists reports whether a payment's escrow credit has already
// landed in the ledger. This is the idempotence key for payment
// verification retries.
func (r *WalletTransactionRepository) CreditExists(q Execer, paymentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM wallet_transactions
			WHERE payment_id = $1
			  AND type = 'CREDIT_LOCKED'
		)
	`

	var exists bool
	if err := q.QueryRow(query, paymentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// SettlementExists reports whether the booking's escrow has already been
// settled, by unlock or by release. This is the idempotence key for the
// double completion paths.
func (r *WalletTransactionRepository) SettlementExists(q Execer, bookingID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM wallet_transactions
			WHERE booking_id = $1
			  AND type IN ('UNLOCK_TO_AVAILABLE', 'RELEASE')
		)
	`

	var exists bool
	if err := q.QueryRow(query, bookingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetByWalletID retrieves the ledger for a wallet, newest first
func (r *WalletTransactionRepository) GetByWalletID(walletID string) ([]models.WalletTransaction, error) {
	query := `
		SELECT id, wallet_id, booking_id, payment_id,
			   type, amount, balance_after, description, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []models.WalletTransaction{}
	for rows.Next() {
		var txn models.WalletTransaction
		var bookingID sql.NullString
		var paymentID sql.NullString

		err := rows.Scan(
			&txn.ID, &txn.WalletID, &bookingID, &paymentID,
			&txn.Type, &txn.Amount, &txn.BalanceAfter, &txn.Description, &txn.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if bookingID.Valid {
			txn.BookingID = &bookingID.String
		}
		if paymentID.Valid {
			txn.PaymentID = &paymentID.String
		}

		txns = append(txns, txn)
	}

	return txns, rows.Err()
}
