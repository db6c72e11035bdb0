package models

import (
	"errors"
	"time"
)

// Wallet represents a driver's escrow wallet
type Wallet struct {
	ID               string     `json:"id" db:"id"`
	DriverID         string     `json:"driver_id" db:"driver_id"`
	LockedBalance    float64    `json:"locked_balance" db:"locked_balance"`
	AvailableBalance float64    `json:"available_balance" db:"available_balance"`
	TotalEarnings    float64    `json:"total_earnings" db:"total_earnings"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// WalletTransactionType classifies entries in the wallet ledger
type WalletTransactionType string

const (
	TxnCreditLocked      WalletTransactionType = "CREDIT_LOCKED"
	TxnUnlockToAvailable WalletTransactionType = "UNLOCK_TO_AVAILABLE"
	TxnWithdrawal        WalletTransactionType = "WITHDRAWAL"
	TxnRefund            WalletTransactionType = "REFUND"
	TxnRelease           WalletTransactionType = "RELEASE"
)

// WalletTransaction is an append-only ledger entry for a wallet.
// BalanceAfter records the relevant balance after the entry was applied:
// the locked balance for credits, the available balance otherwise.
type WalletTransaction struct {
	ID           string                `json:"id" db:"id"`
	WalletID     string                `json:"wallet_id" db:"wallet_id"`
	BookingID    *string               `json:"booking_id,omitempty" db:"booking_id"`
	PaymentID    *string               `json:"payment_id,omitempty" db:"payment_id"`
	Type         WalletTransactionType `json:"type" db:"type"`
	Amount       float64               `json:"amount" db:"amount"`
	BalanceAfter float64               `json:"balance_after" db:"balance_after"`
	Description  string                `json:"description" db:"description"`
	CreatedAt    time.Time             `json:"created_at" db:"created_at"`
}

// WithdrawRequest represents a driver withdrawal of available funds
type WithdrawRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	BankAccount   string  `json:"bank_account" binding:"required"`
	AccountHolder string  `json:"account_holder" binding:"required"`
}

// Validate validates the withdraw request
func (r *WithdrawRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if len(r.BankAccount) < 4 {
		return errors.New("bank_account is too short")
	}
	return nil
}
