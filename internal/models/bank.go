package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount is one row of the bank_accounts table.
type BankAccount struct {
	BankAccountID string  `db:"bank_account_id"`
	TenantID      string  `db:"tenant_id"`
	BankName      string  `db:"bank_name"`
	Number        string  `db:"number"`
	AccountID     *string `db:"account_id"`
	AuditFields
}

// BankMovement is one row of the bank_movements table.
type BankMovement struct {
	MovementID    string          `db:"movement_id"`
	TenantID      string          `db:"tenant_id"`
	BankAccountID string          `db:"bank_account_id"`
	Direction     string          `db:"direction"`
	Amount        decimal.Decimal `db:"amount"`
	Concept       string          `db:"concept"`
	MovementDate  time.Time       `db:"movement_date"`
	TransactionID *string         `db:"transaction_id"`
	EntryID       *string         `db:"entry_id"`
	AuditFields
}

// BankMovementDetail is one row of the bank_movement_details table.
type BankMovementDetail struct {
	DetailID    string          `db:"detail_id"`
	MovementID  string          `db:"movement_id"`
	AccountID   string          `db:"account_id"`
	Amount      decimal.Decimal `db:"amount"`
	PersonID    *string         `db:"person_id"`
	Description string          `db:"description"`
}
