package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of the transactions table.
type Transaction struct {
	TransactionID   string          `db:"transaction_id"`
	TenantID        string          `db:"tenant_id"`
	UserID          string          `db:"user_id"`
	Type            string          `db:"type"`
	Method          string          `db:"method"`
	Amount          decimal.Decimal `db:"amount"`
	Concept         string          `db:"concept"`
	TransactionDate time.Time       `db:"transaction_date"`
	PersonID        *string         `db:"person_id"`
	BankAccountID   *string         `db:"bank_account_id"`
	CashMovementID  *string         `db:"cash_movement_id"`
	BankMovementID  *string         `db:"bank_movement_id"`
	AuditFields
}

// TransactionDocument is one row of the transaction_documents table.
type TransactionDocument struct {
	TransactionID string          `db:"transaction_id"`
	DocumentID    string          `db:"document_id"`
	Amount        decimal.Decimal `db:"amount"`
}
