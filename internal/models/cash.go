package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashBox is one row of the cash_boxes table.
type CashBox struct {
	CashBoxID string  `db:"cash_box_id"`
	TenantID  string  `db:"tenant_id"`
	Name      string  `db:"name"`
	AccountID *string `db:"account_id"`
	AuditFields
}

// CashSession is one row of the cash_sessions table.
type CashSession struct {
	SessionID     string           `db:"session_id"`
	TenantID      string           `db:"tenant_id"`
	CashBoxID     string           `db:"cash_box_id"`
	UserID        string           `db:"user_id"`
	OpeningAmount decimal.Decimal  `db:"opening_amount"`
	ClosingAmount *decimal.Decimal `db:"closing_amount"`
	Status        string           `db:"status"`
	OpenedAt      time.Time        `db:"opened_at"`
	ClosedAt      *time.Time       `db:"closed_at"`
}

// CashMovement is one row of the cash_movements table.
type CashMovement struct {
	MovementID    string          `db:"movement_id"`
	TenantID      string          `db:"tenant_id"`
	SessionID     string          `db:"session_id"`
	PersonID      *string         `db:"person_id"`
	Direction     string          `db:"direction"`
	Amount        decimal.Decimal `db:"amount"`
	Concept       string          `db:"concept"`
	MovementDate  time.Time       `db:"movement_date"`
	TransactionID *string         `db:"transaction_id"`
	EntryID       *string         `db:"entry_id"`
	AuditFields
}
