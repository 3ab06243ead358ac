package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementDirection distinguishes money-in from money-out events.
type MovementDirection string

const (
	MovementIn  MovementDirection = "IN"
	MovementOut MovementDirection = "OUT"
)

// CashBox is a physical or logical till. AccountID links it to the ledger
// account that takes the cash leg of its movements.
type CashBox struct {
	CashBoxID string  `json:"cashBoxID"`
	TenantID  string  `json:"tenantID"`
	Name      string  `json:"name"`
	AccountID *string `json:"accountID,omitempty"`
	AuditFields
}

// CashSessionStatus is the state of a cash session.
type CashSessionStatus string

const (
	SessionOpen   CashSessionStatus = "OPEN"
	SessionClosed CashSessionStatus = "CLOSED"
)

// CashSession is one open-to-close cycle of a cash box for one user.
// Cash movements may only be recorded against an OPEN session.
type CashSession struct {
	SessionID     string            `json:"sessionID"`
	TenantID      string            `json:"tenantID"`
	CashBoxID     string            `json:"cashBoxID"`
	UserID        string            `json:"userID"`
	OpeningAmount decimal.Decimal   `json:"openingAmount"`
	ClosingAmount *decimal.Decimal  `json:"closingAmount,omitempty"`
	Status        CashSessionStatus `json:"status"`
	OpenedAt      time.Time         `json:"openedAt"`
	ClosedAt      *time.Time        `json:"closedAt,omitempty"`
}

// CashMovement is a money-in/money-out event on a cash session.
// Invariant: at most one non-deleted journal entry per movement; EntryID
// points at the current one.
type CashMovement struct {
	MovementID    string            `json:"movementID"`
	TenantID      string            `json:"tenantID"`
	SessionID     string            `json:"sessionID"`
	PersonID      *string           `json:"personID,omitempty"`
	Direction     MovementDirection `json:"direction"`
	Amount        decimal.Decimal   `json:"amount"`
	Concept       string            `json:"concept"`
	MovementDate  time.Time         `json:"movementDate"`
	TransactionID *string           `json:"transactionID,omitempty"` // parent transaction, when allocated
	EntryID       *string           `json:"entryID,omitempty"`
	AuditFields
}
