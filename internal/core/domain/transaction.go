package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod selects which movement a transaction produces.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodTransfer PaymentMethod = "TRANSFER"
)

// TransactionType distinguishes money received from money paid out.
type TransactionType string

const (
	Receipt TransactionType = "RECEIPT"
	Payment TransactionType = "PAYMENT"
)

// Direction maps the transaction type onto a movement direction.
func (t TransactionType) Direction() MovementDirection {
	if t == Receipt {
		return MovementIn
	}
	return MovementOut
}

// Transaction is a payment or receipt allocated across one or more open
// documents. Exactly one cash or bank movement is created per transaction.
// Invariant: the allocated amounts sum to Amount within the 0.01 tolerance.
type Transaction struct {
	TransactionID   string          `json:"transactionID"`
	TenantID        string          `json:"tenantID"`
	UserID          string          `json:"userID"`
	Type            TransactionType `json:"type"`
	Method          PaymentMethod   `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	Concept         string          `json:"concept"`
	TransactionDate time.Time       `json:"transactionDate"`
	PersonID        *string         `json:"personID,omitempty"`
	BankAccountID   *string         `json:"bankAccountID,omitempty"` // required for TRANSFER
	CashMovementID  *string         `json:"cashMovementID,omitempty"`
	BankMovementID  *string         `json:"bankMovementID,omitempty"`
	AuditFields
}

// TransactionDocument links a transaction to a document it pays down.
type TransactionDocument struct {
	TransactionID string          `json:"transactionID"`
	DocumentID    string          `json:"documentID"`
	Amount        decimal.Decimal `json:"amount"`
}

// AllocationTolerance is the absolute tolerance used when matching allocated
// amounts against the transaction amount. It absorbs rounding, nothing more;
// ledger balance checks stay exact.
var AllocationTolerance = decimal.NewFromFloat(0.01)
