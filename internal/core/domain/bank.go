package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount is a tenant's bank account. AccountID links it to the ledger
// account that takes the bank leg of its movements.
type BankAccount struct {
	BankAccountID string  `json:"bankAccountID"`
	TenantID      string  `json:"tenantID"`
	BankName      string  `json:"bankName"`
	Number        string  `json:"number"`
	AccountID     *string `json:"accountID,omitempty"`
	AuditFields
}

// BankMovement is a money-in/money-out event on a bank account.
// A movement may be split into several details, each becoming its own
// counterpart line in the posted entry. Invariant: the details sum to Amount.
type BankMovement struct {
	MovementID    string               `json:"movementID"`
	TenantID      string               `json:"tenantID"`
	BankAccountID string               `json:"bankAccountID"`
	Direction     MovementDirection    `json:"direction"`
	Amount        decimal.Decimal      `json:"amount"`
	Concept       string               `json:"concept"`
	MovementDate  time.Time            `json:"movementDate"`
	TransactionID *string              `json:"transactionID,omitempty"`
	EntryID       *string              `json:"entryID,omitempty"`
	Details       []BankMovementDetail `json:"details,omitempty"`
	AuditFields
}

// BankMovementDetail is one counterpart split of a bank movement.
type BankMovementDetail struct {
	DetailID    string          `json:"detailID"`
	MovementID  string          `json:"movementID"`
	AccountID   string          `json:"accountID"`
	Amount      decimal.Decimal `json:"amount"`
	PersonID    *string         `json:"personID,omitempty"`
	Description string          `json:"description"`
}

// DetailTotal returns the sum of detail amounts.
func (m BankMovement) DetailTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range m.Details {
		total = total.Add(d.Amount)
	}
	return total
}
