package dto

import (
	"time"

	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AllocationRequest applies part of a transaction to one document.
type AllocationRequest struct {
	DocumentID string          `json:"documentID" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required,dpos"`
}

// CreateTransactionRequest records a payment/receipt and fans it out across
// documents. The allocation amounts must match Amount within 0.01.
type CreateTransactionRequest struct {
	Type            domain.TransactionType `json:"type" binding:"required,oneof=RECEIPT PAYMENT"`
	Method          domain.PaymentMethod   `json:"method" binding:"required,oneof=CASH TRANSFER"`
	Amount          decimal.Decimal        `json:"amount" binding:"required,dpos"`
	Concept         string                 `json:"concept" binding:"required"`
	TransactionDate time.Time              `json:"transactionDate" binding:"required"`
	PersonID        *string                `json:"personID,omitempty"`
	BankAccountID   *string                `json:"bankAccountID,omitempty"`
	Allocations     []AllocationRequest    `json:"allocations" binding:"required,dive"`
}

// UpdateTransactionRequest re-allocates an existing transaction.
type UpdateTransactionRequest struct {
	Amount          decimal.Decimal     `json:"amount" binding:"required,dpos"`
	Concept         string              `json:"concept" binding:"required"`
	TransactionDate time.Time           `json:"transactionDate" binding:"required"`
	Allocations     []AllocationRequest `json:"allocations" binding:"required,dive"`
}

// TransactionResponse mirrors a persisted transaction.
type TransactionResponse struct {
	TransactionID   string                 `json:"transactionID"`
	Type            domain.TransactionType `json:"type"`
	Method          domain.PaymentMethod   `json:"method"`
	Amount          decimal.Decimal        `json:"amount"`
	Concept         string                 `json:"concept"`
	TransactionDate time.Time              `json:"transactionDate"`
	CashMovementID  *string                `json:"cashMovementID,omitempty"`
	BankMovementID  *string                `json:"bankMovementID,omitempty"`
}

// ToTransactionResponse converts a domain transaction.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		Type:            t.Type,
		Method:          t.Method,
		Amount:          t.Amount,
		Concept:         t.Concept,
		TransactionDate: t.TransactionDate,
		CashMovementID:  t.CashMovementID,
		BankMovementID:  t.BankMovementID,
	}
}
