package dto

import (
	"time"

	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCashMovementRequest records a money-in/out event on the caller's
// open cash session.
type CreateCashMovementRequest struct {
	Direction    domain.MovementDirection `json:"direction" binding:"required,oneof=IN OUT"`
	Amount       decimal.Decimal          `json:"amount" binding:"required,dpos"`
	Concept      string                   `json:"concept" binding:"required"`
	MovementDate time.Time                `json:"movementDate" binding:"required"`
	PersonID     *string                  `json:"personID,omitempty"`
}

// UpdateCashMovementRequest edits an existing cash movement. The movement's
// journal entry is replaced, never duplicated.
type UpdateCashMovementRequest struct {
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Concept      *string          `json:"concept,omitempty"`
	MovementDate *time.Time       `json:"movementDate,omitempty"`
}

// BankMovementDetailRequest is one counterpart split of a bank movement.
type BankMovementDetailRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required,dpos"`
	PersonID    *string         `json:"personID,omitempty"`
	Description string          `json:"description"`
}

// CreateBankMovementRequest records a bank money-in/out event.
type CreateBankMovementRequest struct {
	BankAccountID string                      `json:"bankAccountID" binding:"required"`
	Direction     domain.MovementDirection    `json:"direction" binding:"required,oneof=IN OUT"`
	Amount        decimal.Decimal             `json:"amount" binding:"required,dpos"`
	Concept       string                      `json:"concept" binding:"required"`
	MovementDate  time.Time                   `json:"movementDate" binding:"required"`
	Details       []BankMovementDetailRequest `json:"details" binding:"required,dive"`
}

// UpdateBankMovementRequest edits an existing bank movement; details are
// replaced wholesale.
type UpdateBankMovementRequest struct {
	Amount       *decimal.Decimal            `json:"amount,omitempty"`
	Concept      *string                     `json:"concept,omitempty"`
	MovementDate *time.Time                  `json:"movementDate,omitempty"`
	Details      []BankMovementDetailRequest `json:"details,omitempty"`
}

// OpenCashSessionRequest opens a cash session on a cash box.
type OpenCashSessionRequest struct {
	CashBoxID     string          `json:"cashBoxID" binding:"required"`
	OpeningAmount decimal.Decimal `json:"openingAmount" binding:"dgte0"`
}

// CloseCashSessionRequest closes the caller's open session with the counted
// amount.
type CloseCashSessionRequest struct {
	ClosingAmount decimal.Decimal `json:"closingAmount" binding:"dgte0"`
}
