package dto

import (
	"time"

	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DocumentItemRequest is one line of a document create/update request.
type DocumentItemRequest struct {
	Description      string          `json:"description" binding:"required"`
	Quantity         decimal.Decimal `json:"quantity" binding:"required,dpos"`
	UnitPrice        decimal.Decimal `json:"unitPrice" binding:"required,dpos"`
	Discount         decimal.Decimal `json:"discount" binding:"dgte0"`
	TaxRate          decimal.Decimal `json:"taxRate" binding:"dgte0"`
	RevenueAccountID string          `json:"revenueAccountID" binding:"required"`
}

// DocumentPaymentRequest is one payment term of a document.
type DocumentPaymentRequest struct {
	Method  domain.PaymentMethod `json:"method" binding:"required,oneof=CASH TRANSFER"`
	Amount  decimal.Decimal      `json:"amount" binding:"required,dpos"`
	DueDays int                  `json:"dueDays"`
}

// CreateDocumentRequest creates a document with its children. Totals are
// recomputed server-side from the items, never trusted from the client.
type CreateDocumentRequest struct {
	Kind          domain.DocumentKind      `json:"kind" binding:"required"`
	PersonID      string                   `json:"personID" binding:"required"`
	IssueDate     time.Time                `json:"issueDate" binding:"required"`
	Establishment string                   `json:"establishment"`
	EmissionPoint string                   `json:"emissionPoint"`
	Items         []DocumentItemRequest    `json:"items" binding:"required,dive"`
	Payments      []DocumentPaymentRequest `json:"payments,omitempty" binding:"omitempty,dive"`
}

// UpdateDocumentRequest replaces a document's children and recomputes totals.
type UpdateDocumentRequest struct {
	IssueDate *time.Time               `json:"issueDate,omitempty"`
	PersonID  *string                  `json:"personID,omitempty"`
	Items     []DocumentItemRequest    `json:"items" binding:"required,dive"`
	Payments  []DocumentPaymentRequest `json:"payments,omitempty" binding:"omitempty,dive"`
}

// DocumentResponse mirrors a document with its fiscal state.
type DocumentResponse struct {
	DocumentID  string                `json:"documentID"`
	Kind        domain.DocumentKind   `json:"kind"`
	PersonID    string                `json:"personID"`
	IssueDate   time.Time             `json:"issueDate"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
	TaxTotal    decimal.Decimal       `json:"taxTotal"`
	Discount    decimal.Decimal       `json:"discount"`
	Total       decimal.Decimal       `json:"total"`
	PaidAmount  decimal.Decimal       `json:"paidAmount"`
	Balance     decimal.Decimal       `json:"balance"`
	Status      domain.DocumentStatus `json:"status"`
	LegalNumber *string               `json:"legalNumber,omitempty"`
	SRIStatus   *domain.SRIStatus     `json:"sriStatus,omitempty"`
}

// ToDocumentResponse converts a domain document.
func ToDocumentResponse(d *domain.Document) DocumentResponse {
	resp := DocumentResponse{
		DocumentID: d.DocumentID,
		Kind:       d.Kind,
		PersonID:   d.PersonID,
		IssueDate:  d.IssueDate,
		Subtotal:   d.Subtotal,
		TaxTotal:   d.TaxTotal,
		Discount:   d.Discount,
		Total:      d.Total,
		PaidAmount: d.PaidAmount,
		Balance:    d.Balance,
		Status:     d.Status,
	}
	if d.FiscalInfo != nil {
		number := d.FiscalInfo.LegalNumber()
		status := d.FiscalInfo.SRIStatus
		resp.LegalNumber = &number
		resp.SRIStatus = &status
	}
	return resp
}
