package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind is the business kind of a document.
type DocumentKind string

const (
	KindInvoice         DocumentKind = "INVOICE"
	KindCreditNote      DocumentKind = "CREDIT_NOTE"
	KindPurchaseInvoice DocumentKind = "PURCHASE_INVOICE"
	KindWithholding     DocumentKind = "WITHHOLDING"
)

// Revenue reports whether documents of this kind are revenue documents that
// go through the fiscal authorization lifecycle.
func (k DocumentKind) Revenue() bool {
	return k == KindInvoice || k == KindCreditNote
}

// DocumentStatus is the business state of a document, independent of the
// fiscal lifecycle: CONFIRMED is only set once the authority authorizes.
type DocumentStatus string

const (
	DocumentDraft     DocumentStatus = "DRAFT"
	DocumentConfirmed DocumentStatus = "CONFIRMED"
	DocumentCancelled DocumentStatus = "CANCELLED"
)

// Document is a business document: invoice, credit note, withholding, etc.
// Invariant: Balance == Total - PaidAmount, recomputed on every write and
// clamped at zero, never drifted incrementally.
type Document struct {
	DocumentID string          `json:"documentID"`
	TenantID   string          `json:"tenantID"`
	Kind       DocumentKind    `json:"kind"`
	PersonID   string          `json:"personID"`
	IssueDate  time.Time       `json:"issueDate"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxTotal   decimal.Decimal `json:"taxTotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	Balance    decimal.Decimal `json:"balance"`
	Status     DocumentStatus  `json:"status"`
	Items      []DocumentItem    `json:"items,omitempty"`
	Payments   []DocumentPayment `json:"payments,omitempty"`
	FiscalInfo *DocumentFiscalInfo `json:"fiscalInfo,omitempty"`
	AuditFields
}

// RecomputeBalance re-derives Balance from Total and PaidAmount.
func (d *Document) RecomputeBalance() {
	balance := d.Total.Sub(d.PaidAmount)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	d.Balance = balance
}

// DocumentItem is one line of a document. Items are replaced wholesale on
// every document edit, never diffed.
type DocumentItem struct {
	ItemID           string          `json:"itemID"`
	DocumentID       string          `json:"documentID"`
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	Discount         decimal.Decimal `json:"discount"`
	TaxRate          decimal.Decimal `json:"taxRate"` // percentage, e.g. 15
	RevenueAccountID string          `json:"revenueAccountID"`
}

// Net returns the item amount before tax: quantity * unitPrice - discount.
func (i DocumentItem) Net() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Sub(i.Discount)
}

// Tax returns the tax amount for the item.
func (i DocumentItem) Tax() decimal.Decimal {
	return i.Net().Mul(i.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
}

// DocumentPayment is one agreed payment term of a document. Replaced
// wholesale on edit, like items.
type DocumentPayment struct {
	PaymentID  string          `json:"paymentID"`
	DocumentID string          `json:"documentID"`
	Method     PaymentMethod   `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	DueDays    int             `json:"dueDays"`
}
